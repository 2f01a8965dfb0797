package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies analysis failures for the user-facing message.
type ErrorKind string

const (
	// KindInput means the request was rejected before contacting the extractor.
	KindInput ErrorKind = "INPUT"
	// KindTransient means the extractor is rate limiting; retrying later may work.
	KindTransient ErrorKind = "TRANSIENT_SERVICE"
	// KindMalformedResponse means the extractor answered without a usable transactions list.
	KindMalformedResponse ErrorKind = "MALFORMED_RESPONSE"
	// KindUnknown covers every other failure.
	KindUnknown ErrorKind = "UNKNOWN"
)

// User-facing messages.
const (
	MsgNoFiles      = "Please upload at least one bank statement file."
	MsgRateLimited  = "API rate limit exceeded. Please wait a moment and try again."
	MsgAnalyzeFail  = "Failed to analyze the statement. Please ensure the uploaded file is a clear bank statement."
	MsgUnknownError = "An unknown error occurred during analysis."
)

// AnalysisError is a classified failure from the analysis pipeline.
type AnalysisError struct {
	Kind    ErrorKind
	Message string
	// FromExtractor is set when the failure came back from the extraction
	// gateway; those failures are reported with a generic message.
	FromExtractor bool
	Cause         error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// NewInputError reports a request that must not reach the extractor.
func NewInputError(message string) *AnalysisError {
	return &AnalysisError{Kind: KindInput, Message: message}
}

func transientError(cause error) *AnalysisError {
	return &AnalysisError{Kind: KindTransient, Message: "extractor rate limited", FromExtractor: true, Cause: cause}
}

func malformedError(message string, cause error) *AnalysisError {
	return &AnalysisError{Kind: KindMalformedResponse, Message: message, FromExtractor: true, Cause: cause}
}

func gatewayError(cause error) *AnalysisError {
	return &AnalysisError{Kind: KindUnknown, Message: "extraction request failed", FromExtractor: true, Cause: cause}
}

// KindOf returns the kind of err, or KindUnknown when it is unclassified.
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// UserMessage converts any pipeline error into the single string shown to
// the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *AnalysisError
	if !errors.As(err, &ae) {
		return MsgUnknownError
	}
	switch {
	case ae.Kind == KindInput:
		return ae.Message
	case ae.Kind == KindTransient:
		return MsgRateLimited
	case ae.FromExtractor:
		return MsgAnalyzeFail
	case ae.Message != "":
		return ae.Message
	default:
		return MsgUnknownError
	}
}
