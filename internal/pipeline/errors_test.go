package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"input", NewInputError(MsgNoFiles), MsgNoFiles},
		{"wrapped input", fmt.Errorf("pipeline step 1 failed: %w", NewInputError("bad file")), "bad file"},
		{"transient", transientError(errors.New("429")), MsgRateLimited},
		{"malformed", malformedError("no list", nil), MsgAnalyzeFail},
		{"gateway", gatewayError(errors.New("connection reset")), MsgAnalyzeFail},
		{"plain error", errors.New("boom"), MsgUnknownError},
		{"unknown kind without message", &AnalysisError{Kind: KindUnknown}, MsgUnknownError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestAnalysisError_Unwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := fmt.Errorf("wrapped: %w", gatewayError(cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindUnknown, KindOf(err))
	assert.Contains(t, err.Error(), "socket closed")
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("x")))
}
