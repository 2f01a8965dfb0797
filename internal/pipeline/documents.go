package pipeline

import (
	"bytes"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// SupportedMIMETypes lists the statement formats accepted for analysis.
var SupportedMIMETypes = []string{
	"application/pdf",
	"image/png",
	"image/jpeg",
	"image/webp",
}

// IsSupportedMIMEType reports whether mimeType can be sent for extraction.
func IsSupportedMIMEType(mimeType string) bool {
	for _, m := range SupportedMIMETypes {
		if m == mimeType {
			return true
		}
	}
	return false
}

// DetectMIMEType picks the media type for an uploaded file. A declared type
// wins when supported; otherwise the file extension decides.
func DetectMIMEType(filename, declared string) string {
	if declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil && IsSupportedMIMEType(mediaType) {
			return mediaType
		}
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	}
	if declared != "" {
		return declared
	}
	return "application/octet-stream"
}

// countPDFPages returns the page count of a PDF. Parsing failures are
// reported as errors so callers can log them; they do not reject the file.
func countPDFPages(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("countPDFPages: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("countPDFPages: open: %w", err)
	}
	return r.NumPage(), nil
}
