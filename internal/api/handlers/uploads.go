package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dvloznov/statement-insights/internal/domain"
	"github.com/dvloznov/statement-insights/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

// uploadField is the multipart field carrying statement files.
const uploadField = "files"

// multipartMemory is how much of an upload is held in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

var errUploadTooLarge = errors.New("upload too large")

// readUploads reads every file of the "files" field, preserving upload
// order. A request without files yields an empty slice.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]domain.Document, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errUploadTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return []domain.Document{}, nil
		}
		return nil, fmt.Errorf("readUploads: parsing form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadField]
	docs := make([]domain.Document, len(headers))

	var g errgroup.Group
	for i, fh := range headers {
		g.Go(func() error {
			doc, err := readUpload(fh)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func readUpload(fh *multipart.FileHeader) (domain.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.Document{}, readError(fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.Document{}, readError(fh.Filename, err)
	}

	return domain.Document{
		Name:     fh.Filename,
		MIMEType: pipeline.DetectMIMEType(fh.Filename, fh.Header.Get("Content-Type")),
		Data:     data,
	}, nil
}

func readError(name string, err error) error {
	return &pipeline.AnalysisError{
		Kind:    pipeline.KindUnknown,
		Message: fmt.Sprintf("Could not read the file %q.", name),
		Cause:   err,
	}
}

// uploadError classifies a failed upload read for the user.
func (s *Server) uploadError(err error) *pipeline.AnalysisError {
	if errors.Is(err, errUploadTooLarge) {
		return pipeline.NewInputError(fmt.Sprintf("The upload is too large. The limit is %d MB.", s.maxUpload>>20))
	}
	var ae *pipeline.AnalysisError
	if errors.As(err, &ae) {
		return ae
	}
	return &pipeline.AnalysisError{Kind: pipeline.KindUnknown, Message: "Could not read the uploaded files.", Cause: err}
}
