package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dvloznov/statement-insights/internal/api/middleware"
	"github.com/dvloznov/statement-insights/internal/domain"
	"github.com/dvloznov/statement-insights/internal/export"
	"github.com/dvloznov/statement-insights/internal/logger"
	"github.com/dvloznov/statement-insights/internal/pipeline"
	"github.com/dvloznov/statement-insights/internal/session"
)

// handleGetSession handles GET /api/session
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, s.sessionFor(w, r).State())
}

// handleAnalyzeAPI handles POST /api/analyze
// Analysis runs in the background; poll GET /api/session until busy is false.
func (s *Server) handleAnalyzeAPI(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	docs, err := s.readUploads(w, r)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Warn().Err(err).Msg("Failed to read uploads")
		status := http.StatusBadRequest
		if errors.Is(err, errUploadTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		middleware.WriteError(w, status, s.uploadError(err).Message)
		return
	}

	switch err := s.startAnalysis(r.Context(), sess, docs); {
	case errors.Is(err, session.ErrAnalysisInProgress):
		middleware.WriteError(w, http.StatusConflict, "An analysis is already in progress.")
		return
	case pipeline.KindOf(err) == pipeline.KindInput:
		middleware.WriteError(w, http.StatusBadRequest, pipeline.UserMessage(err))
		return
	case err != nil:
		middleware.WriteError(w, http.StatusServiceUnavailable, "The analysis could not be started. Please try again.")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, sess.State())
}

// handlePutFilters handles PUT /api/filters
func (s *Server) handlePutFilters(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	var f domain.FilterState
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	for _, d := range []string{f.DateRange.Start, f.DateRange.End} {
		if d != "" && !validDate(d) {
			middleware.WriteError(w, http.StatusBadRequest, "Dates must use the YYYY-MM-DD format")
			return
		}
	}

	sess.SetFilter(f)
	middleware.WriteJSON(w, http.StatusOK, sess.State())
}

// handleExportAPI handles GET /api/export
func (s *Server) handleExportAPI(w http.ResponseWriter, r *http.Request) {
	st := s.sessionFor(w, r).State()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"csv":   export.CSV(st.FilteredTransactions),
		"count": len(st.FilteredTransactions),
	})
}
