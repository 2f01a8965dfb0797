package handlers

import (
	"bytes"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-insights/internal/domain"
	"github.com/dvloznov/statement-insights/internal/export"
	"github.com/dvloznov/statement-insights/internal/logger"
	"github.com/dvloznov/statement-insights/internal/session"
)

type indexData struct {
	State session.State
}

// handleIndex handles GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", indexData{State: sess.State()}); err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Index template execution failed")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// handleAnalyzeForm handles POST /analyze
func (s *Server) handleAnalyzeForm(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	docs, err := s.readUploads(w, r)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Warn().Err(err).Msg("Failed to read uploads")
		_ = sess.Reject(s.uploadError(err))
		redirectHome(w, r)
		return
	}

	// A busy session keeps running its current analysis; the page shows it.
	_ = s.startAnalysis(r.Context(), sess, docs)
	redirectHome(w, r)
}

// handleFiltersForm handles POST /filters
func (s *Server) handleFiltersForm(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	sess.SetFilter(domain.FilterState{
		SelectedCategory: r.PostForm.Get("category"),
		DateRange: domain.DateRange{
			Start: dateOrEmpty(r.PostForm.Get("start")),
			End:   dateOrEmpty(r.PostForm.Get("end")),
		},
	})
	redirectHome(w, r)
}

// handleResetFiltersForm handles POST /filters/reset
func (s *Server) handleResetFiltersForm(w http.ResponseWriter, r *http.Request) {
	s.sessionFor(w, r).ResetFilters()
	redirectHome(w, r)
}

// handleExportCSV handles GET /export.csv
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	st := s.sessionFor(w, r).State()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="transactions.csv"`)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(export.CSV(st.FilteredTransactions)))
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// dateOrEmpty keeps v only when it is a valid YYYY-MM-DD date.
func dateOrEmpty(v string) string {
	if v == "" || !validDate(v) {
		return ""
	}
	return v
}

func validDate(v string) bool {
	_, err := civil.ParseDate(v)
	return err == nil
}
