package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/dvloznov/statement-insights/internal/api/middleware"
	"github.com/dvloznov/statement-insights/internal/jobs"
	"github.com/dvloznov/statement-insights/internal/session"
	"github.com/dvloznov/statement-insights/web"
	"github.com/rs/zerolog"
)

// DefaultMaxUploadBytes caps a single analysis upload.
const DefaultMaxUploadBytes = 20 << 20

// Options configures a Server.
type Options struct {
	Sessions       *session.Store
	Publisher      jobs.Publisher
	MaxUploadBytes int64
	Log            zerolog.Logger
}

// Server serves the HTML UI and the JSON API over per-browser sessions.
type Server struct {
	sessions  *session.Store
	publisher jobs.Publisher
	maxUpload int64
	templates *template.Template
	log       zerolog.Logger
}

// NewServer parses the embedded templates and returns a ready server.
func NewServer(opts Options) (*Server, error) {
	if opts.Sessions == nil || opts.Publisher == nil {
		return nil, errors.New("NewServer: sessions and publisher are required")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(web.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("NewServer: parsing templates: %w", err)
	}

	return &Server{
		sessions:  opts.Sessions,
		publisher: opts.Publisher,
		maxUpload: opts.MaxUploadBytes,
		templates: t,
		log:       opts.Log,
	}, nil
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// HTML UI
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /analyze", s.handleAnalyzeForm)
	mux.HandleFunc("POST /filters", s.handleFiltersForm)
	mux.HandleFunc("POST /filters/reset", s.handleResetFiltersForm)
	mux.HandleFunc("GET /export.csv", s.handleExportCSV)

	// JSON API
	mux.HandleFunc("GET /api/session", s.handleGetSession)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyzeAPI)
	mux.HandleFunc("PUT /api/filters", s.handlePutFilters)
	mux.HandleFunc("GET /api/export", s.handleExportAPI)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"sessions": s.sessions.Len(),
			"time":     time.Now().Format(time.RFC3339),
		})
	})

	if sub, err := fs.Sub(web.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.log.Warn().Err(err).Msg("Failed to mount embedded static FS")
	}

	return mux
}
