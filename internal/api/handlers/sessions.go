package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dvloznov/statement-insights/internal/domain"
	"github.com/dvloznov/statement-insights/internal/jobs"
	"github.com/dvloznov/statement-insights/internal/logger"
	"github.com/dvloznov/statement-insights/internal/session"
)

// sessionCookie carries the browser's session ID.
const sessionCookie = "sid"

// sessionFor returns the caller's session, starting a new one (and setting
// the cookie) when the request has none or it expired.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}

	sess, created := s.sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// startAnalysis marks sess busy and queues the analysis of docs. Documents
// that cannot be analyzed are rejected here and nothing is queued.
func (s *Server) startAnalysis(ctx context.Context, sess *session.Session, docs []domain.Document) error {
	if err := sess.BeginAnalysis(docs); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	job := &jobs.AnalysisJob{SessionID: sess.ID, Documents: docs}
	if err := s.publisher.PublishAnalysis(ctx, job); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("Failed to enqueue analysis")
		sess.FailAnalysis(err)
		return errEnqueue
	}

	log.Info().
		Str("session_id", sess.ID).
		Str("job_id", job.JobID).
		Int("documents", len(docs)).
		Msg("Analysis queued")
	return nil
}

var errEnqueue = errors.New("analysis could not be queued")
