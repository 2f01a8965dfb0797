package session

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-insights/internal/jobs"
	"github.com/dvloznov/statement-insights/internal/logger"
)

// NewJobHandler returns a queue handler that analyzes a job's documents and
// stores the outcome on its session. The session must already have been
// marked busy with BeginAnalysis.
func NewJobHandler(store *Store, a Analyzer) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.AnalysisJob) error {
		sess, err := store.Get(job.SessionID)
		if err != nil {
			return fmt.Errorf("NewJobHandler: session %s: %w", job.SessionID, err)
		}

		res, err := a.Analyze(ctx, sess.ID, job.Documents)
		sess.Finish(res, err)
		if err != nil {
			return err
		}

		log := logger.FromContext(ctx)
		log.Info().
			Str("run_id", res.RunID).
			Int("transactions", len(res.Transactions)).
			Msg("Session updated with analysis result")
		return nil
	}
}
