package jobs

import (
	"context"
	"time"

	"github.com/dvloznov/statement-insights/internal/domain"
)

// AnalysisJob is one queued analysis of a session's uploaded documents.
// The outcome is stored on the session, not on the job.
type AnalysisJob struct {
	JobID     string
	SessionID string
	Documents []domain.Document
	CreatedAt time.Time
}

// Publisher enqueues analysis jobs.
type Publisher interface {
	// PublishAnalysis enqueues job, blocking while the queue is full.
	PublishAnalysis(ctx context.Context, job *AnalysisJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer runs queued jobs.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. Failed jobs are not retried.
type JobHandler func(ctx context.Context, job *AnalysisJob) error
