package inmemory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dvloznov/statement-insights/internal/jobs"
	"github.com/dvloznov/statement-insights/internal/logger"
	"github.com/google/uuid"
)

// ErrQueueClosed is returned once Stop or Close has been called.
var ErrQueueClosed = errors.New("queue is closed")

// DefaultWorkers is the worker count used when NewQueue is given zero.
const DefaultWorkers = 4

// Queue is a channel-backed job queue for a single process.
type Queue struct {
	jobChan   chan *jobs.AnalysisJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	workers   int
	closed    bool
}

// NewQueue creates a queue holding up to bufferSize pending jobs, served by
// workers goroutines once started.
func NewQueue(bufferSize, workers int) *Queue {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Queue{
		jobChan:   make(chan *jobs.AnalysisJob, bufferSize),
		closeChan: make(chan struct{}),
		workers:   workers,
	}
}

// PublishAnalysis implements jobs.Publisher. It blocks while the queue is
// full and returns ErrQueueClosed if the queue stops in the meantime.
func (q *Queue) PublishAnalysis(ctx context.Context, job *jobs.AnalysisJob) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return ErrQueueClosed
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	// closeChan is never replaced, so the wait below needs no lock.
	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return ErrQueueClosed
	}
}

// Start implements jobs.Consumer. Workers run until ctx is done or the
// queue is stopped.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

func (q *Queue) processJob(ctx context.Context, job *jobs.AnalysisJob, handler jobs.JobHandler) {
	log := logger.FromContext(ctx).With().
		Str("job_id", job.JobID).
		Str("session_id", job.SessionID).
		Logger()

	started := time.Now()
	log.Debug().Dur("queued", started.Sub(job.CreatedAt)).Msg("Analysis job started")

	if err := handler(logger.WithContext(ctx, log), job); err != nil {
		log.Warn().Err(err).Dur("duration", time.Since(started)).Msg("Analysis job failed")
		return
	}
	log.Debug().Dur("duration", time.Since(started)).Msg("Analysis job completed")
}

// Stop implements jobs.Consumer. It waits for in-flight jobs until ctx is done.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements jobs.Publisher.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
