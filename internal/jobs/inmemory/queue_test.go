package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/statement-insights/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_ProcessesJobs(t *testing.T) {
	q := NewQueue(4, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	seen := map[string]bool{}
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job *jobs.AnalysisJob) error {
		mu.Lock()
		defer mu.Unlock()
		seen[job.SessionID] = true
		return nil
	}))

	for _, id := range []string{"a", "b", "c"} {
		job := &jobs.AnalysisJob{SessionID: id}
		require.NoError(t, q.PublishAnalysis(ctx, job))
		assert.NotEmpty(t, job.JobID)
		assert.False(t, job.CreatedAt.IsZero())
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, q.Stop(context.Background()))
}

func TestQueue_FailedJobDoesNotStopWorker(t *testing.T) {
	q := NewQueue(2, 1)
	ctx := context.Background()

	handled := make(chan string, 2)
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job *jobs.AnalysisJob) error {
		handled <- job.SessionID
		if job.SessionID == "bad" {
			return errors.New("extractor down")
		}
		return nil
	}))

	require.NoError(t, q.PublishAnalysis(ctx, &jobs.AnalysisJob{SessionID: "bad"}))
	require.NoError(t, q.PublishAnalysis(ctx, &jobs.AnalysisJob{SessionID: "good"}))

	for _, want := range []string{"bad", "good"} {
		select {
		case got := <-handled:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("job %s was not processed", want)
		}
	}
	require.NoError(t, q.Stop(context.Background()))
}

func TestQueue_StopReleasesBlockedPublisher(t *testing.T) {
	q := NewQueue(0, 1) // no workers started, so every publish blocks

	published := make(chan error, 1)
	go func() {
		published <- q.PublishAnalysis(context.Background(), &jobs.AnalysisJob{SessionID: "s"})
	}()
	time.Sleep(20 * time.Millisecond)

	stopped := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		stopped <- q.Stop(ctx)
	}()

	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked behind a waiting publisher")
	}
	select {
	case err := <-published:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("publisher was not released")
	}
}

func TestQueue_PublishAfterClose(t *testing.T) {
	q := NewQueue(1, 1)
	require.NoError(t, q.Close())

	err := q.PublishAnalysis(context.Background(), &jobs.AnalysisJob{})
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.ErrorIs(t, q.Start(context.Background(), nil), ErrQueueClosed)
	assert.NoError(t, q.Stop(context.Background()))
}

func TestQueue_PublishHonoursContext(t *testing.T) {
	q := NewQueue(0, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.PublishAnalysis(ctx, &jobs.AnalysisJob{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
