package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/statement-insights/internal/domain"
	"github.com/dvloznov/statement-insights/internal/logger"
	"github.com/google/uuid"
)

// Analyzer runs the analysis pipeline and audits every run.
type Analyzer struct {
	pipeline *Pipeline
	recorder RunRecorder
	model    string
	now      func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithModelName sets the model name written to run records.
func WithModelName(name string) Option {
	return func(a *Analyzer) { a.model = name }
}

// NewAnalyzer wires the extractor with optional archiving and run recording.
// A nil archiver or recorder disables that concern.
func NewAnalyzer(extractor Extractor, archiver DocumentArchiver, recorder RunRecorder, opts ...Option) *Analyzer {
	a := &Analyzer{
		pipeline: NewAnalysisPipeline(extractor, archiver),
		recorder: recorder,
		now:      time.Now,
	}
	if m, ok := extractor.(interface{ Model() string }); ok {
		a.model = m.Model()
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze extracts transactions and insights from docs. Input is validated
// before the extractor is contacted; every returned error is an
// *AnalysisError suitable for UserMessage.
func (a *Analyzer) Analyze(ctx context.Context, sessionID string, docs []domain.Document) (*domain.AnalysisResult, error) {
	state := &PipelineState{
		RunID:     uuid.New().String(),
		SessionID: sessionID,
		Documents: append([]domain.Document(nil), docs...),
	}
	log := logger.WithFields(logger.FromContext(ctx), map[string]interface{}{
		"run_id":     state.RunID,
		"session_id": sessionID,
		"documents":  len(docs),
	})
	ctx = logger.WithContext(ctx, log)

	started := a.now()
	log.Info().Msg("Starting analysis")

	err := a.pipeline.Execute(ctx, state)
	a.record(ctx, state, started, err)

	if err != nil {
		log.Error().Err(err).Str("kind", string(KindOf(err))).Msg("Analysis failed")
		return nil, err
	}

	log.Info().
		Int("transactions", len(state.Transactions)).
		Int("insights", len(state.Insights)).
		Dur("duration", a.now().Sub(started)).
		Msg("Analysis completed")

	return &domain.AnalysisResult{
		RunID:        state.RunID,
		Transactions: state.Transactions,
		Insights:     state.Insights,
	}, nil
}

func (a *Analyzer) record(ctx context.Context, state *PipelineState, started time.Time, runErr error) {
	// Input errors never reach the extractor and are not audited.
	if a.recorder == nil || (runErr != nil && KindOf(runErr) == KindInput) {
		return
	}

	run := domain.AnalysisRun{
		RunID:            state.RunID,
		SessionID:        state.SessionID,
		StartedAt:        started,
		FinishedAt:       a.now(),
		Model:            a.model,
		DocumentCount:    len(state.Documents),
		TransactionCount: len(state.Transactions),
		InsightCount:     len(state.Insights),
		ArchivedURIs:     state.ArchivedURIs,
		Status:           domain.RunStatusSuccess,
	}
	for _, d := range state.Documents {
		run.PageCount += d.PageCount
	}
	if runErr != nil {
		run.Status = domain.RunStatusFailed
		run.ErrorKind = string(KindOf(runErr))
		run.ErrorMessage = runErr.Error()
	}

	// The audit write must not be cut short by a cancelled request.
	if err := a.recorder.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Failed to record analysis run")
	}
}
