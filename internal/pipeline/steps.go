package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-insights/internal/domain"
	"github.com/dvloznov/statement-insights/internal/logger"
)

// PipelineStep is a single stage of an analysis run.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState is shared by every step of one run.
type PipelineState struct {
	RunID        string
	SessionID    string
	Documents    []domain.Document
	ArchivedURIs []string
	Raw          *RawAnalysis
	Transactions []domain.Transaction
	Insights     []string
}

// ValidateDocumentsStep rejects empty or unsupported uploads before any
// network call, and records PDF page counts.
type ValidateDocumentsStep struct{}

func (s *ValidateDocumentsStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := CheckDocuments(state.Documents); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	for i := range state.Documents {
		doc := &state.Documents[i]
		if doc.MIMEType == "application/pdf" {
			pages, err := countPDFPages(doc.Data)
			if err != nil {
				log.Warn().Err(err).Str("document", doc.Name).Msg("Could not count PDF pages")
				continue
			}
			doc.PageCount = pages
		} else {
			doc.PageCount = 1
		}
	}
	return nil
}

// CheckDocuments returns an input error for the first reason docs cannot be
// analyzed: no files, an empty file or an unsupported format.
func CheckDocuments(docs []domain.Document) error {
	if len(docs) == 0 {
		return NewInputError(MsgNoFiles)
	}
	for _, doc := range docs {
		if len(doc.Data) == 0 {
			return NewInputError(fmt.Sprintf("The file %q is empty.", doc.Name))
		}
		if !IsSupportedMIMEType(doc.MIMEType) {
			return NewInputError(fmt.Sprintf("The file %q is not a supported statement format (PDF, PNG, JPEG or WebP).", doc.Name))
		}
	}
	return nil
}

// ArchiveDocumentsStep copies the uploads to long-term storage. Archive
// failures are logged and never fail the run.
type ArchiveDocumentsStep struct {
	Archiver DocumentArchiver
}

func (s *ArchiveDocumentsStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Archiver == nil {
		return nil
	}
	uris, err := s.Archiver.ArchiveDocuments(ctx, state.RunID, state.Documents)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("run_id", state.RunID).Msg("Archiving documents failed")
		return nil
	}
	state.ArchivedURIs = uris
	return nil
}

// ExtractStep calls the extractor once for the whole document set.
type ExtractStep struct {
	Extractor Extractor
}

func (s *ExtractStep) Execute(ctx context.Context, state *PipelineState) error {
	raw, err := s.Extractor.Extract(ctx, state.Documents)
	if err != nil {
		return err
	}
	if raw == nil {
		return malformedError("extractor returned no result", nil)
	}
	state.Raw = raw
	return nil
}

// ResolveSourcesStep turns raw transactions into domain transactions.
type ResolveSourcesStep struct{}

func (s *ResolveSourcesStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Transactions = ResolveSources(state.Raw.Transactions, state.Documents)
	state.Insights = state.Raw.Insights
	if state.Insights == nil {
		state.Insights = []string{}
	}
	return nil
}

// Pipeline runs steps in order and stops at the first failure.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline step %d cancelled: %w", i+1, gatewayError(err))
		}
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewAnalysisPipeline builds the standard five-step analysis pipeline.
func NewAnalysisPipeline(extractor Extractor, archiver DocumentArchiver) *Pipeline {
	return NewPipeline(
		&ValidateDocumentsStep{},
		&ArchiveDocumentsStep{Archiver: archiver},
		&ExtractStep{Extractor: extractor},
		&ResolveSourcesStep{},
		&SortTransactionsStep{},
	)
}
