package pipeline

import (
	"context"

	"github.com/dvloznov/statement-insights/internal/domain"
	"github.com/shopspring/decimal"
)

// Extractor turns statement documents into raw transactions and insights.
// Implementations may be non-deterministic; callers treat the output as
// untrusted until it has been through ResolveSources.
type Extractor interface {
	Extract(ctx context.Context, docs []domain.Document) (*RawAnalysis, error)
}

// DocumentArchiver keeps a copy of uploaded statements outside the process.
type DocumentArchiver interface {
	ArchiveDocuments(ctx context.Context, runID string, docs []domain.Document) ([]string, error)
}

// RunRecorder writes an audit row for every analysis run.
type RunRecorder interface {
	RecordRun(ctx context.Context, run domain.AnalysisRun) error
}

// RawTransaction is a transaction as the extractor returned it.
// StatementSource holds a symbolic reference such as "Document 2".
type RawTransaction struct {
	Date            string          `json:"date"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	Notes           string          `json:"notes,omitempty"`
	StatementSource string          `json:"statementSource"`
}

// RawAnalysis is the extractor's structured output.
type RawAnalysis struct {
	Transactions []RawTransaction
	Insights     []string
}
