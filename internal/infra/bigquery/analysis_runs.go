package bigquery

import (
	"time"
	"unicode/utf8"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-insights/internal/domain"
)

// analysisRunsTable holds one row per analysis run. Transactions are never
// written here, only counts and status.
const analysisRunsTable = "analysis_runs"

// maxErrorMessageLen truncates stored error messages.
const maxErrorMessageLen = 2000

type RunRow struct {
	RunID     string     `bigquery:"run_id"`     // REQUIRED
	SessionID string     `bigquery:"session_id"` // REQUIRED
	RunDate   civil.Date `bigquery:"run_date"`   // partition column

	StartedTS  time.Time `bigquery:"started_ts"`
	FinishedTS time.Time `bigquery:"finished_ts"`
	DurationMS int64     `bigquery:"duration_ms"`

	Model            string `bigquery:"model"`
	DocumentCount    int64  `bigquery:"document_count"`
	PageCount        int64  `bigquery:"page_count"`
	TransactionCount int64  `bigquery:"transaction_count"`
	InsightCount     int64  `bigquery:"insight_count"`

	ArchivedURIs []string `bigquery:"archived_uris"` // REPEATED

	Status       string              `bigquery:"status"`
	ErrorKind    bigquery.NullString `bigquery:"error_kind"`    // NULLABLE
	ErrorMessage bigquery.NullString `bigquery:"error_message"` // NULLABLE
}

// NewRunRow converts a run into its table row.
func NewRunRow(run domain.AnalysisRun) RunRow {
	row := RunRow{
		RunID:            run.RunID,
		SessionID:        run.SessionID,
		RunDate:          civil.DateOf(run.StartedAt.UTC()),
		StartedTS:        run.StartedAt,
		FinishedTS:       run.FinishedAt,
		DurationMS:       run.Duration().Milliseconds(),
		Model:            run.Model,
		DocumentCount:    int64(run.DocumentCount),
		PageCount:        int64(run.PageCount),
		TransactionCount: int64(run.TransactionCount),
		InsightCount:     int64(run.InsightCount),
		ArchivedURIs:     run.ArchivedURIs,
		Status:           run.Status,
	}
	if row.ArchivedURIs == nil {
		row.ArchivedURIs = []string{}
	}
	if run.ErrorKind != "" {
		row.ErrorKind = bigquery.NullString{StringVal: run.ErrorKind, Valid: true}
	}
	if run.ErrorMessage != "" {
		row.ErrorMessage = bigquery.NullString{StringVal: truncateUTF8(run.ErrorMessage, maxErrorMessageLen), Valid: true}
	}
	return row
}

// ToDomain converts a stored row back into a run.
func (r RunRow) ToDomain() domain.AnalysisRun {
	return domain.AnalysisRun{
		RunID:            r.RunID,
		SessionID:        r.SessionID,
		StartedAt:        r.StartedTS,
		FinishedAt:       r.FinishedTS,
		Model:            r.Model,
		DocumentCount:    int(r.DocumentCount),
		PageCount:        int(r.PageCount),
		TransactionCount: int(r.TransactionCount),
		InsightCount:     int(r.InsightCount),
		ArchivedURIs:     r.ArchivedURIs,
		Status:           r.Status,
		ErrorKind:        r.ErrorKind.StringVal,
		ErrorMessage:     r.ErrorMessage.StringVal,
	}
}

// truncateUTF8 cuts s to at most n bytes without splitting a character.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
