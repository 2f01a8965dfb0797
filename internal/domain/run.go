package domain

import "time"

// Analysis run statuses.
const (
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

// AnalysisRun describes one analysis attempt for auditing. It carries
// counts only, never transaction contents.
type AnalysisRun struct {
	RunID            string
	SessionID        string
	StartedAt        time.Time
	FinishedAt       time.Time
	Model            string
	DocumentCount    int
	PageCount        int
	TransactionCount int
	InsightCount     int
	ArchivedURIs     []string
	Status           string
	ErrorKind        string
	ErrorMessage     string
}

// Duration is the wall time of the run.
func (r AnalysisRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
