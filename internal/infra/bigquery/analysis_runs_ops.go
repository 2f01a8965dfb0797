package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-insights/internal/domain"
	"github.com/dvloznov/statement-insights/internal/logger"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// DefaultRecentRuns is the row limit used by ListRecentRuns when given zero.
const DefaultRecentRuns = 20

// RunRepository writes and reads the analysis_runs audit table using a
// shared BigQuery client.
type RunRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRunRepository creates a repository for projectID.datasetID.
func NewRunRepository(ctx context.Context, projectID, datasetID string) (*RunRepository, error) {
	if projectID == "" || datasetID == "" {
		return nil, fmt.Errorf("NewRunRepository: project and dataset are required")
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRunRepository: creating client: %w", err)
	}
	return &RunRepository{client: client, projectID: projectID, datasetID: datasetID}, nil
}

// Close closes the BigQuery client connection.
func (r *RunRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// RecordRun streams one row into analysis_runs.
func (r *RunRepository) RecordRun(ctx context.Context, run domain.AnalysisRun) error {
	inserter := r.client.Dataset(r.datasetID).Table(analysisRunsTable).Inserter()
	if err := inserter.Put(ctx, NewRunRow(run)); err != nil {
		return fmt.Errorf("RecordRun: inserting run %s: %w", run.RunID, err)
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("run_id", run.RunID).
		Str("status", run.Status).
		Msg("Recorded analysis run")
	return nil
}

// ListRecentRuns returns up to limit runs, newest first.
func (r *RunRepository) ListRecentRuns(ctx context.Context, limit int) ([]domain.AnalysisRun, error) {
	if limit <= 0 {
		limit = DefaultRecentRuns
	}

	q := r.client.Query(fmt.Sprintf(`
		SELECT *
		FROM `+"`%s.%s.%s`"+`
		ORDER BY started_ts DESC
		LIMIT @limit
	`, r.projectID, r.datasetID, analysisRunsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRecentRuns: reading query: %w", err)
	}

	var runs []domain.AnalysisRun
	for {
		var row RunRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRecentRuns: iterating: %w", err)
		}
		runs = append(runs, row.ToDomain())
	}
	return runs, nil
}

// EnsureTable creates analysis_runs, partitioned by run_date, when it does
// not exist. It reports whether the table was created.
func (r *RunRepository) EnsureTable(ctx context.Context) (bool, error) {
	table := r.client.Dataset(r.datasetID).Table(analysisRunsTable)

	_, err := table.Metadata(ctx)
	if err == nil {
		return false, nil
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != http.StatusNotFound {
		return false, fmt.Errorf("EnsureTable: reading metadata: %w", err)
	}

	schema, err := RunSchema()
	if err != nil {
		return false, err
	}
	meta := &bigquery.TableMetadata{
		Schema:           schema,
		TimePartitioning: &bigquery.TimePartitioning{Field: "run_date"},
		Description:      "One row per statement analysis run. Counts and status only.",
	}
	if err := table.Create(ctx, meta); err != nil {
		return false, fmt.Errorf("EnsureTable: creating table: %w", err)
	}
	return true, nil
}

// RunSchema is the analysis_runs schema inferred from RunRow.
func RunSchema() (bigquery.Schema, error) {
	schema, err := bigquery.InferSchema(RunRow{})
	if err != nil {
		return nil, fmt.Errorf("RunSchema: inferring schema: %w", err)
	}
	for _, f := range schema {
		switch f.Name {
		case "run_id", "session_id", "run_date", "started_ts", "status":
			f.Required = true
		}
	}
	return schema, nil
}
