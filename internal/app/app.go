// Package app wires configuration into the analysis services shared by
// the binaries.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/dvloznov/statement-insights/internal/config"
	"github.com/dvloznov/statement-insights/internal/gcsuploader"
	infraBQ "github.com/dvloznov/statement-insights/internal/infra/bigquery"
	"github.com/dvloznov/statement-insights/internal/logger"
	"github.com/dvloznov/statement-insights/internal/pipeline"
	"github.com/rs/zerolog"
)

// archivePrefix is the object prefix for archived uploads.
const archivePrefix = "statements"

// Services holds the analyzer and the clients it depends on.
type Services struct {
	Analyzer *pipeline.Analyzer
	Runs     *infraBQ.RunRepository // nil when run audit is disabled

	closers []func() error
}

// Close releases every client, returning the first error.
func (s *Services) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LoadConfig reads .env and the environment and validates the result.
func LoadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg *config.Config) zerolog.Logger {
	return logger.NewFromConfig(os.Stdout, cfg.LogLevel, cfg.LogFormat)
}

// NewServices creates the Gemini extractor plus the optional GCS archive
// and BigQuery run audit.
func NewServices(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Services, error) {
	svc := &Services{}

	extractor, err := pipeline.NewGeminiExtractor(ctx, cfg.Gemini())
	if err != nil {
		return nil, fmt.Errorf("NewServices: %w", err)
	}

	var archiver pipeline.DocumentArchiver
	if cfg.ArchiveEnabled() {
		a, err := gcsuploader.NewArchiver(ctx, cfg.GCSBucket, archivePrefix)
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("NewServices: %w", err)
		}
		svc.closers = append(svc.closers, a.Close)
		archiver = a
		log.Info().Str("bucket", cfg.GCSBucket).Msg("Document archive enabled")
	}

	var recorder pipeline.RunRecorder
	if cfg.RunAuditEnabled() {
		runs, err := infraBQ.NewRunRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("NewServices: %w", err)
		}
		svc.closers = append(svc.closers, runs.Close)
		svc.Runs = runs
		recorder = runs
		log.Info().Str("dataset", cfg.BigQueryDataset).Msg("Run audit enabled")
	}

	svc.Analyzer = pipeline.NewAnalyzer(extractor, archiver, recorder)
	return svc, nil
}
