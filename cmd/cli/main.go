package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dvloznov/statement-insights/internal/aggregate"
	"github.com/dvloznov/statement-insights/internal/app"
	"github.com/dvloznov/statement-insights/internal/domain"
	"github.com/dvloznov/statement-insights/internal/export"
	"github.com/dvloznov/statement-insights/internal/gcsuploader"
	"github.com/dvloznov/statement-insights/internal/logger"
	"github.com/dvloznov/statement-insights/internal/pipeline"
	"github.com/dvloznov/statement-insights/internal/session"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze(os.Args[2:])
	case "runs":
		runRuns(os.Args[2:])
	case "init-runs-table":
		runInitRunsTable()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Statement Insights CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  analyze          Analyze local or gs:// statement files")
	fmt.Println("  runs             List recent analysis runs from BigQuery")
	fmt.Println("  init-runs-table  Create the BigQuery analysis_runs table")
	fmt.Println("  help             Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func setup() (*app.Services, zerolog.Logger, context.Context) {
	cfg, err := app.LoadConfig()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := app.NewLogger(cfg)
	ctx := logger.WithContext(context.Background(), log)

	services, err := app.NewServices(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	return services, log, ctx
}

func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	category := fs.String("category", domain.AllCategories, "Only show transactions in this category")
	start := fs.String("start", "", "Earliest date to include (YYYY-MM-DD)")
	end := fs.String("end", "", "Latest date to include (YYYY-MM-DD)")
	format := fs.String("format", "table", "Output format: table, csv or json")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: cli analyze [options] FILE [FILE...]")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	services, log, ctx := setup()
	defer services.Close()

	docs, err := loadDocuments(ctx, fs.Args())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read statements")
	}

	sess := session.New("cli")
	if err := sess.Run(ctx, services.Analyzer, docs); err != nil {
		fmt.Fprintln(os.Stderr, pipeline.UserMessage(err))
		log.Debug().Err(err).Msg("Analysis failed")
		os.Exit(1)
	}
	sess.SetFilter(domain.FilterState{
		SelectedCategory: *category,
		DateRange:        domain.DateRange{Start: *start, End: *end},
	})
	st := sess.State()

	switch *format {
	case "csv":
		fmt.Println(export.CSV(st.FilteredTransactions))
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st.View); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode result")
		}
	default:
		printView(os.Stdout, st.View)
	}
}

// loadDocuments reads local paths and gs:// URIs in argument order.
func loadDocuments(ctx context.Context, paths []string) ([]domain.Document, error) {
	var downloader *gcsuploader.Downloader
	defer func() {
		if downloader != nil {
			_ = downloader.Close()
		}
	}()

	docs := make([]domain.Document, 0, len(paths))
	for _, p := range paths {
		var (
			name string
			data []byte
			err  error
		)
		if gcsuploader.IsGCSURI(p) {
			if downloader == nil {
				if downloader, err = gcsuploader.NewDownloader(ctx); err != nil {
					return nil, err
				}
			}
			name = gcsuploader.ExtractFilenameFromGCSURI(p)
			data, err = downloader.Fetch(ctx, p)
		} else {
			name = filepath.Base(p)
			data, err = os.ReadFile(p)
		}
		if err != nil {
			return nil, fmt.Errorf("loadDocuments: %s: %w", p, err)
		}
		docs = append(docs, domain.Document{
			Name:     name,
			MIMEType: pipeline.DetectMIMEType(name, ""),
			Data:     data,
		})
	}
	return docs, nil
}

func printView(w io.Writer, v aggregate.View) {
	if v.Summary != nil {
		fmt.Fprintln(w, "=== Financial Summary ===")
		fmt.Fprintf(w, "Transactions:   %d\n", v.Summary.TotalTransactions)
		fmt.Fprintf(w, "Total income:   %s\n", v.Summary.TotalIncome.StringFixed(2))
		fmt.Fprintf(w, "Total spending: %s\n", v.Summary.TotalSpending.StringFixed(2))
	}

	if v.Breakdown != nil {
		fmt.Fprintln(w, "\n=== Top Spending ===")
		for i, c := range v.Breakdown.TopSpending {
			fmt.Fprintf(w, "%d. %s  %s\n", i+1, c.Category, c.Total.StringFixed(2))
		}
		fmt.Fprintln(w, "\n=== Top Income ===")
		for i, c := range v.Breakdown.TopIncome {
			fmt.Fprintf(w, "%d. %s  %s\n", i+1, c.Category, c.Total.StringFixed(2))
		}
	}

	if len(v.Insights) > 0 {
		fmt.Fprintln(w, "\n=== Insights ===")
		for _, in := range v.Insights {
			fmt.Fprintf(w, "- %s\n", in)
		}
	}

	fmt.Fprintf(w, "\n=== Transactions (%d of %d) ===\n", len(v.FilteredTransactions), v.TotalStored)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDESCRIPTION\tAMOUNT\tCATEGORY\tSOURCE")
	for _, t := range v.FilteredTransactions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Date, t.Description, t.Amount.StringFixed(2), t.Category, t.StatementSource)
	}
	tw.Flush()
}

func runRuns(args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Number of runs to show")
	fs.Parse(args)

	services, log, ctx := setup()
	defer services.Close()

	if services.Runs == nil {
		log.Fatal().Msg("Run audit is disabled: set BIGQUERY_DATASET")
	}

	runs, err := services.Runs.ListRecentRuns(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list runs")
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN ID\tSTATUS\tDOCS\tPAGES\tTXNS\tDURATION\tERROR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			r.RunID,
			r.Status,
			r.DocumentCount,
			r.PageCount,
			r.TransactionCount,
			r.Duration().Round(time.Millisecond),
			strings.TrimSpace(r.ErrorKind),
		)
	}
	tw.Flush()
}

func runInitRunsTable() {
	services, log, ctx := setup()
	defer services.Close()

	if services.Runs == nil {
		log.Fatal().Err(errors.New("BIGQUERY_DATASET is not set")).Msg("Run audit is disabled")
	}

	created, err := services.Runs.EnsureTable(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create analysis_runs table")
	}
	if created {
		fmt.Println("Created analysis_runs table.")
	} else {
		fmt.Println("analysis_runs table already exists.")
	}
}
