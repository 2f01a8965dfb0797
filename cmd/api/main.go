package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/statement-insights/internal/api/handlers"
	"github.com/dvloznov/statement-insights/internal/api/middleware"
	"github.com/dvloznov/statement-insights/internal/app"
	"github.com/dvloznov/statement-insights/internal/jobs/inmemory"
	"github.com/dvloznov/statement-insights/internal/logger"
	"github.com/dvloznov/statement-insights/internal/session"
)

func main() {
	workers := flag.Int("workers", inmemory.DefaultWorkers, "Number of concurrent analysis workers")
	queueSize := flag.Int("queue-size", 100, "Maximum number of queued analyses")
	flag.Parse()

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
	defer services.Close()

	sessions := session.NewStore(cfg.SessionTTL)
	defer sessions.Close()

	// Start worker pool
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	queue := inmemory.NewQueue(*queueSize, *workers)
	if err := queue.Start(workerCtx, session.NewJobHandler(sessions, services.Analyzer)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start analysis workers")
	}
	log.Info().Int("workers", *workers).Msg("Analysis workers started")

	srv, err := handlers.NewServer(handlers.Options{
		Sessions:       sessions,
		Publisher:      queue,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Log:            log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create HTTP handlers")
	}

	handler := middleware.Chain(srv.Routes(),
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("model", cfg.GeminiModel).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight analyses finish before cancelling them
	if err := queue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping analysis queue")
	}
	cancelWorkers()

	log.Info().Msg("Server exited")
}
