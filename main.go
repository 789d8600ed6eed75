package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slack-go/slack"

	"slackmirror/internal/analytics"
	"slackmirror/internal/archive"
	"slackmirror/internal/archiver"
	"slackmirror/internal/config"
	"slackmirror/internal/handlers"
	"slackmirror/internal/logging"
	"slackmirror/internal/middleware"
	"slackmirror/internal/search"
)

func main() {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Starting slackmirror",
		slog.String("archive_folder", cfg.ArchiveFolder),
		slog.String("port", cfg.Port))

	opts := analytics.Options{
		Comparative:      cfg.UseComparativeSentiment,
		CounterpartColor: cfg.UseCounterpartColor,
		TZOffset:         localTZOffset(),
	}

	searchHandler := handlers.NewSearchHandler(search.New(cfg.ArchiveFolder))
	analyticsHandler := handlers.NewAnalyticsHandler(cfg.ArchiveFolder, analytics.NewPipeline(opts))
	exportHandler := handlers.NewExportHandler(cfg.ArchiveFolder)

	// The archiver only exists when a token is configured; everything else
	// works offline against the local archive.
	var arch *archiver.Archiver
	if cfg.SlackToken != "" {
		client := slack.New(cfg.SlackToken)
		arch = archiver.New(client, archive.NewStore(cfg.SaveEmptyConversations), cfg)
	} else {
		slog.Info("No Slack token configured, archive endpoints disabled")
	}
	archiveHandler := handlers.NewArchiveHandler(arch)

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.MetricsMiddleware)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(middleware.APIRateLimitMiddleware())
	apiRouter.HandleFunc("/search", searchHandler.HandleSearch).Methods("POST")
	apiRouter.HandleFunc("/analytics/{kind}", analyticsHandler.HandleAnalytics).Methods("GET")
	apiRouter.HandleFunc("/export", exportHandler.HandleExport).Methods("POST")

	slackRouter := router.PathPrefix("/api").Subrouter()
	slackRouter.Use(middleware.ArchiveRateLimitMiddleware())
	slackRouter.HandleFunc("/archive", archiveHandler.HandleArchive).Methods("POST")
	slackRouter.HandleFunc("/files", archiveHandler.HandleListFiles).Methods("GET")
	slackRouter.HandleFunc("/files", archiveHandler.HandleDeleteFiles).Methods("DELETE")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Archive runs are synchronous and paced against Slack's rate limits;
	// the write timeout has to cover a full pass.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Server starting", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully")
}

// localTZOffset is the host's offset east of UTC, handed to the time-of-day
// derivation.
func localTZOffset() time.Duration {
	_, offset := time.Now().Zone()
	return time.Duration(offset) * time.Second
}
