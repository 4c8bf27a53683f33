package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/unalkalkan/folio/internal/api"
	"github.com/unalkalkan/folio/internal/config"
	"github.com/unalkalkan/folio/internal/extract"
	"github.com/unalkalkan/folio/internal/health"
	"github.com/unalkalkan/folio/internal/library"
	"github.com/unalkalkan/folio/internal/logfields"
	"github.com/unalkalkan/folio/internal/metrics"
	"github.com/unalkalkan/folio/internal/storage"
	"github.com/unalkalkan/folio/pkg/types"
)

const version = "0.3.0"

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path (defaults and FOLIO_ variables only when empty)" type:"path"`
	EnvFile string           `name:"env-file" help:"Dotenv file loaded before configuration" default:".env"`
	Verbose bool             `short:"v" help:"Enable debug logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("folio-server"),
		kong.Description("Stores EPUB packages and serves their extracted document model."),
		kong.Vars{"version": version})

	if err := config.LoadDotEnv(CLI.EnvFile); err != nil {
		slog.Error("Failed to load env file", logfields.Path(CLI.EnvFile), logfields.Error(err))
		os.Exit(1)
	}
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load config", logfields.Error(err))
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging, CLI.Verbose)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", logfields.Error(err))
		os.Exit(1)
	}
}

func newLogger(cfg types.LoggingConfig, verbose bool) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func run(cfg *types.Config, logger *slog.Logger) error {
	logger.Info("Starting folio server",
		slog.String("version", version),
		logfields.Path(CLI.Config))

	storageAdapter, err := storage.NewAdapter(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage adapter: %w", err)
	}
	defer storageAdapter.Close()
	logger.Info("Storage adapter initialized", slog.String("adapter", cfg.Storage.Adapter))

	registry := prom.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(registry)

	extractor := extract.New(extract.Options{
		Scheme:   cfg.Extraction.Scheme,
		Logger:   logger,
		Recorder: recorder,
	})
	maxUploadBytes := int64(cfg.Library.MaxUploadMB) << 20
	service := library.NewService(library.NewRepository(storageAdapter), extractor, library.ServiceOptions{
		MaxUploadBytes: maxUploadBytes,
		Logger:         logger,
		Recorder:       recorder,
	})

	healthHandler := health.NewHandler(version)
	healthHandler.Register("storage", func(ctx context.Context) (health.Status, error) {
		// Existence does not matter, only that the backend answers.
		if _, err := storageAdapter.Exists(ctx, ".healthcheck"); err != nil {
			return health.StatusUnhealthy, err
		}
		return health.StatusHealthy, nil
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health/live", healthHandler.LivenessHandler())
	mux.HandleFunc("GET /health/ready", healthHandler.ReadinessHandler())
	mux.HandleFunc("GET /health", healthHandler.HealthHandler())
	mux.Handle("GET /metrics", metrics.HTTPHandler(registry))
	mux.HandleFunc("GET /api/v1/info", infoHandler(version, cfg, extractor.Scheme()))
	api.NewBookHandler(service, maxUploadBytes, logger).Register(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// infoHandler returns basic server information
func infoHandler(version string, cfg *types.Config, scheme string) http.HandlerFunc {
	info := map[string]interface{}{
		"version":         version,
		"storage_adapter": cfg.Storage.Adapter,
		"scheme":          scheme,
		"max_upload_mb":   cfg.Library.MaxUploadMB,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(info)
	}
}
