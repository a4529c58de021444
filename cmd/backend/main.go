package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	completionimpl "github.com/foxseedlab/mensetsukin/external/completion"
	configloader "github.com/foxseedlab/mensetsukin/external/config"
	resumeimpl "github.com/foxseedlab/mensetsukin/external/resume"
	transcriberimpl "github.com/foxseedlab/mensetsukin/external/transcriber"
	webhookimpl "github.com/foxseedlab/mensetsukin/external/webhook"
	"github.com/foxseedlab/mensetsukin/internal/config"
	"github.com/foxseedlab/mensetsukin/internal/gateway"
	"github.com/foxseedlab/mensetsukin/internal/interview"
	"github.com/joho/godotenv"
	"github.com/samber/do/v2"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	_ = godotenv.Load()

	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching http server", "addr", cfg.HTTPListenAddr)
	runServer(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	resumeimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	completionimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	interview.RegisterDI(injector)
	gateway.RegisterDI(injector)

	return injector
}

func runServer(cfg *config.Config, injector do.Injector) {
	handler, err := do.Invoke[*gateway.Handler](injector)
	if err != nil {
		slog.Error("failed to resolve gateway handler", "error", err)
		os.Exit(1)
	}
	interviews, err := do.Invoke[*interview.Manager](injector)
	if err != nil {
		slog.Error("failed to resolve interview manager", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go interviews.SweepIdleSessions(ctx)

	server := &http.Server{
		Addr:              cfg.HTTPListenAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	done := make(chan struct{})
	go func() {
		slog.Info("startup: entering http serve loop")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http serve failed", "error", err)
		}
		close(done)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case <-done:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
}
