// Package main is the entry point for the tutoring chat backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"tutorchat/config"
	"tutorchat/internal/chat"
	"tutorchat/internal/observability"
	"tutorchat/internal/quiz"
	"tutorchat/internal/server"
	"tutorchat/internal/version"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	logger := newLogger()
	slog.SetDefault(logger)

	slog.Info("starting tutorchat",
		"version", version.Version,
		"commit", version.Commit,
		"build_date", version.Date,
	)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	configured := cfg.ConfiguredProviders()
	if len(configured) == 0 {
		slog.Warn("no provider API keys configured; every completion request will fail until one is set")
	} else {
		slog.Info("providers configured", "providers", configured)
	}

	if cfg.Server.MasterKey == "" {
		slog.Warn("TUTORCHAT_MASTER_KEY not set - server accepts unauthenticated requests")
	} else {
		slog.Info("authentication enabled", "mode", "master_key")
	}

	prompts := chat.DefaultPrompts()
	if cfg.Chat.PromptsFile != "" {
		prompts, err = chat.LoadPrompts(cfg.Chat.PromptsFile)
		if err != nil {
			slog.Error("failed to load prompts file", "path", cfg.Chat.PromptsFile, "error", err)
			os.Exit(1)
		}
		slog.Info("tutor prompts loaded", "path", cfg.Chat.PromptsFile)
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.New(prometheus.DefaultRegisterer)
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}

	service := chat.New(
		chat.WithPrompts(prompts),
		chat.WithMetrics(metrics),
		chat.WithLogger(logger),
	)
	generator := quiz.NewGenerator()

	defaults := chat.Settings{
		Model:     cfg.Chat.DefaultModel,
		TutorMode: cfg.Chat.DefaultTutorMode,
		Keys:      cfg.Keys,
	}
	handler := server.NewHandler(service, generator, defaults, logger)
	srv := server.New(handler, &server.Config{
		MasterKey:       cfg.Server.MasterKey,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsEndpoint: cfg.Metrics.Endpoint,
		BodySizeLimit:   cfg.Server.BodySizeLimit,
	})

	// Handle graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	slog.Info("starting server", "address", addr)

	if err := srv.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
		} else {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}
}

// newLogger builds the process logger: JSON when LOG_FORMAT=json (for log
// shippers), colorized tint output otherwise.
func newLogger() *slog.Logger {
	if os.Getenv("LOG_FORMAT") == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		TimeFormat: time.Kitchen,
	}))
}
