package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/storm-data-dashboard/internal/adapter/csvsource"
	"github.com/couchcryptid/storm-data-dashboard/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/storm-data-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-dashboard/internal/config"
	"github.com/couchcryptid/storm-data-dashboard/internal/observability"
	"github.com/couchcryptid/storm-data-dashboard/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Args:  cobra.NoArgs,
		Short: "Rebuild the dashboard periodically and serve it over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	src := csvsource.New(cfg.RoseCSV, cfg.HistCSV, cfg.Statistics, logger)
	opts := []pipeline.Option{pipeline.WithInterval(cfg.RefreshInterval)}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts, pipeline.WithPublisher(writer))
		logger.Info("spec publishing enabled", "topic", cfg.KafkaSpecTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("spec publishing disabled")
	}

	p := pipeline.New(src, cfg.Statistics, logger, metrics, opts...)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, metrics, logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh loop.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}
