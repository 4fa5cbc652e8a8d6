package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/isectech/disaster-recovery/config"
	httpdelivery "github.com/isectech/disaster-recovery/delivery/http"
	"github.com/isectech/disaster-recovery/engine"
	"github.com/isectech/disaster-recovery/infrastructure/command"
	"github.com/isectech/disaster-recovery/infrastructure/notification"
	"github.com/isectech/disaster-recovery/infrastructure/source"
)

const serviceName = "disaster-recovery"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Starting service",
		zap.String("service", serviceName),
		zap.String("version", cfg.Service.Version),
		zap.String("environment", cfg.Service.Environment))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Service terminated", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recoveryMetrics := engine.NewRecoveryMetrics(registry)

	// Scenario definitions
	scenarioRegistry := engine.NewScenarioRegistry(logger)
	scenarioSource := source.NewFileSource(cfg.Scenarios.Path, logger)
	scenarios, err := scenarioSource.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading scenarios: %w", err)
	}
	for _, scenario := range scenarios {
		if err := scenarioRegistry.Register(scenario); err != nil {
			return fmt.Errorf("registering scenario %s: %w", scenario.ID, err)
		}
	}

	// Notifications
	dispatcher := notification.NewDispatcher(notification.DispatcherConfig{
		RatePerSecond:    cfg.Notifications.RatePerSecond,
		Burst:            cfg.Notifications.Burst,
		FailureThreshold: cfg.Notifications.FailureThreshold,
		OpenTimeout:      cfg.Notifications.OpenTimeout,
	}, logger, notification.NewLogSink(logger))

	// Orchestrator over the dry-run executor; real infrastructure execution
	// is wired in by the deployment that owns the credentials.
	orchestrator := engine.NewRecoveryOrchestrator(
		scenarioRegistry,
		command.NewDryRunExecutor(logger),
		dispatcher,
		recoveryMetrics,
		logger,
	)

	// HTTP delivery
	var gatherer prometheus.Gatherer
	metricsPath := ""
	if cfg.Metrics.Enabled {
		gatherer = registry
		metricsPath = cfg.Metrics.Path
	}
	server := httpdelivery.NewRecoveryHTTPServer(
		orchestrator, scenarioRegistry, gatherer, cfg.HTTP, metricsPath, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down", zap.Duration("timeout", cfg.Service.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
