package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clusterpulse/aiops-engine/internal/alerts"
	"github.com/clusterpulse/aiops-engine/internal/api"
	"github.com/clusterpulse/aiops-engine/internal/audit"
	"github.com/clusterpulse/aiops-engine/internal/auth"
	"github.com/clusterpulse/aiops-engine/internal/cache"
	"github.com/clusterpulse/aiops-engine/internal/config"
	"github.com/clusterpulse/aiops-engine/internal/demo"
	"github.com/clusterpulse/aiops-engine/internal/engine"
	"github.com/clusterpulse/aiops-engine/internal/metrics"
	"github.com/clusterpulse/aiops-engine/internal/patterns"
	"github.com/clusterpulse/aiops-engine/internal/recommendations"
	"github.com/clusterpulse/aiops-engine/internal/repo"
	"github.com/clusterpulse/aiops-engine/internal/services"
	"github.com/clusterpulse/aiops-engine/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting aiops-engine",
		slog.String("address", cfg.Server.Address),
		slog.String("mode", cfg.Data.Mode))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewValkeyProvider(cache.ValkeyConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
			TLS:          cfg.Cache.TLS,
		})
		if err != nil {
			logger.Warn("valkey cache unavailable", slog.Any("error", err))
		} else {
			cacheProvider = provider
			defer provider.Close()
		}
	}

	alertStore := alerts.NewStore(utils.SystemClock, cfg.Alerts.DedupeWindow)
	alertEngine := alerts.NewEngine(alertStore, cfg.Data.ClusterName, utils.SystemClock)
	auditStore := audit.NewStore(cfg.Audit.MaxEvents, utils.SystemClock)
	recoActions := recommendations.NewActionStore(utils.SystemClock)
	users := auth.NewDefaultUsers()

	pipeline := engine.NewPipeline(logger, alertEngine, utils.SystemClock)
	demoSource := demo.NewSource()
	var promSource *repo.PrometheusSource
	if cfg.Prometheus.BaseURL != "" {
		promSource = repo.NewPrometheusSource(
			cfg.Prometheus.BaseURL,
			cfg.Prometheus.Timeout,
			cfg.Prometheus.SnapshotTTL,
			cacheProvider,
			logger,
		)
	}

	analysis := services.NewAnalysisService(logger, pipeline, demoSource, promSource, cfg.Data.Mode)
	miner := patterns.NewMiner(logger)

	handler := api.NewHandler(
		logger,
		analysis,
		alertStore,
		miner,
		recoActions,
		auditStore,
		users,
		cfg.Auth.Secret,
		cfg.Auth.TokenTTL,
		utils.SystemClock,
	)
	server := api.NewServer(cfg.Server, handler, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("http server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", slog.Any("error", err))
	}

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("aiops-engine stopped")
}
