package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tabrizchi/sib/internal/adapters/http/api"
	"github.com/tabrizchi/sib/internal/adapters/mq/stream"
	"github.com/tabrizchi/sib/internal/adapters/mq/worker"
	"github.com/tabrizchi/sib/internal/adapters/repository"
	service "github.com/tabrizchi/sib/internal/app"
	"github.com/tabrizchi/sib/internal/config"
	"github.com/tabrizchi/sib/internal/domain/coherence"
	"github.com/tabrizchi/sib/internal/domain/dedupe"
	"github.com/tabrizchi/sib/internal/domain/drift"
	"github.com/tabrizchi/sib/internal/domain/trend"
	"github.com/tabrizchi/sib/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	statsInterval     = 10 * time.Second
)

func main() {
	// The service registers its own metrics; the default Go and process
	// collectors would only add noise to /metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Error(ctx, "failed to open store", logger.Error(err))
		return
	}
	defer func() { _ = store.Close() }()

	engine := service.New(store,
		service.WithLogger(log.Named("engine")),
		service.WithBaselineWindow(time.Duration(cfg.BaselineWindowMinutes)*time.Minute),
		service.WithMinSamples(cfg.MinBaselineSamples),
		service.WithClassifier(drift.NewClassifier(
			drift.WithWarnThreshold(cfg.WarnThresholdPercent),
			drift.WithCriticalThreshold(cfg.CriticalThresholdPercent),
		)),
		service.WithTrendAnalyzer(trend.NewAnalyzer(
			trend.WithMargin(cfg.TrendMargin),
		)),
		service.WithCoherenceScorer(coherence.NewScorer(
			coherence.WithStatusTiers(cfg.StatusCautionPercent, cfg.StatusWarningPercent, cfg.StatusCriticalPercent),
		)),
	)

	// Optional streaming ingestion alongside the HTTP route.
	if cfg.KafkaBrokers != "" {
		consumer := stream.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaGroup, cfg.KafkaTopic)
		if err := consumer.Start(ctx); err != nil {
			log.Error(ctx, "failed to start stream consumer", logger.Error(err))
			return
		}
		defer func() { _ = consumer.Close() }()

		pool := worker.NewPool(consumer.Messages(), engine,
			worker.WithWorkerCount(cfg.StreamWorkers),
			worker.WithDeduper(dedupe.NewRingDeduper(dedupe.WithMaxSize(cfg.DedupeSize))),
			worker.WithLogger(log.Named("stream-worker")),
		)
		pool.Start(ctx)
		log.Info(ctx, "stream ingestion started",
			logger.String("brokers", cfg.KafkaBrokers),
			logger.String("topic", cfg.KafkaTopic),
			logger.Int("workers", cfg.StreamWorkers),
		)
	}

	go startStatsUpdater(ctx, engine)

	mux := http.NewServeMux()
	apiServer := api.NewServer(engine, engine, api.Limits{
		DefaultWindow: time.Duration(cfg.DefaultWindowMinutes) * time.Minute,
		MaxWindow:     time.Duration(cfg.MaxWindowMinutes) * time.Minute,
		DefaultLimit:  cfg.DefaultLimit,
		MaxLimit:      cfg.MaxLimit,
	})
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// openStore picks the configured store backend.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.Store == "sqlite" {
		return repository.OpenSQLite(ctx, cfg.SQLitePath)
	}
	return repository.NewMemoryStore(), nil
}

// startStatsUpdater periodically refreshes store-size gauges.
func startStatsUpdater(ctx context.Context, engine *service.Engine) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			engine.GetStats()
		}
	}
}
