// Command trigger-worker consumes the Redis change stream and runs the triggers.
// Run it next to servers started with TRIGGERS_IN_PROCESS=false.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zfogg/screams/backend/internal/config"
	"github.com/zfogg/screams/backend/internal/container"
	"github.com/zfogg/screams/backend/internal/logger"
	"github.com/zfogg/screams/backend/internal/metrics"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Initialize(cfg.LogLevel, getEnv("LOG_FILE", "trigger-worker.log")); err != nil {
		panic(err)
	}
	defer logger.Close()

	metrics.Initialize()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.Build(ctx, cfg, container.Options{
		ServiceName: "screams-trigger-worker",
		Bus:         container.BusRedis,
	})
	if err != nil {
		logger.FatalWithFields("Failed to initialize services", err)
	}

	metricsAddr := getEnv("METRICS_ADDR", ":9100")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorWithFields("Metrics server failed", err)
		}
	}()

	logger.Log.Info("Trigger worker started",
		zap.String("stream", cfg.EventStream),
		zap.String("group", cfg.ConsumerGroup),
		zap.Int("workers", cfg.TriggerWorkers),
		zap.Strings("topics", c.Dispatcher().Topics()),
	)

	if err := c.Worker().Run(ctx); err != nil && ctx.Err() == nil {
		logger.ErrorWithFields("Trigger worker stopped", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	if err := c.Cleanup(shutdownCtx); err != nil {
		logger.WarnWithFields("Cleanup finished with errors", err)
	}
	logger.Log.Info("Trigger worker exited")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
