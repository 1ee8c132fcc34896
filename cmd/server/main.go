package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zfogg/screams/backend/internal/config"
	"github.com/zfogg/screams/backend/internal/container"
	"github.com/zfogg/screams/backend/internal/database"
	"github.com/zfogg/screams/backend/internal/handlers"
	"github.com/zfogg/screams/backend/internal/logger"
	"github.com/zfogg/screams/backend/internal/metrics"
	"github.com/zfogg/screams/backend/internal/middleware"
	"go.uber.org/zap"
)

const serviceName = "screams-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is not up yet
		panic(err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Log.Info("=== Screams server starting ===",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	metrics.Initialize()

	// A standalone trigger-worker or the Lambda can own the triggers instead
	externalTriggers := os.Getenv("TRIGGERS_IN_PROCESS") == "false"

	ctx := context.Background()
	c, err := container.Build(ctx, cfg, container.Options{
		ServiceName:      serviceName,
		Migrate:          true,
		ExternalTriggers: externalTriggers,
	})
	if err != nil {
		logger.FatalWithFields("Failed to initialize services", err)
	}

	if err := c.ServiceValidator().ValidateServices(ctx); err != nil {
		logger.FatalWithFields("Required service unavailable", err)
	}

	if worker := c.Worker(); worker != nil && !externalTriggers {
		worker.Start(ctx)
		c.OnCleanup(func(context.Context) error {
			worker.Stop()
			return nil
		})
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.TracingMiddleware(serviceName)...)
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(ctx *gin.Context) {
		status := http.StatusOK
		dbStatus := "ok"
		if err := database.Health(); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = err.Error()
		}
		ctx.JSON(status, gin.H{
			"status":    http.StatusText(status),
			"database":  dbStatus,
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := handlers.NewHandlers(c.Store(), c.Auth(), c.Images(), cfg.ImageBaseURL)
	h.RegisterRoutes(r, handlers.RouteOptions{
		AuthLimit:   middleware.SmartRateLimit("auth", middleware.AuthRateLimitConfig()),
		UploadLimit: middleware.SmartRateLimit("upload", middleware.UploadRateLimitConfig()),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Screams backend listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}
	if err := c.Cleanup(shutdownCtx); err != nil {
		logger.WarnWithFields("Cleanup finished with errors", err)
	}

	logger.Log.Info("Server exited")
}
