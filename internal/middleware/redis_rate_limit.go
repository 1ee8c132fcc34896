package middleware

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/screams/backend/internal/cache"
	"github.com/zfogg/screams/backend/internal/logger"
	"go.uber.org/zap"
)

// RedisRateLimitMiddleware is a fixed-window limiter shared by every server instance.
// Without a Redis client it falls back to the in-memory token bucket limiter.
func RedisRateLimitMiddleware(client *cache.RedisClient, scope string, config RateLimitConfig) gin.HandlerFunc {
	if client == nil {
		logger.Log.Info("Redis unavailable, using in-memory rate limiter", zap.String("scope", scope))
		return RateLimit(config)
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		key := fmt.Sprintf("rate_limit:%s:%s", scope, clientIP)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := client.IncrWindow(ctx, key, config.Window)
		if err != nil {
			// Rejecting here would take the API down with Redis
			logger.Log.Error("Rate limit check failed, allowing request",
				logger.WithIP(clientIP),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if count > int64(config.Limit) {
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(clientIP),
				zap.String("scope", scope),
				zap.Int("max_requests", config.Limit),
				zap.Int64("current_requests", count),
			)
			rejectRateLimited(c, config.Limit, retryAfter(ctx, client, key, config.Window))
			return
		}

		c.Next()
	}
}

// SmartRateLimit uses the global Redis client when one was connected at startup
func SmartRateLimit(scope string, config RateLimitConfig) gin.HandlerFunc {
	return RedisRateLimitMiddleware(cache.GetRedisClient(), scope, config)
}

func retryAfter(ctx context.Context, client *cache.RedisClient, key string, window time.Duration) int {
	ttl, err := client.TTL(ctx, key)
	if err != nil || ttl <= 0 {
		ttl = window
	}
	return int(math.Ceil(ttl.Seconds()))
}
