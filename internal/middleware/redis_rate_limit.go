package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qauym-app/backend/internal/cache"
	"github.com/qauym-app/backend/internal/logger"
	"github.com/qauym-app/backend/internal/metrics"
	"go.uber.org/zap"
)

// RedisRateLimitMiddleware creates a distributed fixed-window rate
// limiter keyed by client IP. It works across multiple instances.
func RedisRateLimitMiddleware(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			// No Redis: let the request through rather than take the API down
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		key := fmt.Sprintf("rate_limit:%s", clientIP)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		val, err := redisClient.GetInt(ctx, key)
		if err != nil && !cache.IsNil(err) {
			logger.Log.Error("Rate limit check failed - rejecting request",
				logger.WithIP(clientIP),
				zap.Error(err),
			)
			c.JSON(503, gin.H{"error": "service temporarily unavailable"})
			c.Abort()
			return
		}

		if val >= int64(maxRequests) {
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(clientIP),
				zap.Int("max_requests", maxRequests),
				zap.Int64("current_requests", val),
			)
			metrics.Get().RateLimitExceededTotal.WithLabelValues(c.FullPath()).Inc()
			c.JSON(429, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		newVal, err := redisClient.IncrBy(ctx, key, 1)
		if err != nil {
			logger.Log.Error("Rate limit increment failed - rejecting request",
				logger.WithIP(clientIP),
				zap.Error(err),
			)
			c.JSON(503, gin.H{"error": "service temporarily unavailable"})
			c.Abort()
			return
		}

		// First request in this window sets the expiry
		if newVal == 1 {
			if err := redisClient.Expire(ctx, key, window); err != nil {
				logger.Log.Warn("Failed to set rate limit expiration",
					logger.WithIP(clientIP),
					zap.Error(err),
				)
			}
		}

		c.Next()
	}
}
