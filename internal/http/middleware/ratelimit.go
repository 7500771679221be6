package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"stars_wallet/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var rateLimiterClient *redis.Client

// InitRedisRateLimiter подключает redis для лимитера.
// при пустом адресе или недоступном redis лимитер отключен (fail-open)
func InitRedisRateLimiter(addr, password string, db int) {
	if addr == "" {
		logger.Info("rate limiter: redis не настроен, лимиты отключены")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("rate limiter: redis недоступен, лимиты отключены", "error", err)
		return
	}

	rateLimiterClient = client
	logger.Info("rate limiter: redis подключен", "addr", addr)
}

// RateLimit - фиксированное окно per-идентичность.
// при ошибках redis пропускает запрос, лимитер не должен ронять api
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rateLimiterClient == nil {
			c.Next()
			return
		}

		key := rateLimitKey(c, window)
		ctx := c.Request.Context()

		count, err := rateLimiterClient.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			rateLimiterClient.Expire(ctx, key, window)
		}

		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "RATE_LIMITED"})
			return
		}

		c.Next()
	}
}

func rateLimitKey(c *gin.Context, window time.Duration) string {
	bucket := time.Now().Unix() / int64(window.Seconds())
	if identity := GetIdentity(c); identity != nil && identity.TgID != 0 {
		return fmt.Sprintf("rl:%d:%s:%d", identity.TgID, c.FullPath(), bucket)
	}
	return fmt.Sprintf("rl:ip:%s:%s:%d", c.ClientIP(), c.FullPath(), bucket)
}
