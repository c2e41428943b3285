package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"anoa.com/userservice/pkg/apperror"
	"anoa.com/userservice/pkg/logger"
	"anoa.com/userservice/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func rateLimitKey(subject, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", subject, action)
}

// CheckAndSetRateLimit claims the action slot for subject. It returns false
// while a previous claim is still inside its window.
func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, subject, action string, window time.Duration) (bool, error) {
	if rdb == nil || window <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, rateLimitKey(subject, action), "locked", window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	return wasSet, nil
}

func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, subject, action string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, rateLimitKey(subject, action)).Result()
}

// Throttle allows one request per window per caller for the named action.
// Redis errors let the request through.
func Throttle(rdb *redis.Client, action string, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || window <= 0 {
			c.Next()
			return
		}

		subject, err := response.GetExternalID(c)
		if err != nil {
			c.Next()
			return
		}

		allowed, err := CheckAndSetRateLimit(c.Request.Context(), rdb, subject, action, window)
		if err != nil {
			logger.Warn("rate limit check failed", "action", action, "error", err)
			c.Next()
			return
		}

		if !allowed {
			ttl, _ := GetRateLimitTTL(c.Request.Context(), rdb, subject, action)
			if ttl <= 0 {
				ttl = window
			}
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
			response.ResponseError(c, apperror.New(http.StatusTooManyRequests, "too many requests, slow down", apperror.ErrRateLimitExceeded))
			c.Abort()
			return
		}

		c.Next()
	}
}
