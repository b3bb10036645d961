package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/aldenputra/tixgate/internal/helpers"
)

// RateLimiter throttles per caller using a redis counter with a rolling
// one-minute window. Used on the verification endpoint so a misbehaving
// scanner can't hammer code lookups.
type RateLimiter struct {
	redis *redis.Client
	limit int64
}

func NewRateLimiter(redisClient *redis.Client, limit int64) *RateLimiter {
	return &RateLimiter{redis: redisClient, limit: limit}
}

func (r *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.redis == nil {
			c.Next()
			return
		}

		identifier := c.ClientIP()
		if userID, exists := c.Get("user_id"); exists {
			identifier = fmt.Sprintf("user:%v", userID)
		}
		key := fmt.Sprintf("ratelimit:%s:%s", c.FullPath(), identifier)

		count, err := r.redis.Incr(c.Request.Context(), key).Result()
		if err != nil {
			// Redis being down never blocks live traffic.
			c.Next()
			return
		}
		if count == 1 {
			r.redis.Expire(c.Request.Context(), key, time.Minute)
		}
		if count > r.limit {
			helpers.RespondWithError(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			c.Abort()
			return
		}
		c.Next()
	}
}
