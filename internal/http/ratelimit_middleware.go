package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// CheckRateLimit returns a fixed-window per-IP limiter for the check endpoint.
// Redis failures fail open so the gate never blocks clients on an outage.
func CheckRateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	if rdb == nil || limit <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := fmt.Sprintf("hwidgate:check:%s:%d", c.ClientIP(), time.Now().Unix()/int64(window.Seconds()))

		count, errIncr := rdb.Incr(ctx, key).Result()
		if errIncr != nil {
			log.WithError(errIncr).Warn("rate limit: redis incr failed, allowing request")
			c.Next()
			return
		}
		if count == 1 {
			if errExpire := rdb.Expire(ctx, key, window).Err(); errExpire != nil {
				log.WithError(errExpire).Warn("rate limit: redis expire failed")
			}
		}
		if count > int64(limit) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
