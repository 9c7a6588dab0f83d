// Package http assembles the HTTP surface: the public client API and the
// JWT-protected admin API.
package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/hexforge/hwidgate/internal/config"
	"github.com/hexforge/hwidgate/internal/http/api/admin"
	"github.com/hexforge/hwidgate/internal/http/api/client"
	"github.com/hexforge/hwidgate/internal/verify"
)

// NewRouter builds the gin engine with all routes registered. rdb may be nil,
// which disables rate limiting on the check endpoint.
func NewRouter(cfg *config.Config, db *gorm.DB, svc *verify.Service, rdb *redis.Client) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	limiter := CheckRateLimit(rdb, cfg.Redis.CheckLimit, time.Duration(cfg.Redis.CheckWindowSecs)*time.Second)
	client.RegisterClientRoutes(r, db, svc, limiter)
	admin.RegisterAdminRoutes(r, db, svc, cfg.JWT)
	return r
}
