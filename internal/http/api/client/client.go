// Package client registers the public endpoints polled by game clients.
package client

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hexforge/hwidgate/internal/http/api/client/handlers"
	"github.com/hexforge/hwidgate/internal/verify"
)

// RegisterClientRoutes registers the liveness and check endpoints.
func RegisterClientRoutes(r *gin.Engine, db *gorm.DB, svc *verify.Service, middlewares ...gin.HandlerFunc) {
	if r == nil || svc == nil {
		return
	}

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "hwidgate is running")
	})
	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, errDB := db.DB()
		if errDB != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	checkHandler := handlers.NewCheckHandler(svc)
	check := r.Group("")
	check.Use(middlewares...)
	check.GET("/check", checkHandler.Check)
}
