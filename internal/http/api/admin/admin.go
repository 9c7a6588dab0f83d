// Package admin registers the JWT-protected admin API.
package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hexforge/hwidgate/internal/config"
	"github.com/hexforge/hwidgate/internal/http/api/admin/handlers"
	"github.com/hexforge/hwidgate/internal/models"
	"github.com/hexforge/hwidgate/internal/security"
	"github.com/hexforge/hwidgate/internal/verify"
)

// RegisterAdminRoutes registers the admin login and management routes.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, svc *verify.Service, jwtCfg config.JWTConfig) {
	if r == nil || db == nil || svc == nil {
		return
	}

	group := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	group.POST("/login", authHandler.Login)

	authed := group.Group("")
	authed.Use(adminAuthMiddleware(db, jwtCfg))

	verificationHandler := handlers.NewVerificationHandler(db, svc)
	authed.GET("/verifications", verificationHandler.List)
	authed.GET("/verifications/lookup", verificationHandler.Lookup)
	authed.POST("/verifications/ban", verificationHandler.Ban)
	authed.POST("/verifications/unban", verificationHandler.Unban)
	authed.POST("/verifications/reset", verificationHandler.Reset)
	authed.POST("/verifications/set-expiry", verificationHandler.SetExpiry)

	ruleHandler := handlers.NewRoleRuleHandler(svc)
	authed.GET("/rules", ruleHandler.List)
	authed.PUT("/rules", ruleHandler.Upsert)
	authed.DELETE("/rules/:role_id", ruleHandler.Delete)

	botAdminHandler := handlers.NewBotAdminHandler(svc)
	authed.GET("/bot-admins", botAdminHandler.List)
	authed.POST("/bot-admins", botAdminHandler.Add)
	authed.DELETE("/bot-admins/:discord_id", botAdminHandler.Remove)

	settingsHandler := handlers.NewSettingsHandler(db)
	authed.GET("/settings", settingsHandler.List)
	authed.PUT("/settings", settingsHandler.Update)
}

// adminAuthMiddleware validates admin JWTs and loads the account into context.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var account models.AdminAccount
		if errFind := db.WithContext(c.Request.Context()).First(&account, claims.AdminID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account not found"})
			return
		}
		if !account.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		c.Set("adminID", account.ID)
		c.Set("adminUsername", account.Username)
		c.Next()
	}
}
