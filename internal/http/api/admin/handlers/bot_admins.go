package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hexforge/hwidgate/internal/verify"
)

// BotAdminHandler manages the Discord admin allow-list over the admin API.
type BotAdminHandler struct {
	svc *verify.Service
}

// NewBotAdminHandler constructs a BotAdminHandler.
func NewBotAdminHandler(svc *verify.Service) *BotAdminHandler {
	return &BotAdminHandler{svc: svc}
}

// botAdminResponse is the wire shape of an allow-list entry.
type botAdminResponse struct {
	ID        uint64    `json:"id"`
	DiscordID string    `json:"discord_id"`
	AddedBy   string    `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns the allow-list in insertion order.
func (h *BotAdminHandler) List(c *gin.Context) {
	entries, errList := h.svc.ListBotAdmins(c.Request.Context())
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	items := make([]botAdminResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, botAdminResponse{
			ID:        entry.ID,
			DiscordID: entry.DiscordID,
			AddedBy:   entry.AddedBy,
			CreatedAt: entry.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// addBotAdminRequest defines the request body for allow-listing a user.
type addBotAdminRequest struct {
	DiscordID string `json:"discord_id"`
}

// Add puts a Discord user on the allow-list.
func (h *BotAdminHandler) Add(c *gin.Context) {
	var body addBotAdminRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	discordID := strings.TrimSpace(body.DiscordID)
	if discordID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing discord_id"})
		return
	}
	if errAdd := h.svc.AddBotAdmin(c.Request.Context(), discordID, actorName(c)); errAdd != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "write failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"discord_id": discordID})
}

// Remove drops a Discord user from the allow-list.
func (h *BotAdminHandler) Remove(c *gin.Context) {
	discordID := strings.TrimSpace(c.Param("discord_id"))
	if errRemove := h.svc.RemoveBotAdmin(c.Request.Context(), discordID, actorName(c)); errRemove != nil {
		if errors.Is(errRemove, verify.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "admin not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": discordID})
}
