package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hexforge/hwidgate/internal/db"
	"github.com/hexforge/hwidgate/internal/duration"
	"github.com/hexforge/hwidgate/internal/models"
	"github.com/hexforge/hwidgate/internal/verify"
)

// VerificationHandler exposes verification records to the admin API.
type VerificationHandler struct {
	db  *gorm.DB
	svc *verify.Service
}

// NewVerificationHandler constructs a VerificationHandler.
func NewVerificationHandler(db *gorm.DB, svc *verify.Service) *VerificationHandler {
	return &VerificationHandler{db: db, svc: svc}
}

// verificationResponse is the wire shape of a verification record.
type verificationResponse struct {
	ID        uint64     `json:"id"`
	HWID      string     `json:"hwid"`
	Code      string     `json:"code"`
	Verified  bool       `json:"verified"`
	IsBanned  bool       `json:"is_banned"`
	DiscordID string     `json:"discord_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Remaining string     `json:"remaining,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toVerificationResponse(record *models.Verification) verificationResponse {
	resp := verificationResponse{
		ID:        record.ID,
		HWID:      record.HWID,
		Code:      record.Code,
		Verified:  record.Verified,
		IsBanned:  record.IsBanned,
		DiscordID: record.DiscordID,
		ExpiresAt: record.ExpiresAt,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if record.ExpiresAt != nil {
		resp.Remaining = duration.FormatUntil(*record.ExpiresAt, time.Now().UTC())
	}
	return resp
}

// List returns verification records, newest first, with optional filters.
func (h *VerificationHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := h.db.WithContext(c.Request.Context()).Model(&models.Verification{})
	if search := strings.TrimSpace(c.Query("q")); search != "" {
		pattern := db.NormalizeLikePattern(h.db, "%"+search+"%")
		expr := db.CaseInsensitiveLikeExpr(h.db, "hwid")
		query = query.Where(h.db.Where(expr, pattern).
			Or(db.CaseInsensitiveLikeExpr(h.db, "discord_id"), pattern))
	}
	switch c.Query("filter") {
	case "active":
		query = query.Where("verified = ? AND is_banned = ? AND expires_at > ?", true, false, time.Now().UTC())
	case "banned":
		query = query.Where("is_banned = ?", true)
	case "pending":
		query = query.Where("verified = ?", false)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	var rows []models.Verification
	if errFind := query.
		Order("id DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	items := make([]verificationResponse, 0, len(rows))
	for i := range rows {
		items = append(items, toVerificationResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"items":    items,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// Lookup finds one record by code or HWID.
func (h *VerificationHandler) Lookup(c *gin.Context) {
	target := strings.TrimSpace(c.Query("target"))
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing target"})
		return
	}
	record, errResolve := h.svc.ResolveTarget(c.Request.Context(), target)
	if errResolve != nil {
		if errors.Is(errResolve, verify.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, toVerificationResponse(record))
}

// targetRequest names a record by code or HWID for a mutation.
type targetRequest struct {
	Target string `json:"target"`
}

func (h *VerificationHandler) mutate(c *gin.Context, action func(ctx *gin.Context, target, actor string) (*models.Verification, error)) {
	var body targetRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	target := strings.TrimSpace(body.Target)
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing target"})
		return
	}
	record, errAction := action(c, target, actorName(c))
	if errAction != nil {
		if errors.Is(errAction, verify.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, toVerificationResponse(record))
}

// Ban marks a record banned.
func (h *VerificationHandler) Ban(c *gin.Context) {
	h.mutate(c, func(ctx *gin.Context, target, actor string) (*models.Verification, error) {
		return h.svc.Ban(ctx.Request.Context(), target, actor)
	})
}

// Unban clears a record's ban flag.
func (h *VerificationHandler) Unban(c *gin.Context) {
	h.mutate(c, func(ctx *gin.Context, target, actor string) (*models.Verification, error) {
		return h.svc.Unban(ctx.Request.Context(), target, actor)
	})
}

// Reset deletes a record so the machine re-verifies from scratch.
func (h *VerificationHandler) Reset(c *gin.Context) {
	h.mutate(c, func(ctx *gin.Context, target, actor string) (*models.Verification, error) {
		return h.svc.Reset(ctx.Request.Context(), target, actor)
	})
}

// setExpiryRequest carries the target and new duration token.
type setExpiryRequest struct {
	Target   string `json:"target"`
	Duration string `json:"duration"` // Duration token, e.g. "2d" or "lifetime".
}

// SetExpiry overwrites a record's expiry with now + the given duration.
func (h *VerificationHandler) SetExpiry(c *gin.Context) {
	var body setExpiryRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	target := strings.TrimSpace(body.Target)
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing target"})
		return
	}
	record, errSet := h.svc.SetExpiry(c.Request.Context(), target, body.Duration, actorName(c))
	if errSet != nil {
		switch {
		case errors.Is(errSet, duration.ErrInvalidDuration):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration"})
		case errors.Is(errSet, verify.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		}
		return
	}
	c.JSON(http.StatusOK, toVerificationResponse(record))
}

// actorName resolves the audit actor from the authenticated admin.
func actorName(c *gin.Context) string {
	if username, ok := c.Get("adminUsername"); ok {
		if name, ok := username.(string); ok && name != "" {
			return "api:" + name
		}
	}
	return "api"
}
