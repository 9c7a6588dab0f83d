package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hexforge/hwidgate/internal/duration"
	"github.com/hexforge/hwidgate/internal/verify"
)

// RoleRuleHandler manages role-to-duration rules over the admin API.
type RoleRuleHandler struct {
	svc *verify.Service
}

// NewRoleRuleHandler constructs a RoleRuleHandler.
func NewRoleRuleHandler(svc *verify.Service) *RoleRuleHandler {
	return &RoleRuleHandler{svc: svc}
}

// roleRuleResponse is the wire shape of a role rule.
type roleRuleResponse struct {
	ID        uint64    `json:"id"`
	RoleID    string    `json:"role_id"`
	RoleName  string    `json:"role_name"`
	Duration  string    `json:"duration"`
	Kind      string    `json:"kind"`
	UpdatedAt time.Time `json:"updated_at"`
}

// List returns all role rules in insertion order.
func (h *RoleRuleHandler) List(c *gin.Context) {
	rules, errList := h.svc.Rules(c.Request.Context())
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	items := make([]roleRuleResponse, 0, len(rules))
	for _, rule := range rules {
		items = append(items, roleRuleResponse{
			ID:        rule.ID,
			RoleID:    rule.RoleID,
			RoleName:  rule.RoleName,
			Duration:  rule.Duration,
			Kind:      rule.Kind,
			UpdatedAt: rule.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// upsertRuleRequest defines the request body for writing a role rule.
type upsertRuleRequest struct {
	RoleID   string `json:"role_id"`
	RoleName string `json:"role_name"`
	Duration string `json:"duration"` // Duration token; "+" prefix marks a bonus.
}

// Upsert validates and writes a role rule, keyed by role id.
func (h *RoleRuleHandler) Upsert(c *gin.Context) {
	var body upsertRuleRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.RoleID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing role_id"})
		return
	}
	rule, errSet := h.svc.SetRule(c.Request.Context(), body.RoleID, body.RoleName, body.Duration, actorName(c))
	if errSet != nil {
		if errors.Is(errSet, duration.ErrInvalidDuration) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "write failed"})
		return
	}
	c.JSON(http.StatusOK, roleRuleResponse{
		ID:        rule.ID,
		RoleID:    rule.RoleID,
		RoleName:  rule.RoleName,
		Duration:  rule.Duration,
		Kind:      rule.Kind,
		UpdatedAt: rule.UpdatedAt,
	})
}

// Delete removes the rule for a role id.
func (h *RoleRuleHandler) Delete(c *gin.Context) {
	roleID := strings.TrimSpace(c.Param("role_id"))
	errRemove := h.svc.RemoveRule(c.Request.Context(), roleID, actorName(c))
	if errRemove != nil {
		if errors.Is(errRemove, verify.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": roleID})
}
