package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hexforge/hwidgate/internal/duration"
	"github.com/hexforge/hwidgate/internal/models"
	"github.com/hexforge/hwidgate/internal/settings"
)

// SettingsHandler exposes the DB-backed runtime settings.
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// editableKeys lists the settings the API may write.
var editableKeys = map[string]struct{}{
	settings.DefaultDurationKey:     {},
	settings.IdentityChannelKey:     {},
	settings.VerifyPromptEnabledKey: {},
	settings.RetentionDaysKey:       {},
}

// List returns all stored settings.
func (h *SettingsHandler) List(c *gin.Context) {
	var rows []models.Setting
	if errFind := h.db.WithContext(c.Request.Context()).Order("key ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	items := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		items[row.Key] = row.Value
	}
	c.JSON(http.StatusOK, gin.H{"settings": items})
}

// updateSettingRequest defines the request body for writing a setting.
type updateSettingRequest struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Update upserts one setting and refreshes the in-memory snapshot.
func (h *SettingsHandler) Update(c *gin.Context) {
	var body updateSettingRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	key := strings.TrimSpace(body.Key)
	if _, ok := editableKeys[key]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown setting key"})
		return
	}
	if len(body.Value) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing value"})
		return
	}
	if key == settings.DefaultDurationKey {
		var token string
		if errDecode := json.Unmarshal(body.Value, &token); errDecode != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "value must be a duration string"})
			return
		}
		if _, errParse := duration.Parse(token); errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration"})
			return
		}
	}

	row := models.Setting{Key: key, Value: body.Value, UpdatedAt: time.Now().UTC()}
	if errUpsert := h.db.WithContext(c.Request.Context()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error; errUpsert != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "write failed"})
		return
	}

	if errRefresh := settings.RefreshDBConfigSnapshot(c.Request.Context(), h.db); errRefresh != nil {
		log.WithError(errRefresh).Warn("settings: snapshot refresh after update failed")
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": body.Value})
}
