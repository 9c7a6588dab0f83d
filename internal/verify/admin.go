package verify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hexforge/hwidgate/internal/access"
	"github.com/hexforge/hwidgate/internal/duration"
	"github.com/hexforge/hwidgate/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IsAdmin reports whether a Discord user may run admin commands: either the
// configured owner or an allow-list entry.
func (s *Service) IsAdmin(ctx context.Context, discordID string) bool {
	discordID = strings.TrimSpace(discordID)
	if discordID == "" {
		return false
	}
	if s.ownerID != "" && discordID == s.ownerID {
		return true
	}
	var count int64
	if errCount := s.db.WithContext(ctx).
		Model(&models.BotAdmin{}).
		Where("discord_id = ?", discordID).
		Count(&count).Error; errCount != nil {
		return false
	}
	return count > 0
}

// ResolveTarget finds a verification record by code or HWID, first match wins.
func (s *Service) ResolveTarget(ctx context.Context, target string) (*models.Verification, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrNotFound
	}
	var record models.Verification
	errFind := s.db.WithContext(ctx).Where("code = ?", target).First(&record).Error
	if errFind == nil {
		return &record, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, errFind
	}
	errFind = s.db.WithContext(ctx).Where("hwid = ?", target).First(&record).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if errFind != nil {
		return nil, errFind
	}
	return &record, nil
}

// Ban marks the target record banned.
func (s *Service) Ban(ctx context.Context, target, actor string) (*models.Verification, error) {
	record, errResolve := s.ResolveTarget(ctx, target)
	if errResolve != nil {
		return nil, errResolve
	}
	if errUpdate := s.db.WithContext(ctx).
		Model(&models.Verification{}).
		Where("id = ?", record.ID).
		Update("is_banned", true).Error; errUpdate != nil {
		return nil, errUpdate
	}
	record.IsBanned = true
	s.audit(ctx, "ban", record.HWID, actor)
	return record, nil
}

// Unban clears the ban flag on the target record.
func (s *Service) Unban(ctx context.Context, target, actor string) (*models.Verification, error) {
	record, errResolve := s.ResolveTarget(ctx, target)
	if errResolve != nil {
		return nil, errResolve
	}
	if errUpdate := s.db.WithContext(ctx).
		Model(&models.Verification{}).
		Where("id = ?", record.ID).
		Update("is_banned", false).Error; errUpdate != nil {
		return nil, errUpdate
	}
	record.IsBanned = false
	s.audit(ctx, "unban", record.HWID, actor)
	return record, nil
}

// Reset deletes the target record entirely; the next client poll starts a
// fresh verification cycle.
func (s *Service) Reset(ctx context.Context, target, actor string) (*models.Verification, error) {
	record, errResolve := s.ResolveTarget(ctx, target)
	if errResolve != nil {
		return nil, errResolve
	}
	if errDelete := s.db.WithContext(ctx).Delete(&models.Verification{}, record.ID).Error; errDelete != nil {
		return nil, errDelete
	}
	s.audit(ctx, "reset", record.HWID, actor)
	return record, nil
}

// SetExpiry overwrites the target's expiry with now + the given duration token
// and marks it verified.
func (s *Service) SetExpiry(ctx context.Context, target, token, actor string) (*models.Verification, error) {
	value, errParse := duration.Parse(token)
	if errParse != nil {
		return nil, errParse
	}
	record, errResolve := s.ResolveTarget(ctx, target)
	if errResolve != nil {
		return nil, errResolve
	}
	expiresAt := duration.ExpiryFrom(time.Now().UTC(), value)
	if errUpdate := s.db.WithContext(ctx).
		Model(&models.Verification{}).
		Where("id = ?", record.ID).
		Updates(map[string]any{"verified": true, "expires_at": expiresAt}).Error; errUpdate != nil {
		return nil, errUpdate
	}
	record.Verified = true
	record.ExpiresAt = &expiresAt
	s.audit(ctx, "setexpiry", record.HWID+" -> "+duration.Format(value), actor)
	return record, nil
}

// ActiveUsers returns verified, unexpired, unbanned records, newest first.
// Pages are 1-based.
func (s *Service) ActiveUsers(ctx context.Context, page, perPage int) ([]models.Verification, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	now := time.Now().UTC()
	base := s.db.WithContext(ctx).
		Model(&models.Verification{}).
		Where("verified = ? AND is_banned = ? AND expires_at > ?", true, false, now)

	var total int64
	if errCount := base.Count(&total).Error; errCount != nil {
		return nil, 0, errCount
	}
	var rows []models.Verification
	if errFind := base.
		Order("expires_at DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&rows).Error; errFind != nil {
		return nil, 0, errFind
	}
	return rows, total, nil
}

// SetRule validates and upserts a role rule; the rule kind is decided here,
// once, from the duration token and role name.
func (s *Service) SetRule(ctx context.Context, roleID, roleName, token, actor string) (*models.RoleRule, error) {
	roleID = strings.TrimSpace(roleID)
	token = strings.TrimSpace(token)
	if roleID == "" {
		return nil, ErrNotFound
	}
	value, errParse := duration.Parse(token)
	if errParse != nil {
		return nil, errParse
	}
	kind := access.KindForRule(roleName, token)
	if kind == models.RuleKindBonus && value.Lifetime {
		return nil, duration.ErrInvalidDuration
	}

	rule := models.RoleRule{
		RoleID:   roleID,
		RoleName: strings.TrimSpace(roleName),
		Duration: token,
		Kind:     kind,
	}
	if errUpsert := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "role_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role_name", "duration", "kind", "updated_at"}),
		}).
		Create(&rule).Error; errUpsert != nil {
		return nil, errUpsert
	}
	s.audit(ctx, "setrule", rule.RoleName+" -> "+token, actor)
	return &rule, nil
}

// RemoveRule deletes the rule for a role id.
func (s *Service) RemoveRule(ctx context.Context, roleID, actor string) error {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return ErrNotFound
	}
	res := s.db.WithContext(ctx).Where("role_id = ?", roleID).Delete(&models.RoleRule{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.audit(ctx, "removerule", roleID, actor)
	return nil
}

// AddBotAdmin puts a Discord user on the admin allow-list.
func (s *Service) AddBotAdmin(ctx context.Context, discordID, actor string) error {
	discordID = strings.TrimSpace(discordID)
	if discordID == "" {
		return ErrNotFound
	}
	entry := models.BotAdmin{DiscordID: discordID, AddedBy: actor}
	if errCreate := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry).Error; errCreate != nil {
		return errCreate
	}
	s.audit(ctx, "addadmin", discordID, actor)
	return nil
}

// RemoveBotAdmin drops a Discord user from the admin allow-list.
func (s *Service) RemoveBotAdmin(ctx context.Context, discordID, actor string) error {
	res := s.db.WithContext(ctx).Where("discord_id = ?", strings.TrimSpace(discordID)).Delete(&models.BotAdmin{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.audit(ctx, "removeadmin", discordID, actor)
	return nil
}

// ListBotAdmins returns the allow-list in insertion order.
func (s *Service) ListBotAdmins(ctx context.Context) ([]models.BotAdmin, error) {
	var rows []models.BotAdmin
	if errFind := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; errFind != nil {
		return nil, errFind
	}
	return rows, nil
}
