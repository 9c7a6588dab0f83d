package verify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hexforge/hwidgate/internal/access"
	"github.com/hexforge/hwidgate/internal/duration"
	"github.com/hexforge/hwidgate/internal/models"
	"github.com/hexforge/hwidgate/internal/security"
	"github.com/hexforge/hwidgate/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Check statuses returned to the polling game client.
const (
	// StatusValid grants access.
	StatusValid = "VALID"
	// StatusBanned denies access permanently.
	StatusBanned = "BANNED"
	// StatusNeedVerify asks the client to surface the verification code.
	StatusNeedVerify = "NEED_VERIFY"
	// StatusError marks a malformed request.
	StatusError = "ERROR"
)

// AuditNotifier receives best-effort notifications about admin mutations.
type AuditNotifier interface {
	AdminAction(ctx context.Context, action, target, actor string)
}

// Service implements the verification workflow and admin operations over the store.
type Service struct {
	db            *gorm.DB      // Database handle.
	ownerID       string        // Discord ID that is always an admin.
	fallbackToken string        // Configured default duration token.
	notifier      AuditNotifier // Optional audit sink for admin mutations.
}

// NewService wires a verification service.
func NewService(db *gorm.DB, ownerID, fallbackToken string, notifier AuditNotifier) *Service {
	return &Service{
		db:            db,
		ownerID:       strings.TrimSpace(ownerID),
		fallbackToken: strings.TrimSpace(fallbackToken),
		notifier:      notifier,
	}
}

// DefaultDuration resolves the duration applied when no role rule matches.
// The DB-backed setting overrides the configured token; an unparseable token
// falls back to the package default.
func (s *Service) DefaultDuration() duration.Value {
	token := settings.StringValue(settings.DefaultDurationKey, s.fallbackToken)
	if value, errParse := duration.Parse(token); errParse == nil {
		return value
	}
	value, errParse := duration.Parse(settings.DefaultDefaultDuration)
	if errParse != nil {
		return duration.FromMillis(0)
	}
	return value
}

// CheckResult is the reply for a client poll.
type CheckResult struct {
	Status string // One of the Status constants.
	Code   string // Verification code, set for NEED_VERIFY.
}

// Check implements the stateless client poll: lookup-or-insert by HWID.
//
// A previously verified record whose expiry has passed gets a fresh code so a
// stale code cannot be redeemed after the access window closed; an unverified
// record keeps its code across polls.
func (s *Service) Check(ctx context.Context, hwid string) (CheckResult, error) {
	hwid = strings.TrimSpace(hwid)
	if hwid == "" {
		return CheckResult{Status: StatusError}, nil
	}

	var record models.Verification
	errFind := s.db.WithContext(ctx).Where("hwid = ?", hwid).First(&record).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		code, errGen := security.GenerateVerificationCode()
		if errGen != nil {
			return CheckResult{}, errGen
		}
		record = models.Verification{HWID: hwid, Code: code}
		if errCreate := s.db.WithContext(ctx).Create(&record).Error; errCreate != nil {
			return CheckResult{}, errCreate
		}
		return CheckResult{Status: StatusNeedVerify, Code: code}, nil
	}
	if errFind != nil {
		return CheckResult{}, errFind
	}

	now := time.Now().UTC()
	switch {
	case record.IsBanned:
		return CheckResult{Status: StatusBanned}, nil
	case record.ActiveAt(now):
		return CheckResult{Status: StatusValid}, nil
	case record.Verified:
		// Access expired; rotate the code for the next verification cycle.
		code, errGen := security.GenerateVerificationCode()
		if errGen != nil {
			return CheckResult{}, errGen
		}
		if errUpdate := s.db.WithContext(ctx).
			Model(&models.Verification{}).
			Where("id = ?", record.ID).
			Update("code", code).Error; errUpdate != nil {
			return CheckResult{}, errUpdate
		}
		return CheckResult{Status: StatusNeedVerify, Code: code}, nil
	default:
		return CheckResult{Status: StatusNeedVerify, Code: record.Code}, nil
	}
}

// RedeemOutcome describes a successful redemption for the notifier.
type RedeemOutcome struct {
	HWID              string         // Hardware ID the code belonged to.
	Duration          duration.Value // Effective access duration.
	Description       string         // Applied rule description.
	Punished          bool           // True when a punishment rule applied.
	FirstVerification bool           // True when the record was unverified before.
	ExpiresAt         time.Time      // Absolute expiry written to the record.
}

// Redeem runs the verification workflow for a human-entered code.
//
// roleIDs are the redeemer's live guild roles; rolesOK is false when the role
// fetch failed, in which case the default duration applies with an error
// description instead of failing the redemption.
func (s *Service) Redeem(ctx context.Context, code, discordID string, roleIDs []string, rolesOK bool) (RedeemOutcome, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return RedeemOutcome{}, ErrNotFound
	}

	var record models.Verification
	errFind := s.db.WithContext(ctx).Where("code = ?", code).First(&record).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return RedeemOutcome{}, ErrNotFound
	}
	if errFind != nil {
		return RedeemOutcome{}, errFind
	}
	if record.IsBanned {
		return RedeemOutcome{}, ErrBanned
	}

	fallback := s.DefaultDuration()
	result := access.Result{
		Duration:    fallback,
		Description: access.DefaultDescription(fallback) + " (role lookup failed)",
	}
	if rolesOK {
		rules, errRules := s.Rules(ctx)
		if errRules != nil {
			log.WithError(errRules).Warn("redeem: load role rules failed, applying default duration")
			result.Description = access.DefaultDescription(fallback) + " (rule load failed)"
		} else {
			result = access.Compute(roleIDs, rules, fallback)
		}
	}

	now := time.Now().UTC()
	expiresAt := duration.ExpiryFrom(now, result.Duration)
	// Update by record id, not by code, so a concurrent code rotation cannot
	// redirect the write.
	updates := map[string]any{
		"verified":   true,
		"expires_at": expiresAt,
		"discord_id": discordID,
	}
	if errUpdate := s.db.WithContext(ctx).
		Model(&models.Verification{}).
		Where("id = ?", record.ID).
		Updates(updates).Error; errUpdate != nil {
		return RedeemOutcome{}, errUpdate
	}

	return RedeemOutcome{
		HWID:              record.HWID,
		Duration:          result.Duration,
		Description:       result.Description,
		Punished:          result.Punished,
		FirstVerification: !record.Verified,
		ExpiresAt:         expiresAt,
	}, nil
}

// Rules returns all stored role rules in insertion order.
func (s *Service) Rules(ctx context.Context) ([]models.RoleRule, error) {
	var rules []models.RoleRule
	if errFind := s.db.WithContext(ctx).Order("id ASC").Find(&rules).Error; errFind != nil {
		return nil, errFind
	}
	return rules, nil
}

// Preview computes the duration a member would receive without redeeming.
func (s *Service) Preview(ctx context.Context, roleIDs []string) (access.Result, error) {
	fallback := s.DefaultDuration()
	rules, errRules := s.Rules(ctx)
	if errRules != nil {
		return access.Result{}, errRules
	}
	return access.Compute(roleIDs, rules, fallback), nil
}

// audit sends a best-effort admin-action notification.
func (s *Service) audit(ctx context.Context, action, target, actor string) {
	if s.notifier == nil {
		return
	}
	s.notifier.AdminAction(ctx, action, target, actor)
}
