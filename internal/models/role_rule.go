package models

import "time"

// Rule kinds stored on role rules. The kind is decided once when the rule is
// written, not inferred from string prefixes at read time.
const (
	// RuleKindBase sets the access duration floor.
	RuleKindBase = "base"
	// RuleKindBonus adds on top of the selected base.
	RuleKindBonus = "bonus"
	// RuleKindPunishment overrides and shortens everything else.
	RuleKindPunishment = "punishment"
)

// RoleRule attaches an access duration to a Discord role.
type RoleRule struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	RoleID   string `gorm:"type:text;not null;uniqueIndex"` // Discord role ID; at most one rule per role.
	RoleName string `gorm:"type:text;not null"`             // Role name captured when the rule was written.
	Duration string `gorm:"type:text;not null"`             // Duration token, e.g. "2d", "+1h", "lifetime".
	Kind     string `gorm:"type:text;not null"`             // One of the RuleKind constants.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
