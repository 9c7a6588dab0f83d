package models

import "time"

// Verification represents the gating record for a single hardware ID.
type Verification struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	HWID string `gorm:"type:text;not null;uniqueIndex"` // Hardware ID supplied by the game client.
	Code string `gorm:"type:text;not null;index"`       // Current 6-digit verification code.

	Verified  bool       `gorm:"not null;default:false"` // Whether a human redeemed the code.
	ExpiresAt *time.Time // Absolute access expiry; meaningful only when verified.

	IsBanned bool `gorm:"not null;default:false"` // Overrides verified/expiry in access checks.

	DiscordID string `gorm:"type:text;index"` // Discord user who redeemed the code, if any.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// ActiveAt reports whether the record grants access at the given instant.
func (v *Verification) ActiveAt(now time.Time) bool {
	if v.IsBanned || !v.Verified || v.ExpiresAt == nil {
		return false
	}
	return v.ExpiresAt.After(now)
}
