package models

import "time"

// BotAdmin is an allow-list entry granting Discord admin commands.
// The configured owner ID is implicitly an admin regardless of this table.
type BotAdmin struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	DiscordID string `gorm:"type:text;not null;uniqueIndex"` // Discord user ID on the allow-list.
	AddedBy   string `gorm:"type:text"`                      // Discord user ID that added this entry.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
