package db

import (
	"fmt"
	"strings"

	"github.com/hexforge/hwidgate/internal/models"
	"github.com/hexforge/hwidgate/internal/security"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for every persisted model.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.Verification{},
		&models.RoleRule{},
		&models.BotAdmin{},
		&models.AdminAccount{},
		&models.Setting{},
	)
}

// EnsureDefaultAdmin creates a bootstrap admin account when none exists.
// It is a no-op when the table already has rows or no credentials are configured.
func EnsureDefaultAdmin(conn *gorm.DB, username, password string) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var count int64
	if errCount := conn.Model(&models.AdminAccount{}).Count(&count).Error; errCount != nil {
		return errCount
	}
	if count > 0 {
		return nil
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return fmt.Errorf("db: hash bootstrap password: %w", errHash)
	}
	account := models.AdminAccount{
		Username:     username,
		Password:     hash,
		Active:       true,
		IsSuperAdmin: true,
		Permissions:  []byte("[]"),
	}
	return conn.Create(&account).Error
}
