package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/hexforge/hwidgate/internal/models"
	"gorm.io/gorm"
)

func TestTypedAccessors(t *testing.T) {
	StoreDBConfig(time.Now().UTC(), map[string]json.RawMessage{
		DefaultDurationKey:     json.RawMessage(`"2d"`),
		RetentionDaysKey:       json.RawMessage(`14`),
		VerifyPromptEnabledKey: json.RawMessage(`false`),
		"STRINGY_INT":          json.RawMessage(`"7"`),
	})
	defer StoreDBConfig(time.Time{}, nil)

	if got := StringValue(DefaultDurationKey, DefaultDefaultDuration); got != "2d" {
		t.Fatalf("StringValue = %q", got)
	}
	if got := StringValue("MISSING", "fallback"); got != "fallback" {
		t.Fatalf("StringValue fallback = %q", got)
	}
	if got := IntValue(RetentionDaysKey, DefaultRetentionDays); got != 14 {
		t.Fatalf("IntValue = %d", got)
	}
	if got := IntValue("STRINGY_INT", 0); got != 7 {
		t.Fatalf("IntValue quoted = %d", got)
	}
	if got := BoolValue(VerifyPromptEnabledKey, true); got {
		t.Fatalf("BoolValue should be false")
	}
	if got := BoolValue("MISSING", true); !got {
		t.Fatalf("BoolValue fallback should be true")
	}
}

func TestRefreshDBConfigSnapshot(t *testing.T) {
	dsn := fmt.Sprintf("file:settings_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.Setting{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	row := models.Setting{Key: DefaultDurationKey, Value: json.RawMessage(`"3d"`), UpdatedAt: time.Now().UTC()}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("create setting: %v", errCreate)
	}

	if errRefresh := RefreshDBConfigSnapshot(context.Background(), conn); errRefresh != nil {
		t.Fatalf("refresh: %v", errRefresh)
	}
	defer StoreDBConfig(time.Time{}, nil)

	if got := StringValue(DefaultDurationKey, DefaultDefaultDuration); got != "3d" {
		t.Fatalf("after refresh StringValue = %q", got)
	}
	if DBConfigUpdatedAt().IsZero() {
		t.Fatalf("expected non-zero updated-at after refresh")
	}
}
