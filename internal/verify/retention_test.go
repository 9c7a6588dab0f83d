package verify

import (
	"context"
	"testing"
	"time"

	"github.com/hexforge/hwidgate/internal/models"
)

func TestRetentionSweeperDeletesOnlyStaleUnverified(t *testing.T) {
	db := setupVerifyTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	old := now.AddDate(0, 0, -60)
	future := now.Add(time.Hour)

	rows := []models.Verification{
		{HWID: "stale-unverified", Code: "111111", CreatedAt: old},
		{HWID: "stale-verified", Code: "222222", Verified: true, ExpiresAt: &future, CreatedAt: old},
		{HWID: "stale-banned", Code: "333333", IsBanned: true, CreatedAt: old},
		{HWID: "fresh-unverified", Code: "444444", CreatedAt: now},
	}
	for i := range rows {
		if errCreate := db.Create(&rows[i]).Error; errCreate != nil {
			t.Fatalf("create %s: %v", rows[i].HWID, errCreate)
		}
	}

	sweeper := NewRetentionSweeper(db)
	sweeper.SweepOnce(ctx)

	var remaining []models.Verification
	if errFind := db.Find(&remaining).Error; errFind != nil {
		t.Fatalf("find: %v", errFind)
	}
	if len(remaining) != 3 {
		t.Fatalf("remaining = %d, want 3", len(remaining))
	}
	for _, row := range remaining {
		if row.HWID == "stale-unverified" {
			t.Fatalf("stale unverified row should have been deleted")
		}
	}
}
