package verify

import (
	"context"
	"time"

	"github.com/hexforge/hwidgate/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultRetentionInterval = 6 * time.Hour
	retentionDeleteBatchSize = 1000
	maxDeleteBatchesPerRun   = 500
)

// RetentionSweeper periodically deletes stale unverified verification rows.
// A client that polled once and never completed verification leaves a row
// behind; the sweeper keeps those from accumulating forever.
type RetentionSweeper struct {
	db       *gorm.DB
	interval time.Duration
}

// NewRetentionSweeper wires a sweeper over the verification table.
func NewRetentionSweeper(db *gorm.DB) *RetentionSweeper {
	if db == nil {
		return nil
	}
	return &RetentionSweeper{db: db, interval: defaultRetentionInterval}
}

// Start launches the cleanup loop in a background goroutine.
func (s *RetentionSweeper) Start(ctx context.Context) {
	if s == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go s.run(ctx)
	log.Infof("verification retention sweeper started (interval=%s)", s.interval)
}

func (s *RetentionSweeper) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		s.sweepOnce(ctx)
		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
	}
}

func (s *RetentionSweeper) sweepOnce(ctx context.Context) {
	retentionDays := settings.IntValue(settings.RetentionDaysKey, settings.DefaultRetentionDays)
	if retentionDays <= 0 {
		return
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	deletedTotal := int64(0)
	for i := 0; i < maxDeleteBatchesPerRun; i++ {
		if ctx.Err() != nil {
			return
		}
		n, errDelete := s.deleteBatch(ctx, cutoff)
		if errDelete != nil {
			log.WithError(errDelete).Warn("retention sweeper: delete batch failed")
			break
		}
		if n <= 0 {
			break
		}
		deletedTotal += n
	}

	if deletedTotal > 0 {
		log.Infof("retention sweeper: deleted %d unverified rows (cutoff=%s)", deletedTotal, cutoff.Format(time.RFC3339))
	}
}

func (s *RetentionSweeper) deleteBatch(ctx context.Context, cutoff time.Time) (int64, error) {
	// Limited subquery keeps transactions short on large tables.
	res := s.db.WithContext(ctx).Exec(`
		DELETE FROM verifications
		WHERE id IN (
			SELECT id FROM verifications
			WHERE verified = ? AND is_banned = ? AND created_at < ?
			ORDER BY created_at ASC
			LIMIT ?
		)
	`, false, false, cutoff, retentionDeleteBatchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// SweepOnce runs a single synchronous sweep; used by tests and the CLI.
func (s *RetentionSweeper) SweepOnce(ctx context.Context) {
	if s == nil {
		return
	}
	s.sweepOnce(ctx)
}
