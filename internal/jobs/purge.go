package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dimitrije/jsoncrack-api/internal/store"
)

// ExpiredSharePurgeJob deletes shares whose lease ran out. Postgres has no
// TTL index, and Mongo's TTL monitor lags, so this runs on a schedule for
// every driver.
type ExpiredSharePurgeJob struct {
	store  store.ShareStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewExpiredSharePurgeJob(st store.ShareStore, ttl time.Duration, logger *zap.Logger) *ExpiredSharePurgeJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpiredSharePurgeJob{store: st, ttl: ttl, logger: logger, now: time.Now}
}

func (j *ExpiredSharePurgeJob) Name() string {
	return "expired_share_purge"
}

func (j *ExpiredSharePurgeJob) Run(ctx context.Context) error {
	if j.ttl <= 0 {
		return nil
	}
	cutoff := j.now().UTC().Add(-j.ttl)
	removed, err := j.store.DeleteExpired(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		j.logger.Info("purged expired shares", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
	}
	return nil
}
