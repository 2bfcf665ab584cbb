package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultPruneInterval = time.Hour

// Prune deletes events created before cutoff and returns how many were removed.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM turn_events WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune turn events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune turn events: %w", err)
	}
	return n, nil
}

// StartRetentionCleaner prunes events older than retention every interval
// until ctx is done.
func (j *Journal) StartRetentionCleaner(ctx context.Context, retention, interval time.Duration, logger logrus.FieldLogger) {
	if retention <= 0 {
		return
	}
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	go j.cleanupLoop(ctx, retention, interval, logger)
}

func (j *Journal) cleanupLoop(ctx context.Context, retention, interval time.Duration, logger logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := j.Prune(ctx, time.Now().Add(-retention))
			if err != nil {
				logger.WithError(err).Warn("prune journal failed")
				continue
			}
			if n > 0 {
				logger.WithField("removed", n).Info("journal pruned")
			}
		}
	}
}
