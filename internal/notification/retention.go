// internal/notification/retention.go

package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/imadgeboyega/kiekky-matchmaking/internal/common/logging"
)

// Retention purges in-app notifications older than MaxAge once a day
type Retention struct {
	db     execer
	maxAge time.Duration
	hour   int
	now    func() time.Time
}

// NewRetention runs the purge daily at hour (local time). maxAge <= 0 defaults to 30 days.
func NewRetention(db execer, maxAge time.Duration, hour int) *Retention {
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	if hour < 0 || hour > 23 {
		hour = 3
	}
	return &Retention{db: db, maxAge: maxAge, hour: hour, now: time.Now}
}

// Purge deletes notifications created before now - maxAge
func (r *Retention) Purge(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-r.maxAge)
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_notifications WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// Run blocks until ctx is done
func (r *Retention) Run(ctx context.Context) {
	log := logging.WithComponent("notification_retention")
	for {
		timer := time.NewTimer(r.untilNext(r.now()))
		select {
		case <-timer.C:
			n, err := r.Purge(ctx)
			if err != nil {
				log.Error().Err(err).Msg("scheduled purge failed")
				continue
			}
			log.Info().Int64("deleted", n).Msg("old notifications purged")
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (r *Retention) untilNext(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), r.hour, 0, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
