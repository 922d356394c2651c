// internal/notification/store.go

package notification

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/imadgeboyega/kiekky-matchmaking/internal/common/logging"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// StoreSink writes in-app notifications to user_notifications
type StoreSink struct {
	db execer
}

// NewStoreSink accepts *sqlx.DB or *sqlx.Tx
func NewStoreSink(db execer) *StoreSink {
	return &StoreSink{db: db}
}

// Notify inserts the row only when the recipient exists and is active
func (s *StoreSink) Notify(ctx context.Context, event Event) error {
	event = event.Normalized()
	if event.UserID == 0 {
		return ErrNoRecipient
	}

	query := `
		INSERT INTO user_notifications (user_id, kind, title, body, url, data)
		SELECT u.id, $2, $3, $4, $5, $6
		FROM users u
		WHERE u.id = $1 AND u.is_active`

	result, err := s.db.ExecContext(ctx, query,
		event.UserID, string(event.Kind), event.Title, event.Body, event.URL, event.Data)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		recordDelivery("store", statusSkipped)
		logging.Ctx(ctx).Debug().Int64("user_id", event.UserID).Msg("recipient missing or inactive, notification skipped")
	}
	return nil
}
