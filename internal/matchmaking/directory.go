// internal/matchmaking/directory.go

package matchmaking

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Directory answers the account, ban and block questions the feed and the
// swipe guards depend on.
type Directory interface {
	// Lookup returns the known users among ids. Missing ids are absent from the map.
	Lookup(ctx context.Context, ids []int64) (map[int64]*UserSummary, error)
	// BlockedWith returns every user that userID blocked or was blocked by
	BlockedWith(ctx context.Context, userID int64) (map[int64]struct{}, error)
}

type postgresDirectory struct {
	db *sqlx.DB
}

func NewPostgresDirectory(db *sqlx.DB) Directory {
	return &postgresDirectory{db: db}
}

func (d *postgresDirectory) Lookup(ctx context.Context, ids []int64) (map[int64]*UserSummary, error) {
	out := make(map[int64]*UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []*UserSummary
	query := `
		SELECT u.id, u.username, u.is_active,
		       COALESCE(p.display_name, '') AS display_name,
		       COALESCE(p.gender, '') AS gender,
		       COALESCE(p.looking_for, '') AS looking_for,
		       p.user_id IS NOT NULL AS has_profile,
		       EXISTS (
		           SELECT 1 FROM user_bans b
		           WHERE b.user_id = u.id
		             AND b.revoked_at IS NULL
		             AND (b.expires_at IS NULL OR b.expires_at > NOW())
		       ) AS is_banned
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.id = ANY($1)`
	if err := d.db.SelectContext(ctx, &users, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("lookup users: %w", err)
	}

	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (d *postgresDirectory) BlockedWith(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	var ids []int64
	query := `
		SELECT blocked_id FROM user_blocks WHERE blocker_id = $1
		UNION
		SELECT blocker_id FROM user_blocks WHERE blocked_id = $1`
	if err := d.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}

	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}
