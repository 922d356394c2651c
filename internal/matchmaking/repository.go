// internal/matchmaking/repository.go

package matchmaking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository persists swipes, matches, recommendations, moderation records and
// chat messages. Methods called on the Repository handed to a RunInTx callback
// share that transaction.
type Repository interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error
	// LockPair serializes writers on the unordered pair until the transaction ends
	LockPair(ctx context.Context, a, b int64) error

	// Swipes
	ReplaceSwipe(ctx context.Context, swipe *Swipe) error
	HasLike(ctx context.Context, fromID, toID int64) (bool, error)
	LatestSwipe(ctx context.Context, fromID int64) (*Swipe, error)
	DeleteSwipe(ctx context.Context, id int64) error
	DeletePairSwipes(ctx context.Context, a, b int64) error

	// Matches
	CreateOrGetMatch(ctx context.Context, match *Match) (bool, error)
	GetMatch(ctx context.Context, id int64) (*Match, error)
	DeletePairMatch(ctx context.Context, a, b int64) error
	GetUserMatches(ctx context.Context, userID int64) ([]*Match, error)

	// Recommendations
	PendingRecommendations(ctx context.Context, userID int64, limit, offset int) ([]*Recommendation, error)
	MarkSeen(ctx context.Context, id int64, at time.Time) error
	ConsumeRecommendations(ctx context.Context, userID, candidateID int64, at time.Time) (int64, error)
	UnconsumeLatest(ctx context.Context, userID, candidateID int64) error

	// Moderation
	CreateBlock(ctx context.Context, blockerID, blockedID int64) error
	DeleteBlock(ctx context.Context, blockerID, blockedID int64) error
	CreateReport(ctx context.Context, report *Report) error

	// Chat
	CreateMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, matchID int64, limit int) ([]*Message, error)
	LastMessages(ctx context.Context, matchIDs []int64) (map[int64]*Message, error)

	// Accounts
	EnsureProfile(ctx context.Context, userID int64) error
}

// dbtx is satisfied by both *sqlx.DB and *sqlx.Tx
type dbtx interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type postgresRepository struct {
	db *sqlx.DB // nil inside a transaction
	q  dbtx
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db, q: db}
}

func (r *postgresRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error {
	if r.db == nil {
		return fn(ctx, r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &postgresRepository{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// pairLockKeys maps the canonical pair onto the two int4 advisory lock keys.
// Collisions only cause extra serialization.
func pairLockKeys(a, b int64) (int32, int32) {
	lo, hi := CanonicalPair(a, b)
	return int32(lo), int32(hi)
}

func (r *postgresRepository) LockPair(ctx context.Context, a, b int64) error {
	k1, k2 := pairLockKeys(a, b)
	_, err := r.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1::int4, $2::int4)`, k1, k2)
	return err
}

// Swipes

func (r *postgresRepository) ReplaceSwipe(ctx context.Context, swipe *Swipe) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM swipes WHERE from_user_id = $1 AND to_user_id = $2`,
		swipe.FromUserID, swipe.ToUserID)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO swipes (from_user_id, to_user_id, value, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	return r.q.QueryRowxContext(ctx, query,
		swipe.FromUserID, swipe.ToUserID, swipe.Value, swipe.CreatedAt,
	).Scan(&swipe.ID)
}

func (r *postgresRepository) HasLike(ctx context.Context, fromID, toID int64) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM swipes
			WHERE from_user_id = $1 AND to_user_id = $2 AND value = 'like'
		)`
	err := r.q.GetContext(ctx, &exists, query, fromID, toID)
	return exists, err
}

func (r *postgresRepository) LatestSwipe(ctx context.Context, fromID int64) (*Swipe, error) {
	var swipe Swipe
	query := `
		SELECT id, from_user_id, to_user_id, value, created_at
		FROM swipes
		WHERE from_user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	err := r.q.GetContext(ctx, &swipe, query, fromID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &swipe, nil
}

func (r *postgresRepository) DeleteSwipe(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM swipes WHERE id = $1`, id)
	return err
}

func (r *postgresRepository) DeletePairSwipes(ctx context.Context, a, b int64) error {
	query := `
		DELETE FROM swipes
		WHERE (from_user_id = $1 AND to_user_id = $2)
		   OR (from_user_id = $2 AND to_user_id = $1)`
	_, err := r.q.ExecContext(ctx, query, a, b)
	return err
}

// Matches

// CreateOrGetMatch inserts the canonical pair, or loads the existing row when a
// concurrent writer got there first. The bool reports whether this call created it.
func (r *postgresRepository) CreateOrGetMatch(ctx context.Context, match *Match) (bool, error) {
	if match.User1ID > match.User2ID {
		match.User1ID, match.User2ID = match.User2ID, match.User1ID
	}

	query := `
		INSERT INTO matches (user1_id, user2_id, is_system_channel)
		VALUES ($1, $2, $3)
		ON CONFLICT (user1_id, user2_id) DO NOTHING
		RETURNING id, created_at`
	err := r.q.QueryRowxContext(ctx, query, match.User1ID, match.User2ID, match.IsSystemChannel).
		Scan(&match.ID, &match.CreatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	existing := `
		SELECT id, user1_id, user2_id, is_system_channel, created_at
		FROM matches
		WHERE user1_id = $1 AND user2_id = $2`
	if err := r.q.GetContext(ctx, match, existing, match.User1ID, match.User2ID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *postgresRepository) GetMatch(ctx context.Context, id int64) (*Match, error) {
	var match Match
	query := `SELECT id, user1_id, user2_id, is_system_channel, created_at FROM matches WHERE id = $1`
	err := r.q.GetContext(ctx, &match, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *postgresRepository) DeletePairMatch(ctx context.Context, a, b int64) error {
	lo, hi := CanonicalPair(a, b)
	_, err := r.q.ExecContext(ctx, `DELETE FROM matches WHERE user1_id = $1 AND user2_id = $2`, lo, hi)
	return err
}

func (r *postgresRepository) GetUserMatches(ctx context.Context, userID int64) ([]*Match, error) {
	var matches []*Match
	query := `
		SELECT id, user1_id, user2_id, is_system_channel, created_at
		FROM matches
		WHERE user1_id = $1 OR user2_id = $1
		ORDER BY created_at DESC, id DESC`
	if err := r.q.SelectContext(ctx, &matches, query, userID); err != nil {
		return nil, err
	}
	return matches, nil
}

// Recommendations

func (r *postgresRepository) PendingRecommendations(ctx context.Context, userID int64, limit, offset int) ([]*Recommendation, error) {
	var recs []*Recommendation
	query := `
		SELECT id, to_user_id, candidate_id, created_by, score, note, created_at, seen_at, consumed_at
		FROM user_recommendations
		WHERE to_user_id = $1 AND consumed_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	if err := r.q.SelectContext(ctx, &recs, query, userID, limit, offset); err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *postgresRepository) MarkSeen(ctx context.Context, id int64, at time.Time) error {
	_, err := r.q.ExecContext(ctx, `UPDATE user_recommendations SET seen_at = $2 WHERE id = $1 AND seen_at IS NULL`, id, at)
	return err
}

func (r *postgresRepository) ConsumeRecommendations(ctx context.Context, userID, candidateID int64, at time.Time) (int64, error) {
	query := `
		UPDATE user_recommendations
		SET seen_at = COALESCE(seen_at, $3), consumed_at = $3
		WHERE to_user_id = $1 AND candidate_id = $2 AND consumed_at IS NULL`
	result, err := r.q.ExecContext(ctx, query, userID, candidateID, at)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresRepository) UnconsumeLatest(ctx context.Context, userID, candidateID int64) error {
	query := `
		UPDATE user_recommendations SET consumed_at = NULL
		WHERE id = (
			SELECT id FROM user_recommendations
			WHERE to_user_id = $1 AND candidate_id = $2 AND consumed_at IS NOT NULL
			ORDER BY consumed_at DESC, id DESC
			LIMIT 1
		)`
	_, err := r.q.ExecContext(ctx, query, userID, candidateID)
	return err
}

// Moderation

func (r *postgresRepository) CreateBlock(ctx context.Context, blockerID, blockedID int64) error {
	query := `
		INSERT INTO user_blocks (blocker_id, blocked_id)
		VALUES ($1, $2)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING`
	_, err := r.q.ExecContext(ctx, query, blockerID, blockedID)
	return err
}

func (r *postgresRepository) DeleteBlock(ctx context.Context, blockerID, blockedID int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM user_blocks WHERE blocker_id = $1 AND blocked_id = $2`, blockerID, blockedID)
	return err
}

func (r *postgresRepository) CreateReport(ctx context.Context, report *Report) error {
	query := `
		INSERT INTO user_reports (reporter_id, reported_id, reason, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	return r.q.QueryRowxContext(ctx, query,
		report.ReporterID, report.ReportedID, report.Reason, report.Message,
	).Scan(&report.ID, &report.CreatedAt)
}

// Chat

func (r *postgresRepository) CreateMessage(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO messages (match_id, sender_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	return r.q.QueryRowxContext(ctx, query, msg.MatchID, msg.SenderID, msg.Text).
		Scan(&msg.ID, &msg.CreatedAt)
}

// ListMessages returns the newest limit messages, oldest first
func (r *postgresRepository) ListMessages(ctx context.Context, matchID int64, limit int) ([]*Message, error) {
	var msgs []*Message
	query := `
		SELECT id, match_id, sender_id, text, created_at FROM (
			SELECT id, match_id, sender_id, text, created_at
			FROM messages
			WHERE match_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) latest
		ORDER BY created_at, id`
	if err := r.q.SelectContext(ctx, &msgs, query, matchID, limit); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *postgresRepository) LastMessages(ctx context.Context, matchIDs []int64) (map[int64]*Message, error) {
	out := make(map[int64]*Message, len(matchIDs))
	if len(matchIDs) == 0 {
		return out, nil
	}

	var msgs []*Message
	query := `
		SELECT DISTINCT ON (match_id) id, match_id, sender_id, text, created_at
		FROM messages
		WHERE match_id = ANY($1)
		ORDER BY match_id, created_at DESC, id DESC`
	if err := r.q.SelectContext(ctx, &msgs, query, pq.Array(matchIDs)); err != nil {
		return nil, err
	}
	for _, m := range msgs {
		out[m.MatchID] = m
	}
	return out, nil
}

// Accounts

func (r *postgresRepository) EnsureProfile(ctx context.Context, userID int64) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	return err
}
