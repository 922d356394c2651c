// internal/matchmaking/accounts.go

package matchmaking

import (
	"context"
	"fmt"

	"github.com/imadgeboyega/kiekky-matchmaking/internal/common/logging"
)

// OnboardAccount prepares a freshly created account: it makes sure the profile
// row exists and opens the support channel with the system user, greeting the
// user on first creation. Safe to call more than once.
func (s *service) OnboardAccount(ctx context.Context, userID int64) (*Match, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	systemID := s.cfg.SystemUserID
	var channel *Match
	var created bool

	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := tx.EnsureProfile(ctx, userID); err != nil {
			return fmt.Errorf("ensure profile: %w", err)
		}
		if systemID == 0 || systemID == userID {
			return nil
		}

		match, err := NewMatch(systemID, userID)
		if err != nil {
			return err
		}
		match.IsSystemChannel = true
		created, err = tx.CreateOrGetMatch(ctx, match)
		if err != nil {
			return fmt.Errorf("create system channel: %w", err)
		}
		channel = match

		if created {
			greeting := &Message{MatchID: match.ID, SenderID: systemID, Text: s.cfg.Greeting}
			if err := tx.CreateMessage(ctx, greeting); err != nil {
				return fmt.Errorf("send greeting: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		logging.Ctx(ctx).Info().Int64("user_id", userID).Int64("match_id", channel.ID).Msg("system channel opened")
	}
	return channel, nil
}
