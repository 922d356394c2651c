// internal/matchmaking/moderation.go

package matchmaking

import (
	"context"
	"fmt"
	"strings"

	"github.com/imadgeboyega/kiekky-matchmaking/internal/common/logging"
)

// Block hides the target from the user in both directions: pending
// recommendations are consumed and the pair's match and swipes are removed.
func (s *service) Block(ctx context.Context, userID, targetID int64) (*Candidate, error) {
	if userID == targetID {
		return nil, ErrSelfAction
	}
	if err := s.requireUser(ctx, targetID); err != nil {
		return nil, err
	}

	now := s.now()
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := tx.LockPair(ctx, userID, targetID); err != nil {
			return fmt.Errorf("lock pair: %w", err)
		}
		if err := tx.CreateBlock(ctx, userID, targetID); err != nil {
			return fmt.Errorf("create block: %w", err)
		}
		if _, err := tx.ConsumeRecommendations(ctx, userID, targetID, now); err != nil {
			return fmt.Errorf("consume recommendations: %w", err)
		}
		if err := tx.DeletePairMatch(ctx, userID, targetID); err != nil {
			return fmt.Errorf("delete match: %w", err)
		}
		if err := tx.DeletePairSwipes(ctx, userID, targetID); err != nil {
			return fmt.Errorf("delete swipes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordModeration("block")
	logging.Ctx(ctx).Info().Int64("user_id", userID).Int64("blocked_id", targetID).Msg("user blocked")
	return s.NextCandidate(ctx, userID)
}

// Unblock lifts only the user's own block. It does not restore anything Block removed.
func (s *service) Unblock(ctx context.Context, userID, targetID int64) error {
	if userID == targetID {
		return ErrSelfAction
	}
	if err := s.requireUser(ctx, targetID); err != nil {
		return err
	}
	if err := s.repo.DeleteBlock(ctx, userID, targetID); err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	recordModeration("unblock")
	return nil
}

func (s *service) Report(ctx context.Context, userID, targetID int64, reason, message string) (*Report, error) {
	if userID == targetID {
		return nil, ErrSelfAction
	}
	r, err := ParseReportReason(reason)
	if err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, targetID); err != nil {
		return nil, err
	}

	report := &Report{
		ReporterID: userID,
		ReportedID: targetID,
		Reason:     r,
		Message:    strings.TrimSpace(message),
	}
	if err := s.repo.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	recordModeration("report")
	logging.Ctx(ctx).Info().
		Int64("reporter_id", userID).
		Int64("reported_id", targetID).
		Str("reason", string(r)).
		Msg("user reported")
	return report, nil
}

func (s *service) requireUser(ctx context.Context, id int64) error {
	users, err := s.dir.Lookup(ctx, []int64{id})
	if err != nil {
		return err
	}
	if _, ok := users[id]; !ok {
		return ErrUserNotFound
	}
	return nil
}
