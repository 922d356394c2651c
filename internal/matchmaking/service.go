// internal/matchmaking/service.go

package matchmaking

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/imadgeboyega/kiekky-matchmaking/internal/common/logging"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/notification"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/questionnaire"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/scoring"
)

const (
	defaultPageSize     = 50
	defaultMaxBatch     = 100
	defaultMessageLimit = 200
	defaultGreeting     = "Hi! This is the Kiekky team. Write to us here if you need anything."
)

type Service interface {
	// Swipes
	RecordSwipe(ctx context.Context, fromID, toID int64, value string) (*SwipeResult, error)
	UndoLastSwipe(ctx context.Context, userID int64) (*Candidate, error)

	// Feed
	NextCandidate(ctx context.Context, userID int64) (*Candidate, error)
	Consume(ctx context.Context, userID, candidateID int64) error

	// Compatibility
	ScoreCompatibility(ctx context.Context, userID, otherID int64) (*scoring.Report, error)
	ScoreCandidates(ctx context.Context, userID int64, candidateIDs []int64) ([]scoring.Summary, error)

	// Moderation
	Block(ctx context.Context, userID, targetID int64) (*Candidate, error)
	Unblock(ctx context.Context, userID, targetID int64) error
	Report(ctx context.Context, userID, targetID int64, reason, message string) (*Report, error)

	// Matches and chat
	ListMatches(ctx context.Context, userID int64) ([]*MatchView, error)
	PostMessage(ctx context.Context, userID, matchID int64, text string) (*Message, error)
	ListMessages(ctx context.Context, userID, matchID int64, limit int) ([]*Message, error)

	// Accounts
	OnboardAccount(ctx context.Context, userID int64) (*Match, error)
}

// CatalogSource hands out the current questionnaire catalog snapshot
type CatalogSource interface {
	Catalog(ctx context.Context) (*questionnaire.Catalog, error)
}

type Config struct {
	// SystemUserID owns the support channel every new account gets. 0 disables it.
	SystemUserID   int64
	Greeting       string
	PageSize       int
	MaxScoreBatch  int
	ScoringWorkers int
}

type Dependencies struct {
	Repo      Repository
	Directory Directory
	Catalogs  CatalogSource
	Answers   questionnaire.AnswerStore
	Notifier  notification.Sink
}

type service struct {
	repo     Repository
	dir      Directory
	catalogs CatalogSource
	answers  questionnaire.AnswerStore
	notifier notification.Sink
	cfg      Config
	now      func() time.Time
}

func NewService(deps Dependencies, cfg Config) Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxScoreBatch <= 0 {
		cfg.MaxScoreBatch = defaultMaxBatch
	}
	if cfg.Greeting == "" {
		cfg.Greeting = defaultGreeting
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notification.Discard
	}

	return &service{
		repo:     deps.Repo,
		dir:      deps.Directory,
		catalogs: deps.Catalogs,
		answers:  deps.Answers,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// RecordSwipe replaces the actor's decision about the target and creates the
// match on a mutual like. Everything happens in one transaction holding the
// pair lock; notifications go out after commit.
func (s *service) RecordSwipe(ctx context.Context, fromID, toID int64, value string) (*SwipeResult, error) {
	swipeValue, err := ParseSwipeValue(value)
	if err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, ErrSelfAction
	}
	if _, err := s.reachableTarget(ctx, fromID, toID); err != nil {
		return nil, err
	}

	now := s.now()
	result := &SwipeResult{}
	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := tx.LockPair(ctx, fromID, toID); err != nil {
			return fmt.Errorf("lock pair: %w", err)
		}

		swipe := &Swipe{FromUserID: fromID, ToUserID: toID, Value: swipeValue, CreatedAt: now}
		if err := tx.ReplaceSwipe(ctx, swipe); err != nil {
			return fmt.Errorf("save swipe: %w", err)
		}
		result.Swipe = swipe

		if swipeValue == SwipeLike {
			mutual, err := tx.HasLike(ctx, toID, fromID)
			if err != nil {
				return fmt.Errorf("check reciprocal like: %w", err)
			}
			if mutual {
				match, err := NewMatch(fromID, toID)
				if err != nil {
					return err
				}
				created, err := tx.CreateOrGetMatch(ctx, match)
				if err != nil {
					return fmt.Errorf("create match: %w", err)
				}
				result.Match = match
				result.IsNewMatch = created
			}
		}

		if _, err := tx.ConsumeRecommendations(ctx, fromID, toID, now); err != nil {
			return fmt.Errorf("consume recommendations: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordSwipe(swipeValue)
	if result.IsNewMatch {
		recordMatch()
		logging.Ctx(ctx).Info().
			Int64("match_id", result.Match.ID).
			Int64("user1_id", result.Match.User1ID).
			Int64("user2_id", result.Match.User2ID).
			Msg("match created")
		s.notifyMatch(ctx, result.Match)
	}
	return result, nil
}

// UndoLastSwipe removes the actor's most recent swipe and re-surfaces the
// recommendation it consumed. An existing match is left alone.
func (s *service) UndoLastSwipe(ctx context.Context, userID int64) (*Candidate, error) {
	var undone bool
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx Repository) error {
		last, err := tx.LatestSwipe(ctx, userID)
		if err != nil {
			return fmt.Errorf("load last swipe: %w", err)
		}
		if last == nil {
			return nil
		}
		if err := tx.UnconsumeLatest(ctx, userID, last.ToUserID); err != nil {
			return fmt.Errorf("restore recommendation: %w", err)
		}
		if err := tx.DeleteSwipe(ctx, last.ID); err != nil {
			return fmt.Errorf("delete swipe: %w", err)
		}
		undone = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if undone {
		recordUndo()
	}
	return s.NextCandidate(ctx, userID)
}

// reachableTarget rejects missing, inactive, banned and blocked targets
func (s *service) reachableTarget(ctx context.Context, actorID, targetID int64) (*UserSummary, error) {
	users, err := s.dir.Lookup(ctx, []int64{targetID})
	if err != nil {
		return nil, err
	}
	target, ok := users[targetID]
	if !ok {
		return nil, ErrUserNotFound
	}
	if !target.Reachable() {
		return nil, ErrTargetUnavailable
	}

	blocked, err := s.dir.BlockedWith(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, ok := blocked[targetID]; ok {
		return nil, ErrTargetUnavailable
	}
	return target, nil
}

func (s *service) notifyMatch(ctx context.Context, match *Match) {
	users, err := s.dir.Lookup(ctx, []int64{match.User1ID, match.User2ID})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("match_id", match.ID).Msg("failed to load match participants for notification")
		recordNotifyFailure(string(notification.KindNewMatch))
		return
	}

	url := chatURL(match.ID)
	for _, pair := range [][2]int64{{match.User1ID, match.User2ID}, {match.User2ID, match.User1ID}} {
		recipient, other := pair[0], pair[1]
		name := strconv.FormatInt(other, 10)
		if u, ok := users[other]; ok {
			name = u.Name()
		}
		s.notify(ctx, notification.Event{
			Kind:   notification.KindNewMatch,
			UserID: recipient,
			Title:  "New match",
			Body:   fmt.Sprintf("You matched with %s.", name),
			URL:    url,
			Data:   notification.Data{"match_id": strconv.FormatInt(match.ID, 10)},
		})
	}
}

// notify never fails the caller
func (s *service) notify(ctx context.Context, event notification.Event) {
	if err := s.notifier.Notify(ctx, event); err != nil {
		recordNotifyFailure(string(event.Kind))
		logging.Ctx(ctx).Warn().Err(err).
			Str("kind", string(event.Kind)).
			Int64("user_id", event.UserID).
			Msg("notification not dispatched")
	}
}

func chatURL(matchID int64) string {
	return fmt.Sprintf("/chat/%d/", matchID)
}
