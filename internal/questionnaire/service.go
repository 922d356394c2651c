// internal/questionnaire/service.go

package questionnaire

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/imadgeboyega/kiekky-matchmaking/internal/common/logging"
)

// View is one answer set together with the questions the owner can see
type View struct {
	Kind     AnswerKind    `json:"kind"`
	Scope    Scope         `json:"scope"`
	Sections []SectionView `json:"sections"`
	Answers  AnswerMap     `json:"answers"`
	Progress Progress      `json:"progress"`
}

// ProgressReport covers both answer sets of a profile
type ProgressReport struct {
	Self  Progress `json:"self"`
	Ideal Progress `json:"ideal"`
}

type Service interface {
	// Catalog returns the current shared catalog snapshot
	Catalog(ctx context.Context) (*Catalog, error)
	Questionnaire(ctx context.Context, userID int64, kind AnswerKind) (*View, error)
	SaveAnswers(ctx context.Context, userID int64, kind AnswerKind, answers AnswerMap) (*Progress, error)
	Progress(ctx context.Context, userID int64) (*ProgressReport, error)
}

type service struct {
	loader  CatalogLoader
	answers AnswerStore
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	catalog  *Catalog
	loadedAt time.Time
}

// NewService memoizes the loaded catalog in process for ttl (0 means forever).
func NewService(loader CatalogLoader, answers AnswerStore, ttl time.Duration) Service {
	return &service{loader: loader, answers: answers, ttl: ttl, now: time.Now}
}

func (s *service) Catalog(ctx context.Context) (*Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog != nil && (s.ttl <= 0 || s.now().Sub(s.loadedAt) < s.ttl) {
		return s.catalog, nil
	}

	catalog, err := s.loader.LoadCatalog(ctx)
	if err != nil {
		if s.catalog != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("catalog reload failed, serving previous snapshot")
			return s.catalog, nil
		}
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	s.catalog = catalog
	s.loadedAt = s.now()
	return catalog, nil
}

func (s *service) Questionnaire(ctx context.Context, userID int64, kind AnswerKind) (*View, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.answers.LoadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	scope := profile.Scope(kind)
	answers := profile.Answers(kind)
	if answers == nil {
		answers = AnswerMap{}
	}
	return &View{
		Kind:     kind,
		Scope:    scope,
		Sections: catalog.ForScope(scope),
		Answers:  answers,
		Progress: catalog.Progress(answers, scope),
	}, nil
}

// SaveAnswers replaces the answer set with the non-blank answers to questions
// visible for the kind's scope. Answers to other questions are dropped; choice
// answers outside the question's choices are rejected.
func (s *service) SaveAnswers(ctx context.Context, userID int64, kind AnswerKind, answers AnswerMap) (*Progress, error) {
	if kind != AnswerSelf && kind != AnswerIdeal {
		return nil, ErrInvalidKind
	}
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.answers.LoadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	scope := profile.Scope(kind)
	cleaned, err := cleanAnswers(catalog, scope, answers)
	if err != nil {
		return nil, err
	}

	before := catalog.Progress(profile.Answers(kind), scope)
	if err := s.answers.SaveAnswers(ctx, userID, kind, cleaned); err != nil {
		return nil, fmt.Errorf("save answers: %w", err)
	}
	after := catalog.Progress(cleaned, scope)

	if before.Percent < 100 && after.Percent == 100 {
		recordCompleted(kind)
		logging.Ctx(ctx).Info().Int64("user_id", userID).Str("kind", string(kind)).Msg("questionnaire completed")
	}
	return &after, nil
}

func (s *service) Progress(ctx context.Context, userID int64) (*ProgressReport, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.answers.LoadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProgressReport{
		Self:  catalog.Progress(profile.Self, profile.Scope(AnswerSelf)),
		Ideal: catalog.Progress(profile.Ideal, profile.Scope(AnswerIdeal)),
	}, nil
}

func cleanAnswers(catalog *Catalog, scope Scope, answers AnswerMap) (AnswerMap, error) {
	visible := catalog.Visibility().Visible(scope)
	out := make(AnswerMap, len(answers))

	for code, answer := range answers {
		if _, ok := visible[code]; !ok {
			continue
		}
		q, ok := catalog.Question(code)
		if !ok {
			continue
		}
		tokens := answer.Tokens()
		if len(tokens) == 0 {
			continue
		}

		switch {
		case q.Kind == KindText:
			out[code] = Single(joinText(answer))
		case q.IsMultiple():
			for _, t := range tokens {
				if !q.HasChoice(t) {
					return nil, fmt.Errorf("%s: %w", code, ErrInvalidChoice)
				}
			}
			out[code] = Multiple(tokens...)
		default:
			if answer.IsMultiple() && len(tokens) != 1 {
				return nil, fmt.Errorf("%s: %w", code, ErrInvalidChoice)
			}
			if len(q.Choices) > 0 && !q.HasChoice(tokens[0]) {
				return nil, fmt.Errorf("%s: %w", code, ErrInvalidChoice)
			}
			out[code] = Single(tokens[0])
		}
	}
	return out, nil
}

func joinText(a Answer) string {
	if !a.IsMultiple() {
		return a.Token()
	}
	return strings.Join(a.Tokens(), "\n")
}
