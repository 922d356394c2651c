// internal/matchmaking/compatibility.go

package matchmaking

import (
	"context"
	"fmt"
	"time"

	"github.com/imadgeboyega/kiekky-matchmaking/internal/questionnaire"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/scoring"
)

// ScoreCompatibility builds the full bidirectional report between the user and
// another profile. Comparing a profile with itself is allowed.
func (s *service) ScoreCompatibility(ctx context.Context, userID, otherID int64) (*scoring.Report, error) {
	started := time.Now()
	defer recordScoringTime("pair", started)

	if userID != otherID {
		blocked, err := s.dir.BlockedWith(ctx, userID)
		if err != nil {
			return nil, err
		}
		if _, ok := blocked[otherID]; ok {
			return nil, ErrTargetUnavailable
		}
	}

	engine, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := s.loadProfiles(ctx, []int64{userID, otherID})
	if err != nil {
		return nil, err
	}
	me, ok := profiles[userID]
	if !ok {
		return nil, questionnaire.ErrProfileNotFound
	}
	other, ok := profiles[otherID]
	if !ok {
		return nil, questionnaire.ErrProfileNotFound
	}

	report := engine.Score(scoring.PartyFromProfile(me), scoring.PartyFromProfile(other))
	recordCompatibilityScore(report.Overall)
	return &report, nil
}

// ScoreCandidates scores the user against a batch of candidates in parallel.
// Duplicates, the user itself, blocked users and ids without a profile are
// dropped; the remaining summaries keep request order.
func (s *service) ScoreCandidates(ctx context.Context, userID int64, candidateIDs []int64) ([]scoring.Summary, error) {
	started := time.Now()
	defer recordScoringTime("batch", started)

	blocked, err := s.dir.BlockedWith(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(candidateIDs))
	ids := make([]int64, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		if id == userID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := blocked[id]; ok {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) > s.cfg.MaxScoreBatch {
		return nil, ErrTooManyCandidates
	}

	engine, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := s.loadProfiles(ctx, append([]int64{userID}, ids...))
	if err != nil {
		return nil, err
	}
	me, ok := profiles[userID]
	if !ok {
		return nil, questionnaire.ErrProfileNotFound
	}

	parties := make([]scoring.Party, 0, len(ids))
	for _, id := range ids {
		if p, ok := profiles[id]; ok {
			parties = append(parties, scoring.PartyFromProfile(p))
		}
	}

	reports, err := engine.ScoreMany(ctx, scoring.PartyFromProfile(me), parties)
	if err != nil {
		return nil, err
	}

	summaries := make([]scoring.Summary, 0, len(reports))
	for _, r := range reports {
		recordCompatibilityScore(r.Overall)
		summaries = append(summaries, r.Summary())
	}
	return summaries, nil
}

func (s *service) engine(ctx context.Context) (*scoring.Engine, error) {
	catalog, err := s.catalogs.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return scoring.NewEngine(catalog, s.cfg.ScoringWorkers), nil
}

func (s *service) loadProfiles(ctx context.Context, ids []int64) (map[int64]*questionnaire.ProfileAnswers, error) {
	profiles, err := s.answers.LoadProfiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	out := make(map[int64]*questionnaire.ProfileAnswers, len(profiles))
	for _, p := range profiles {
		out[p.UserID] = p
	}
	return out, nil
}
