// internal/matchmaking/recommendations.go

package matchmaking

import (
	"context"
	"fmt"
)

// NextCandidate walks the user's unconsumed recommendations newest first and
// returns the first one whose candidate is active, not banned, not blocked in
// either direction and has a profile. Returns nil when the feed is empty.
func (s *service) NextCandidate(ctx context.Context, userID int64) (*Candidate, error) {
	blocked, err := s.dir.BlockedWith(ctx, userID)
	if err != nil {
		return nil, err
	}

	pageSize := s.cfg.PageSize
	for offset := 0; ; offset += pageSize {
		recs, err := s.repo.PendingRecommendations(ctx, userID, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("load recommendations: %w", err)
		}
		if len(recs) == 0 {
			break
		}

		ids := make([]int64, 0, len(recs))
		for _, rec := range recs {
			if _, ok := blocked[rec.CandidateID]; !ok {
				ids = append(ids, rec.CandidateID)
			}
		}
		users, err := s.dir.Lookup(ctx, ids)
		if err != nil {
			return nil, err
		}

		for _, rec := range recs {
			if _, ok := blocked[rec.CandidateID]; ok {
				continue
			}
			u, ok := users[rec.CandidateID]
			if !ok || !u.Reachable() || !u.HasProfile {
				continue
			}

			if rec.SeenAt == nil {
				now := s.now()
				if err := s.repo.MarkSeen(ctx, rec.ID, now); err != nil {
					return nil, fmt.Errorf("mark recommendation seen: %w", err)
				}
				rec.SeenAt = &now
			}
			recordCandidate(true)
			return &Candidate{Profile: *u, Recommendation: rec}, nil
		}

		if len(recs) < pageSize {
			break
		}
	}

	recordCandidate(false)
	return nil, nil
}

// Consume marks every pending recommendation of candidateID for userID as seen and consumed
func (s *service) Consume(ctx context.Context, userID, candidateID int64) error {
	if _, err := s.repo.ConsumeRecommendations(ctx, userID, candidateID, s.now()); err != nil {
		return fmt.Errorf("consume recommendations: %w", err)
	}
	return nil
}
