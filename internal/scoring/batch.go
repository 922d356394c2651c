package scoring

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ScoreMany scores subject against every candidate on a bounded worker pool.
// Reports come back in candidate order. The context only cancels work that has
// not started yet.
func (e *Engine) ScoreMany(ctx context.Context, subject Party, candidates []Party) ([]Report, error) {
	reports := make([]Report, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range candidates {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = e.Score(subject, candidates[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
