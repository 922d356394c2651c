package scoring

import (
	"context"
	"fmt"
	"testing"

	"github.com/imadgeboyega/kiekky-matchmaking/internal/questionnaire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreManyKeepsOrder(t *testing.T) {
	e := NewEngine(engineCatalog(), 3)
	subject := Party{UserID: 1, Ideal: answers{"v1": single("1")}}

	var candidates []Party
	for i := 0; i < 25; i++ {
		candidates = append(candidates, Party{
			UserID: int64(100 + i),
			Self:   answers{"v1": single(fmt.Sprint(i%5 + 1))},
		})
	}

	reports, err := e.ScoreMany(context.Background(), subject, candidates)
	require.NoError(t, err)
	require.Len(t, reports, len(candidates))

	for i, r := range reports {
		assert.Equal(t, candidates[i].UserID, r.UserB)
		assert.Equal(t, e.Score(subject, candidates[i]).AToB, r.AToB)
	}
}

func TestScoreManyCancelled(t *testing.T) {
	e := NewEngine(engineCatalog(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ScoreMany(ctx, Party{}, []Party{{UserID: 2}, {UserID: 3}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreManyEmpty(t *testing.T) {
	e := NewEngine(questionnaire.DefaultCatalog(), 0)
	reports, err := e.ScoreMany(context.Background(), Party{}, nil)
	require.NoError(t, err)
	assert.Empty(t, reports)
}
