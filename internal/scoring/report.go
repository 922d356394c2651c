// internal/scoring/report.go

package scoring

import (
	"math"

	"github.com/imadgeboyega/kiekky-matchmaking/internal/questionnaire"
)

// QuestionReport holds both directions for one question. A direction is nil
// when it was not compared.
type QuestionReport struct {
	Code       string                 `json:"code"`
	Text       string                 `json:"text"`
	Kind       questionnaire.Kind     `json:"kind"`
	IsMultiple bool                   `json:"is_multiple"`
	Choices    []questionnaire.Choice `json:"choices"`
	AToB       *Comparison            `json:"a_to_b"`
	BToA       *Comparison            `json:"b_to_a"`
}

type SectionReport struct {
	Code      string           `json:"code"`
	Title     string           `json:"title"`
	Overall   *int             `json:"overall"`
	AToB      *int             `json:"a_to_b"`
	BToA      *int             `json:"b_to_a"`
	ACompared int              `json:"a_compared"`
	BCompared int              `json:"b_compared"`
	Questions []QuestionReport `json:"questions"`
}

// Report is the bidirectional compatibility of A and B. AToB measures how well
// B's self answers meet A's ideal, BToA the reverse.
type Report struct {
	UserA     int64           `json:"user_a"`
	UserB     int64           `json:"user_b"`
	Overall   *int            `json:"overall"`
	AToB      *int            `json:"a_to_b"`
	BToA      *int            `json:"b_to_a"`
	ACompared int             `json:"a_compared"`
	BCompared int             `json:"b_compared"`
	Sections  []SectionReport `json:"sections"`
}

// Summary is the report without the per-section breakdown
type Summary struct {
	UserID    int64 `json:"user_id"`
	Overall   *int  `json:"overall"`
	AToB      *int  `json:"a_to_b"`
	BToA      *int  `json:"b_to_a"`
	ACompared int   `json:"a_compared"`
	BCompared int   `json:"b_compared"`
}

// Summary keys the summary by the other party (B)
func (r Report) Summary() Summary {
	return Summary{
		UserID:    r.UserB,
		Overall:   r.Overall,
		AToB:      r.AToB,
		BToA:      r.BToA,
		ACompared: r.ACompared,
		BCompared: r.BCompared,
	}
}

// accumulator sums directional scores
type accumulator struct {
	total    float64
	compared int
}

func (a *accumulator) add(c *Comparison) {
	if c == nil {
		return
	}
	a.total += c.Score
	a.compared++
}

// percent is round(mean × 100), or nil when nothing was compared
func (a accumulator) percent() *int {
	if a.compared == 0 {
		return nil
	}
	p := roundHalfEven(a.total / float64(a.compared) * 100)
	return &p
}

// combine averages the non-nil directional percents
func combine(parts ...*int) *int {
	sum, n := 0, 0
	for _, p := range parts {
		if p != nil {
			sum += *p
			n++
		}
	}
	if n == 0 {
		return nil
	}
	out := roundHalfEven(float64(sum) / float64(n))
	return &out
}

// roundHalfEven rounds like historic scores were produced: ties go to the even integer.
func roundHalfEven(x float64) int {
	return int(math.RoundToEven(x))
}
