// internal/scoring/rules.go

package scoring

import (
	"strconv"

	"github.com/imadgeboyega/kiekky-matchmaking/internal/questionnaire"
)

// scaleSpan is the distance between the ends of the 1..5 scale
const scaleSpan = 4.0

// Comparison is one directional comparison of an expected answer with an actual one
type Comparison struct {
	Score    float64              `json:"score"`
	Expected questionnaire.Answer `json:"expected"`
	Actual   questionnaire.Answer `json:"actual"`
}

// compare returns nil when the pair cannot be scored: text questions, blanks
// on either side, or a list answer to a single-valued question.
func compare(q questionnaire.Question, expected, actual questionnaire.Answer) *Comparison {
	switch rule := q.Rule(); rule {
	case questionnaire.RuleSkip:
		return nil

	case questionnaire.RuleJaccard:
		e, a := expected.Tokens(), actual.Tokens()
		score, ok := jaccard(e, a)
		if !ok {
			return nil
		}
		return &Comparison{
			Score:    score,
			Expected: questionnaire.Multiple(e...),
			Actual:   questionnaire.Multiple(a...),
		}

	default:
		if expected.IsMultiple() || actual.IsMultiple() {
			return nil
		}
		e, a := expected.Token(), actual.Token()
		if e == "" || a == "" {
			return nil
		}
		return &Comparison{
			Score:    scoreSingle(rule, e, a),
			Expected: questionnaire.Single(e),
			Actual:   questionnaire.Single(a),
		}
	}
}

func scoreSingle(rule questionnaire.Rule, expected, actual string) float64 {
	switch rule {
	case questionnaire.RuleScale:
		if isDigits(expected) && isDigits(actual) {
			return scaleScore(expected, actual)
		}
	case questionnaire.RuleYesNo:
		switch {
		case expected == actual:
			return 1.0
		case expected == "maybe" || actual == "maybe":
			return 0.5
		default:
			return 0.0
		}
	}
	return exact(expected, actual)
}

func scaleScore(expected, actual string) float64 {
	e, errE := strconv.Atoi(expected)
	a, errA := strconv.Atoi(actual)
	if errE != nil || errA != nil || e < 1 || e > 5 || a < 1 || a > 5 {
		return 0.0
	}
	diff := e - a
	if diff < 0 {
		diff = -diff
	}
	score := 1.0 - float64(diff)/scaleSpan
	if score < 0 {
		return 0.0
	}
	return score
}

func exact(expected, actual string) float64 {
	if expected == actual {
		return 1.0
	}
	return 0.0
}

// jaccard is |E ∩ A| / |E ∪ A|; ok is false when either side is empty.
func jaccard(expected, actual []string) (float64, bool) {
	e := make(map[string]struct{}, len(expected))
	for _, t := range expected {
		e[t] = struct{}{}
	}
	a := make(map[string]struct{}, len(actual))
	for _, t := range actual {
		a[t] = struct{}{}
	}
	if len(e) == 0 || len(a) == 0 {
		return 0, false
	}

	inter := 0
	for t := range e {
		if _, ok := a[t]; ok {
			inter++
		}
	}
	union := len(e) + len(a) - inter
	return float64(inter) / float64(union), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
