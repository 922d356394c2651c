// internal/questionnaire/models.go

package questionnaire

import (
	"errors"
	"strings"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidKind     = errors.New("invalid questionnaire kind")
	ErrInvalidChoice   = errors.New("answer is not one of the question choices")
)

// Gender scopes a section or question. The empty value means "everyone".
type Gender string

const (
	GenderAny    Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Scope is the gender a questionnaire is being filled in for. ScopeNone disables
// gender filtering entirely.
type Scope string

const (
	ScopeNone   Scope = ""
	ScopeMale   Scope = "male"
	ScopeFemale Scope = "female"
	ScopeOther  Scope = "other"
)

// IdealScope maps a profile's looking_for value to the scope of its ideal-partner answers.
func IdealScope(lookingFor string) Scope {
	switch strings.TrimSpace(lookingFor) {
	case "men":
		return ScopeMale
	case "women":
		return ScopeFemale
	default:
		return ScopeNone
	}
}

// SelfScope is the declared gender of the profile, trimmed.
func SelfScope(gender string) Scope {
	return Scope(strings.TrimSpace(gender))
}

// Kind is the input type of a question
type Kind string

const (
	KindScale    Kind = "scale"
	KindYesNo    Kind = "yesno"
	KindChoice   Kind = "choice"
	KindMultiple Kind = "multiple"
	KindText     Kind = "text"
)

// AnswerKind selects which of the two answer sets a profile carries
type AnswerKind string

const (
	AnswerSelf  AnswerKind = "self"
	AnswerIdeal AnswerKind = "ideal"
)

// ParseAnswerKind accepts "self" (or the legacy "me") and "ideal".
func ParseAnswerKind(s string) (AnswerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "self", "me":
		return AnswerSelf, nil
	case "ideal":
		return AnswerIdeal, nil
	default:
		return "", ErrInvalidKind
	}
}

type Section struct {
	ID       int64  `json:"id" db:"id"`
	Code     string `json:"code" db:"code"`
	Title    string `json:"title" db:"title"`
	Hint     string `json:"hint,omitempty" db:"hint"`
	Position int    `json:"position" db:"position"`
	Gender   Gender `json:"gender,omitempty" db:"gender"`
}

type Choice struct {
	QuestionID int64  `json:"-" db:"question_id"`
	Value      string `json:"value" db:"value"`
	Label      string `json:"label" db:"label"`
	Position   int    `json:"-" db:"position"`
}

type Question struct {
	ID          int64    `json:"id" db:"id"`
	SectionCode string   `json:"section_code" db:"section_code"`
	Code        string   `json:"code" db:"code"`
	Text        string   `json:"text" db:"text"`
	Kind        Kind     `json:"kind" db:"input_type"`
	Multiple    bool     `json:"is_multiple" db:"is_multiple"`
	Gender      Gender   `json:"gender,omitempty" db:"gender"`
	Position    int      `json:"position" db:"position"`
	Choices     []Choice `json:"choices" db:"-"`
}

// Rule is the comparison applied to a question when scoring
type Rule int

const (
	RuleSkip Rule = iota
	RuleExact
	RuleScale
	RuleYesNo
	RuleJaccard
)

var (
	scaleValues = []string{"1", "2", "3", "4", "5"}
	yesNoValues = []string{"yes", "no", "maybe"}
)

// Rule picks the comparison from the question kind and, for single-valued
// questions, the exact set of choice values.
func (q Question) Rule() Rule {
	switch {
	case q.Kind == KindText:
		return RuleSkip
	case q.IsMultiple():
		return RuleJaccard
	case q.choiceSetIs(scaleValues):
		return RuleScale
	case q.choiceSetIs(yesNoValues):
		return RuleYesNo
	default:
		return RuleExact
	}
}

// IsMultiple reports whether the question accepts several tokens
func (q Question) IsMultiple() bool {
	return q.Kind == KindMultiple || q.Multiple
}

// HasChoice reports whether v is one of the question's choice values
func (q Question) HasChoice(v string) bool {
	for _, c := range q.Choices {
		if c.Value == v {
			return true
		}
	}
	return false
}

func (q Question) choiceSetIs(values []string) bool {
	set := make(map[string]struct{}, len(q.Choices))
	for _, c := range q.Choices {
		set[c.Value] = struct{}{}
	}
	if len(set) != len(values) {
		return false
	}
	for _, v := range values {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}

// normalizeKind folds the stored input_type/is_multiple pair into one Kind.
// A choice question without choices keeps its kind and compares by exact value.
func normalizeKind(q *Question) {
	kind := Kind(strings.ToLower(strings.TrimSpace(string(q.Kind))))
	switch {
	case kind == KindText:
		q.Kind = KindText
	case kind == KindMultiple || q.Multiple:
		q.Kind = KindMultiple
		q.Multiple = true
	case kind == KindScale || kind == KindYesNo:
		q.Kind = kind
	default:
		q.Kind = KindChoice
	}
}
