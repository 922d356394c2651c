// internal/questionnaire/catalog.go

package questionnaire

import (
	"math"
	"sort"
)

// SectionView is a section together with its ordered questions
type SectionView struct {
	Section
	Questions []Question `json:"questions"`
}

// Catalog is an immutable, ordered snapshot of sections and questions. It is
// safe for concurrent use once built.
type Catalog struct {
	sections   []SectionView
	byCode     map[string]Question
	visibility *VisibilityTable

	rawSections  []Section
	rawQuestions []Question
}

// NewCatalog orders sections and questions by position (then id) and
// precomputes gender visibility. Questions pointing at an unknown section are
// dropped.
func NewCatalog(sections []Section, questions []Question) *Catalog {
	secs := append([]Section(nil), sections...)
	sort.SliceStable(secs, func(i, j int) bool {
		if secs[i].Position != secs[j].Position {
			return secs[i].Position < secs[j].Position
		}
		return secs[i].ID < secs[j].ID
	})

	qs := make([]Question, len(questions))
	for i, q := range questions {
		q.Choices = append([]Choice(nil), q.Choices...)
		sort.SliceStable(q.Choices, func(a, b int) bool { return q.Choices[a].Position < q.Choices[b].Position })
		normalizeKind(&q)
		qs[i] = q
	}
	sort.SliceStable(qs, func(i, j int) bool {
		if qs[i].Position != qs[j].Position {
			return qs[i].Position < qs[j].Position
		}
		return qs[i].ID < qs[j].ID
	})

	index := make(map[string]int, len(secs))
	views := make([]SectionView, len(secs))
	for i, s := range secs {
		views[i] = SectionView{Section: s}
		index[s.Code] = i
	}

	byCode := make(map[string]Question, len(qs))
	kept := make([]Question, 0, len(qs))
	for _, q := range qs {
		i, ok := index[q.SectionCode]
		if !ok || q.Code == "" {
			continue
		}
		if _, dup := byCode[q.Code]; dup {
			continue
		}
		views[i].Questions = append(views[i].Questions, q)
		byCode[q.Code] = q
		kept = append(kept, q)
	}

	c := &Catalog{
		sections:     views,
		byCode:       byCode,
		rawSections:  secs,
		rawQuestions: kept,
	}
	c.visibility = newVisibilityTable(views)
	return c
}

// Sections returns the full ordered tree. Callers must not modify it.
func (c *Catalog) Sections() []SectionView {
	return c.sections
}

// Question looks a question up by code
func (c *Catalog) Question(code string) (Question, bool) {
	q, ok := c.byCode[code]
	return q, ok
}

// Visibility returns the precomputed gender visibility table
func (c *Catalog) Visibility() *VisibilityTable {
	return c.visibility
}

// ComparableQuestions is the set of question codes visible both under the
// ideal scope of the expecting side and the self scope of the answering side.
func (c *Catalog) ComparableQuestions(idealScope, selfScope Scope) map[string]struct{} {
	ideal := c.visibility.Visible(idealScope)
	self := c.visibility.Visible(selfScope)
	out := make(map[string]struct{}, len(ideal))
	for code := range ideal {
		if _, ok := self[code]; ok {
			out[code] = struct{}{}
		}
	}
	return out
}

// ForScope returns the section tree filtered to what scope can see. Sections
// left without questions are omitted.
func (c *Catalog) ForScope(scope Scope) []SectionView {
	visible := c.visibility.Visible(scope)
	out := make([]SectionView, 0, len(c.sections))
	for _, s := range c.sections {
		var qs []Question
		for _, q := range s.Questions {
			if _, ok := visible[q.Code]; ok {
				qs = append(qs, q)
			}
		}
		if len(qs) == 0 {
			continue
		}
		out = append(out, SectionView{Section: s.Section, Questions: qs})
	}
	return out
}

// Progress counts how many of the questions visible to scope have a non-blank answer.
type Progress struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
	Percent  int `json:"percent"`
}

func (c *Catalog) Progress(answers AnswerMap, scope Scope) Progress {
	var p Progress
	for _, s := range c.ForScope(scope) {
		for _, q := range s.Questions {
			p.Total++
			if !answers.Get(q.Code).IsBlank() {
				p.Answered++
			}
		}
	}
	if p.Total > 0 {
		p.Percent = int(math.RoundToEven(float64(p.Answered) / float64(p.Total) * 100))
	}
	return p
}

// VisibilityTable holds, per scope, the set of visible question codes.
type VisibilityTable struct {
	byScope  map[Scope]map[string]struct{}
	unscoped map[string]struct{}
}

var knownScopes = []Scope{ScopeNone, ScopeMale, ScopeFemale, ScopeOther}

func newVisibilityTable(sections []SectionView) *VisibilityTable {
	t := &VisibilityTable{
		byScope:  make(map[Scope]map[string]struct{}, len(knownScopes)),
		unscoped: make(map[string]struct{}),
	}
	for _, scope := range knownScopes {
		t.byScope[scope] = make(map[string]struct{})
	}

	for _, s := range sections {
		for _, q := range s.Questions {
			for _, scope := range knownScopes {
				if visibleUnder(scope, s.Gender, q.Gender) {
					t.byScope[scope][q.Code] = struct{}{}
				}
			}
			if s.Gender == GenderAny && q.Gender == GenderAny {
				t.unscoped[q.Code] = struct{}{}
			}
		}
	}
	return t
}

func visibleUnder(scope Scope, sectionGender, questionGender Gender) bool {
	if scope == ScopeNone {
		return true
	}
	return (sectionGender == GenderAny || string(sectionGender) == string(scope)) &&
		(questionGender == GenderAny || string(questionGender) == string(scope))
}

// Visible returns the read-only set of codes visible under scope. Unknown
// scopes only see questions that carry no gender restriction.
func (t *VisibilityTable) Visible(scope Scope) map[string]struct{} {
	if set, ok := t.byScope[scope]; ok {
		return set
	}
	return t.unscoped
}

// IsVisible reports whether code is visible under scope
func (t *VisibilityTable) IsVisible(scope Scope, code string) bool {
	_, ok := t.Visible(scope)[code]
	return ok
}
