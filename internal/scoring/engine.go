// internal/scoring/engine.go

package scoring

import (
	"github.com/imadgeboyega/kiekky-matchmaking/internal/questionnaire"
)

// Party is one side of a compatibility comparison
type Party struct {
	UserID     int64
	Gender     string
	LookingFor string
	Self       questionnaire.AnswerMap
	Ideal      questionnaire.AnswerMap
}

// PartyFromProfile adapts stored profile answers
func PartyFromProfile(p *questionnaire.ProfileAnswers) Party {
	return Party{
		UserID:     p.UserID,
		Gender:     p.Gender,
		LookingFor: p.LookingFor,
		Self:       p.Self,
		Ideal:      p.Ideal,
	}
}

// Engine scores parties against one catalog snapshot. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	catalog *questionnaire.Catalog
	workers int
}

// NewEngine binds the engine to catalog. workers bounds ScoreMany parallelism.
func NewEngine(catalog *questionnaire.Catalog, workers int) *Engine {
	if workers <= 0 {
		workers = 4
	}
	return &Engine{catalog: catalog, workers: workers}
}

// Catalog returns the snapshot the engine scores against
func (e *Engine) Catalog() *questionnaire.Catalog {
	return e.catalog
}

// Score compares A's ideal with B's self answers and B's ideal with A's self
// answers over the questions each direction may see.
func (e *Engine) Score(a, b Party) Report {
	aToBCodes := e.catalog.ComparableQuestions(questionnaire.IdealScope(a.LookingFor), questionnaire.SelfScope(b.Gender))
	bToACodes := e.catalog.ComparableQuestions(questionnaire.IdealScope(b.LookingFor), questionnaire.SelfScope(a.Gender))

	report := Report{UserA: a.UserID, UserB: b.UserID, Sections: []SectionReport{}}
	var aToB, bToA accumulator

	for _, section := range e.catalog.Sections() {
		var sAToB, sBToA accumulator
		var questions []QuestionReport

		for _, q := range section.Questions {
			var ab, ba *Comparison
			if _, ok := aToBCodes[q.Code]; ok {
				ab = compare(q, a.Ideal.Get(q.Code), b.Self.Get(q.Code))
			}
			if _, ok := bToACodes[q.Code]; ok {
				ba = compare(q, b.Ideal.Get(q.Code), a.Self.Get(q.Code))
			}
			if ab == nil && ba == nil {
				continue
			}

			sAToB.add(ab)
			sBToA.add(ba)
			aToB.add(ab)
			bToA.add(ba)

			questions = append(questions, QuestionReport{
				Code:       q.Code,
				Text:       q.Text,
				Kind:       q.Kind,
				IsMultiple: q.IsMultiple(),
				Choices:    q.Choices,
				AToB:       ab,
				BToA:       ba,
			})
		}

		if len(questions) == 0 {
			continue
		}

		sectionAToB, sectionBToA := sAToB.percent(), sBToA.percent()
		report.Sections = append(report.Sections, SectionReport{
			Code:      section.Code,
			Title:     section.Title,
			Overall:   combine(sectionAToB, sectionBToA),
			AToB:      sectionAToB,
			BToA:      sectionBToA,
			ACompared: sAToB.compared,
			BCompared: sBToA.compared,
			Questions: questions,
		})
	}

	report.AToB = aToB.percent()
	report.BToA = bToA.percent()
	report.ACompared = aToB.compared
	report.BCompared = bToA.compared
	report.Overall = combine(report.AToB, report.BToA)
	return report
}
