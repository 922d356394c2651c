package scoring

import (
	"encoding/json"
	"testing"

	"github.com/imadgeboyega/kiekky-matchmaking/internal/questionnaire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type answers = questionnaire.AnswerMap

func intp(v int) *int { return &v }

func engineCatalog() *questionnaire.Catalog {
	sections := []questionnaire.Section{
		{ID: 1, Code: "values", Title: "Values", Position: 0},
		{ID: 2, Code: "home", Title: "Home", Position: 1},
		{ID: 3, Code: "her", Title: "Her questions", Position: 2, Gender: questionnaire.GenderFemale},
		{ID: 4, Code: "notes", Title: "Notes", Position: 3},
	}
	qs := []questionnaire.Question{
		{ID: 1, SectionCode: "values", Code: "v1", Kind: questionnaire.KindScale, Choices: scaleQ.Choices, Position: 0},
		{ID: 2, SectionCode: "values", Code: "v2", Kind: questionnaire.KindYesNo, Choices: yesNoQ.Choices, Position: 1},
		{ID: 3, SectionCode: "home", Code: "h1", Kind: questionnaire.KindMultiple, Multiple: true, Choices: multiQ.Choices},
		{ID: 4, SectionCode: "her", Code: "f1", Kind: questionnaire.KindChoice, Choices: pickQ.Choices},
		{ID: 5, SectionCode: "notes", Code: "n1", Kind: questionnaire.KindText},
	}
	return questionnaire.NewCatalog(sections, qs)
}

func TestScoreBidirectional(t *testing.T) {
	e := NewEngine(engineCatalog(), 2)

	a := Party{
		UserID: 1,
		Ideal:  answers{"v1": single("1"), "v2": single("yes"), "h1": questionnaire.Multiple("a", "b")},
		Self:   answers{"v1": single("3"), "n1": single("free text")},
	}
	b := Party{
		UserID: 2,
		Ideal:  answers{"v1": single("5")},
		Self:   answers{"v1": single("2"), "v2": single("maybe"), "h1": questionnaire.Multiple("b", "c"), "n1": single("x")},
	}

	r := e.Score(a, b)

	// a->b: v1 0.75, v2 0.5, h1 1/3 => mean 0.52777 => 53
	// b->a: v1 |5-3| => 0.5 => 50
	assert.Equal(t, intp(53), r.AToB)
	assert.Equal(t, intp(50), r.BToA)
	assert.Equal(t, 3, r.ACompared)
	assert.Equal(t, 1, r.BCompared)
	assert.Equal(t, intp(52), r.Overall, "51.5 rounds half to even")

	require.Len(t, r.Sections, 2, "her and notes have nothing compared")
	values := r.Sections[0]
	assert.Equal(t, "values", values.Code)
	assert.Equal(t, intp(62), values.AToB, "62.5 rounds half to even")
	assert.Equal(t, intp(50), values.BToA)
	assert.Equal(t, intp(56), values.Overall)
	assert.Equal(t, 2, values.ACompared)
	assert.Equal(t, 1, values.BCompared)
	require.Len(t, values.Questions, 2)
	assert.Nil(t, values.Questions[1].BToA)

	home := r.Sections[1]
	assert.Equal(t, intp(33), home.AToB)
	assert.Nil(t, home.BToA)
	assert.Equal(t, intp(33), home.Overall)
}

func TestScoreChoiceWithoutChoices(t *testing.T) {
	c := questionnaire.NewCatalog(
		[]questionnaire.Section{{ID: 1, Code: "core"}},
		[]questionnaire.Question{{ID: 1, SectionCode: "core", Code: "nochoice", Kind: questionnaire.KindChoice}},
	)
	e := NewEngine(c, 1)

	a := Party{UserID: 1, Ideal: answers{"nochoice": single("x")}, Self: answers{"nochoice": single("y")}}
	b := Party{UserID: 2, Ideal: answers{"nochoice": single("x")}, Self: answers{"nochoice": single("x")}}

	r := e.Score(a, b)
	assert.Equal(t, intp(100), r.AToB)
	assert.Equal(t, intp(0), r.BToA)
	assert.Equal(t, 1, r.ACompared)
	assert.Equal(t, 1, r.BCompared)
	require.Len(t, r.Sections, 1)
	require.Len(t, r.Sections[0].Questions, 1)
	assert.Equal(t, "nochoice", r.Sections[0].Questions[0].Code)
}

func TestScoreNothingCompared(t *testing.T) {
	e := NewEngine(engineCatalog(), 1)

	r := e.Score(Party{UserID: 1}, Party{UserID: 2, Self: answers{"v1": single("3")}})
	assert.Nil(t, r.Overall)
	assert.Nil(t, r.AToB)
	assert.Nil(t, r.BToA)
	assert.Zero(t, r.ACompared)
	assert.Empty(t, r.Sections)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"overall":null`)
	assert.Contains(t, string(b), `"sections":[]`)
}

func TestScoreOneDirectionOnly(t *testing.T) {
	e := NewEngine(engineCatalog(), 1)

	a := Party{UserID: 1, Ideal: answers{"v2": single("no")}}
	b := Party{UserID: 2, Self: answers{"v2": single("no")}}

	r := e.Score(a, b)
	assert.Equal(t, intp(100), r.AToB)
	assert.Nil(t, r.BToA)
	assert.Equal(t, intp(100), r.Overall)
}

func TestScoreRespectsGenderScopes(t *testing.T) {
	e := NewEngine(engineCatalog(), 1)

	// f1 only exists for women: A looks for women, B is a woman.
	a := Party{UserID: 1, Gender: "male", LookingFor: "women", Ideal: answers{"f1": single("eq")}}
	b := Party{UserID: 2, Gender: "female", LookingFor: "men", Self: answers{"f1": single("eq")}}

	r := e.Score(a, b)
	require.Len(t, r.Sections, 1)
	assert.Equal(t, "her", r.Sections[0].Code)
	assert.Equal(t, intp(100), r.AToB)

	// Same answers but B declares another gender: f1 is not comparable.
	b.Gender = "male"
	r = e.Score(a, b)
	assert.Nil(t, r.AToB)
	assert.Empty(t, r.Sections)

	// No looking_for on A means no ideal-side filtering, B without gender sees everything.
	a.LookingFor = ""
	b.Gender = ""
	r = e.Score(a, b)
	assert.Equal(t, intp(100), r.AToB)
}

func TestScoreIsSymmetricInShape(t *testing.T) {
	e := NewEngine(engineCatalog(), 1)
	a := Party{UserID: 1, Ideal: answers{"v1": single("4")}, Self: answers{"v1": single("1")}}
	b := Party{UserID: 2, Ideal: answers{"v1": single("2")}, Self: answers{"v1": single("5")}}

	ab := e.Score(a, b)
	ba := e.Score(b, a)
	assert.Equal(t, ab.AToB, ba.BToA)
	assert.Equal(t, ab.BToA, ba.AToB)
	assert.Equal(t, ab.Overall, ba.Overall)
}

func TestSummary(t *testing.T) {
	r := Report{UserA: 1, UserB: 9, Overall: intp(70), ACompared: 3}
	s := r.Summary()
	assert.Equal(t, int64(9), s.UserID)
	assert.Equal(t, intp(70), s.Overall)
	assert.Equal(t, 3, s.ACompared)
}
