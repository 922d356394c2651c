// internal/questionnaire/defaults.go
// Built-in catalog used when no sections have been loaded into the database

package questionnaire

import "fmt"

var (
	scaleChoices = choices(
		"1", "Not me at all",
		"2", "Mostly not me",
		"3", "50/50",
		"4", "Mostly me",
		"5", "Completely me",
	)
	yesNoChoices = choices(
		"yes", "Yes",
		"no", "No",
		"maybe", "Sometimes / depends",
	)
	budgetChoices = choices(
		"low", "Low",
		"mid", "Medium",
		"high", "High",
		"flex", "Flexible",
	)
	roleChoices = choices(
		"trad", "Traditional",
		"mix", "Mixed",
		"eq", "Equal partnership",
	)
	loveLanguageChoices = choices(
		"words", "Words",
		"time", "Quality time",
		"touch", "Touch",
		"care", "Acts of care",
		"gifts", "Gifts",
	)
)

type defaultSection struct {
	code, title string
	gender      Gender
	questions   []defaultQuestion
}

type defaultQuestion struct {
	text     string
	kind     Kind
	choices  []Choice
	multiple bool
	gender   Gender
}

func scale(text string) defaultQuestion {
	return defaultQuestion{text: text, kind: KindScale, choices: scaleChoices}
}

func yesNo(text string) defaultQuestion {
	return defaultQuestion{text: text, kind: KindYesNo, choices: yesNoChoices}
}

func pick(text string, c []Choice) defaultQuestion {
	return defaultQuestion{text: text, kind: KindChoice, choices: c}
}

func pickMany(text string, c []Choice) defaultQuestion {
	return defaultQuestion{text: text, kind: KindMultiple, choices: c, multiple: true}
}

func choices(pairs ...string) []Choice {
	out := make([]Choice, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Choice{Value: pairs[i], Label: pairs[i+1], Position: i / 2})
	}
	return out
}

var defaultSections = []defaultSection{
	{code: "principles", title: "Life principles", questions: []defaultQuestion{
		scale("Honesty matters more than convenience"),
		scale("I value freedom and personal boundaries"),
		scale("Family is my priority"),
		scale("I can admit my mistakes"),
		scale("Spirituality and meaning matter to me"),
		scale("I am ready to compromise"),
		scale("Traditions are important to me"),
		scale("I prefer stability to risk"),
	}},
	{code: "housing", title: "Living arrangements", questions: []defaultQuestion{
		scale("Living apart from my parents matters to me"),
		scale("I like order at home"),
		scale("I am ready to share a home right away"),
		scale("I need a space of my own"),
		yesNo("Guests at home are fine with me"),
		scale("I would move for a relationship"),
	}},
	{code: "roles", title: "Roles", questions: []defaultQuestion{
		pick("Which division of roles feels comfortable", roleChoices),
		scale("I am comfortable leading in a couple"),
		scale("Decisions should be made together"),
		scale("Sharing chores fairly matters to me"),
		scale("I want shared goals for the next 3 to 5 years"),
	}},
	{code: "work", title: "Work", questions: []defaultQuestion{
		scale("I am ambitious"),
		scale("My career is important to me"),
		scale("I prefer work-life balance"),
		scale("I want my partner to keep growing"),
		yesNo("I would relocate for work"),
		scale("I am ready for shared financial goals"),
	}},
	{code: "finances", title: "Money in the family", questions: []defaultQuestion{
		pick("Preferred level of spending and gifts", budgetChoices),
		scale("I prefer a shared budget"),
		scale("I prefer separate budgets"),
		scale("Spending should be discussed in advance"),
		scale("Financial security matters to me"),
	}},
	{code: "intimacy", title: "Intimacy", questions: []defaultQuestion{
		scale("Intimacy is an important part of a relationship"),
		scale("Talking about desires matters to me"),
		scale("I am comfortable discussing boundaries"),
		scale("Emotional closeness matters to me"),
	}},
	{code: "rest", title: "Free time", questions: []defaultQuestion{
		scale("I like active holidays"),
		scale("I like quiet holidays"),
		scale("I love travelling"),
		scale("Shared hobbies matter to me"),
		scale("I sometimes need to rest on my own"),
		scale("I like to plan ahead"),
	}},
	{code: "love_language", title: "Love language", questions: []defaultQuestion{
		pickMany("My main love languages", loveLanguageChoices),
		scale("Words of support matter to me"),
		scale("Quality time together matters to me"),
		scale("I like making surprises"),
	}},
	{code: "situations", title: "Situations", questions: []defaultQuestion{
		{
			text: "Your partner is causing a scene at a party and is clearly in the wrong. What do you do?",
			kind: KindChoice,
			choices: choices(
				"1", "Step in, apologise to everyone and talk to her privately",
				"2", "Quietly take her home and talk it through there",
				"3", "Back her up in public, then talk it through at home",
				"4", "Pretend I do not know her",
				"5", "Sit down and watch how it ends",
			),
			gender: GenderMale,
		},
		{
			text: "Your husband has lost his job and feels defeated. What do you do?",
			kind: KindChoice,
			choices: choices(
				"1", "Find work myself to carry the family for a while",
				"2", "Support him morally and help him find a new job",
				"3", "Take a loan to bridge the next few months",
				"4", "Ask my family to help him find work",
				"5", "Leave for someone more successful",
			),
			gender: GenderFemale,
		},
		{text: "Anything else you want a partner to know", kind: KindText},
	}},
}

// DefaultCatalog builds the built-in questionnaire. Section and question ids are
// synthetic and stable across calls.
func DefaultCatalog() *Catalog {
	var (
		sections  []Section
		questions []Question
		nextID    int64 = 1
	)

	for si, ds := range defaultSections {
		sections = append(sections, Section{
			ID:       int64(si + 1),
			Code:     ds.code,
			Title:    ds.title,
			Position: si,
			Gender:   ds.gender,
		})
		for qi, dq := range ds.questions {
			questions = append(questions, Question{
				ID:          nextID,
				SectionCode: ds.code,
				Code:        fmt.Sprintf("%s_%02d", ds.code, qi+1),
				Text:        dq.text,
				Kind:        dq.kind,
				Multiple:    dq.multiple,
				Gender:      dq.gender,
				Position:    qi,
				Choices:     dq.choices,
			})
			nextID++
		}
	}

	return NewCatalog(sections, questions)
}
