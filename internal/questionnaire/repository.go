// internal/questionnaire/repository.go

package questionnaire

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ProfileAnswers is the slice of a profile the questionnaire and scoring need
type ProfileAnswers struct {
	UserID      int64     `json:"user_id" db:"user_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Gender      string    `json:"gender" db:"gender"`
	LookingFor  string    `json:"looking_for" db:"looking_for"`
	Self        AnswerMap `json:"self" db:"questionnaire_me"`
	Ideal       AnswerMap `json:"ideal" db:"questionnaire_ideal"`
}

// Answers returns the answer set for kind
func (p *ProfileAnswers) Answers(kind AnswerKind) AnswerMap {
	if kind == AnswerIdeal {
		return p.Ideal
	}
	return p.Self
}

// Scope returns the gender scope that applies to the given answer set
func (p *ProfileAnswers) Scope(kind AnswerKind) Scope {
	if kind == AnswerIdeal {
		return IdealScope(p.LookingFor)
	}
	return SelfScope(p.Gender)
}

// CatalogLoader produces a catalog snapshot
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) (*Catalog, error)
}

// AnswerStore reads and writes the questionnaire columns of profiles
type AnswerStore interface {
	LoadProfile(ctx context.Context, userID int64) (*ProfileAnswers, error)
	LoadProfiles(ctx context.Context, userIDs []int64) ([]*ProfileAnswers, error)
	SaveAnswers(ctx context.Context, userID int64, kind AnswerKind, answers AnswerMap) error
}

// Repository is the postgres-backed catalog loader and answer store
type Repository interface {
	CatalogLoader
	AnswerStore
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) LoadCatalog(ctx context.Context) (*Catalog, error) {
	var sections []Section
	err := r.db.SelectContext(ctx, &sections, `
		SELECT id, code, title, hint, position, gender
		FROM questionnaire_sections
		ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	if len(sections) == 0 {
		return DefaultCatalog(), nil
	}

	var questions []Question
	err = r.db.SelectContext(ctx, &questions, `
		SELECT q.id, s.code AS section_code, q.code, q.text, q.input_type,
		       q.is_multiple, q.gender, q.position
		FROM questionnaire_questions q
		JOIN questionnaire_sections s ON s.id = q.section_id
		ORDER BY q.position, q.id
	`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	var choices []Choice
	err = r.db.SelectContext(ctx, &choices, `
		SELECT question_id, value, label, position
		FROM questionnaire_choices
		ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("load choices: %w", err)
	}

	byQuestion := make(map[int64][]Choice, len(questions))
	for _, c := range choices {
		byQuestion[c.QuestionID] = append(byQuestion[c.QuestionID], c)
	}
	for i := range questions {
		questions[i].Choices = byQuestion[questions[i].ID]
	}

	return NewCatalog(sections, questions), nil
}

const profileColumns = `user_id, display_name, gender, looking_for, questionnaire_me, questionnaire_ideal`

func (r *postgresRepository) LoadProfile(ctx context.Context, userID int64) (*ProfileAnswers, error) {
	var p ProfileAnswers
	err := r.db.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProfiles returns the profiles that exist among userIDs, in no particular order.
func (r *postgresRepository) LoadProfiles(ctx context.Context, userIDs []int64) ([]*ProfileAnswers, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var out []*ProfileAnswers
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ANY($1)`, pq.Array(userIDs))
	return out, err
}

func (r *postgresRepository) SaveAnswers(ctx context.Context, userID int64, kind AnswerKind, answers AnswerMap) error {
	var query string
	switch kind {
	case AnswerSelf:
		query = `UPDATE profiles SET questionnaire_me = $2, updated_at = NOW() WHERE user_id = $1`
	case AnswerIdeal:
		query = `UPDATE profiles SET questionnaire_ideal = $2, updated_at = NOW() WHERE user_id = $1`
	default:
		return ErrInvalidKind
	}

	res, err := r.db.ExecContext(ctx, query, userID, answers)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProfileNotFound
	}
	return nil
}
