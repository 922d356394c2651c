// internal/questionnaire/answers.go

package questionnaire

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Answer is either a single token or a list of tokens. The zero value is blank.
type Answer struct {
	tokens   []string
	multiple bool
}

// Single builds a one-token answer
func Single(token string) Answer {
	return Answer{tokens: []string{token}}
}

// Multiple builds a multi-token answer
func Multiple(tokens ...string) Answer {
	return Answer{tokens: append([]string(nil), tokens...), multiple: true}
}

// IsMultiple reports whether the answer was given as a list
func (a Answer) IsMultiple() bool {
	return a.multiple
}

// Token returns the trimmed single token, or "" for list answers and blanks.
func (a Answer) Token() string {
	if a.multiple || len(a.tokens) == 0 {
		return ""
	}
	return strings.TrimSpace(a.tokens[0])
}

// Tokens returns the trimmed, non-empty tokens in their original order.
func (a Answer) Tokens() []string {
	out := make([]string, 0, len(a.tokens))
	for _, t := range a.tokens {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// IsBlank is true when no non-empty token is present
func (a Answer) IsBlank() bool {
	for _, t := range a.tokens {
		if strings.TrimSpace(t) != "" {
			return false
		}
	}
	return true
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.multiple {
		tokens := a.tokens
		if tokens == nil {
			tokens = []string{}
		}
		return json.Marshal(tokens)
	}
	if len(a.tokens) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(a.tokens[0])
}

// UnmarshalJSON accepts a string, a number, null, or an array of those.
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		tokens := make([]string, 0, len(raw))
		for _, item := range raw {
			token, ok, err := scalarToken(item)
			if err != nil {
				return err
			}
			if ok {
				tokens = append(tokens, token)
			}
		}
		*a = Answer{tokens: tokens, multiple: true}
		return nil
	}

	token, ok, err := scalarToken(data)
	if err != nil {
		return err
	}
	if !ok {
		*a = Answer{}
		return nil
	}
	*a = Single(token)
	return nil
}

func scalarToken(data []byte) (string, bool, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return "", false, err
	}
	switch t := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return t, true, nil
	case json.Number:
		return t.String(), true, nil
	case bool:
		return fmt.Sprintf("%t", t), true, nil
	default:
		return "", false, fmt.Errorf("unsupported answer value %s", string(data))
	}
}

// AnswerMap maps question code to answer. Stored as JSONB.
type AnswerMap map[string]Answer

// Get returns the answer for code (blank when absent)
func (m AnswerMap) Get(code string) Answer {
	if m == nil {
		return Answer{}
	}
	return m[code]
}

// Scan implements sql.Scanner interface
func (m *AnswerMap) Scan(value interface{}) error {
	if value == nil {
		*m = AnswerMap{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into AnswerMap", value)
	}

	out := AnswerMap{}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// Value implements driver.Valuer interface
func (m AnswerMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}
