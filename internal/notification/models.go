// internal/notification/models.go

package notification

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

// Kind identifies the event that produced a notification
type Kind string

const (
	KindNewMatch   Kind = "new_match"
	KindNewMessage Kind = "new_message"
	KindSystem     Kind = "system"
)

// Column limits of user_notifications
const (
	MaxTitleLength = 140
	MaxBodyLength  = 300
	MaxURLLength   = 300
)

var (
	ErrNoRecipient = errors.New("notification has no recipient")
	ErrQueueFull   = errors.New("notification queue is full")
	ErrClosed      = errors.New("notification dispatcher is closed")
)

// Data carries extra key/value pairs; stored as JSONB and sent as FCM data
type Data map[string]string

// Value implements driver.Valuer
func (d Data) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner
func (d *Data) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*d = Data{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("notification data must be []byte or string")
	}
	return json.Unmarshal(raw, d)
}

// Event is one notification addressed to a single user
type Event struct {
	Kind   Kind   `json:"kind"`
	UserID int64  `json:"user_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	URL    string `json:"url"`
	Data   Data   `json:"data,omitempty"`
}

// Normalized trims the text fields and cuts them to the column limits.
func (e Event) Normalized() Event {
	e.Title = truncate(strings.TrimSpace(e.Title), MaxTitleLength)
	e.Body = truncate(strings.TrimSpace(e.Body), MaxBodyLength)
	e.URL = truncate(strings.TrimSpace(e.URL), MaxURLLength)
	if e.Kind == "" {
		e.Kind = KindSystem
	}
	return e
}

// truncate cuts s to at most max runes
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// Preview shortens message text for a notification body, marking the cut with an ellipsis
func Preview(text string, max int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	return string([]rune(text)[:max]) + "…"
}
