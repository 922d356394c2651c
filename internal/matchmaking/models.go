// internal/matchmaking/models.go

package matchmaking

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidSwipeValue = errors.New("swipe value must be like or pass")
	ErrSelfAction        = errors.New("cannot perform this action on yourself")
	ErrUserNotFound      = errors.New("user not found")
	ErrTargetUnavailable = errors.New("user is not available")
	ErrMatchNotFound     = errors.New("match not found")
	ErrNotParticipant    = errors.New("not a participant of this match")
	ErrInvalidReason     = errors.New("invalid report reason")
	ErrEmptyMessage      = errors.New("message text is required")
	ErrMessageTooLong    = errors.New("message text is too long")
	ErrTooManyCandidates = errors.New("too many candidates requested")
)

const MaxMessageLength = 2000

type SwipeValue string

const (
	SwipeLike SwipeValue = "like"
	SwipePass SwipeValue = "pass"
)

func ParseSwipeValue(s string) (SwipeValue, error) {
	switch SwipeValue(s) {
	case SwipeLike, SwipePass:
		return SwipeValue(s), nil
	}
	return "", ErrInvalidSwipeValue
}

// Swipe is the current decision of one user about another. At most one per directed pair.
type Swipe struct {
	ID         int64      `json:"id" db:"id"`
	FromUserID int64      `json:"from_user_id" db:"from_user_id"`
	ToUserID   int64      `json:"to_user_id" db:"to_user_id"`
	Value      SwipeValue `json:"value" db:"value"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Match is a mutual like stored as a canonical pair, User1ID < User2ID
type Match struct {
	ID              int64     `json:"id" db:"id"`
	User1ID         int64     `json:"user1_id" db:"user1_id"`
	User2ID         int64     `json:"user2_id" db:"user2_id"`
	IsSystemChannel bool      `json:"is_system_channel" db:"is_system_channel"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// CanonicalPair orders two user ids lower first
func CanonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// NewMatch builds an unsaved match for the unordered pair {a, b}
func NewMatch(a, b int64) (*Match, error) {
	if a == b {
		return nil, ErrSelfAction
	}
	lo, hi := CanonicalPair(a, b)
	return &Match{User1ID: lo, User2ID: hi}, nil
}

// Has reports whether userID is one of the two participants
func (m *Match) Has(userID int64) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// Other returns the participant that is not userID
func (m *Match) Other(userID int64) int64 {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

// Recommendation is a candidate surfaced to a user by operator tooling.
// Several rows may exist for the same pair; the newest one wins.
type Recommendation struct {
	ID          int64      `json:"id" db:"id"`
	ToUserID    int64      `json:"to_user_id" db:"to_user_id"`
	CandidateID int64      `json:"candidate_id" db:"candidate_id"`
	CreatedBy   *int64     `json:"created_by,omitempty" db:"created_by"`
	Score       *int       `json:"score,omitempty" db:"score"`
	Note        string     `json:"note" db:"note"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	SeenAt      *time.Time `json:"seen_at,omitempty" db:"seen_at"`
	ConsumedAt  *time.Time `json:"consumed_at,omitempty" db:"consumed_at"`
}

type Block struct {
	BlockerID int64     `json:"blocker_id" db:"blocker_id"`
	BlockedID int64     `json:"blocked_id" db:"blocked_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ReportReason string

const (
	ReasonSpam   ReportReason = "spam"
	ReasonFake   ReportReason = "fake"
	ReasonAbuse  ReportReason = "abuse"
	ReasonNudity ReportReason = "nudity"
	ReasonOther  ReportReason = "other"
)

func ParseReportReason(s string) (ReportReason, error) {
	switch r := ReportReason(strings.TrimSpace(s)); r {
	case ReasonSpam, ReasonFake, ReasonAbuse, ReasonNudity, ReasonOther:
		return r, nil
	}
	return "", ErrInvalidReason
}

type Report struct {
	ID         int64        `json:"id" db:"id"`
	ReporterID int64        `json:"reporter_id" db:"reporter_id"`
	ReportedID int64        `json:"reported_id" db:"reported_id"`
	Reason     ReportReason `json:"reason" db:"reason"`
	Message    string       `json:"message" db:"message"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}

type Ban struct {
	UserID    int64      `json:"user_id" db:"user_id"`
	Reason    string     `json:"reason" db:"reason"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}

// IsActive: not revoked, and either permanent or not yet expired
func (b *Ban) IsActive(now time.Time) bool {
	if b.RevokedAt != nil {
		return false
	}
	return b.ExpiresAt == nil || b.ExpiresAt.After(now)
}

type Message struct {
	ID        int64     `json:"id" db:"id"`
	MatchID   int64     `json:"match_id" db:"match_id"`
	SenderID  int64     `json:"sender_id" db:"sender_id"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserSummary is what the feed and match list show about another user
type UserSummary struct {
	ID          int64  `json:"id" db:"id"`
	Username    string `json:"username" db:"username"`
	DisplayName string `json:"display_name" db:"display_name"`
	Gender      string `json:"gender" db:"gender"`
	LookingFor  string `json:"looking_for" db:"looking_for"`
	IsActive    bool   `json:"-" db:"is_active"`
	IsBanned    bool   `json:"-" db:"is_banned"`
	HasProfile  bool   `json:"-" db:"has_profile"`
}

// Name falls back to the username when no display name is set
func (u *UserSummary) Name() string {
	if name := strings.TrimSpace(u.DisplayName); name != "" {
		return name
	}
	return u.Username
}

// Reachable reports whether the user may be swiped on or messaged
func (u *UserSummary) Reachable() bool {
	return u.IsActive && !u.IsBanned
}

// Candidate is the next profile in a user's feed
type Candidate struct {
	Profile        UserSummary     `json:"profile"`
	Recommendation *Recommendation `json:"recommendation"`
}

type SwipeResult struct {
	Swipe *Swipe `json:"swipe"`
	Match *Match `json:"match,omitempty"`
	// IsNewMatch is false when the match already existed
	IsNewMatch bool `json:"is_new_match"`
}

type MatchView struct {
	Match       *Match      `json:"match"`
	Other       UserSummary `json:"other"`
	LastMessage *Message    `json:"last_message,omitempty"`
}
