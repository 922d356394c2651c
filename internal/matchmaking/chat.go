// internal/matchmaking/chat.go

package matchmaking

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/imadgeboyega/kiekky-matchmaking/internal/notification"
)

const (
	lastMessagePreview = 100
	notifyPreview      = 120
)

// ListMatches returns the user's matches newest first, hiding counterparts
// that are inactive, banned or blocked in either direction.
func (s *service) ListMatches(ctx context.Context, userID int64) ([]*MatchView, error) {
	matches, err := s.repo.GetUserMatches(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}
	if len(matches) == 0 {
		return []*MatchView{}, nil
	}

	blocked, err := s.dir.BlockedWith(ctx, userID)
	if err != nil {
		return nil, err
	}

	otherIDs := make([]int64, 0, len(matches))
	matchIDs := make([]int64, 0, len(matches))
	for _, m := range matches {
		otherIDs = append(otherIDs, m.Other(userID))
		matchIDs = append(matchIDs, m.ID)
	}
	users, err := s.dir.Lookup(ctx, otherIDs)
	if err != nil {
		return nil, err
	}
	last, err := s.repo.LastMessages(ctx, matchIDs)
	if err != nil {
		return nil, fmt.Errorf("load last messages: %w", err)
	}

	views := make([]*MatchView, 0, len(matches))
	for _, m := range matches {
		otherID := m.Other(userID)
		u, ok := users[otherID]
		if !ok || !u.Reachable() {
			continue
		}
		if _, ok := blocked[otherID]; ok {
			continue
		}

		view := &MatchView{Match: m, Other: *u}
		if msg, ok := last[m.ID]; ok {
			preview := *msg
			preview.Text = notification.Preview(msg.Text, lastMessagePreview)
			view.LastMessage = &preview
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *service) PostMessage(ctx context.Context, userID, matchID int64, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	match, err := s.participantMatch(ctx, userID, matchID)
	if err != nil {
		return nil, err
	}

	msg := &Message{MatchID: match.ID, SenderID: userID, Text: text}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.notifyMessage(ctx, match, msg)
	return msg, nil
}

func (s *service) ListMessages(ctx context.Context, userID, matchID int64, limit int) ([]*Message, error) {
	if limit <= 0 || limit > defaultMessageLimit {
		limit = defaultMessageLimit
	}
	if _, err := s.participantMatch(ctx, userID, matchID); err != nil {
		return nil, err
	}

	msgs, err := s.repo.ListMessages(ctx, matchID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if msgs == nil {
		msgs = []*Message{}
	}
	return msgs, nil
}

func (s *service) participantMatch(ctx context.Context, userID, matchID int64) (*Match, error) {
	match, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.Has(userID) {
		return nil, ErrNotParticipant
	}
	return match, nil
}

func (s *service) notifyMessage(ctx context.Context, match *Match, msg *Message) {
	recipientID := match.Other(msg.SenderID)
	users, err := s.dir.Lookup(ctx, []int64{msg.SenderID, recipientID})
	if err != nil {
		recordNotifyFailure(string(notification.KindNewMessage))
		return
	}
	recipient, ok := users[recipientID]
	if !ok || !recipient.IsActive {
		return
	}

	name := strconv.FormatInt(msg.SenderID, 10)
	if sender, ok := users[msg.SenderID]; ok {
		name = sender.Name()
	}

	s.notify(ctx, notification.Event{
		Kind:   notification.KindNewMessage,
		UserID: recipientID,
		Title:  "Message from " + name,
		Body:   notification.Preview(msg.Text, notifyPreview),
		URL:    chatURL(match.ID),
		Data: notification.Data{
			"match_id":   strconv.FormatInt(match.ID, 10),
			"message_id": strconv.FormatInt(msg.ID, 10),
		},
	})
}
