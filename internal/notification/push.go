// internal/notification/push.go

package notification

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"google.golang.org/api/option"

	"github.com/imadgeboyega/kiekky-matchmaking/internal/common/logging"
)

// TokenStore knows the device tokens registered for a user
type TokenStore interface {
	Tokens(ctx context.Context, userID int64) ([]string, error)
	RemoveTokens(ctx context.Context, tokens []string) error
}

type postgresTokenStore struct {
	db *sqlx.DB
}

func NewPostgresTokenStore(db *sqlx.DB) TokenStore {
	return &postgresTokenStore{db: db}
}

func (s *postgresTokenStore) Tokens(ctx context.Context, userID int64) ([]string, error) {
	var tokens []string
	query := `SELECT token FROM push_tokens WHERE user_id = $1 ORDER BY created_at DESC`
	if err := s.db.SelectContext(ctx, &tokens, query, userID); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *postgresTokenStore) RemoveTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM push_tokens WHERE token = ANY($1)`, pq.Array(tokens))
	return err
}

// fcmSender is the part of *messaging.Client the sink needs
type fcmSender interface {
	SendEach(ctx context.Context, messages []*messaging.Message) (*messaging.BatchResponse, error)
}

// PushSink delivers notifications through Firebase Cloud Messaging
type PushSink struct {
	client fcmSender
	tokens TokenStore
}

// NewFCMClient initializes a Firebase messaging client from a service account file
func NewFCMClient(ctx context.Context, credentialsPath string) (*messaging.Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}
	return client, nil
}

func NewPushSink(client fcmSender, tokens TokenStore) *PushSink {
	return &PushSink{client: client, tokens: tokens}
}

func (s *PushSink) Notify(ctx context.Context, event Event) error {
	event = event.Normalized()

	tokens, err := s.tokens.Tokens(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("load push tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	messages := make([]*messaging.Message, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, buildMessage(token, event))
	}

	resp, err := s.client.SendEach(ctx, messages)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}

	if resp.FailureCount > 0 {
		var stale []string
		for i, r := range resp.Responses {
			if r == nil || r.Error == nil {
				continue
			}
			if messaging.IsUnregistered(r.Error) {
				stale = append(stale, tokens[i])
				continue
			}
			logging.Ctx(ctx).Warn().Err(r.Error).Int64("user_id", event.UserID).Msg("push to device failed")
		}
		if err := s.tokens.RemoveTokens(ctx, stale); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("failed to remove unregistered push tokens")
		}
	}

	if resp.SuccessCount == 0 && resp.FailureCount > 0 {
		return fmt.Errorf("push failed for all %d devices", resp.FailureCount)
	}
	return nil
}

func buildMessage(token string, event Event) *messaging.Message {
	data := make(map[string]string, len(event.Data)+2)
	for k, v := range event.Data {
		data[k] = v
	}
	data["kind"] = string(event.Kind)
	if event.URL != "" {
		data["url"] = event.URL
	}

	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: event.Title,
			Body:  event.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:       "default",
				ClickAction: "FLUTTER_NOTIFICATION_CLICK",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{Title: event.Title, Body: event.Body},
					Sound: "default",
				},
			},
		},
	}
}
