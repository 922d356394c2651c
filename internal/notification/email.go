// internal/notification/email.go

package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Recipient is what the email channel needs to know about a user
type Recipient struct {
	UserID         int64  `db:"user_id"`
	Email          string `db:"email"`
	DisplayName    string `db:"display_name"`
	IsActive       bool   `db:"is_active"`
	NotifyMatches  bool   `db:"notify_email_matches"`
	NotifyMessages bool   `db:"notify_email_messages"`
}

// Wants reports whether the user opted in to email for this kind of event
func (r *Recipient) Wants(kind Kind) bool {
	if !r.IsActive || strings.TrimSpace(r.Email) == "" {
		return false
	}
	switch kind {
	case KindNewMatch:
		return r.NotifyMatches
	case KindNewMessage:
		return r.NotifyMessages
	default:
		return false
	}
}

type RecipientStore interface {
	// Recipient returns nil, nil when the user does not exist
	Recipient(ctx context.Context, userID int64) (*Recipient, error)
}

type postgresRecipientStore struct {
	db *sqlx.DB
}

func NewPostgresRecipientStore(db *sqlx.DB) RecipientStore {
	return &postgresRecipientStore{db: db}
}

func (s *postgresRecipientStore) Recipient(ctx context.Context, userID int64) (*Recipient, error) {
	var r Recipient
	query := `
		SELECT u.id AS user_id, COALESCE(u.email, '') AS email, u.is_active,
		       COALESCE(p.display_name, '') AS display_name,
		       COALESCE(p.notify_email_matches, TRUE) AS notify_email_matches,
		       COALESCE(p.notify_email_messages, TRUE) AS notify_email_messages
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1`
	if err := s.db.GetContext(ctx, &r, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

type sendgridSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// EmailSink sends opted-in notifications through SendGrid
type EmailSink struct {
	client     sendgridSender
	recipients RecipientStore
	from       *mail.Email
	baseURL    string
}

type EmailConfig struct {
	APIKey   string
	From     string
	FromName string
	// BaseURL is prefixed to relative notification links
	BaseURL string
}

func NewEmailSink(cfg EmailConfig, recipients RecipientStore) *EmailSink {
	return newEmailSink(sendgrid.NewSendClient(cfg.APIKey), cfg, recipients)
}

func newEmailSink(client sendgridSender, cfg EmailConfig, recipients RecipientStore) *EmailSink {
	name := cfg.FromName
	if name == "" {
		name = "Kiekky"
	}
	return &EmailSink{
		client:     client,
		recipients: recipients,
		from:       mail.NewEmail(name, cfg.From),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

func (s *EmailSink) Notify(ctx context.Context, event Event) error {
	event = event.Normalized()

	r, err := s.recipients.Recipient(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("load email recipient: %w", err)
	}
	if r == nil || !r.Wants(event.Kind) {
		return nil
	}

	link := event.URL
	if strings.HasPrefix(link, "/") {
		link = s.baseURL + link
	}

	plain := event.Body
	if link != "" {
		plain += "\n\n" + link
	}
	htmlBody := "<p>" + html.EscapeString(event.Body) + "</p>"
	if link != "" {
		htmlBody += `<p><a href="` + html.EscapeString(link) + `">Open Kiekky</a></p>`
	}

	message := mail.NewSingleEmail(s.from, event.Title, mail.NewEmail(r.DisplayName, r.Email), plain, htmlBody)
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: unexpected status %d", resp.StatusCode)
	}
	return nil
}
