package notification

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Notify(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestEventNormalized(t *testing.T) {
	e := Event{
		UserID: 7,
		Title:  "  " + strings.Repeat("т", 200) + "  ",
		Body:   strings.Repeat("b", 301),
		URL:    " /chat/1/ ",
	}.Normalized()

	assert.Equal(t, KindSystem, e.Kind)
	assert.Equal(t, 140, len([]rune(e.Title)))
	assert.Len(t, e.Body, 300)
	assert.Equal(t, "/chat/1/", e.URL)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "hello", Preview("  hello ", 120))
	assert.Equal(t, "abc…", Preview("abcdef", 3))
}

func TestDataValueAndScan(t *testing.T) {
	v, err := Data(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)

	var d Data
	require.NoError(t, d.Scan([]byte(`{"match_id":"4"}`)))
	assert.Equal(t, "4", d["match_id"])
	assert.Error(t, d.Scan(42))
}

func TestMultiContinuesAfterFailure(t *testing.T) {
	failing := &recordingSink{err: errors.New("boom")}
	ok := &recordingSink{}
	m := NewMulti().Add("failing", failing).Add("ok", ok).Add("nil", nil)
	require.Equal(t, 2, m.Len())

	before := testutil.ToFloat64(deliveriesTotal.WithLabelValues("failing", statusFailed))
	err := m.Notify(context.Background(), Event{UserID: 1, Title: "x"})

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "failing", de.Sink)
	assert.Len(t, ok.Events(), 1)
	assert.Equal(t, before+1, testutil.ToFloat64(deliveriesTotal.WithLabelValues("failing", statusFailed)))
}

func TestDispatcherDelivers(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, DispatcherConfig{QueueSize: 4, Workers: 2, Timeout: time.Second})

	require.NoError(t, d.Notify(context.Background(), Event{Kind: KindNewMatch, UserID: 1, Title: " New match "}))
	require.NoError(t, d.Notify(context.Background(), Event{Kind: KindNewMatch, UserID: 2, Title: "New match"}))
	require.NoError(t, d.Close(context.Background()))

	events := sink.Events()
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, "New match", e.Title)
	}
	assert.ErrorIs(t, d.Notify(context.Background(), Event{UserID: 3}), ErrClosed)
}

func TestDispatcherRejectsMissingRecipient(t *testing.T) {
	d := NewDispatcher(&recordingSink{}, DispatcherConfig{})
	defer d.Close(context.Background())

	assert.ErrorIs(t, d.Notify(context.Background(), Event{Title: "x"}), ErrNoRecipient)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	sink := SinkFunc(func(ctx context.Context, e Event) error {
		started <- struct{}{}
		<-release
		return nil
	})
	depth := testutil.ToFloat64(queueDepth)
	d := NewDispatcher(sink, DispatcherConfig{QueueSize: 1, Workers: 1, Timeout: time.Second})

	require.NoError(t, d.Notify(context.Background(), Event{UserID: 1}))
	<-started
	assert.Equal(t, depth, testutil.ToFloat64(queueDepth))
	require.NoError(t, d.Notify(context.Background(), Event{UserID: 2}))
	assert.Equal(t, depth+1, testutil.ToFloat64(queueDepth))

	before := testutil.ToFloat64(droppedTotal.WithLabelValues("queue_full"))
	assert.ErrorIs(t, d.Notify(context.Background(), Event{UserID: 3}), ErrQueueFull)
	assert.Equal(t, before+1, testutil.ToFloat64(droppedTotal.WithLabelValues("queue_full")))
	assert.Equal(t, depth+1, testutil.ToFloat64(queueDepth), "a dropped event is not queued")

	close(release)
	<-started
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, depth, testutil.ToFloat64(queueDepth))
}

func TestDispatcherQueueDepthNeverNegative(t *testing.T) {
	depth := testutil.ToFloat64(queueDepth)
	d := NewDispatcher(Discard, DispatcherConfig{QueueSize: 8, Workers: 4, Timeout: time.Second})

	stop := make(chan struct{})
	lowest := make(chan float64, 1)
	go func() {
		low := depth
		for {
			select {
			case <-stop:
				lowest <- low
				return
			default:
				if v := testutil.ToFloat64(queueDepth); v < low {
					low = v
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = d.Notify(context.Background(), Event{UserID: int64(i + 1), Title: "x"})
			}
		}(i)
	}
	wg.Wait()
	require.NoError(t, d.Close(context.Background()))
	close(stop)

	assert.Equal(t, depth, <-lowest)
	assert.Equal(t, depth, testutil.ToFloat64(queueDepth))
}

func TestDispatcherAppliesTimeout(t *testing.T) {
	deadline := make(chan bool, 1)
	sink := SinkFunc(func(ctx context.Context, e Event) error {
		_, ok := ctx.Deadline()
		deadline <- ok
		<-ctx.Done()
		return ctx.Err()
	})
	d := NewDispatcher(sink, DispatcherConfig{Workers: 1, Timeout: 20 * time.Millisecond})

	require.NoError(t, d.Notify(context.Background(), Event{UserID: 1}))
	assert.True(t, <-deadline)
	require.NoError(t, d.Close(context.Background()))
}

type fakeResult struct{ rows int64 }

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, nil }

type fakeExecer struct {
	query string
	args  []interface{}
	rows  int64
}

func (f *fakeExecer) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.query = query
	f.args = args
	return fakeResult{rows: f.rows}, nil
}

func TestStoreSinkInsertsForActiveRecipients(t *testing.T) {
	db := &fakeExecer{rows: 1}
	sink := NewStoreSink(db)

	err := sink.Notify(context.Background(), Event{Kind: KindNewMessage, UserID: 9, Title: " Hi ", URL: "/chat/3/"})
	require.NoError(t, err)

	assert.Contains(t, db.query, "u.is_active")
	require.Len(t, db.args, 6)
	assert.Equal(t, int64(9), db.args[0])
	assert.Equal(t, "new_message", db.args[1])
	assert.Equal(t, "Hi", db.args[2])
	assert.Equal(t, "/chat/3/", db.args[4])

	assert.ErrorIs(t, sink.Notify(context.Background(), Event{Title: "x"}), ErrNoRecipient)
}

type fakeTokens struct {
	tokens  []string
	removed []string
}

func (f *fakeTokens) Tokens(ctx context.Context, userID int64) ([]string, error) {
	return f.tokens, nil
}

func (f *fakeTokens) RemoveTokens(ctx context.Context, tokens []string) error {
	f.removed = append(f.removed, tokens...)
	return nil
}

type fakeFCM struct {
	sent     []*messaging.Message
	response *messaging.BatchResponse
}

func (f *fakeFCM) SendEach(ctx context.Context, messages []*messaging.Message) (*messaging.BatchResponse, error) {
	f.sent = append(f.sent, messages...)
	if f.response != nil {
		return f.response, nil
	}
	return &messaging.BatchResponse{SuccessCount: len(messages)}, nil
}

func TestPushSinkSendsToEveryDevice(t *testing.T) {
	fcm := &fakeFCM{}
	sink := NewPushSink(fcm, &fakeTokens{tokens: []string{"t1", "t2"}})

	err := sink.Notify(context.Background(), Event{Kind: KindNewMatch, UserID: 1, Title: "New match", Body: "You matched with Ann.", URL: "/chat/5/"})
	require.NoError(t, err)

	require.Len(t, fcm.sent, 2)
	assert.Equal(t, "t1", fcm.sent[0].Token)
	assert.Equal(t, "New match", fcm.sent[0].Notification.Title)
	assert.Equal(t, "/chat/5/", fcm.sent[0].Data["url"])
	assert.Equal(t, "new_match", fcm.sent[1].Data["kind"])
}

func TestPushSinkWithoutTokens(t *testing.T) {
	fcm := &fakeFCM{}
	sink := NewPushSink(fcm, &fakeTokens{})

	require.NoError(t, sink.Notify(context.Background(), Event{UserID: 1, Title: "x"}))
	assert.Empty(t, fcm.sent)
}

func TestPushSinkAllFailed(t *testing.T) {
	fcm := &fakeFCM{response: &messaging.BatchResponse{
		FailureCount: 1,
		Responses:    []*messaging.SendResponse{{Error: errors.New("unavailable")}},
	}}
	tokens := &fakeTokens{tokens: []string{"t1"}}
	sink := NewPushSink(fcm, tokens)

	assert.Error(t, sink.Notify(context.Background(), Event{UserID: 1, Title: "x"}))
	assert.Empty(t, tokens.removed)
}

type fakeRecipients map[int64]*Recipient

func (f fakeRecipients) Recipient(ctx context.Context, userID int64) (*Recipient, error) {
	return f[userID], nil
}

type fakeSendGrid struct {
	sent []*mail.SGMailV3
}

func (f *fakeSendGrid) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, email)
	return &rest.Response{StatusCode: 202}, nil
}

func TestEmailSinkHonorsPreferences(t *testing.T) {
	client := &fakeSendGrid{}
	recipients := fakeRecipients{
		1: {UserID: 1, Email: "ann@example.com", DisplayName: "Ann", IsActive: true, NotifyMatches: true, NotifyMessages: false},
		2: {UserID: 2, Email: "bob@example.com", IsActive: false, NotifyMatches: true, NotifyMessages: true},
	}
	sink := newEmailSink(client, EmailConfig{From: "noreply@kiekky.app", BaseURL: "https://kiekky.app/"}, recipients)
	ctx := context.Background()

	require.NoError(t, sink.Notify(ctx, Event{Kind: KindNewMatch, UserID: 1, Title: "New match", Body: "You matched with Bob.", URL: "/chat/4/"}))
	require.NoError(t, sink.Notify(ctx, Event{Kind: KindNewMessage, UserID: 1, Title: "New message"}))
	require.NoError(t, sink.Notify(ctx, Event{Kind: KindNewMatch, UserID: 2, Title: "New match"}))
	require.NoError(t, sink.Notify(ctx, Event{Kind: KindNewMatch, UserID: 3, Title: "New match"}))

	require.Len(t, client.sent, 1)
	msg := client.sent[0]
	assert.Equal(t, "New match", msg.Subject)
	assert.Equal(t, "Kiekky", msg.From.Name)
	require.Len(t, msg.Personalizations, 1)
	assert.Equal(t, "ann@example.com", msg.Personalizations[0].To[0].Address)
	require.NotEmpty(t, msg.Content)
	assert.Contains(t, msg.Content[0].Value, "https://kiekky.app/chat/4/")
}

func TestRecipientWants(t *testing.T) {
	r := &Recipient{Email: "a@b.c", IsActive: true, NotifyMatches: true, NotifyMessages: true}
	assert.True(t, r.Wants(KindNewMatch))
	assert.True(t, r.Wants(KindNewMessage))
	assert.False(t, r.Wants(KindSystem))

	r.Email = " "
	assert.False(t, r.Wants(KindNewMatch))
}

func TestRetentionPurge(t *testing.T) {
	db := &fakeExecer{rows: 4}
	now := time.Date(2024, 5, 31, 10, 0, 0, 0, time.UTC)
	r := NewRetention(db, 0, 3)
	r.now = func() time.Time { return now }

	n, err := r.Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Contains(t, db.query, "DELETE FROM user_notifications")
	require.Len(t, db.args, 1)
	assert.Equal(t, now.Add(-30*24*time.Hour), db.args[0])
}

func TestRetentionSchedule(t *testing.T) {
	r := NewRetention(&fakeExecer{}, time.Hour, 3)

	before := time.Date(2024, 5, 31, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, 90*time.Minute, r.untilNext(before))

	at := time.Date(2024, 5, 31, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, 24*time.Hour, r.untilNext(at))

	after := time.Date(2024, 5, 31, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, 5*time.Hour, r.untilNext(after))
}
