package matchmaking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/imadgeboyega/kiekky-matchmaking/internal/notification"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/questionnaire"
)

// memStore is an in-memory Repository and Directory. RunInTx holds the store
// lock for the whole callback, which serializes transactions the way the pair
// lock does in postgres.
type memStore struct {
	mu sync.Mutex

	users    map[int64]*UserSummary
	blocks   map[[2]int64]time.Time
	swipes   []*Swipe
	matches  []*Match
	recs     []*Recommendation
	reports  []*Report
	messages []*Message
	nextID   int64
}

func newMemStore(users ...*UserSummary) *memStore {
	s := &memStore{users: map[int64]*UserSummary{}, blocks: map[[2]int64]time.Time{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) repo() Repository {
	return &memRepo{store: s}
}

func (s *memStore) addRecommendation(toID, candidateID int64, createdAt time.Time) *Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &Recommendation{ID: s.id(), ToUserID: toID, CandidateID: candidateID, CreatedAt: createdAt}
	s.recs = append(s.recs, rec)
	return rec
}

func (s *memStore) block(blockerID, blockedID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[[2]int64{blockerID, blockedID}] = time.Now()
}

func (s *memStore) swipeCount(from, to int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sw := range s.swipes {
		if sw.FromUserID == from && sw.ToUserID == to {
			n++
		}
	}
	return n
}

func (s *memStore) matchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

func (s *memStore) recommendation(id int64) Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recs {
		if r.ID == id {
			return *r
		}
	}
	return Recommendation{}
}

// Directory

func (s *memStore) Lookup(ctx context.Context, ids []int64) (map[int64]*UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int64]*UserSummary{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			c := *u
			out[id] = &c
		}
	}
	return out, nil
}

func (s *memStore) BlockedWith(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int64]struct{}{}
	for pair := range s.blocks {
		if pair[0] == userID {
			out[pair[1]] = struct{}{}
		}
		if pair[1] == userID {
			out[pair[0]] = struct{}{}
		}
	}
	return out, nil
}

type memRepo struct {
	store *memStore
	inTx  bool
}

func (r *memRepo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *memRepo) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	swipes := append([]*Swipe(nil), s.swipes...)
	matches := append([]*Match(nil), s.matches...)
	messages := append([]*Message(nil), s.messages...)
	if err := fn(ctx, &memRepo{store: s, inTx: true}); err != nil {
		s.swipes, s.matches, s.messages = swipes, matches, messages
		return err
	}
	return nil
}

func (r *memRepo) LockPair(ctx context.Context, a, b int64) error { return nil }

func (r *memRepo) ReplaceSwipe(ctx context.Context, swipe *Swipe) error {
	defer r.lock()()
	s := r.store
	kept := s.swipes[:0:0]
	for _, sw := range s.swipes {
		if sw.FromUserID == swipe.FromUserID && sw.ToUserID == swipe.ToUserID {
			continue
		}
		kept = append(kept, sw)
	}
	swipe.ID = s.id()
	c := *swipe
	s.swipes = append(kept, &c)
	return nil
}

func (r *memRepo) HasLike(ctx context.Context, fromID, toID int64) (bool, error) {
	defer r.lock()()
	for _, sw := range r.store.swipes {
		if sw.FromUserID == fromID && sw.ToUserID == toID && sw.Value == SwipeLike {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) LatestSwipe(ctx context.Context, fromID int64) (*Swipe, error) {
	defer r.lock()()
	var latest *Swipe
	for _, sw := range r.store.swipes {
		if sw.FromUserID != fromID {
			continue
		}
		if latest == nil || sw.CreatedAt.After(latest.CreatedAt) ||
			(sw.CreatedAt.Equal(latest.CreatedAt) && sw.ID > latest.ID) {
			latest = sw
		}
	}
	if latest == nil {
		return nil, nil
	}
	c := *latest
	return &c, nil
}

func (r *memRepo) DeleteSwipe(ctx context.Context, id int64) error {
	defer r.lock()()
	s := r.store
	kept := s.swipes[:0:0]
	for _, sw := range s.swipes {
		if sw.ID != id {
			kept = append(kept, sw)
		}
	}
	s.swipes = kept
	return nil
}

func (r *memRepo) DeletePairSwipes(ctx context.Context, a, b int64) error {
	defer r.lock()()
	s := r.store
	kept := s.swipes[:0:0]
	for _, sw := range s.swipes {
		if (sw.FromUserID == a && sw.ToUserID == b) || (sw.FromUserID == b && sw.ToUserID == a) {
			continue
		}
		kept = append(kept, sw)
	}
	s.swipes = kept
	return nil
}

func (r *memRepo) CreateOrGetMatch(ctx context.Context, match *Match) (bool, error) {
	defer r.lock()()
	s := r.store
	for _, m := range s.matches {
		if m.User1ID == match.User1ID && m.User2ID == match.User2ID {
			*match = *m
			return false, nil
		}
	}
	match.ID = s.id()
	match.CreatedAt = time.Now()
	c := *match
	s.matches = append(s.matches, &c)
	return true, nil
}

func (r *memRepo) GetMatch(ctx context.Context, id int64) (*Match, error) {
	defer r.lock()()
	for _, m := range r.store.matches {
		if m.ID == id {
			c := *m
			return &c, nil
		}
	}
	return nil, ErrMatchNotFound
}

func (r *memRepo) DeletePairMatch(ctx context.Context, a, b int64) error {
	defer r.lock()()
	s := r.store
	lo, hi := CanonicalPair(a, b)
	kept := s.matches[:0:0]
	for _, m := range s.matches {
		if m.User1ID == lo && m.User2ID == hi {
			continue
		}
		kept = append(kept, m)
	}
	s.matches = kept
	return nil
}

func (r *memRepo) GetUserMatches(ctx context.Context, userID int64) ([]*Match, error) {
	defer r.lock()()
	var out []*Match
	for _, m := range r.store.matches {
		if m.Has(userID) {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memRepo) PendingRecommendations(ctx context.Context, userID int64, limit, offset int) ([]*Recommendation, error) {
	defer r.lock()()
	var pending []*Recommendation
	for _, rec := range r.store.recs {
		if rec.ToUserID == userID && rec.ConsumedAt == nil {
			c := *rec
			pending = append(pending, &c)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.After(pending[j].CreatedAt)
		}
		return pending[i].ID > pending[j].ID
	})
	if offset >= len(pending) {
		return nil, nil
	}
	pending = pending[offset:]
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r *memRepo) MarkSeen(ctx context.Context, id int64, at time.Time) error {
	defer r.lock()()
	for _, rec := range r.store.recs {
		if rec.ID == id && rec.SeenAt == nil {
			t := at
			rec.SeenAt = &t
		}
	}
	return nil
}

func (r *memRepo) ConsumeRecommendations(ctx context.Context, userID, candidateID int64, at time.Time) (int64, error) {
	defer r.lock()()
	var n int64
	for _, rec := range r.store.recs {
		if rec.ToUserID == userID && rec.CandidateID == candidateID && rec.ConsumedAt == nil {
			t := at
			if rec.SeenAt == nil {
				rec.SeenAt = &t
			}
			rec.ConsumedAt = &t
			n++
		}
	}
	return n, nil
}

func (r *memRepo) UnconsumeLatest(ctx context.Context, userID, candidateID int64) error {
	defer r.lock()()
	var latest *Recommendation
	for _, rec := range r.store.recs {
		if rec.ToUserID != userID || rec.CandidateID != candidateID || rec.ConsumedAt == nil {
			continue
		}
		if latest == nil || rec.ConsumedAt.After(*latest.ConsumedAt) ||
			(rec.ConsumedAt.Equal(*latest.ConsumedAt) && rec.ID > latest.ID) {
			latest = rec
		}
	}
	if latest != nil {
		latest.ConsumedAt = nil
	}
	return nil
}

func (r *memRepo) CreateBlock(ctx context.Context, blockerID, blockedID int64) error {
	defer r.lock()()
	key := [2]int64{blockerID, blockedID}
	if _, ok := r.store.blocks[key]; !ok {
		r.store.blocks[key] = time.Now()
	}
	return nil
}

func (r *memRepo) DeleteBlock(ctx context.Context, blockerID, blockedID int64) error {
	defer r.lock()()
	delete(r.store.blocks, [2]int64{blockerID, blockedID})
	return nil
}

func (r *memRepo) CreateReport(ctx context.Context, report *Report) error {
	defer r.lock()()
	report.ID = r.store.id()
	report.CreatedAt = time.Now()
	c := *report
	r.store.reports = append(r.store.reports, &c)
	return nil
}

func (r *memRepo) CreateMessage(ctx context.Context, msg *Message) error {
	defer r.lock()()
	msg.ID = r.store.id()
	msg.CreatedAt = time.Now()
	c := *msg
	r.store.messages = append(r.store.messages, &c)
	return nil
}

func (r *memRepo) ListMessages(ctx context.Context, matchID int64, limit int) ([]*Message, error) {
	defer r.lock()()
	var out []*Message
	for _, m := range r.store.messages {
		if m.MatchID == matchID {
			c := *m
			out = append(out, &c)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *memRepo) LastMessages(ctx context.Context, matchIDs []int64) (map[int64]*Message, error) {
	defer r.lock()()
	want := map[int64]bool{}
	for _, id := range matchIDs {
		want[id] = true
	}
	out := map[int64]*Message{}
	for _, m := range r.store.messages {
		if want[m.MatchID] {
			c := *m
			out[m.MatchID] = &c
		}
	}
	return out, nil
}

func (r *memRepo) EnsureProfile(ctx context.Context, userID int64) error {
	defer r.lock()()
	if u, ok := r.store.users[userID]; ok {
		u.HasProfile = true
	}
	return nil
}

// Questionnaire side

type staticCatalog struct{ catalog *questionnaire.Catalog }

func (c staticCatalog) Catalog(ctx context.Context) (*questionnaire.Catalog, error) {
	return c.catalog, nil
}

type memAnswers struct {
	profiles map[int64]*questionnaire.ProfileAnswers
}

func (m *memAnswers) LoadProfile(ctx context.Context, userID int64) (*questionnaire.ProfileAnswers, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, questionnaire.ErrProfileNotFound
	}
	return p, nil
}

func (m *memAnswers) LoadProfiles(ctx context.Context, userIDs []int64) ([]*questionnaire.ProfileAnswers, error) {
	var out []*questionnaire.ProfileAnswers
	seen := map[int64]bool{}
	for _, id := range userIDs {
		if p, ok := m.profiles[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memAnswers) SaveAnswers(ctx context.Context, userID int64, kind questionnaire.AnswerKind, answers questionnaire.AnswerMap) error {
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []notification.Event
	err    error
}

func (s *recordingSink) Notify(ctx context.Context, e notification.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) Events() []notification.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notification.Event(nil), s.events...)
}

// testClock hands out strictly increasing timestamps
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}
