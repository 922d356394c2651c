package questionnaire

import (
	"context"
	"sync"
	"time"
)

func testCatalog() *Catalog {
	sections := []Section{
		{ID: 2, Code: "men", Title: "For men", Position: 1, Gender: GenderMale},
		{ID: 1, Code: "core", Title: "Core", Position: 0},
	}
	questions := []Question{
		{ID: 3, SectionCode: "core", Code: "core_female", Kind: KindChoice, Gender: GenderFemale, Position: 2, Choices: choices("a", "A", "b", "B")},
		{ID: 1, SectionCode: "core", Code: "core_scale", Kind: KindScale, Position: 0, Choices: scaleChoices},
		{ID: 2, SectionCode: "core", Code: "core_multi", Kind: KindChoice, Multiple: true, Position: 1, Choices: loveLanguageChoices},
		{ID: 4, SectionCode: "men", Code: "men_yesno", Kind: KindYesNo, Position: 0, Choices: yesNoChoices},
		{ID: 5, SectionCode: "core", Code: "core_text", Kind: KindText, Position: 3},
		{ID: 6, SectionCode: "ghost", Code: "orphan", Kind: KindChoice, Choices: yesNoChoices},
	}
	return NewCatalog(sections, questions)
}

type fakeLoader struct {
	mu      sync.Mutex
	catalog *Catalog
	err     error
	calls   int
}

func (f *fakeLoader) LoadCatalog(ctx context.Context) (*Catalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.catalog, nil
}

type fakeAnswerStore struct {
	mu       sync.Mutex
	profiles map[int64]*ProfileAnswers
}

func newFakeAnswerStore(profiles ...*ProfileAnswers) *fakeAnswerStore {
	s := &fakeAnswerStore{profiles: map[int64]*ProfileAnswers{}}
	for _, p := range profiles {
		s.profiles[p.UserID] = p
	}
	return s
}

func (s *fakeAnswerStore) LoadProfile(ctx context.Context, userID int64) (*ProfileAnswers, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeAnswerStore) LoadProfiles(ctx context.Context, userIDs []int64) ([]*ProfileAnswers, error) {
	var out []*ProfileAnswers
	for _, id := range userIDs {
		if p, err := s.LoadProfile(ctx, id); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeAnswerStore) SaveAnswers(ctx context.Context, userID int64, kind AnswerKind, answers AnswerMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return ErrProfileNotFound
	}
	if kind == AnswerIdeal {
		p.Ideal = answers
	} else {
		p.Self = answers
	}
	return nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	v, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
