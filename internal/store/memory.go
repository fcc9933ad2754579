package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"postboard/internal/model"

	"github.com/samber/lo"
)

// MemoryStore keeps posts in process memory. Records live in a map keyed by
// id and order holds the ids in insertion order.
type MemoryStore struct {
	mu     sync.RWMutex
	limits Limits
	posts  map[int64]*model.Post
	order  []int64
	lastID int64 // highest id ever assigned, never decremented
}

var _ Store = (*MemoryStore)(nil)

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithLimits sets the field length bounds.
func WithLimits(l Limits) Option {
	return func(s *MemoryStore) {
		s.limits = l.normalized()
	}
}

// WithSeed preloads posts in the given order. A post whose id is not positive
// or already taken gets the next free id.
func WithSeed(posts ...model.Post) Option {
	return func(s *MemoryStore) {
		for _, p := range posts {
			if _, taken := s.posts[p.ID]; p.ID <= 0 || taken {
				p.ID = s.lastID + 1
			}
			s.insert(p)
		}
	}
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		limits: DefaultLimits(),
		posts:  make(map[int64]*model.Post),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limits returns the bounds the store validates against.
func (s *MemoryStore) Limits() Limits {
	return s.limits
}

// Len returns the number of stored posts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// insert appends p and advances lastID. Caller holds the write lock.
func (s *MemoryStore) insert(p model.Post) {
	s.posts[p.ID] = &p
	s.order = append(s.order, p.ID)
	if p.ID > s.lastID {
		s.lastID = p.ID
	}
}

// snapshot copies the posts out in insertion order. Caller holds a lock.
func (s *MemoryStore) snapshot() []model.Post {
	return lo.Map(s.order, func(id int64, _ int) model.Post {
		return *s.posts[id]
	})
}

func (s *MemoryStore) List(_ context.Context, opts ListOptions) ([]model.Post, error) {
	opts, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	posts := s.snapshot()
	s.mu.RUnlock()

	if opts.Sort == SortNone {
		return posts, nil
	}

	key := func(p model.Post) string { return p.Title }
	if opts.Sort == SortContent {
		key = func(p model.Post) string { return p.Content }
	}
	slices.SortStableFunc(posts, func(a, b model.Post) int {
		c := strings.Compare(key(a), key(b))
		if opts.Direction == Desc {
			return -c
		}
		return c
	})
	return posts, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, notFound(id)
	}
	out := *p
	return &out, nil
}

func (s *MemoryStore) Create(_ context.Context, title, content string) (*model.Post, error) {
	if err := s.limits.validateNew(title, content); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := model.Post{ID: s.lastID + 1, Title: title, Content: content}
	s.insert(p)
	return &p, nil
}

func (s *MemoryStore) Update(_ context.Context, id int64, patch model.PostPatch) (*model.Post, error) {
	if err := s.limits.validatePatch(patch); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, notFound(id)
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	out := *p
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, notFound(id)
	}
	delete(s.posts, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return p, nil
}

// Search returns posts whose title contains opts.Title or whose content
// contains opts.Content. With no filters it returns everything.
func (s *MemoryStore) Search(_ context.Context, opts SearchOptions) ([]model.Post, error) {
	s.mu.RLock()
	posts := s.snapshot()
	s.mu.RUnlock()

	if opts.Title == "" && opts.Content == "" {
		return posts, nil
	}
	return lo.Filter(posts, func(p model.Post, _ int) bool {
		titleMatch := opts.Title != "" && strings.Contains(p.Title, opts.Title)
		contentMatch := opts.Content != "" && strings.Contains(p.Content, opts.Content)
		return titleMatch || contentMatch
	}), nil
}

func notFound(id int64) error {
	return fmt.Errorf("%w: id %d", ErrNotFound, id)
}
