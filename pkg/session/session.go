// Package session holds per-conversation turn history. Sessions are created
// lazily on first reference and evicted by a size-bounded LRU with a TTL,
// rather than living for the process lifetime.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/fundsight/ragengine/internal/models"
)

const (
	DefaultMaxSessions = 1024
	DefaultTTL         = 2 * time.Hour
)

// Session is one conversation's append-only turn list. Append and History
// are safe for concurrent callers sharing a session id.
type Session struct {
	id    string
	mu    sync.Mutex
	turns []models.Turn
}

func (s *Session) ID() string { return s.id }

func (s *Session) Append(turns ...models.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turns...)
}

// History returns a copy of the ordered turn list.
func (s *Session) History() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

type StoreConfig struct {
	MaxSessions int
	TTL         time.Duration
	OnEvict     func(sessionID string)
}

// Store is the session registry.
type Store struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *Session]
}

func NewStore(config StoreConfig) *Store {
	if config.MaxSessions <= 0 {
		config.MaxSessions = DefaultMaxSessions
	}
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}

	var onEvict func(string, *Session)
	if config.OnEvict != nil {
		hook := config.OnEvict
		onEvict = func(id string, _ *Session) { hook(id) }
	}

	return &Store{
		cache: expirable.NewLRU[string, *Session](config.MaxSessions, onEvict, config.TTL),
	}
}

// GetOrCreate returns the session for the given id, minting a fresh unique
// id when none is supplied.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if id == "" {
		id = "session_" + uuid.NewString()
	}
	if s, ok := st.cache.Get(id); ok {
		return s
	}
	s := &Session{id: id}
	st.cache.Add(id, s)
	return s
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cache.Len()
}
