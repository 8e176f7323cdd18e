package web

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RichardoC/caonline/internal/chat"
)

const DefaultSessionTTL = 2 * time.Hour

type sessionEntry struct {
	session  *chat.Session
	lastSeen time.Time
}

// Sessions keeps chat sessions in memory, keyed by cookie value. Idle
// sessions are dropped by Sweep; nothing is written to disk.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	factory  func() *chat.Session
	now      func() time.Time
	logger   *zap.Logger
}

func NewSessions(ttl time.Duration, factory func() *chat.Session, logger *zap.Logger) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		factory:  factory,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *Sessions) Get(id string) (*chat.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.session, true
}

func (s *Sessions) Create() (string, *chat.Session) {
	id := uuid.NewString()
	sess := s.factory()

	s.mu.Lock()
	s.sessions[id] = &sessionEntry{session: sess, lastSeen: s.now()}
	s.mu.Unlock()
	return id, sess
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many went.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps periodically until ctx is done.
func (s *Sessions) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("Expired idle chat sessions", zap.Int("count", n), zap.Int("remaining", s.Len()))
			}
		}
	}
}
