// Package chat drives one browser session: it feeds user input into the
// conversation store, calls the completion relay and keeps the rendered
// bubbles the page displays.
package chat

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/RichardoC/caonline/internal/conversation"
	"github.com/RichardoC/caonline/internal/models"
	"github.com/RichardoC/caonline/internal/prompt"
	"github.com/RichardoC/caonline/internal/render"
)

// Relay sends a message log (system message first) and returns the reply text.
type Relay interface {
	Complete(ctx context.Context, msgs []models.Message) (string, error)
}

// Session is safe for concurrent use. The lock is not held while the relay
// call is outstanding, so two overlapping sends each remove whatever bubble
// is last when their reply arrives.
type Session struct {
	mu       sync.Mutex
	store    *conversation.Store
	renderer *render.Renderer
	relay    Relay
	logger   *zap.Logger
	bubbles  []render.Bubble
}

func NewSession(relay Relay, renderer *render.Renderer, logger *zap.Logger) *Session {
	s := &Session{
		store:    conversation.NewStore(prompt.ClientMessage()),
		renderer: renderer,
		relay:    relay,
		logger:   logger,
	}
	s.addBot(prompt.Welcome)
	return s
}

func (s *Session) addBot(text string) {
	s.bubbles = append(s.bubbles, s.renderer.Render(models.Message{Role: models.RoleAssistant, Content: text}))
}

func (s *Session) add(role models.Role, text string) {
	s.bubbles = append(s.bubbles, s.renderer.Render(models.Message{Role: role, Content: text}))
}

func (s *Session) removeLast() {
	if n := len(s.bubbles); n > 0 {
		s.bubbles = s.bubbles[:n-1]
	}
}

// Send relays one user message and reports whether anything was sent. Text
// that is empty after trimming is ignored.
func (s *Session) Send(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	s.mu.Lock()
	s.add(models.RoleUser, text)
	s.store.AppendTurn(models.RoleUser, text)
	s.addBot(prompt.Pending)
	log := s.store.Log()
	s.mu.Unlock()

	reply, err := s.relay.Complete(ctx, log)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLast()
	if err != nil {
		s.logger.Warn("Relay request failed", zap.Error(err))
		s.addBot(prompt.ErrorLabel + err.Error())
		return true
	}

	if reply == "" {
		reply = prompt.NoReply
	}
	reply = render.StripFence(reply)
	s.store.AppendTurn(models.RoleAssistant, reply)
	s.addBot(reply)
	s.store.ArchiveActiveConversation()

	s.logger.Debug("Chat turn completed",
		zap.String("conversation", s.store.Active().ID),
		zap.Int("turns", len(s.store.Active().History)),
		zap.Stringer("kind", s.bubbles[len(s.bubbles)-1].Kind))
	return true
}

func (s *Session) NewChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.StartNewConversation()
	s.bubbles = nil
	s.addBot(prompt.NewChat)
}

// Load redraws the archived conversation at index. Out-of-range indexes are ignored.
func (s *Session) Load(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.store.LoadConversation(index)
	if !ok {
		return false
	}
	s.bubbles = make([]render.Bubble, 0, len(conv.History))
	for _, m := range conv.History {
		s.add(m.Role, m.Content)
	}
	return true
}

// Clear drops every conversation of the session. It does nothing unless the
// user confirmed.
func (s *Session) Clear(confirmed bool) bool {
	if !confirmed {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.ClearAll()
	s.bubbles = nil
	s.addBot(prompt.Cleared)
	return true
}

func (s *Session) Bubbles() []render.Bubble {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]render.Bubble, len(s.bubbles))
	copy(out, s.bubbles)
	return out
}

func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Titles()
}

func (s *Session) Log() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Log()
}
