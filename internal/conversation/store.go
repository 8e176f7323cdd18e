// Package conversation keeps the active conversation, the message log sent to
// the completion relay, and the session's archive of past conversations.
package conversation

import (
	"fmt"

	"github.com/RichardoC/caonline/internal/models"
)

// Store is not safe for concurrent use; callers serialize access.
type Store struct {
	system   models.Message
	log      []models.Message
	active   *models.Conversation
	archived []*models.Conversation
}

func NewStore(system models.Message) *Store {
	s := &Store{system: system}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.active = models.NewConversation()
	s.log = []models.Message{s.system}
}

// StartNewConversation archives the active conversation when it has turns and
// begins an empty one.
func (s *Store) StartNewConversation() {
	if len(s.active.History) > 0 {
		s.ArchiveActiveConversation()
	}
	s.reset()
}

// AppendTurn records a message in both the log and the active history. The
// first user turn fixes the conversation title.
func (s *Store) AppendTurn(role models.Role, text string) {
	if role == models.RoleUser && s.active.Title == "" {
		s.active.Title = models.TitleFrom(text)
	}
	msg := models.Message{Role: role, Content: text}
	s.log = append(s.log, msg)
	s.active.History = append(s.active.History, msg)
}

func (s *Store) ArchiveActiveConversation() {
	if s.isArchived(s.active) {
		return
	}
	s.archived = append([]*models.Conversation{s.active}, s.archived...)
}

func (s *Store) isArchived(c *models.Conversation) bool {
	for _, a := range s.archived {
		if a == c {
			return true
		}
	}
	return false
}

// LoadConversation makes the archived conversation at index active and rebuilds
// the log from its history. It reports false and changes nothing when index is
// out of range.
func (s *Store) LoadConversation(index int) (*models.Conversation, bool) {
	if index < 0 || index >= len(s.archived) {
		return nil, false
	}
	conv := s.archived[index]
	s.active = conv
	s.log = make([]models.Message, 0, len(conv.History)+1)
	s.log = append(s.log, s.system)
	s.log = append(s.log, conv.History...)
	return conv, true
}

func (s *Store) ClearAll() {
	s.archived = nil
	s.reset()
}

// Log returns a copy of the message log; index 0 is always the system message.
func (s *Store) Log() []models.Message {
	out := make([]models.Message, len(s.log))
	copy(out, s.log)
	return out
}

func (s *Store) Active() *models.Conversation {
	return s.active
}

func (s *Store) Conversations() []*models.Conversation {
	out := make([]*models.Conversation, len(s.archived))
	copy(out, s.archived)
	return out
}

// Titles lists archived titles most recent first, naming untitled entries by position.
func (s *Store) Titles() []string {
	titles := make([]string, len(s.archived))
	for i, c := range s.archived {
		if c.Title == "" {
			titles[i] = fmt.Sprintf("Chat %d", i+1)
			continue
		}
		titles[i] = c.Title
	}
	return titles
}
