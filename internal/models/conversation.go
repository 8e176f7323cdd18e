package models

import "github.com/google/uuid"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	titleMaxRunes = 40
	DefaultTitle  = "New Chat"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Conversation struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	History []Message `json:"history"` // never holds the system message
}

func NewConversation() *Conversation {
	return &Conversation{
		ID:      uuid.NewString(),
		History: []Message{},
	}
}

// TitleFrom returns the first 40 characters of text, or DefaultTitle when text is empty.
func TitleFrom(text string) string {
	r := []rune(text)
	if len(r) == 0 {
		return DefaultTitle
	}
	if len(r) > titleMaxRunes {
		r = r[:titleMaxRunes]
	}
	return string(r)
}
