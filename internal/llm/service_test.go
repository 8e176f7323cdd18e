package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichardoC/caonline/internal/llm/llmtest"
	"github.com/RichardoC/caonline/internal/models"
)

func staticToken(v string) func() string { return func() string { return v } }

var convo = []models.Message{
	{Role: models.RoleSystem, Content: "tax expert"},
	{Role: models.RoleUser, Content: "What is the income tax rate?"},
	{Role: models.RoleAssistant, Content: "Which year?"},
	{Role: models.RoleUser, Content: "2024"},
}

func TestComplete_Success(t *testing.T) {
	p := llmtest.NewProvider(t, "Income tax rate is 35%.")
	s := New(p.URL+"/v1", "", staticToken("sk-test"))

	reply, err := s.Complete(context.Background(), convo)
	require.NoError(t, err)
	assert.Equal(t, "Income tax rate is 35%.", reply)

	reqs := p.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, DefaultModel, reqs[0].Model)
	require.Len(t, reqs[0].Messages, 4)
	roles := make([]string, 0, 4)
	for _, m := range reqs[0].Messages {
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []string{"system", "user", "assistant", "user"}, roles)
	assert.Equal(t, "2024", reqs[0].Messages[3].Content)
}

func TestComplete_MissingCredential(t *testing.T) {
	p := llmtest.NewProvider(t, "unused")
	s := New(p.URL, "", staticToken(""))

	_, err := s.Complete(context.Background(), convo)
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Empty(t, p.Requests())
}

func TestComplete_RateLimited(t *testing.T) {
	p := llmtest.NewProvider(t, "unused").FailWith(http.StatusTooManyRequests)
	s := New(p.URL, "", staticToken("sk-test"))

	_, err := s.Complete(context.Background(), convo)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestComplete_ProviderFailure(t *testing.T) {
	p := llmtest.NewProvider(t, "unused").FailWith(http.StatusInternalServerError)
	s := New(p.URL, "", staticToken("sk-test"))

	_, err := s.Complete(context.Background(), convo)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRateLimited))
	assert.False(t, errors.Is(err, ErrMissingCredential))
}

func TestComplete_CustomModel(t *testing.T) {
	p := llmtest.NewProvider(t, "ok")
	s := New(p.URL, "gpt-4.1-nano", staticToken("sk-test"))
	assert.Equal(t, "gpt-4.1-nano", s.Model())

	_, err := s.Complete(context.Background(), convo[:2])
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-nano", p.Requests()[0].Model)
}

func TestChatMessageType(t *testing.T) {
	assert.Equal(t, "system", string(chatMessageType(models.RoleSystem)))
	assert.Equal(t, "ai", string(chatMessageType(models.RoleAssistant)))
	assert.Equal(t, "human", string(chatMessageType(models.RoleUser)))
	assert.Equal(t, "human", string(chatMessageType("tool")))
}

func TestComplete_NoChoicesIsEmptyReply(t *testing.T) {
	p := llmtest.NewProvider(t, "unused").WithoutChoices()
	s := New(p.URL, "", staticToken("sk-test"))

	reply, err := s.Complete(context.Background(), convo)
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Len(t, p.Requests(), 1)
}
