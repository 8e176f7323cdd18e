package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/RichardoC/caonline/internal/models"
)

const DefaultModel = "gpt-4o-mini"

var (
	ErrMissingCredential = errors.New("provider credential not configured")
	ErrRateLimited       = errors.New("provider rate limit reached")
)

// Service sends message logs to an OpenAI-compatible chat completion API.
// The credential is looked up on every call so a missing key is reported per
// request instead of failing startup.
type Service struct {
	baseURL string
	model   string
	token   func() string
	client  *http.Client
}

func New(baseURL, model string, token func() string) *Service {
	if model == "" {
		model = DefaultModel
	}
	return &Service{
		baseURL: baseURL,
		model:   model,
		token:   token,
		client:  http.DefaultClient,
	}
}

func (s *Service) Model() string {
	return s.model
}

// Complete requests a single, non-streamed completion for msgs. It returns an
// empty string when the provider answers without content.
func (s *Service) Complete(ctx context.Context, msgs []models.Message) (string, error) {
	token := s.token()
	if token == "" {
		return "", ErrMissingCredential
	}

	doer := &statusDoer{client: s.client}
	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(s.model),
		openai.WithHTTPClient(doer),
	}
	if s.baseURL != "" {
		opts = append(opts, openai.WithBaseURL(s.baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to initialize provider client: %w", err)
	}

	resp, err := llm.GenerateContent(ctx, toMessageContent(msgs))
	if err != nil {
		if doer.status == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		if errors.Is(err, openai.ErrEmptyResponse) {
			return "", nil
		}
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}

func toMessageContent(msgs []models.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llms.TextParts(chatMessageType(m.Role), m.Content))
	}
	return out
}

func chatMessageType(role models.Role) llms.ChatMessageType {
	switch role {
	case models.RoleSystem:
		return llms.ChatMessageTypeSystem
	case models.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

// statusDoer remembers the status code of the last provider response so a
// rate-limit rejection can be told apart from other failures.
type statusDoer struct {
	client *http.Client
	status int
}

func (d *statusDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.client.Do(req)
	if resp != nil {
		d.status = resp.StatusCode
	}
	return resp, err
}
