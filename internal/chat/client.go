package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/RichardoC/caonline/internal/api"
	"github.com/RichardoC/caonline/internal/models"
)

type clientIPKey struct{}

// WithClientIP records the browser address a send is made for. HTTPRelay
// forwards it so the relay can rate limit per browser, not per server.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func clientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

type completionRequest struct {
	Messages []models.Message `json:"messages"`
}

type completionResponse struct {
	Reply string `json:"reply"`
}

// HTTPRelay posts message logs to a completion relay endpoint. No timeout is
// applied beyond the caller's context.
type HTTPRelay struct {
	url    string
	client *http.Client
}

func NewHTTPRelay(url string, client *http.Client) *HTTPRelay {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRelay{url: url, client: client}
}

func (c *HTTPRelay) Complete(ctx context.Context, msgs []models.Message) (string, error) {
	body, err := json.Marshal(completionRequest{Messages: msgs})
	if err != nil {
		return "", fmt.Errorf("failed to encode messages: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ip := clientIPFrom(ctx); ip != "" {
		req.Header.Set(api.ForwardedForHeader, ip)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("Server returned status %d", resp.StatusCode)
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("invalid reply from server: %w", err)
	}
	return out.Reply, nil
}
