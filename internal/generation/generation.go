package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/newschat/internal/httpx"
	"github.com/mohammad-safakhou/newschat/models"
)

// Generator produces an answer from a system instruction and the
// assembled grounding prompt.
type Generator interface {
	Generate(ctx context.Context, systemInstruction, userPrompt string) (string, error)
}

// Message is one entry in the generation request payload.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generateRequest struct {
	Messages []Message `json:"messages"`
}

// Client wraps the external language-model HTTP endpoint.
type Client struct {
	url    string
	apiKey string
	http   *httpx.Client
}

func NewClient(url, apiKey string, timeout time.Duration) *Client {
	return &Client{url: url, apiKey: apiKey, http: httpx.NewClient(timeout, 0, 0)}
}

func (c *Client) Generate(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	body := generateRequest{Messages: []Message{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: userPrompt},
	}}
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}
	var raw json.RawMessage
	if err := c.http.DoJSON(ctx, http.MethodPost, c.url, headers, body, &raw); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGenerationUnavailable, err)
	}
	return parseAnswer(raw), nil
}

// parseAnswer normalizes the heterogeneous response shapes the model
// service has shipped: the answer under "text", under "output", or
// neither. The raw-dump fallback is a last resort, not a contract; see
// DESIGN.md for why it is kept instead of becoming its own error kind.
func parseAnswer(raw json.RawMessage) string {
	var shaped struct {
		Text   string `json:"text"`
		Output string `json:"output"`
	}
	if err := json.Unmarshal(raw, &shaped); err == nil {
		if shaped.Text != "" {
			return shaped.Text
		}
		if shaped.Output != "" {
			return shaped.Output
		}
	}
	return string(raw)
}
