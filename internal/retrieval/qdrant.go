package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/newschat/internal/httpx"
	"github.com/mohammad-safakhou/newschat/models"
)

// Searcher returns the nearest passages for a query vector, most relevant
// first. Ranking and tie-breaking belong to the external index.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]models.RetrievedPassage, error)
}

// Client talks to a Qdrant collection over its REST API.
type Client struct {
	baseURL    string
	apiKey     string
	collection string
	http       *httpx.Client
}

func NewClient(baseURL, apiKey, collection string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, apiKey: apiKey, collection: collection, http: httpx.NewClient(timeout, 0, 0)}
}

func (c *Client) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"api-key": c.apiKey}
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
	WithVector  bool      `json:"with_vector"`
}

type scoredPoint struct {
	Payload passagePayload `json:"payload"`
	Score   float64        `json:"score"`
}

type passagePayload struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Text    string `json:"text"`
	Content string `json:"content"`
}

// parsePoints tolerates the two response shapes Qdrant versions have used:
// points nested under "result" or a bare top-level array.
func parsePoints(raw json.RawMessage) ([]scoredPoint, error) {
	var wrapped struct {
		Result []scoredPoint `json:"result"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Result != nil {
		return wrapped.Result, nil
	}
	var points []scoredPoint
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, fmt.Errorf("unrecognized search response shape: %w", err)
	}
	return points, nil
}

func (c *Client) Search(ctx context.Context, vector []float32, topK int) ([]models.RetrievedPassage, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: topK must be >= 1, got %d", models.ErrClientInput, topK)
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	body := searchRequest{Vector: vector, Limit: topK, WithPayload: true, WithVector: false}
	var raw json.RawMessage
	if err := c.http.DoJSON(ctx, http.MethodPost, url, c.headers(), body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRetrievalUnavailable, err)
	}
	points, err := parsePoints(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRetrievalUnavailable, err)
	}
	passages := make([]models.RetrievedPassage, 0, len(points))
	for _, p := range points {
		text := p.Payload.Text
		if text == "" {
			text = p.Payload.Content
		}
		passages = append(passages, models.RetrievedPassage{
			Title: p.Payload.Title,
			Link:  p.Payload.Link,
			Text:  text,
			Score: p.Score,
		})
	}
	return passages, nil
}

// Point is one vector plus payload for ingestion upserts.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// EnsureCollection creates the collection if it does not exist yet.
// Qdrant answers 409 for an existing collection, which is fine here.
func (c *Client) EnsureCollection(ctx context.Context, vectorSize int) error {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	body := map[string]any{
		"vectors": map[string]any{"size": vectorSize, "distance": "Cosine"},
	}
	if err := c.http.DoJSON(ctx, http.MethodPut, url, c.headers(), body, nil); err != nil {
		if exists, getErr := c.collectionExists(ctx); getErr == nil && exists {
			return nil
		}
		return fmt.Errorf("%w: create collection: %v", models.ErrRetrievalUnavailable, err)
	}
	return nil
}

func (c *Client) collectionExists(ctx context.Context) (bool, error) {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	var raw json.RawMessage
	if err := c.http.DoJSON(ctx, http.MethodGet, url, c.headers(), nil, &raw); err != nil {
		return false, err
	}
	return true, nil
}

// Upsert writes a batch of points into the collection.
func (c *Client) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	body := map[string]any{"points": points}
	if err := c.http.DoJSON(ctx, http.MethodPut, url, c.headers(), body, nil); err != nil {
		return fmt.Errorf("%w: upsert: %v", models.ErrRetrievalUnavailable, err)
	}
	return nil
}
