package embedding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/newschat/internal/httpx"
	"github.com/mohammad-safakhou/newschat/models"
)

// Embedder turns free text into a query vector. The embedding scheme must
// match the one the index was built with; this package cannot enforce that.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResult struct {
	Embedding []float32 `json:"embedding"`
}

// Client talks to the embedding HTTP service.
type Client struct {
	url  string
	http *httpx.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{url: url, http: httpx.NewClient(timeout, 0, 0)}
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var out []embedResult
	if err := c.http.DoJSON(ctx, http.MethodPost, c.url, nil, embedRequest{Texts: texts}, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingUnavailable, err)
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", models.ErrEmbeddingUnavailable, len(texts), len(out))
	}
	vecs := make([][]float32, len(out))
	for i, r := range out {
		if len(r.Embedding) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at index %d", models.ErrEmbeddingUnavailable, i)
		}
		vecs[i] = r.Embedding
	}
	return vecs, nil
}
