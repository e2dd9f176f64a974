package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohammad-safakhou/newschat/models"
)

func TestEmbedSingleText(t *testing.T) {
	var got struct {
		Texts []string `json:"texts"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`[{"embedding":[0.1,0.2,0.3]}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	vec, err := client.Embed(context.Background(), "what happened?")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if len(got.Texts) != 1 || got.Texts[0] != "what happened?" {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"embedding":[0.1]}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.EmbedBatch(context.Background(), []string{"a", "b"})
	if !errors.Is(err, models.ErrEmbeddingUnavailable) {
		t.Fatalf("expected embedding unavailable, got %v", err)
	}
}

func TestEmbedServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Embed(context.Background(), "q")
	if !errors.Is(err, models.ErrEmbeddingUnavailable) {
		t.Fatalf("expected embedding unavailable, got %v", err)
	}
}

func TestEmbedEmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"embedding":[]}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	if _, err := client.Embed(context.Background(), "q"); !errors.Is(err, models.ErrEmbeddingUnavailable) {
		t.Fatalf("expected embedding unavailable, got %v", err)
	}
}
