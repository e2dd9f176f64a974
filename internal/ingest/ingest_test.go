package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/newschat/config"
	"github.com/mohammad-safakhou/newschat/internal/embedding"
	"github.com/mohammad-safakhou/newschat/internal/retrieval"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Feed</title>
<item><title>Article One</title><link>%[1]s/articles/1</link><guid>g1</guid><description>summary one</description></item>
<item><title>Article Two</title><link>%[1]s/articles/2</link><guid>g2</guid><description>summary two</description></item>
</channel></rss>`

func TestIngestRunUpsertsChunks(t *testing.T) {
	var upserted []retrieval.Point
	collectionCreated := false

	mux := http.NewServeMux()
	var origin string
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, feedTemplate, origin)
	})
	// article pages are unreachable, forcing the feed-summary fallback
	mux.HandleFunc("/articles/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Texts []string `json:"texts"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		results := make([]map[string]any, len(req.Texts))
		for i := range req.Texts {
			results[i] = map[string]any{"embedding": []float32{0.1, 0.2}}
		}
		_ = json.NewEncoder(w).Encode(results)
	})
	mux.HandleFunc("PUT /collections/news_passages", func(w http.ResponseWriter, r *http.Request) {
		collectionCreated = true
		_, _ = w.Write([]byte(`{"result":true}`))
	})
	mux.HandleFunc("PUT /collections/news_passages/points", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Points []retrieval.Point `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		upserted = append(upserted, req.Points...)
		_, _ = w.Write([]byte(`{"result":{"status":"acknowledged"}}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()
	origin = srv.URL

	cfg := config.IngestConfig{
		Feeds:        []string{srv.URL + "/feed.xml"},
		MaxArticles:  10,
		ChunkChars:   1500,
		EmbedBatch:   16,
		FetchTimeout: 2 * time.Second,
	}
	emb := embedding.NewClient(srv.URL+"/embed", 2*time.Second)
	index := retrieval.NewClient(srv.URL, "", "news_passages", 2*time.Second)

	ing := New(cfg, 2, emb, index)
	if err := ing.Run(context.Background()); err != nil {
		t.Fatalf("ingest run: %v", err)
	}

	if !collectionCreated {
		t.Fatal("collection was never ensured")
	}
	if len(upserted) != 2 {
		t.Fatalf("expected 2 points, got %d", len(upserted))
	}
	for i, p := range upserted {
		if p.ID == "" {
			t.Fatalf("point %d has no id", i)
		}
		if len(p.Vector) != 2 {
			t.Fatalf("point %d vector not attached: %v", i, p.Vector)
		}
		link, _ := p.Payload["link"].(string)
		if !strings.HasPrefix(link, srv.URL+"/articles/") {
			t.Fatalf("point %d payload link missing: %v", i, p.Payload)
		}
		text, _ := p.Payload["text"].(string)
		if !strings.HasPrefix(text, "summary") {
			t.Fatalf("point %d should carry the feed summary fallback: %v", i, p.Payload)
		}
	}
}

func TestIngestRequiresFeeds(t *testing.T) {
	ing := New(config.IngestConfig{}.Normalize(), 2, nil, nil)
	if err := ing.Run(context.Background()); err == nil {
		t.Fatal("expected error when no feeds configured")
	}
}
