// Package ingest refreshes the vector index from configured RSS feeds:
// fetch articles, extract readable text, chunk, embed, upsert.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/mohammad-safakhou/newschat/config"
	"github.com/mohammad-safakhou/newschat/internal/embedding"
	"github.com/mohammad-safakhou/newschat/internal/retrieval"
)

const perFeedCap = 30

type article struct {
	ID      string
	Title   string
	Link    string
	Content string
}

type Ingestor struct {
	Cfg        config.IngestConfig
	VectorSize int
	Embedder   embedding.Embedder
	Index      *retrieval.Client
	Parser     *gofeed.Parser
	Fetcher    *http.Client
	Logger     *log.Logger
}

func New(cfg config.IngestConfig, vectorSize int, emb embedding.Embedder, index *retrieval.Client) *Ingestor {
	return &Ingestor{
		Cfg:        cfg,
		VectorSize: vectorSize,
		Embedder:   emb,
		Index:      index,
		Parser:     gofeed.NewParser(),
		Fetcher:    &http.Client{Timeout: cfg.FetchTimeout},
		Logger:     log.New(log.Writer(), "[INGEST] ", log.LstdFlags),
	}
}

// Run performs one full ingestion pass over all configured feeds.
func (g *Ingestor) Run(ctx context.Context) error {
	if len(g.Cfg.Feeds) == 0 {
		return fmt.Errorf("no feeds configured (ingest.feeds)")
	}
	if err := g.Index.EnsureCollection(ctx, g.VectorSize); err != nil {
		return err
	}

	var articles []article
	for _, feedURL := range g.Cfg.Feeds {
		items, err := g.fetchFeed(ctx, feedURL)
		if err != nil {
			g.Logger.Printf("feed %s: %v", feedURL, err)
			continue
		}
		articles = append(articles, items...)
	}
	if len(articles) > g.Cfg.MaxArticles {
		articles = articles[:g.Cfg.MaxArticles]
	}
	g.Logger.Printf("ingesting %d articles", len(articles))

	type pending struct {
		point retrieval.Point
		text  string
	}
	var batch []pending
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.text
		}
		vecs, err := g.Embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		points := make([]retrieval.Point, len(batch))
		for i := range batch {
			batch[i].point.Vector = vecs[i]
			points[i] = batch[i].point
		}
		if err := g.Index.Upsert(ctx, points); err != nil {
			return err
		}
		g.Logger.Printf("upserted %d points", len(points))
		batch = batch[:0]
		return nil
	}

	for _, art := range articles {
		body := art.Content
		if body == "" {
			body = art.Title
		}
		for idx, chunk := range chunkText(body, g.Cfg.ChunkChars) {
			batch = append(batch, pending{
				text: chunk,
				point: retrieval.Point{
					ID: uuid.NewString(),
					Payload: map[string]any{
						"article_id":  art.ID,
						"title":       art.Title,
						"link":        art.Link,
						"chunk_index": idx,
						"text":        chunk,
					},
				},
			})
			if len(batch) >= g.Cfg.EmbedBatch {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}

func (g *Ingestor) fetchFeed(ctx context.Context, feedURL string) ([]article, error) {
	feed, err := g.Parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}
	items := feed.Items
	if len(items) > perFeedCap {
		items = items[:perFeedCap]
	}
	articles := make([]article, 0, len(items))
	for _, item := range items {
		id := item.GUID
		if id == "" {
			id = uuid.NewString()
		}
		content, err := g.extract(ctx, item.Link)
		if err != nil {
			// feed summary is better than nothing when the page is unreachable
			content = item.Description
		}
		articles = append(articles, article{ID: id, Title: item.Title, Link: item.Link, Content: content})
	}
	return articles, nil
}

// extract pulls the main article text out of the page at link.
func (g *Ingestor) extract(ctx context.Context, link string) (string, error) {
	if link == "" {
		return "", fmt.Errorf("empty link")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	resp, err := g.Fetcher.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	pageURL, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	art, err := readability.FromReader(strings.NewReader(string(body)), pageURL)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(art.TextContent), nil
}
