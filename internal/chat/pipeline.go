// Package chat composes the session store and the three gateway adapters
// into the request-handling pipeline:
//
//	persist user turn -> embed -> retrieve -> assemble -> generate ->
//	persist assistant turn -> respond
//
// A failed step short-circuits the rest; steps already completed are not
// rolled back (a user turn may persist without a matching assistant turn).
// No retries, and no per-session lock: two concurrent chats on one session
// interleave their appends in store arrival order.
package chat

import (
	"context"
	"fmt"
	"log"

	"github.com/mohammad-safakhou/newschat/internal/embedding"
	"github.com/mohammad-safakhou/newschat/internal/generation"
	"github.com/mohammad-safakhou/newschat/internal/prompt"
	"github.com/mohammad-safakhou/newschat/internal/retrieval"
	"github.com/mohammad-safakhou/newschat/internal/session"
	"github.com/mohammad-safakhou/newschat/models"
)

// DefaultTopK bounds retrieval when the client does not ask for a count.
const DefaultTopK = 5

// Pipeline carries the injected collaborators. Construct once at startup;
// safe for concurrent use.
type Pipeline struct {
	Store             session.Store
	Embedder          embedding.Embedder
	Retriever         retrieval.Searcher
	Generator         generation.Generator
	SystemInstruction string
	Logger            *log.Logger
}

func New(store session.Store, emb embedding.Embedder, ret retrieval.Searcher, gen generation.Generator, systemInstruction string) *Pipeline {
	if systemInstruction == "" {
		systemInstruction = "You are a helpful news assistant."
	}
	return &Pipeline{
		Store:             store,
		Embedder:          emb,
		Retriever:         ret,
		Generator:         gen,
		SystemInstruction: systemInstruction,
		Logger:            log.New(log.Writer(), "[CHAT] ", log.LstdFlags),
	}
}

// Exchange runs one full chat turn for a session and returns the answer
// plus the source links in retrieval order.
func (p *Pipeline) Exchange(ctx context.Context, sessionID, message string, topK int) (models.ChatResult, error) {
	if sessionID == "" {
		return models.ChatResult{}, fmt.Errorf("%w: sessionId required", models.ErrClientInput)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	userTurn := models.NewTurn(models.RoleUser, message)
	if err := p.Store.AppendTurn(ctx, sessionID, userTurn); err != nil {
		return models.ChatResult{}, fmt.Errorf("persist user turn: %w", err)
	}

	vector, err := p.Embedder.Embed(ctx, message)
	if err != nil {
		return models.ChatResult{}, fmt.Errorf("embed query: %w", err)
	}

	passages, err := p.Retriever.Search(ctx, vector, topK)
	if err != nil {
		return models.ChatResult{}, fmt.Errorf("retrieve passages: %w", err)
	}

	grounding := prompt.Assemble(message, passages)

	answer, err := p.Generator.Generate(ctx, p.SystemInstruction, grounding)
	if err != nil {
		return models.ChatResult{}, fmt.Errorf("generate answer: %w", err)
	}

	assistantTurn := models.NewTurn(models.RoleAssistant, answer)
	if err := p.Store.AppendTurn(ctx, sessionID, assistantTurn); err != nil {
		return models.ChatResult{}, fmt.Errorf("persist assistant turn: %w", err)
	}

	sources := make([]string, len(passages))
	for i, passage := range passages {
		sources[i] = passage.Link
	}
	p.Logger.Printf("session=%s passages=%d answer_len=%d", sessionID, len(passages), len(answer))
	return models.ChatResult{Answer: answer, Sources: sources}, nil
}

// History returns the session transcript in append order.
func (p *Pipeline) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionId required", models.ErrClientInput)
	}
	return p.Store.ListTurns(ctx, sessionID)
}

// Reset clears the session transcript. Idempotent.
func (p *Pipeline) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: sessionId required", models.ErrClientInput)
	}
	return p.Store.Clear(ctx, sessionID)
}
