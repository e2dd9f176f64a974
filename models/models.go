package models

import (
	"errors"
	"time"
)

// Error taxonomy for the chat pipeline. The HTTP layer classifies with
// errors.Is: ErrClientInput maps to 400, everything else to 500.
var (
	ErrClientInput           = errors.New("invalid client input")
	ErrStoreUnavailable      = errors.New("session store unavailable")
	ErrEmbeddingUnavailable  = errors.New("embedding service unavailable")
	ErrRetrievalUnavailable  = errors.New("retrieval service unavailable")
	ErrGenerationUnavailable = errors.New("generation service unavailable")
)

// Turn roles as stored in the transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a session transcript. Immutable once appended;
// transcript order is append order.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Ts      int64  `json:"ts"`
}

// NewTurn stamps a turn with the current wall clock in unix millis.
func NewTurn(role, content string) Turn {
	return Turn{Role: role, Content: content, Ts: time.Now().UnixMilli()}
}

// RetrievedPassage is one search hit with its grounding metadata. It lives
// only for the duration of a single chat request.
type RetrievedPassage struct {
	Title string  `json:"title"`
	Link  string  `json:"link"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// ChatResult is what a successful exchange returns to the HTTP layer:
// the generated answer plus the source links in retrieval order.
// Links are not deduplicated; a passage without a link contributes an
// empty entry.
type ChatResult struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}
