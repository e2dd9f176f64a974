package server

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/newschat/internal/chat"
	"github.com/mohammad-safakhou/newschat/models"
)

// ChatHandler exposes the pipeline over HTTP.
type ChatHandler struct {
	Pipeline    *chat.Pipeline
	DefaultTopK int
}

func (h *ChatHandler) Register(e *echo.Echo) {
	e.POST("/chat", h.chat)
	e.GET("/history/:sessionId", h.history)
	e.POST("/reset/:sessionId", h.reset)
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	TopK      int    `json:"topK"`
}

type historyResponse struct {
	History []models.Turn `json:"history"`
}

func (h *ChatHandler) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "sessionId required"})
	}
	topK := req.TopK
	if topK <= 0 {
		topK = h.DefaultTopK
	}

	start := time.Now()
	chatRequests.Inc()
	result, err := h.Pipeline.Exchange(c.Request().Context(), req.SessionID, req.Message, topK)
	chatDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *ChatHandler) history(c echo.Context) error {
	turns, err := h.Pipeline.History(c.Request().Context(), c.Param("sessionId"))
	if err != nil {
		return h.fail(c, err)
	}
	if turns == nil {
		turns = []models.Turn{}
	}
	return c.JSON(http.StatusOK, historyResponse{History: turns})
}

func (h *ChatHandler) reset(c echo.Context) error {
	if err := h.Pipeline.Reset(c.Request().Context(), c.Param("sessionId")); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// fail maps pipeline errors onto the HTTP contract: client input errors
// become 400, every dependency failure becomes the same generic 500 with
// the cause logged server-side and echoed in detail.
func (h *ChatHandler) fail(c echo.Context, err error) error {
	kind := classify(err)
	chatFailures.WithLabelValues(kind).Inc()
	if errors.Is(err, models.ErrClientInput) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	log.Printf("[HTTP] %s %s pipeline failure (%s): %v", c.Request().Method, c.Request().URL.Path, kind, err)
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error":  "internal error",
		"detail": err.Error(),
	})
}

func classify(err error) string {
	switch {
	case errors.Is(err, models.ErrClientInput):
		return "client_input"
	case errors.Is(err, models.ErrStoreUnavailable):
		return "store"
	case errors.Is(err, models.ErrEmbeddingUnavailable):
		return "embedding"
	case errors.Is(err, models.ErrRetrievalUnavailable):
		return "retrieval"
	case errors.Is(err, models.ErrGenerationUnavailable):
		return "generation"
	default:
		return "internal"
	}
}
