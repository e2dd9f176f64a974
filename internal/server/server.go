package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/newschat/config"
	"github.com/mohammad-safakhou/newschat/internal/chat"
	"github.com/mohammad-safakhou/newschat/internal/embedding"
	"github.com/mohammad-safakhou/newschat/internal/generation"
	"github.com/mohammad-safakhou/newschat/internal/retrieval"
	"github.com/mohammad-safakhou/newschat/internal/session"
)

func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Shared dependencies (top-level DI): one redis client, one HTTP
	// client per collaborator, one pipeline, all reused across requests.
	ctx := context.Background()
	if err := cfg.Session.Validate(); err != nil {
		return err
	}
	if err := cfg.Embedding.Validate(); err != nil {
		return err
	}
	if err := cfg.Qdrant.Validate(); err != nil {
		return err
	}
	if err := cfg.LLM.Validate(); err != nil {
		return err
	}
	rdb, err := session.Conn(ctx, cfg.Session.Addr(), cfg.Session.Pass, cfg.Session.DB, cfg.Session.Timeout)
	if err != nil {
		return fmt.Errorf("redis connection failed (%s): %w", cfg.Session.Addr(), err)
	}
	defer rdb.Close()

	store := session.NewRedisStore(rdb, cfg.Session.TTL)
	embedder := embedding.NewClient(cfg.Embedding.URL, cfg.Embedding.Timeout)
	retriever := retrieval.NewClient(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, cfg.Qdrant.Timeout)
	generator := generation.NewClient(cfg.LLM.URL, cfg.LLM.APIKey, cfg.LLM.Timeout)
	pipeline := chat.New(store, embedder, retriever, generator, cfg.LLM.SystemInstruction)

	h := &ChatHandler{Pipeline: pipeline, DefaultTopK: cfg.General.DefaultTopK}
	h.Register(e)

	addr := cfg.General.Listen
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}
	if addr == "" {
		addr = ":4000"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
