package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/newschat/models"
)

const historyKeyPrefix = "session:"

// Store is the transcript persistence contract the pipeline depends on.
type Store interface {
	// AppendTurn appends a turn to the session's transcript and refreshes
	// the session TTL. The two appends of one exchange are independent
	// writes; there is no transaction across them.
	AppendTurn(ctx context.Context, sessionID string, turn models.Turn) error
	// ListTurns returns the full transcript in append order. An unknown
	// or expired session yields an empty slice, not an error. Reads never
	// refresh the TTL.
	ListTurns(ctx context.Context, sessionID string) ([]models.Turn, error)
	// Clear deletes the transcript. Clearing a nonexistent session is a
	// silent success.
	Clear(ctx context.Context, sessionID string) error
}

// redisStore keeps each transcript as a Redis list of JSON-encoded turns
// under session:<id>:history.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an already-connected client. ttl <= 0 falls back to
// the 24h retention window.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisStore{client: client, ttl: ttl}
}

// Conn dials Redis and verifies the connection with a ping.
func Conn(ctx context.Context, addr, pass string, db int, timeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: timeout,
		Password:    pass,
		DB:          db,
	})
	log.Println("redis options -> " + client.String())

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}
	if pong != "PONG" {
		return nil, fmt.Errorf("expected PONG, got %s", pong)
	}

	return client, nil
}

func historyKey(sessionID string) string {
	return historyKeyPrefix + sessionID + ":history"
}

func (s *redisStore) AppendTurn(ctx context.Context, sessionID string, turn models.Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	key := historyKey(sessionID)
	if err := s.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("%w: rpush %s: %v", models.ErrStoreUnavailable, key, err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: expire %s: %v", models.ErrStoreUnavailable, key, err)
	}
	return nil
}

func (s *redisStore) ListTurns(ctx context.Context, sessionID string) ([]models.Turn, error) {
	key := historyKey(sessionID)
	items, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: lrange %s: %v", models.ErrStoreUnavailable, key, err)
	}
	turns := make([]models.Turn, 0, len(items))
	for _, item := range items {
		var t models.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("corrupt turn in %s: %w", key, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *redisStore) Clear(ctx context.Context, sessionID string) error {
	key := historyKey(sessionID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %v", models.ErrStoreUnavailable, key, err)
	}
	return nil
}
