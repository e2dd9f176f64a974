package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/newschat/models"
)

func newTestStore(t *testing.T) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, 24*time.Hour), mr
}

func TestAppendAndListPreservesOrder(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	turns := []models.Turn{
		{Role: models.RoleUser, Content: "first", Ts: 1},
		{Role: models.RoleAssistant, Content: "second", Ts: 2},
		{Role: models.RoleUser, Content: "third", Ts: 3},
	}
	for _, turn := range turns {
		if err := store.AppendTurn(ctx, "s1", turn); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := store.ListTurns(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != len(turns) {
		t.Fatalf("expected %d turns, got %d", len(turns), len(got))
	}
	for i := range turns {
		if got[i] != turns[i] {
			t.Fatalf("turn %d mismatch: got %+v want %+v", i, got[i], turns[i])
		}
	}
}

func TestListUnknownSessionIsEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	got, err := store.ListTurns(context.Background(), "nope")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty transcript, got %d turns", len(got))
	}
}

func TestTTLRefreshedOnWriteNotRead(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.AppendTurn(ctx, "s1", models.NewTurn(models.RoleUser, "hi")); err != nil {
		t.Fatalf("append: %v", err)
	}
	key := historyKey("s1")
	if ttl := mr.TTL(key); ttl != 24*time.Hour {
		t.Fatalf("expected 24h ttl after write, got %v", ttl)
	}

	mr.FastForward(time.Hour)
	if _, err := store.ListTurns(ctx, "s1"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if ttl := mr.TTL(key); ttl != 23*time.Hour {
		t.Fatalf("read must not refresh ttl, got %v", ttl)
	}

	if err := store.AppendTurn(ctx, "s1", models.NewTurn(models.RoleAssistant, "yo")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if ttl := mr.TTL(key); ttl != 24*time.Hour {
		t.Fatalf("write must refresh ttl to 24h, got %v", ttl)
	}
}

func TestSessionExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.AppendTurn(ctx, "s1", models.NewTurn(models.RoleUser, "hi")); err != nil {
		t.Fatalf("append: %v", err)
	}
	mr.FastForward(25 * time.Hour)

	got, err := store.ListTurns(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected expired transcript to be empty, got %d turns", len(got))
	}
}

func TestClearIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.AppendTurn(ctx, "s1", models.NewTurn(models.RoleUser, "hi")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("second clear must succeed: %v", err)
	}
	got, err := store.ListTurns(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty transcript after clear, got %d", len(got))
	}
}

func TestStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Hour)
	mr.Close()

	ctx := context.Background()
	if err := store.AppendTurn(ctx, "s1", models.NewTurn(models.RoleUser, "hi")); !errors.Is(err, models.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable on append, got %v", err)
	}
	if _, err := store.ListTurns(ctx, "s1"); !errors.Is(err, models.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable on list, got %v", err)
	}
	if err := store.Clear(ctx, "s1"); !errors.Is(err, models.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable on clear, got %v", err)
	}
}
