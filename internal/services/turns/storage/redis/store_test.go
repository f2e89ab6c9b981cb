package redis

import (
	"context"
	"os"
	"testing"
	"time"
)

// These tests need a live Redis instance; set RIFTHOLM_TEST_REDIS_ADDR
// to run them.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("RIFTHOLM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RIFTHOLM_TEST_REDIS_ADDR not set")
	}
	store := NewStore(Config{Addr: addr, TTL: time.Minute})
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGetQuestCompletionMissing(t *testing.T) {
	store := openTestStore(t)

	_, found, err := store.GetQuestCompletion(context.Background(), "redis-test-missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatal("expected no record")
	}
}

func TestStoreAndGetQuestCompletion(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	completedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.StoreQuestCompletion(ctx, "redis-test-char", completedAt); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, found, err := store.GetQuestCompletion(ctx, "redis-test-char")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("expected record")
	}
	if !got.Equal(completedAt) {
		t.Fatalf("expected %v, got %v", completedAt, got)
	}
}
