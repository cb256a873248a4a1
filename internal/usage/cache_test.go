package usage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/drawspace/drawspace-backend/pkg/redis"
)

func setupSnapshotCache(t *testing.T) (SnapshotCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewFromAddr(mr.Addr())
	t.Cleanup(func() { client.Close() })
	return NewSnapshotCache(client, 0), mr
}

func TestSnapshotCache_RoundTrip(t *testing.T) {
	cache, _ := setupSnapshotCache(t)
	ctx := context.Background()

	snap, err := cache.Get(ctx, "user_abc")
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if snap != nil {
		t.Fatal("expected miss on empty cache")
	}

	want := Snapshot{CurrentUsage: 5, PlanLimit: 10, Month: "2026-03"}
	if err := cache.Set(ctx, "user_abc", want); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := cache.Get(ctx, "user_abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || *got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestSnapshotCache_KeyFormat(t *testing.T) {
	cache, mr := setupSnapshotCache(t)

	if err := cache.Set(context.Background(), "user_abc", Snapshot{CurrentUsage: 1, PlanLimit: 10, Month: "2026-03"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("user_usage:user_abc") {
		t.Fatalf("expected key user_usage:user_abc, keys: %v", mr.Keys())
	}
}

func TestSnapshotCache_CorruptEntryErrors(t *testing.T) {
	cache, mr := setupSnapshotCache(t)

	mr.Set("user_usage:user_abc", "{not json")
	if _, err := cache.Get(context.Background(), "user_abc"); err == nil {
		t.Fatal("expected decode error for corrupt entry")
	}
}
