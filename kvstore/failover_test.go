package kvstore

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFailoverUsesPrimaryWhenHealthy(t *testing.T) {
	primary, mr := newTestRedis(t)
	failover := NewFailover(primary, NewMemory(0), discardLogger())
	ctx := context.Background()

	if err := failover.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	// The value must land in Redis, not the fallback.
	if got, _ := mr.Get("k"); got != "v" {
		t.Fatalf("primary value = %q, want v", got)
	}
}

func TestFailoverPrimaryDownAtStartup(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	failover := NewFailover(NewRedis(client), NewMemory(0), discardLogger())
	ctx := context.Background()

	if err := failover.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("degraded set failed: %v", err)
	}
	value, ok, err := failover.Get(ctx, "k")
	if err != nil || !ok || value != "v" {
		t.Fatalf("degraded get = (%q, %v, %v)", value, ok, err)
	}
}

func TestFailoverSelectionIsSticky(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	failover := NewFailover(NewRedis(client), NewMemory(0), discardLogger())
	ctx := context.Background()

	if err := failover.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("degraded set failed: %v", err)
	}

	// Primary recovering mid-process does not flip the selection back;
	// re-probing happens on next process start.
	if err := mr.Restart(); err != nil {
		t.Fatalf("miniredis restart failed: %v", err)
	}

	if err := failover.Set(ctx, "k2", "v2", time.Minute); err != nil {
		t.Fatalf("set after primary recovery failed: %v", err)
	}
	if value, ok, _ := failover.Get(ctx, "k2"); !ok || value != "v2" {
		t.Fatalf("fallback lost value after recovery: (%q, %v)", value, ok)
	}
}

func TestFailoverDegradesPerCallAfterSelection(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	failover := NewFailover(NewRedis(client), NewMemory(0), discardLogger())
	ctx := context.Background()

	// Healthy at selection time.
	if err := failover.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	mr.Close()

	// Primary now failing per call: operations degrade, never error out.
	if err := failover.Set(ctx, "k2", "v2", time.Minute); err != nil {
		t.Fatalf("degraded set failed: %v", err)
	}
	if _, err := failover.Increment(ctx, "c", time.Minute); err != nil {
		t.Fatalf("degraded increment failed: %v", err)
	}
}

func TestFailoverNilPrimary(t *testing.T) {
	failover := NewFailover(nil, NewMemory(0), discardLogger())
	ctx := context.Background()

	if err := failover.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if value, ok, _ := failover.Get(ctx, "k"); !ok || value != "v" {
		t.Fatalf("get = (%q, %v)", value, ok)
	}
}
