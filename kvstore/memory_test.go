package kvstore

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemorySetGetDelete(t *testing.T) {
	store := NewMemory(0)
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	value, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || value != "v" {
		t.Fatalf("get = (%q, %v, %v), want (v, true, nil)", value, ok, err)
	}

	exists, err := store.Exists(ctx, "k")
	if err != nil || !exists {
		t.Fatalf("exists = (%v, %v), want (true, nil)", exists, err)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("key still present after delete")
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	store := NewMemory(0)
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }

	if err := store.Set(ctx, "k", "v", 10*time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	now = now.Add(9 * time.Second)
	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Fatal("key expired before TTL")
	}

	now = now.Add(2 * time.Second)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("key still present after TTL")
	}
	if exists, _ := store.Exists(ctx, "k"); exists {
		t.Fatal("exists reports expired key")
	}
}

func TestMemoryGetDelSingleUse(t *testing.T) {
	store := NewMemory(0)
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	value, ok, err := store.GetDel(ctx, "k")
	if err != nil || !ok || value != "v" {
		t.Fatalf("first getdel = (%q, %v, %v)", value, ok, err)
	}

	if _, ok, _ := store.GetDel(ctx, "k"); ok {
		t.Fatal("second getdel returned a value")
	}
}

func TestMemoryIncrementWindow(t *testing.T) {
	store := NewMemory(0)
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }

	for want := int64(1); want <= 3; want++ {
		count, err := store.Increment(ctx, "counter", time.Minute)
		if err != nil {
			t.Fatalf("increment failed: %v", err)
		}
		if count != want {
			t.Fatalf("count = %d, want %d", count, want)
		}
	}

	// Window TTL is fixed at the first increment and not extended by later hits.
	now = now.Add(61 * time.Second)
	count, err := store.Increment(ctx, "counter", time.Minute)
	if err != nil {
		t.Fatalf("increment after window failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("count after window = %d, want 1", count)
	}
}

func TestMemoryConcurrentIncrement(t *testing.T) {
	store := NewMemory(0)
	ctx := context.Background()

	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := store.Increment(ctx, "counter", time.Minute); err != nil {
					t.Errorf("increment failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	count, err := store.Increment(ctx, "counter", time.Minute)
	if err != nil {
		t.Fatalf("final increment failed: %v", err)
	}
	if count != workers*perWorker+1 {
		t.Fatalf("count = %d, want %d", count, workers*perWorker+1)
	}
}

func TestMemoryBoundedEviction(t *testing.T) {
	store := NewMemory(4)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c", "d", "e", "f"} {
		if err := store.Set(ctx, key, "v", time.Minute); err != nil {
			t.Fatalf("set %s failed: %v", key, err)
		}
	}

	store.mu.Lock()
	size := len(store.entries)
	store.mu.Unlock()

	if size > 4 {
		t.Fatalf("store grew to %d entries, limit is 4", size)
	}
}
