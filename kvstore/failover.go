package kvstore

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Failover routes every operation to the primary backend and degrades to
// the in-process fallback when the primary is unreachable.
//
// Backend selection happens once, on first use: a failed initial ping pins
// the fallback for the process lifetime so each request does not pay the
// connect-timeout cost again. A primary that fails after selection degrades
// per call, with the failure logged.
type Failover struct {
	primary  Store
	fallback Store
	log      *slog.Logger

	selectOnce sync.Once
	usePrimary bool
}

// Pinger is implemented by backends that can verify connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewFailover wraps primary with fallback degradation. A nil primary pins
// the fallback immediately.
func NewFailover(primary Store, fallback Store, log *slog.Logger) *Failover {
	if log == nil {
		log = slog.Default()
	}
	if fallback == nil {
		fallback = NewMemory(0)
	}
	return &Failover{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

func (f *Failover) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if f.selectBackend(ctx) {
		err := f.primary.Set(ctx, key, value, ttl)
		if err == nil {
			return nil
		}
		f.degraded(ctx, "set", err)
	}
	return f.fallback.Set(ctx, key, value, ttl)
}

func (f *Failover) Get(ctx context.Context, key string) (string, bool, error) {
	if f.selectBackend(ctx) {
		value, ok, err := f.primary.Get(ctx, key)
		if err == nil {
			return value, ok, nil
		}
		f.degraded(ctx, "get", err)
	}
	return f.fallback.Get(ctx, key)
}

func (f *Failover) GetDel(ctx context.Context, key string) (string, bool, error) {
	if f.selectBackend(ctx) {
		value, ok, err := f.primary.GetDel(ctx, key)
		if err == nil {
			return value, ok, nil
		}
		f.degraded(ctx, "getdel", err)
	}
	return f.fallback.GetDel(ctx, key)
}

func (f *Failover) Delete(ctx context.Context, key string) error {
	if f.selectBackend(ctx) {
		err := f.primary.Delete(ctx, key)
		if err == nil {
			return nil
		}
		f.degraded(ctx, "delete", err)
	}
	return f.fallback.Delete(ctx, key)
}

func (f *Failover) Exists(ctx context.Context, key string) (bool, error) {
	if f.selectBackend(ctx) {
		ok, err := f.primary.Exists(ctx, key)
		if err == nil {
			return ok, nil
		}
		f.degraded(ctx, "exists", err)
	}
	return f.fallback.Exists(ctx, key)
}

func (f *Failover) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	if f.selectBackend(ctx) {
		count, err := f.primary.Increment(ctx, key, window)
		if err == nil {
			return count, nil
		}
		f.degraded(ctx, "incr", err)
	}
	return f.fallback.Increment(ctx, key, window)
}

// selectBackend reports whether the primary should be used, probing it
// exactly once for the process lifetime.
func (f *Failover) selectBackend(ctx context.Context) bool {
	f.selectOnce.Do(func() {
		if f.primary == nil {
			f.log.Info("kv store primary not configured, using in-process fallback")
			return
		}
		if pinger, ok := f.primary.(Pinger); ok {
			if err := pinger.Ping(ctx); err != nil {
				f.log.Warn("kv store primary unreachable, using in-process fallback",
					slog.Any("error", err))
				return
			}
		}
		f.usePrimary = true
	})
	return f.usePrimary
}

func (f *Failover) degraded(ctx context.Context, op string, err error) {
	f.log.WarnContext(ctx, "kv store primary call failed, degrading to fallback",
		slog.String("op", op),
		slog.Any("error", err))
}
