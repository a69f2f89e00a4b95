// Package metrics provides lock-free counters for engine observability.
//
// Counters are incremented atomically on the hot path and read via
// [Metrics.Snapshot]. The package performs no I/O and holds no global
// registries; export is the caller's concern.
package metrics

import "sync/atomic"

// Counter identifies one engine counter.
type Counter uint8

const (
	RegisterSuccess Counter = iota
	RegisterConflict
	LoginSuccess
	LoginFailure
	RefreshSuccess
	RefreshFailure
	ResetRequested
	ResetConfirmSuccess
	ResetConfirmFailure
	Logout
	RateLimitHit

	counterCount
)

var counterNames = [counterCount]string{
	RegisterSuccess:     "register_success",
	RegisterConflict:    "register_conflict",
	LoginSuccess:        "login_success",
	LoginFailure:        "login_failure",
	RefreshSuccess:      "refresh_success",
	RefreshFailure:      "refresh_failure",
	ResetRequested:      "reset_requested",
	ResetConfirmSuccess: "reset_confirm_success",
	ResetConfirmFailure: "reset_confirm_failure",
	Logout:              "logout",
	RateLimitHit:        "rate_limit_hit",
}

// String returns the stable export name of the counter.
func (c Counter) String() string {
	if c >= counterCount {
		return "unknown"
	}
	return counterNames[c]
}

// Metrics holds the counter slots. A disabled instance makes every
// operation a no-op so callers never need nil checks.
type Metrics struct {
	enabled  bool
	counters [counterCount]atomic.Uint64
}

// New creates a [Metrics] instance.
func New(enabled bool) *Metrics {
	return &Metrics{enabled: enabled}
}

// Inc increments counter c.
func (m *Metrics) Inc(c Counter) {
	if m == nil || !m.enabled || c >= counterCount {
		return
	}
	m.counters[c].Add(1)
}

// Snapshot returns a point-in-time copy of all counters keyed by export
// name.
func (m *Metrics) Snapshot() map[string]uint64 {
	out := make(map[string]uint64, int(counterCount))
	if m == nil || !m.enabled {
		return out
	}
	for c := Counter(0); c < counterCount; c++ {
		out[c.String()] = m.counters[c].Load()
	}
	return out
}
