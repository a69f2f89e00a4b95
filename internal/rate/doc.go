// Package rate provides the fixed-window rate limiter used in front of the
// credential-bearing endpoints.
//
// # Window semantics
//
// Fixed-window counters: increment + window TTL on the first hit. Bursts at
// window boundaries are accepted, a documented trade-off for simplicity.
//
// # Failure policy
//
// Store failures fail open: legitimate traffic is never blocked because the
// counter backend is down. Every failure is logged as a warning.
package rate
