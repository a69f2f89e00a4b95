// Package authgate provides a credential and session-issuance engine:
// registration, login, signed access/refresh token pairs with
// rotation-on-refresh and blacklist revocation, and single-use
// password-reset tokens with fixed TTL.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config],
// and the collaborator interfaces ([UserDirectory], [Notifier]). Token
// stores, rate limiting, and metrics live under internal/ and are never
// exported.
//
// # Failure policy
//
// The expiring key-value store is the only shared infrastructure. Its
// failures degrade rather than crash: rate limiting fails open, reset
// issuance still hands out a token, and every degradation is logged. Only
// authentication and validation failures surface to callers, as typed
// errors the request boundary can map to responses.
package authgate
