// Package stores provides the short-lived token records kept in the shared
// expiring key-value store: password-reset tokens and the session-token
// blacklist.
//
// # Design
//
// Reset tokens map token -> email under the pwdreset: prefix and are
// single-use: consumption is an atomic fetch-and-delete, so a token can
// never be redeemed twice. Blacklist entries map token -> marker under the
// token_blacklist: prefix with a TTL equal to the token's remaining
// lifetime at the moment of revocation.
//
// # Failure policy
//
// Store failures degrade instead of propagating: issuance still returns a
// token, lookups report absence, and every failure is logged. Callers on
// these paths never see an infrastructure error.
package stores
