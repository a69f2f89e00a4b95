// Package internal contains helper utilities that are intentionally private
// to authgate, including secure random token generation.
//
// Sub-packages:
//
//   - directory: user persistence over SQLite
//   - httpapi: the JSON HTTP surface
//   - mailer: SMTP delivery
//   - metrics: lock-free counters over engine operations
//   - rate: fixed-window rate limit primitives on the kv store
//   - stores: reset-token and blacklist stores on the kv store
package internal
