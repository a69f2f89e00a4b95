package internal

import (
	"crypto/rand"
	"encoding/base64"
)

// secretTokenBytes gives 256 bits of entropy, enough that brute-forcing a
// token within any plausible TTL window is infeasible.
const secretTokenBytes = 32

// NewSecretToken returns a cryptographically random opaque token encoded
// with unpadded base64url, safe to embed in a URL query string.
func NewSecretToken() (string, error) {
	raw := make([]byte, secretTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
