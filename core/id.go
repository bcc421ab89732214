package core

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// SessionKeyOrRandom returns key, or a random 32-byte hex key when key is empty.
// A random key means cookie sessions do not survive a restart.
func SessionKeyOrRandom(key string) (string, bool) {
	if key != "" {
		return key, false
	}
	return randomHex(32), true
}

// NewRequestID returns an identifier for correlating log lines of one request.
func NewRequestID() string {
	return uuid.NewString()
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(uuid.NewString()))[:2*n]
	}
	return hex.EncodeToString(b)
}
