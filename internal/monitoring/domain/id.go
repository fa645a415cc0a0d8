package monitoring

import (
	"crypto/rand"
	"encoding/hex"
)

// NewOutcomeID generates a random outcome identifier.
func NewOutcomeID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "call-" + hex.EncodeToString(buf)
}
