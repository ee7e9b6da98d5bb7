package uid

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateGameID returns a random 32 character hex id for a game record.
func GenerateGameID() string {
	return randomHex(16)
}

func randomHex(n int) string {
	bytes := make([]byte, n)
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
