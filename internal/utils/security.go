package contextutils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MaskAPIKey masks an API key for logging purposes to prevent exposure.
// Only the first 4 and last 4 characters stay visible.
func MaskAPIKey(apiKey string) string {
	if apiKey == "" {
		return "[EMPTY]"
	}

	if len(apiKey) <= 8 {
		return strings.Repeat("*", len(apiKey))
	}

	return apiKey[:4] + strings.Repeat("*", len(apiKey)-8) + apiKey[len(apiKey)-4:]
}

// HashIdentifier returns a short stable digest of an opaque identifier such
// as a session id, suitable for log fields and span attributes.
func HashIdentifier(id string) string {
	if id == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:6])
}
