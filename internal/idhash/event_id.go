package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ComputeEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(date_local|time_local|CURRENCY|title)
// Returns hex-encoded hash (64 characters).
func ComputeEventID(dateLocal, timeLocal, currency, title string) string {
	data := fmt.Sprintf("%s|%s|%s|%s",
		strings.TrimSpace(dateLocal),
		strings.TrimSpace(timeLocal),
		strings.ToUpper(strings.TrimSpace(currency)),
		strings.TrimSpace(title),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
