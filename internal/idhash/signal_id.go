package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeSignalID computes a compact deterministic id for a pair-signal row.
// Formula: base58(SHA256(event_id|pair)[:16])
func ComputeSignalID(eventID, pair string) string {
	data := fmt.Sprintf("%s|%s", eventID, pair)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:16])
}
