// Package idhash computes deterministic record identifiers so that
// re-running a simulation produces the same storage keys.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeFillID computes a deterministic fill_id using SHA256.
// Formula: SHA256(owner|order_number|symbol|timestamp_ms)
// Returns hex-encoded hash (64 characters).
func ComputeFillID(owner, orderNumber, symbol string, timestampMs int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d", owner, orderNumber, symbol, timestampMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeSummaryID computes a deterministic summary_id using SHA256.
// Formula: SHA256(owner|session_date)
// Returns hex-encoded hash (64 characters).
func ComputeSummaryID(owner, sessionDate string) string {
	data := fmt.Sprintf("%s|%s", owner, sessionDate)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
