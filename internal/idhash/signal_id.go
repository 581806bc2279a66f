package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"launch-radar/internal/domain"
)

// ComputeSignalID computes a deterministic signal id using SHA256.
// Formula: SHA256(source|source_id)
// Returns hex-encoded hash (64 characters).
//
// Signal identity is (source, source_id); the hash gives audit sinks a
// stable primary key so the same message ingested twice dedupes on insert.
func ComputeSignalID(source domain.Source, sourceID string) string {
	data := fmt.Sprintf("%s|%s", string(source), sourceID)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
