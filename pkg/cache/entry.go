package cache

import (
	"encoding/json"
	"time"
)

// Entry stores an opaque serialized payload with its freshness metadata.
// Payloads are never mutated in place; a refresh replaces the whole entry.
type Entry struct {
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	CachedAt   time.Time       `json:"cached_at"`
	TTLMinutes int             `json:"ttl_minutes"`
}

// Valid reports whether the entry is still fresh at the given instant.
func (e Entry) Valid(now time.Time) bool {
	return now.Sub(e.CachedAt) < time.Duration(e.TTLMinutes)*time.Minute
}

// AgeMinutes returns the entry age at the given instant.
func (e Entry) AgeMinutes(now time.Time) float64 {
	return now.Sub(e.CachedAt).Minutes()
}

// snapshotVersion guards forward compatibility of the persisted document.
const snapshotVersion = 1

// snapshot is the single structured document written to the durable tier.
type snapshot struct {
	Version int              `json:"version"`
	SavedAt time.Time        `json:"saved_at"`
	Entries map[string]Entry `json:"entries"`
	Stats   Stats            `json:"statistics"`
}
