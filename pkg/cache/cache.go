package cache

import (
	"context"
	"errors"
)

var (
	ErrCacheMiss        = errors.New("cache: key not found")
	ErrSnapshotNotFound = errors.New("cache: snapshot not found")
	ErrFlushInProgress  = errors.New("cache: flush already in progress")
	ErrCorruptSnapshot  = errors.New("cache: corrupt snapshot document")
)

// DurableStore is the blob-style backing tier. The store serializes the
// full fast-tier map as a single document at a configured path; the tier
// never sees individual entries.
type DurableStore interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Exists(ctx context.Context, path string) (bool, error)
}

// Stats tracks runtime cache counters. Fields are mutated under the
// store lock; Stats() returns a snapshot.
type Stats struct {
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Promotions uint64 `json:"promotions"`
	Evictions  uint64 `json:"evictions"`
	Flushes    uint64 `json:"flushes"`
	FlushFails uint64 `json:"flush_fails"`
}
