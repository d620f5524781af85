// Package cache provides a best-effort response cache for PropSight API
// calls, with TTL-based expiration and pattern-based bulk invalidation.
package cache

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrQuotaExceeded is reported by a Backend when the storage medium is full.
// The Store reacts by sweeping expired entries and retrying the write once.
var ErrQuotaExceeded = errors.New("cache: storage quota exceeded")

// Entry is the stored shape of a cached payload.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	StoredAt  time.Time       `json:"stored_at"`
	TTLMillis int64           `json:"ttl_ms"`
}

// Expired reports whether the entry is past its TTL at the given instant.
// A non-positive TTL means the entry never expires.
func (e *Entry) Expired(now time.Time) bool {
	if e.TTLMillis <= 0 {
		return false
	}
	return now.Sub(e.StoredAt) > time.Duration(e.TTLMillis)*time.Millisecond
}

// Backend is the storage medium underneath a Store. Implementations must be
// atomic at the single-key level; they are not required to be transactional
// across keys.
type Backend interface {
	// Read returns the raw bytes stored under key, or an error if absent
	// or unreadable.
	Read(key string) ([]byte, error)

	// Write stores raw bytes under key, overwriting any previous value.
	// Returns ErrQuotaExceeded when the medium is full.
	Write(key string, data []byte) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(key string) error

	// Keys lists every key currently stored in this backend.
	Keys() ([]string, error)
}
