package cache

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultNamespace prefixes every key written by a Store unless overridden,
// keeping PropSight entries apart from anything else sharing the backend.
const DefaultNamespace = "propsight:"

// Store layers TTL semantics and a key namespace over a Backend.
//
// Every operation is best-effort: reads degrade to a miss on any storage or
// parse failure, writes and deletes drop silently. A caller can never receive
// a storage error as a business error.
type Store struct {
	backend   Backend
	namespace string
	now       func() time.Time
	log       zerolog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithNamespace overrides the key prefix for this store.
func WithNamespace(ns string) StoreOption {
	return func(s *Store) { s.namespace = ns }
}

// WithClock overrides the time source, used by tests to advance time.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) { s.log = log }
}

// NewStore creates a Store over the given backend.
func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend:   backend,
		namespace: DefaultNamespace,
		now:       time.Now,
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get returns the cached payload for path+params, or ok=false on a miss.
// An expired or unparseable entry is removed as a side effect and reported
// as a miss.
func (s *Store) Get(path string, params map[string]string) (json.RawMessage, bool) {
	key := s.namespace + KeyFor(path, params)

	raw, err := s.backend.Read(key)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.log.Debug().Str("key", key).Msg("cache entry corrupted, purging")
		_ = s.backend.Remove(key)
		return nil, false
	}

	if entry.Expired(s.now()) {
		_ = s.backend.Remove(key)
		return nil, false
	}

	return entry.Data, true
}

// Set stores payload under path+params with the given TTL. The write is
// best-effort: on a quota failure it sweeps expired entries and retries once,
// then gives up silently.
func (s *Store) Set(path string, params map[string]string, payload any, ttl time.Duration) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Debug().Err(err).Str("path", path).Msg("cache payload not serializable, skipping")
		return
	}

	entry := Entry{
		Data:      data,
		StoredAt:  s.now(),
		TTLMillis: ttl.Milliseconds(),
	}
	raw, err := json.Marshal(&entry)
	if err != nil {
		return
	}

	key := s.namespace + KeyFor(path, params)
	if err := s.backend.Write(key, raw); err != nil {
		if err != ErrQuotaExceeded {
			s.log.Debug().Err(err).Str("key", key).Msg("cache write failed")
			return
		}
		s.SweepExpired()
		if err := s.backend.Write(key, raw); err != nil {
			s.log.Debug().Err(err).Str("key", key).Msg("cache write failed after sweep")
		}
	}
}

// Delete removes the one entry for path+params, if present.
func (s *Store) Delete(path string, params map[string]string) {
	_ = s.backend.Remove(s.namespace + KeyFor(path, params))
}

// DeleteByPattern removes every entry in this store's namespace whose
// namespace-local key matches the regular expression. Keys outside the
// namespace are never touched. An invalid pattern is a no-op.
func (s *Store) DeleteByPattern(pattern string) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		s.log.Debug().Err(err).Str("pattern", pattern).Msg("bad invalidation pattern")
		return
	}

	keys, err := s.backend.Keys()
	if err != nil {
		return
	}
	for _, key := range keys {
		local, ok := strings.CutPrefix(key, s.namespace)
		if !ok {
			continue
		}
		if re.MatchString(local) {
			_ = s.backend.Remove(key)
		}
	}
}

// ClearAll removes every entry in this store's namespace, leaving unrelated
// keys in the backend untouched.
func (s *Store) ClearAll() {
	keys, err := s.backend.Keys()
	if err != nil {
		return
	}
	for _, key := range keys {
		if strings.HasPrefix(key, s.namespace) {
			_ = s.backend.Remove(key)
		}
	}
}

// SweepExpired removes every currently-expired or unreadable entry in this
// store's namespace. It runs automatically when a write hits the storage
// quota, and may be called directly for housekeeping.
func (s *Store) SweepExpired() {
	keys, err := s.backend.Keys()
	if err != nil {
		return
	}
	now := s.now()
	for _, key := range keys {
		if !strings.HasPrefix(key, s.namespace) {
			continue
		}
		raw, err := s.backend.Read(key)
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil || entry.Expired(now) {
			_ = s.backend.Remove(key)
		}
	}
}
