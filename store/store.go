// Package store keeps a bounded, time-limited archive of recent body
// captures for diagnostics and replay tooling.
package store

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jonboulle/clockwork"
	"github.com/rs/xid"
)

// Record is one archived exchange.
type Record struct {
	ID           string
	Method       string
	Path         string
	Status       int
	RequestBody  []byte
	ResponseBody []byte
	RequestSize  int64
	ResponseSize int64
	CapturedAt   time.Time
}

type options struct {
	clock clockwork.Clock
}

// Option is an option func for New.
type Option func(*options)

// WithClock sets the clock used for record timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// Store archives recent capture records in an expirable LRU.
type Store struct {
	cache *expirable.LRU[string, Record]
	clock clockwork.Clock
}

// New creates a store retaining at most maxItems records for at most ttl.
func New(maxItems int, ttl time.Duration, opts ...Option) *Store {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{
		cache: expirable.NewLRU[string, Record](maxItems, nil, ttl),
		clock: o.clock,
	}
}

// Add archives a record, assigning an ID and timestamp, and returns the ID.
func (s *Store) Add(rec Record) string {
	if rec.ID == "" {
		rec.ID = xid.New().String()
	}
	rec.CapturedAt = s.clock.Now()
	s.cache.Add(rec.ID, rec)
	return rec.ID
}

// Get retrieves an archived record by ID.
func (s *Store) Get(id string) (Record, bool) {
	return s.cache.Get(id)
}

// Records returns the archived records, oldest first.
func (s *Store) Records() []Record {
	return s.cache.Values()
}

// Len returns the number of archived records.
func (s *Store) Len() int {
	return s.cache.Len()
}
