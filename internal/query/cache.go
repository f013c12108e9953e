// Package query provides declarative, cached endpoints over the movie catalog.
//
// An endpoint is registered from a Definition describing how to fetch a
// result, how its argument maps to a cache key, and optionally how
// successive results under the same key are merged. Identical requests that
// overlap share a single fetch. Without a merge, each fetch is tagged with a
// per-key sequence number so a stale response never replaces a newer one;
// with a merge, every response is folded into the entry as it arrives.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// ErrSkipped is returned by Query when the definition's Skip condition holds.
var ErrSkipped = errors.New("query skipped")

// Definition declares one endpoint.
type Definition[A, R any] struct {
	// Name prefixes every cache key of the endpoint.
	Name string

	Fetch func(ctx context.Context, arg A) (R, error)

	// SerializeArgs maps an argument to its cache key. Defaults to fmt.Sprint.
	SerializeArgs func(arg A) string

	// Merge combines the cached value with a newly fetched one.
	// When nil the new value replaces the cached one.
	Merge func(current, incoming R) R

	// ForceRefetch reports whether a cached entry produced by previous must
	// be refetched for current. When nil cached entries are always reused.
	ForceRefetch func(current, previous A) bool

	// Skip suppresses the request entirely.
	Skip func(arg A) bool
}

// entry is what the cache stores: the value and the argument that produced it.
type entry[A, R any] struct {
	value R
	arg   A
}

// Cache is the response cache shared by all registered endpoints.
type Cache struct {
	store  *cache.Cache
	flight singleflight.Group

	mu   sync.Mutex
	seqs map[string]*tracked

	logger *slog.Logger
}

// NewCache creates a cache whose entries expire after ttl. A ttl of zero or
// less keeps entries until they are invalidated.
func NewCache(ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Cache{
		store:  cache.New(ttl, 10*time.Minute),
		seqs:   make(map[string]*tracked),
		logger: logger,
	}
}

// tracked is a key's sequencer and the number of fetches holding it. The
// entry is dropped once no fetch for the key is in flight.
type tracked struct {
	seq      Sequencer
	inflight int
}

// acquire tags a new fetch for key. Caller must hold c.mu.
func (c *Cache) acquire(key string) uint64 {
	t, ok := c.seqs[key]
	if !ok {
		t = &tracked{}
		c.seqs[key] = t
	}
	t.inflight++
	return t.seq.Next()
}

// release applies seq and reports whether it is still the newest response
// for key. Caller must hold c.mu.
func (c *Cache) release(key string, seq uint64) bool {
	t, ok := c.seqs[key]
	if !ok {
		return true
	}
	fresh := t.seq.Apply(seq)
	if t.inflight--; t.inflight <= 0 {
		delete(c.seqs, key)
	}
	return fresh
}

// Endpoint is a registered Definition bound to a Cache.
type Endpoint[A, R any] struct {
	cache *Cache
	def   Definition[A, R]
}

// Register binds def to c.
func Register[A, R any](c *Cache, def Definition[A, R]) *Endpoint[A, R] {
	if def.SerializeArgs == nil {
		def.SerializeArgs = func(arg A) string { return fmt.Sprint(arg) }
	}
	return &Endpoint[A, R]{cache: c, def: def}
}

// Name returns the endpoint name.
func (e *Endpoint[A, R]) Name() string {
	return e.def.Name
}

func (e *Endpoint[A, R]) key(arg A) string {
	return e.Name() + ":" + e.def.SerializeArgs(arg)
}

func (e *Endpoint[A, R]) lookup(key string) (entry[A, R], bool) {
	v, ok := e.cache.store.Get(key)
	if !ok {
		return entry[A, R]{}, false
	}
	ent, ok := v.(entry[A, R])
	return ent, ok
}

// Cached returns the cached value for arg without fetching.
func (e *Endpoint[A, R]) Cached(arg A) (R, bool) {
	ent, ok := e.lookup(e.key(arg))
	return ent.value, ok
}

// Invalidate drops the cached value for arg.
func (e *Endpoint[A, R]) Invalidate(arg A) {
	e.cache.store.Delete(e.key(arg))
}

// Query resolves arg from the cache, or fetches it.
//
// Overlapping calls with the same argument share one fetch. A caller whose
// context ends stops waiting but does not cancel the shared fetch; its result
// still lands in the cache.
func (e *Endpoint[A, R]) Query(ctx context.Context, arg A) (R, error) {
	var zero R
	if e.def.Skip != nil && e.def.Skip(arg) {
		return zero, ErrSkipped
	}

	key := e.key(arg)
	if ent, ok := e.lookup(key); ok {
		if e.def.ForceRefetch == nil || !e.def.ForceRefetch(arg, ent.arg) {
			return ent.value, nil
		}
	}

	// The cache key may deliberately ignore parts of the argument, so the
	// flight is keyed by the full argument.
	flightKey := fmt.Sprintf("%s#%v", key, arg)
	ch := e.cache.flight.DoChan(flightKey, func() (any, error) {
		return e.fetch(context.WithoutCancel(ctx), key, arg)
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(R), nil
	}
}

func (e *Endpoint[A, R]) fetch(ctx context.Context, key string, arg A) (R, error) {
	if e.def.Merge != nil {
		return e.fetchMerged(ctx, key, arg)
	}

	e.cache.mu.Lock()
	seq := e.cache.acquire(key)
	e.cache.mu.Unlock()

	incoming, err := e.def.Fetch(ctx, arg)

	e.cache.mu.Lock()
	defer e.cache.mu.Unlock()

	fresh := e.cache.release(key, seq)
	if err != nil {
		var zero R
		return zero, fmt.Errorf("%s: %w", e.Name(), err)
	}
	if !fresh {
		e.cache.logger.Debug("discarding stale response",
			slog.String("endpoint", e.Name()),
			slog.String("key", key),
			slog.Uint64("seq", seq),
		)
		if current, ok := e.lookup(key); ok {
			return current.value, nil
		}
		return incoming, nil
	}

	e.cache.store.Set(key, entry[A, R]{value: incoming, arg: arg}, cache.DefaultExpiration)
	return incoming, nil
}

// fetchMerged folds every response into the entry in arrival order. Fetches
// under one key ask for different slices of it, so an earlier request that
// answers late still carries data no newer response has.
func (e *Endpoint[A, R]) fetchMerged(ctx context.Context, key string, arg A) (R, error) {
	incoming, err := e.def.Fetch(ctx, arg)
	if err != nil {
		var zero R
		return zero, fmt.Errorf("%s: %w", e.Name(), err)
	}

	e.cache.mu.Lock()
	defer e.cache.mu.Unlock()

	value := incoming
	if current, ok := e.lookup(key); ok {
		value = e.def.Merge(current.value, incoming)
	}
	e.cache.store.Set(key, entry[A, R]{value: value, arg: arg}, cache.DefaultExpiration)
	return value, nil
}
