// Package cache keeps ranked results in Redis. Keys are scoped by collection
// fingerprint so results from an older collection are never served, and
// concurrent identical misses are computed once.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/resilience"
)

const keyPrefix = "vsm:"

// lookupTimeout bounds a single cache round trip; a slow cache is treated as
// a miss.
const lookupTimeout = 100 * time.Millisecond

// Store is the key-value backend, satisfied by *redis.Client.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Key identifies one search. Tokens are order-insensitive because term
// vectors only count occurrences.
type Key struct {
	Fingerprint string
	Kind        string
	Tokens      []string
	Params      collection.Params
}

func (k Key) String() string {
	tokens := slices.Clone(k.Tokens)
	slices.Sort(tokens)
	raw := fmt.Sprintf("%s|%s|%s|%s|%d",
		k.Kind, strings.Join(tokens, " "), k.Params.Method, k.Params.Scheme, k.Params.K)
	sum := blake3.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, k.Fingerprint, sum[:16])
}

type ResultCache struct {
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(store Store, ttl time.Duration) *ResultCache {
	return &ResultCache{
		store:   store,
		ttl:     ttl,
		breaker: resilience.NewCircuitBreaker("result-cache", resilience.CircuitBreakerConfig{}),
		logger:  slog.Default().With("component", "result-cache"),
	}
}

// Get returns a cached result. Backend failures are logged and reported as
// misses.
func (c *ResultCache) Get(ctx context.Context, key Key) (ranker.Result, bool) {
	k := key.String()
	var data []byte
	var found bool
	err := c.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, lookupTimeout, "cache-get", func(ctx context.Context) error {
			var err error
			data, found, err = c.store.Get(ctx, k)
			return err
		})
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", k, "error", err)
		c.misses.Add(1)
		return ranker.Result{}, false
	}
	if !found {
		c.misses.Add(1)
		return ranker.Result{}, false
	}
	var res ranker.Result
	if err := json.Unmarshal(data, &res); err != nil {
		c.logger.Error("cache unmarshal failed", "key", k, "error", err)
		c.misses.Add(1)
		return ranker.Result{}, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", k)
	return res, true
}

func (c *ResultCache) Set(ctx context.Context, key Key, res ranker.Result) {
	k := key.String()
	data, err := json.Marshal(res)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", k, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, lookupTimeout, "cache-set", func(ctx context.Context) error {
			return c.store.Set(ctx, k, data, c.ttl)
		})
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", k, "error", err)
	}
}

// GetOrCompute returns the cached result for key or computes, stores and
// returns it. hit reports whether the value came from the cache.
func (c *ResultCache) GetOrCompute(ctx context.Context, key Key, compute func() (ranker.Result, error)) (res ranker.Result, hit bool, err error) {
	if res, ok := c.Get(ctx, key); ok {
		return res, true, nil
	}
	val, err, _ := c.group.Do(key.String(), func() (any, error) {
		res, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, res)
		return res, nil
	})
	if err != nil {
		return ranker.Result{}, false, err
	}
	return val.(ranker.Result), false, nil
}

// Invalidate removes the results cached for fingerprint, or every result
// when fingerprint is empty.
func (c *ResultCache) Invalidate(ctx context.Context, fingerprint string) (int64, error) {
	pattern := keyPrefix + "*"
	if fingerprint != "" {
		pattern = keyPrefix + fingerprint + ":*"
	}
	deleted, err := c.store.FlushByPattern(ctx, pattern)
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "pattern", pattern, "keys_deleted", deleted)
	return deleted, nil
}

func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
