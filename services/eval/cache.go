// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package eval

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/JansenNye/explain-that-move/pkg/logging"
	"golang.org/x/sync/singleflight"
)

// LivenessCheck reports whether the context that issued a request is
// still the current one — the active descriptor has not changed and
// the requesting view has not been torn down. It is evaluated at
// commit time; a false return discards the response without error.
type LivenessCheck func() bool

// Cache is the descriptor-keyed evaluation store plus fetch
// orchestrator.
//
// The key is the descriptor alone. A later request at a different
// depth for the same descriptor overwrites the stored result
// unconditionally, even when the new depth is shallower; intent in the
// original app is ambiguous, so the behavior is preserved rather than
// extending the key (see DESIGN.md).
//
// Entries are never evicted; the cache lives as long as the process.
//
// Thread Safety: safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Result
	flight  singleflight.Group
	fetcher Fetcher
	logger  *logging.Logger

	hits      int64
	misses    int64
	discards  int64
	fetchErrs int64
}

// NewCache creates an empty Cache backed by the given fetcher.
func NewCache(fetcher Fetcher, logger *logging.Logger) *Cache {
	if logger == nil {
		logger = logging.Default()
	}
	return &Cache{
		entries: make(map[string]Result),
		fetcher: fetcher,
		logger:  logger,
	}
}

// Lookup is the synchronous cache check. A hit returns the stored
// payload with its cached flag forced on: however the result was first
// obtained, handing it out again is by definition cached provenance.
func (c *Cache) Lookup(descriptor string) (Result, bool) {
	c.mu.RLock()
	res, ok := c.entries[descriptor]
	c.mu.RUnlock()
	if !ok {
		return Result{}, false
	}
	res.Cached = true
	return res, true
}

// Request returns the evaluation for descriptor, fetching it if
// absent.
//
// The lookup happens first and costs no network call on a hit. On a
// miss exactly one fetch is issued per descriptor regardless of how
// many callers are waiting (singleflight). When the fetch completes,
// the result is committed and returned only if live() still holds;
// otherwise it is discarded and ok is false with a nil error.
//
// depth is clamped to [MinDepth, MaxDepth] (zero → DefaultDepth).
// A nil live is treated as always current.
//
// Fetch failures are logged and returned wrapped in ErrFetchFailed;
// they are never cached as negative results and are not retried here.
func (c *Cache) Request(ctx context.Context, descriptor string, depth int, live LivenessCheck) (Result, bool, error) {
	if res, ok := c.Lookup(descriptor); ok {
		atomic.AddInt64(&c.hits, 1)
		return res, true, nil
	}
	atomic.AddInt64(&c.misses, 1)

	depth = ClampDepth(depth)

	v, err, _ := c.flight.Do(descriptor, func() (interface{}, error) {
		return c.fetcher.Fetch(ctx, descriptor, depth)
	})
	if err != nil {
		atomic.AddInt64(&c.fetchErrs, 1)
		c.logger.Error("evaluation fetch failed",
			"descriptor", descriptor,
			"depth", depth,
			"error", err.Error(),
		)
		return Result{}, false, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	res := v.(Result)

	if live != nil && !live() {
		atomic.AddInt64(&c.discards, 1)
		c.logger.Debug("stale evaluation discarded", "descriptor", descriptor)
		return Result{}, false, nil
	}

	c.mu.Lock()
	c.entries[descriptor] = res
	c.mu.Unlock()

	return res, true, nil
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		Entries:   entries,
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Discards:  atomic.LoadInt64(&c.discards),
		FetchErrs: atomic.LoadInt64(&c.fetchErrs),
	}
}
