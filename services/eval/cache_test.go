// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package eval

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JansenNye/explain-that-move/pkg/logging"
)

const cacheTestFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// countingFetcher counts Fetch calls and optionally blocks until
// released, for exercising the single-flight path.
type countingFetcher struct {
	result  Result
	err     error
	calls   int64
	barrier chan struct{}
}

func (f *countingFetcher) Fetch(_ context.Context, _ string, _ int) (Result, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.barrier != nil {
		<-f.barrier
	}
	return f.result, f.err
}

func newTestCache(fetcher Fetcher) *Cache {
	return NewCache(fetcher, logging.New(logging.Config{Quiet: true}))
}

func TestRequestMissThenHit(t *testing.T) {
	fetcher := &countingFetcher{result: Result{ScoreCP: 35, PV: "e4 e5"}}
	cache := newTestCache(fetcher)

	res, ok, err := cache.Request(context.Background(), cacheTestFEN, 0, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 35, res.ScoreCP)
	assert.False(t, res.Cached)

	res, ok, err = cache.Request(context.Background(), cacheTestFEN, 0, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, res.Cached, "second request must report cached provenance")
	assert.EqualValues(t, 1, atomic.LoadInt64(&fetcher.calls))

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
}

func TestLookupMiss(t *testing.T) {
	cache := newTestCache(&countingFetcher{})

	_, ok := cache.Lookup(cacheTestFEN)
	assert.False(t, ok)
}

func TestRequestSingleFlight(t *testing.T) {
	fetcher := &countingFetcher{
		result:  Result{ScoreCP: 35},
		barrier: make(chan struct{}),
	}
	cache := newTestCache(fetcher)

	const waiters = 8
	var wg sync.WaitGroup
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer wg.Done()
			res, ok, err := cache.Request(context.Background(), cacheTestFEN, 0, nil)
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, 35, res.ScoreCP)
		}()
	}

	close(fetcher.barrier)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt64(&fetcher.calls),
		"concurrent misses for one descriptor must share a single fetch")
}

func TestRequestStaleDiscard(t *testing.T) {
	fetcher := &countingFetcher{result: Result{ScoreCP: 35}}
	cache := newTestCache(fetcher)

	dead := func() bool { return false }
	res, ok, err := cache.Request(context.Background(), cacheTestFEN, 0, dead)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, res.ScoreCP)

	// Discarded results are not committed.
	_, ok = cache.Lookup(cacheTestFEN)
	assert.False(t, ok)
	assert.EqualValues(t, 1, cache.Stats().Discards)
}

func TestRequestFetchErrorNotCached(t *testing.T) {
	fetcher := &countingFetcher{err: errors.New("connection refused")}
	cache := newTestCache(fetcher)

	_, ok, err := cache.Request(context.Background(), cacheTestFEN, 0, nil)
	require.ErrorIs(t, err, ErrFetchFailed)
	assert.False(t, ok)

	// The failure is not a negative entry; the next request refetches.
	fetcher.err = nil
	fetcher.result = Result{ScoreCP: 10}
	res, ok, err := cache.Request(context.Background(), cacheTestFEN, 0, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10, res.ScoreCP)
	assert.EqualValues(t, 1, cache.Stats().FetchErrs)
}

func TestRequestOverwritesOnDescriptorKey(t *testing.T) {
	fetcher := &countingFetcher{result: Result{ScoreCP: 35}}
	cache := newTestCache(fetcher)

	_, _, err := cache.Request(context.Background(), cacheTestFEN, 10, nil)
	require.NoError(t, err)

	// A different depth hits the same descriptor entry.
	res, ok, err := cache.Request(context.Background(), cacheTestFEN, 25, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, res.Cached)
	assert.EqualValues(t, 1, atomic.LoadInt64(&fetcher.calls))
}

func TestClampDepth(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultDepth},
		{1, MinDepth},
		{5, 5},
		{13, 13},
		{25, 25},
		{40, MaxDepth},
		{-3, MinDepth},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampDepth(tt.in), "depth %d", tt.in)
	}
}
