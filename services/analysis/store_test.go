// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JansenNye/explain-that-move/services/eval"
)

const testFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func openTestStore(t *testing.T) *ResultStore {
	t.Helper()
	store, err := OpenStore(InMemoryStoreConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestResultStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)

	res := eval.Result{ScoreCP: 35, PV: "e4 e5 Nf3 Nc6"}
	require.NoError(t, store.Put(testFEN, 15, res))

	got, ok, err := store.Get(testFEN, 15)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, res.ScoreCP, got.ScoreCP)
	assert.Equal(t, res.PV, got.PV)
}

func TestResultStoreMiss(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.Get(testFEN, 15)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResultStoreDepthIsPartOfKey(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put(testFEN, 15, eval.Result{ScoreCP: 35}))

	_, ok, err := store.Get(testFEN, 20)
	require.NoError(t, err)
	assert.False(t, ok, "different depth must not hit the depth-15 entry")
}

func TestResultStoreOverwrite(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put(testFEN, 15, eval.Result{ScoreCP: 35}))
	require.NoError(t, store.Put(testFEN, 15, eval.Result{ScoreCP: -12}))

	got, ok, err := store.Get(testFEN, 15)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, -12, got.ScoreCP)
}

func TestResultKeyShape(t *testing.T) {
	key := string(resultKey(testFEN, 15))
	assert.Regexp(t, `^sf:15:[0-9a-f]{32}$`, key)

	// Same inputs, same key.
	assert.Equal(t, key, string(resultKey(testFEN, 15)))
}

func TestOpenStoreRequiresPath(t *testing.T) {
	_, err := OpenStore(StoreConfig{})
	assert.Error(t, err)
}
