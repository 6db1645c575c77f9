// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package eval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JansenNye/explain-that-move/pkg/logging"
)

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eval", r.URL.Path)
		assert.Equal(t, cacheTestFEN, r.URL.Query().Get("fen"))
		assert.Equal(t, "20", r.URL.Query().Get("depth"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cached": false, "score_cp": 35, "pv": "e4 e5 Nf3 Nc6"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, logging.New(logging.Config{Quiet: true}))
	res, err := client.Fetch(context.Background(), cacheTestFEN, 20)

	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, 35, res.ScoreCP)
	assert.Equal(t, "e4 e5 Nf3 Nc6", res.PV)
}

func TestClientFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "invalid fen"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, logging.New(logging.Config{Quiet: true}))
	_, err := client.Fetch(context.Background(), "garbage", 20)

	require.ErrorIs(t, err, ErrBadStatus)
	assert.Contains(t, err.Error(), "400")
}

func TestClientFetchBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, logging.New(logging.Config{Quiet: true}))
	_, err := client.Fetch(context.Background(), cacheTestFEN, 20)
	assert.Error(t, err)
}

func TestClientFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, logging.New(logging.Config{Quiet: true}))
	_, err := client.Fetch(context.Background(), cacheTestFEN, 20)
	assert.Error(t, err)
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eval", r.URL.Path)
		_, _ = w.Write([]byte(`{"cached": true, "score_cp": 0, "pv": ""}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", logging.New(logging.Config{Quiet: true}))
	res, err := client.Fetch(context.Background(), cacheTestFEN, 20)

	require.NoError(t, err)
	assert.True(t, res.Cached)
}
