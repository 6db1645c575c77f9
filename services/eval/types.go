// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package eval

import "context"

// Search-depth bounds for client requests. Out-of-range depths are
// clamped, zero means DefaultDepth.
const (
	MinDepth     = 5
	MaxDepth     = 25
	DefaultDepth = 20
)

// Result is one position evaluation as returned by the service.
//
// PV is either a space-separated ply-token sequence or one of the
// recognized error sentinel strings (see the position package's
// sentinel vocabulary).
type Result struct {
	// Cached reports whether the payload came from a cache rather
	// than a fresh engine search.
	Cached bool `json:"cached"`

	// ScoreCP is the centipawn score from White's perspective.
	ScoreCP int `json:"score_cp"`

	// PV is the principal variation, or an error sentinel.
	PV string `json:"pv"`
}

// Fetcher retrieves an evaluation from the service. Implemented by
// Client; tests substitute stubs.
type Fetcher interface {
	Fetch(ctx context.Context, descriptor string, depth int) (Result, error)
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int
	Hits      int64
	Misses    int64
	Discards  int64
	FetchErrs int64
}

// ClampDepth normalizes a caller-supplied depth into [MinDepth,
// MaxDepth], mapping zero to DefaultDepth.
func ClampDepth(depth int) int {
	switch {
	case depth == 0:
		return DefaultDepth
	case depth < MinDepth:
		return MinDepth
	case depth > MaxDepth:
		return MaxDepth
	default:
		return depth
	}
}
