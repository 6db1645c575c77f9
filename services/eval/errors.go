// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package eval caches position evaluations and orchestrates fetches
// from the evaluation service.
//
// The cache is keyed by position descriptor (string equality) and is
// unbounded for the process lifetime. Fetches are deduplicated per
// descriptor with singleflight, and results are committed only if the
// requesting context is still live at completion time, so a rapidly
// changing current position can never commit a stale result.
package eval

import "errors"

// Sentinel errors for evaluation fetches.
var (
	// ErrFetchFailed wraps transport or decode failures reaching the
	// evaluation service. Not cached; surfaced as "no evaluation
	// available".
	ErrFetchFailed = errors.New("evaluation fetch failed")

	// ErrBadStatus is returned when the service answers with a
	// non-200 status.
	ErrBadStatus = errors.New("evaluation service returned an error status")
)
