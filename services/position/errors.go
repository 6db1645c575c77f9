// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package position manages the interactive chess-position state.
//
// The package owns three independently mutable board slots — the live
// analysis board, a board loaded from game notation, and a manually
// edited setup board — with exactly one active at a time. It applies
// moves through the rules-engine collaborator, synthesizes descriptors
// from freeform setup edits, formats engine variations for display,
// and coordinates evaluation fetches through the eval cache so that
// rapid interaction never commits a stale result.
//
// # Concurrency
//
// All mutations happen synchronously in response to a discrete
// triggering event. Store methods take an internal mutex so that the
// asynchronous evaluation fetch can check liveness safely, but there
// is no parallel mutation within the core.
package position

import "errors"

// Sentinel errors for position operations.
var (
	// ErrIllegalMove is returned by the rules engine when a move is
	// rejected. The slot is left byte-for-byte unchanged.
	ErrIllegalMove = errors.New("illegal move")

	// ErrMalformedNotation is returned when notation text yields
	// nothing recognizable. No slot is mutated.
	ErrMalformedNotation = errors.New("malformed game notation")

	// ErrInvalidSetup is returned when a synthesized setup descriptor
	// is rejected; the setup slot keeps its previous descriptor.
	ErrInvalidSetup = errors.New("invalid setup position")

	// ErrInvalidPiece is returned when constructing a piece from an
	// unknown color or type.
	ErrInvalidPiece = errors.New("invalid piece")

	// ErrMalformedDescriptor is returned when a descriptor string does
	// not have the six expected fields.
	ErrMalformedDescriptor = errors.New("malformed position descriptor")

	// ErrWrongMode is returned when an operation is invoked while a
	// mode it does not apply to is active (e.g. a move outside
	// analysis mode).
	ErrWrongMode = errors.New("operation not valid in current mode")
)
