// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package position

import (
	"fmt"
	"strings"
)

// Home squares used for the clear-board kings and for castling-rights
// derivation.
const (
	whiteKingHome = Square("e1")
	blackKingHome = Square("e8")
)

// cornerPair is one king/rook pairing that grants a castling right
// when both pieces sit on their canonical home squares with the
// canonical color.
type cornerPair struct {
	right    byte
	color    Color
	kingHome Square
	rookHome Square
}

// Checked independently; any pair not satisfied omits that right.
var cornerPairs = [4]cornerPair{
	{'K', White, whiteKingHome, "h1"},
	{'Q', White, whiteKingHome, "a1"},
	{'k', Black, blackKingHome, "h8"},
	{'q', Black, blackKingHome, "a8"},
}

// =============================================================================
// Setup-board edit operations
// =============================================================================

// Place removes any occupant of sq, then places p there unless p is
// the empty sentinel. Valid only in setup mode. The edit is discarded
// if the resulting descriptor is rejected.
func (s *Store) Place(sq Square, p Piece) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeSetup {
		return ErrWrongMode
	}
	if !sq.Valid() {
		return fmt.Errorf("%w: square %q", ErrInvalidSetup, sq)
	}

	next := s.setup.occupants.Clone()
	delete(next, sq)
	if p.Valid() {
		next[sq] = p
	}
	return s.commitSetupLocked(next, s.setupTurnLocked())
}

// DragRelocate moves the occupant of from onto to, overwriting
// whatever was on to. A drag from an empty square is a no-op.
func (s *Store) DragRelocate(from, to Square) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeSetup {
		return ErrWrongMode
	}
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: squares %q %q", ErrInvalidSetup, from, to)
	}

	moving, ok := s.setup.occupants[from]
	if !ok {
		return nil
	}
	if from == to {
		return nil
	}

	next := s.setup.occupants.Clone()
	delete(next, from)
	next[to] = moving
	return s.commitSetupLocked(next, s.setupTurnLocked())
}

// ClearBoard empties the setup board, then unconditionally places one
// king of each color on its home square. This keeps the king-presence
// invariant intact after a full clear.
func (s *Store) ClearBoard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeSetup {
		return ErrWrongMode
	}

	next := Placement{
		whiteKingHome: {Color: White, Type: King},
		blackKingHome: {Color: Black, Type: King},
	}
	return s.commitSetupLocked(next, s.setupTurnLocked())
}

// ToggleTurn flips the setup board's side to move and re-synthesizes
// the descriptor from the current placement.
func (s *Store) ToggleTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeSetup {
		return ErrWrongMode
	}
	return s.commitSetupLocked(s.setup.occupants.Clone(), s.setupTurnLocked().Other())
}

// setupTurnLocked reads the setup slot's side to move. The setup
// descriptor is always well-formed, so a parse failure here means a
// bug; White is the safe fallback.
func (s *Store) setupTurnLocked() Color {
	turn, err := SideToMove(s.setup.descriptor)
	if err != nil {
		return White
	}
	return turn
}

// commitSetupLocked synthesizes and validates a descriptor for the
// edited placement. On rejection the setup slot keeps its previous
// descriptor and the edit is discarded; a status message is still
// reported.
func (s *Store) commitSetupLocked(placement Placement, turn Color) error {
	desc, err := SynthesizeDescriptor(placement, turn)
	if err == nil {
		err = s.rules.Validate(desc)
	}
	if err != nil {
		s.status = "invalid setup position"
		s.logger.Warn("setup edit rejected", "error", err.Error())
		return fmt.Errorf("%w: %v", ErrInvalidSetup, err)
	}

	s.setup.descriptor = desc
	s.setup.occupants = placement
	s.generation++
	s.status = ""
	return nil
}

// =============================================================================
// Descriptor synthesis
// =============================================================================

// SynthesizeDescriptor derives a full position descriptor from a
// placement and side to move.
//
// Castling rights are derived per corner pair: a right is granted only
// when its king and rook occupy their home squares with the canonical
// color. The en-passant target is "none", the halfmove clock 0, the
// fullmove number 1.
//
// The placement must contain exactly one king per color; this core
// never produces a descriptor violating that, whatever the edits.
func SynthesizeDescriptor(placement Placement, sideToMove Color) (string, error) {
	if n := placement.kingCount(White); n != 1 {
		return "", fmt.Errorf("%w: %d white kings", ErrInvalidSetup, n)
	}
	if n := placement.kingCount(Black); n != 1 {
		return "", fmt.Errorf("%w: %d black kings", ErrInvalidSetup, n)
	}

	return strings.Join([]string{
		placementField(placement),
		sideToMove.FEN(),
		castlingField(placement),
		"-",
		"0",
		"1",
	}, " "), nil
}

// placementField renders the ranks-8-to-1 piece placement with
// run-length encoded empties.
func placementField(placement Placement) string {
	var b strings.Builder
	for rank := 7; rank >= 0; rank-- {
		if rank < 7 {
			b.WriteByte('/')
		}
		empty := 0
		for file := 0; file < 8; file++ {
			p, ok := placement[squareAt(file, rank)]
			if !ok || !p.Valid() {
				empty++
				continue
			}
			if empty > 0 {
				b.WriteByte(byte('0' + empty))
				empty = 0
			}
			b.WriteByte(p.FENChar())
		}
		if empty > 0 {
			b.WriteByte(byte('0' + empty))
		}
	}
	return b.String()
}

// castlingField checks the four corner pairs independently.
func castlingField(placement Placement) string {
	var b strings.Builder
	for _, pair := range cornerPairs {
		king, okK := placement[pair.kingHome]
		rook, okR := placement[pair.rookHome]
		if okK && okR &&
			king.Type == King && king.Color == pair.color &&
			rook.Type == Rook && rook.Color == pair.color {
			b.WriteByte(pair.right)
		}
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}
