// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package position

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Canonical descriptors for the slot defaults.
const (
	// StartDescriptor is the standard chess starting position.
	StartDescriptor = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

	// SetupDefaultDescriptor is the setup slot's default: an empty board
	// with one king per side on the home squares.
	SetupDefaultDescriptor = "4k3/8/8/8/8/8/8/4K3 w - - 0 1"
)

// =============================================================================
// Colors and Pieces
// =============================================================================

// Color is a side, White or Black.
type Color uint8

const (
	White Color = iota
	Black
)

// String returns "white" or "black".
func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// FEN returns the descriptor's side-to-move field, "w" or "b".
func (c Color) FEN() string {
	if c == Black {
		return "b"
	}
	return "w"
}

// Other returns the opposing color.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// PieceType is a chess piece kind. The zero value means "no piece",
// which makes the zero Piece a natural empty-square sentinel.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	King
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

// letter returns the upper-case FEN letter for the type.
func (t PieceType) letter() byte {
	switch t {
	case King:
		return 'K'
	case Queen:
		return 'Q'
	case Rook:
		return 'R'
	case Bishop:
		return 'B'
	case Knight:
		return 'N'
	case Pawn:
		return 'P'
	default:
		return '?'
	}
}

// String returns a human-readable name, e.g. "knight".
func (t PieceType) String() string {
	switch t {
	case King:
		return "king"
	case Queen:
		return "queen"
	case Rook:
		return "rook"
	case Bishop:
		return "bishop"
	case Knight:
		return "knight"
	case Pawn:
		return "pawn"
	default:
		return "none"
	}
}

// Piece is a tagged color+type pair, validated at construction rather
// than parsed ad hoc at each use site. The zero value is "no piece".
type Piece struct {
	Color Color
	Type  PieceType
}

// NewPiece constructs a validated Piece.
func NewPiece(c Color, t PieceType) (Piece, error) {
	if c != White && c != Black {
		return Piece{}, fmt.Errorf("%w: color %d", ErrInvalidPiece, c)
	}
	if t < King || t > Pawn {
		return Piece{}, fmt.Errorf("%w: type %d", ErrInvalidPiece, t)
	}
	return Piece{Color: c, Type: t}, nil
}

// Valid reports whether p denotes an actual piece (not the empty
// sentinel).
func (p Piece) Valid() bool {
	return p.Type != NoPieceType
}

// FENChar returns the piece's FEN letter: upper case for White, lower
// case for Black. Undefined for the empty sentinel.
func (p Piece) FENChar() byte {
	ch := p.Type.letter()
	if p.Color == Black {
		ch = byte(unicode.ToLower(rune(ch)))
	}
	return ch
}

// String returns e.g. "white knight", or "empty" for the sentinel.
func (p Piece) String() string {
	if !p.Valid() {
		return "empty"
	}
	return p.Color.String() + " " + p.Type.String()
}

// PieceFromFEN converts a FEN piece letter to a Piece.
func PieceFromFEN(r rune) (Piece, error) {
	color := White
	if unicode.IsLower(r) {
		color = Black
	}
	switch unicode.ToUpper(r) {
	case 'K':
		return NewPiece(color, King)
	case 'Q':
		return NewPiece(color, Queen)
	case 'R':
		return NewPiece(color, Rook)
	case 'B':
		return NewPiece(color, Bishop)
	case 'N':
		return NewPiece(color, Knight)
	case 'P':
		return NewPiece(color, Pawn)
	default:
		return Piece{}, fmt.Errorf("%w: %q", ErrInvalidPiece, r)
	}
}

// =============================================================================
// Squares and Placements
// =============================================================================

// Square is an algebraic square name, "a1" through "h8".
type Square string

// Valid reports whether sq names a real square.
func (sq Square) Valid() bool {
	if len(sq) != 2 {
		return false
	}
	return sq[0] >= 'a' && sq[0] <= 'h' && sq[1] >= '1' && sq[1] <= '8'
}

// file returns 0..7 for files a..h.
func (sq Square) file() int { return int(sq[0] - 'a') }

// rank returns 0..7 for ranks 1..8.
func (sq Square) rank() int { return int(sq[1] - '1') }

// squareAt returns the square for file 0..7 and rank 0..7.
func squareAt(file, rank int) Square {
	return Square([]byte{byte('a' + file), byte('1' + rank)})
}

// Placement maps occupied squares to pieces. Squares absent from the
// map are empty.
type Placement map[Square]Piece

// Clone returns an independent copy of the placement.
func (pl Placement) Clone() Placement {
	out := make(Placement, len(pl))
	for sq, p := range pl {
		out[sq] = p
	}
	return out
}

// kingCount returns the number of kings of the given color.
func (pl Placement) kingCount(c Color) int {
	n := 0
	for _, p := range pl {
		if p.Type == King && p.Color == c {
			n++
		}
	}
	return n
}

// =============================================================================
// Modes and Slots
// =============================================================================

// Mode names one of the three board slots; exactly one is active.
type Mode int

const (
	// ModeAnalysis is the live analysis board.
	ModeAnalysis Mode = iota

	// ModeLoadedGame is the board loaded from game notation.
	ModeLoadedGame

	// ModeSetup is the manually edited setup board.
	ModeSetup
)

// String returns "analysis", "loaded-game", or "setup".
func (m Mode) String() string {
	switch m {
	case ModeLoadedGame:
		return "loaded-game"
	case ModeSetup:
		return "setup"
	default:
		return "analysis"
	}
}

// LoadSource identifies how notation text reached LoadGame. It only
// affects the wording of the failure status.
type LoadSource int

const (
	SourceText LoadSource = iota
	SourceFile
)

// BoardSlot holds one board representation: its descriptor plus the
// parsed occupancy derived from it. The occupancy is the cached
// "parsed handle" — recomputed only when the descriptor changes, never
// on every read.
type BoardSlot struct {
	descriptor string
	occupants  Placement
}

// Descriptor returns the slot's current position descriptor.
func (s *BoardSlot) Descriptor() string { return s.descriptor }

// Occupants returns the slot's piece placement. Callers must not
// mutate the returned map.
func (s *BoardSlot) Occupants() Placement { return s.occupants }

// =============================================================================
// Rules-engine boundary
// =============================================================================

// LoadedGame is the result of parsing game notation.
type LoadedGame struct {
	// FinalDescriptor is the position after the last parsed ply.
	FinalDescriptor string

	// SANMoves is the ply history in standard algebraic notation.
	SANMoves []string

	// Tags holds the notation's metadata tag pairs.
	Tags map[string]string
}

// Rules is the move-legality and notation collaborator. The store
// never second-guesses it: legality, move application, and descriptor
// acceptance are delegated entirely.
type Rules interface {
	// Validate reports whether the descriptor is syntactically valid
	// and acceptable to the rules engine.
	Validate(descriptor string) error

	// ApplyMove applies from→to (promotion may be empty, otherwise one
	// of "q","r","b","n") to the descriptor and returns the resulting
	// descriptor. Returns ErrIllegalMove for rejected moves.
	ApplyMove(descriptor string, from, to Square, promotion string) (string, error)

	// Occupants returns the descriptor's piece placement.
	Occupants(descriptor string) (Placement, error)

	// LegalTargets enumerates, for each occupied origin square of the
	// side to move, the destination squares the rules engine accepts.
	LegalTargets(descriptor string) (map[Square][]Square, error)

	// ParseNotation parses game notation text (PGN) into a final
	// descriptor, a ply history, and metadata tags.
	ParseNotation(text string) (*LoadedGame, error)
}

// =============================================================================
// Descriptor field helpers
// =============================================================================

// SideToMove extracts the descriptor's side-to-move field.
func SideToMove(descriptor string) (Color, error) {
	fields := strings.Fields(descriptor)
	if len(fields) < 2 {
		return White, fmt.Errorf("%w: %q", ErrMalformedDescriptor, descriptor)
	}
	switch fields[1] {
	case "w":
		return White, nil
	case "b":
		return Black, nil
	default:
		return White, fmt.Errorf("%w: side-to-move %q", ErrMalformedDescriptor, fields[1])
	}
}

// FullmoveNumber extracts the descriptor's full-move number.
func FullmoveNumber(descriptor string) (int, error) {
	fields := strings.Fields(descriptor)
	if len(fields) < 6 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedDescriptor, descriptor)
	}
	n, err := strconv.Atoi(fields[5])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: full-move %q", ErrMalformedDescriptor, fields[5])
	}
	return n, nil
}
