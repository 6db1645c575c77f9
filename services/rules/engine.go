// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package rules implements the move-legality and notation collaborator
// on top of github.com/notnil/chess.
//
// The position store delegates everything chess-lawful to this
// package: move application, descriptor acceptance, legal-move
// enumeration, and PGN parsing. Nothing here holds state; an Engine is
// a stateless adapter and is safe for concurrent use.
package rules

import (
	"fmt"
	"strings"

	"github.com/JansenNye/explain-that-move/services/position"
	"github.com/notnil/chess"
)

// Engine adapts notnil/chess to the position.Rules boundary.
type Engine struct{}

// New returns a rules Engine.
func New() *Engine {
	return &Engine{}
}

// Interface check: the store consumes Engine through position.Rules.
var _ position.Rules = (*Engine)(nil)

// Validate reports whether the descriptor parses and is acceptable to
// the chess library.
func (e *Engine) Validate(descriptor string) error {
	if _, err := chess.FEN(descriptor); err != nil {
		return fmt.Errorf("%w: %v", position.ErrMalformedDescriptor, err)
	}
	return nil
}

// ApplyMove applies from→to with an optional promotion ("q", "r", "b",
// or "n") and returns the resulting descriptor. An illegal or
// unparsable move returns position.ErrIllegalMove.
func (e *Engine) ApplyMove(descriptor string, from, to position.Square, promotion string) (string, error) {
	pos, err := parsePosition(descriptor)
	if err != nil {
		return "", err
	}

	uci := string(from) + string(to) + strings.ToLower(promotion)
	move := findLegalMove(pos, uci)
	if move == nil {
		return "", fmt.Errorf("%w: %s", position.ErrIllegalMove, uci)
	}
	return pos.Update(move).String(), nil
}

// findLegalMove matches a UCI string against the position's legal
// moves. Matching against ValidMoves (rather than trusting a decoded
// move) guarantees the returned move carries the library's tags for
// castling and en passant.
func findLegalMove(pos *chess.Position, uci string) *chess.Move {
	notation := chess.UCINotation{}
	for _, move := range pos.ValidMoves() {
		if notation.Encode(pos, move) == uci {
			return move
		}
	}
	return nil
}

// Occupants returns the descriptor's piece placement keyed by
// algebraic square.
func (e *Engine) Occupants(descriptor string) (position.Placement, error) {
	pos, err := parsePosition(descriptor)
	if err != nil {
		return nil, err
	}

	board := pos.Board()
	placement := make(position.Placement)
	for i := 0; i < 64; i++ {
		sq := chess.Square(i)
		piece := board.Piece(sq)
		if piece == chess.NoPiece {
			continue
		}
		converted, err := convertPiece(piece)
		if err != nil {
			return nil, err
		}
		placement[position.Square(sq.String())] = converted
	}
	return placement, nil
}

// LegalTargets groups the side to move's legal moves by origin square.
func (e *Engine) LegalTargets(descriptor string) (map[position.Square][]position.Square, error) {
	pos, err := parsePosition(descriptor)
	if err != nil {
		return nil, err
	}

	targets := make(map[position.Square][]position.Square)
	for _, move := range pos.ValidMoves() {
		from := position.Square(move.S1().String())
		to := position.Square(move.S2().String())
		// Promotions generate one move per promotion piece; the
		// destination square only needs to appear once.
		if !containsSquare(targets[from], to) {
			targets[from] = append(targets[from], to)
		}
	}
	return targets, nil
}

// ParseNotation parses PGN text into the final descriptor, the SAN ply
// history, and the metadata tags.
func (e *Engine) ParseNotation(text string) (*position.LoadedGame, error) {
	update, err := chess.PGN(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", position.ErrMalformedNotation, err)
	}
	game := chess.NewGame(update)

	moves := game.Moves()
	positions := game.Positions()
	san := make([]string, 0, len(moves))
	notation := chess.AlgebraicNotation{}
	for i, move := range moves {
		san = append(san, notation.Encode(positions[i], move))
	}

	tags := make(map[string]string)
	for _, tp := range game.TagPairs() {
		tags[tp.Key] = tp.Value
	}

	return &position.LoadedGame{
		FinalDescriptor: game.Position().String(),
		SANMoves:        san,
		Tags:            tags,
	}, nil
}

// SANLine converts a UCI ply sequence starting at descriptor into SAN
// tokens, truncated to maxPlies (0 means all). Used by the analysis
// server to render engine principal variations the way players read
// them.
func (e *Engine) SANLine(descriptor string, uciMoves []string, maxPlies int) ([]string, error) {
	pos, err := parsePosition(descriptor)
	if err != nil {
		return nil, err
	}
	if maxPlies > 0 && len(uciMoves) > maxPlies {
		uciMoves = uciMoves[:maxPlies]
	}

	sanNotation := chess.AlgebraicNotation{}
	san := make([]string, 0, len(uciMoves))
	for _, uci := range uciMoves {
		move := findLegalMove(pos, uci)
		if move == nil {
			return nil, fmt.Errorf("%w: pv move %q", position.ErrIllegalMove, uci)
		}
		san = append(san, sanNotation.Encode(pos, move))
		pos = pos.Update(move)
	}
	return san, nil
}

// parsePosition builds a chess.Position from a descriptor string.
func parsePosition(descriptor string) (*chess.Position, error) {
	update, err := chess.FEN(descriptor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", position.ErrMalformedDescriptor, err)
	}
	return chess.NewGame(update).Position(), nil
}

// convertPiece maps a library piece to the core's tagged value.
func convertPiece(piece chess.Piece) (position.Piece, error) {
	color := position.White
	if piece.Color() == chess.Black {
		color = position.Black
	}

	var pieceType position.PieceType
	switch piece.Type() {
	case chess.King:
		pieceType = position.King
	case chess.Queen:
		pieceType = position.Queen
	case chess.Rook:
		pieceType = position.Rook
	case chess.Bishop:
		pieceType = position.Bishop
	case chess.Knight:
		pieceType = position.Knight
	case chess.Pawn:
		pieceType = position.Pawn
	default:
		return position.Piece{}, fmt.Errorf("%w: library piece %v", position.ErrInvalidPiece, piece)
	}
	return position.NewPiece(color, pieceType)
}

func containsSquare(squares []position.Square, sq position.Square) bool {
	for _, s := range squares {
		if s == sq {
			return true
		}
	}
	return false
}
