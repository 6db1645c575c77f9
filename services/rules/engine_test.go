// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JansenNye/explain-that-move/services/position"
)

const promotionFEN = "8/4P3/8/8/8/7k/8/4K3 w - - 0 1"

func TestValidate(t *testing.T) {
	eng := New()

	assert.NoError(t, eng.Validate(position.StartDescriptor))
	assert.NoError(t, eng.Validate(position.SetupDefaultDescriptor))

	err := eng.Validate("not a position")
	assert.ErrorIs(t, err, position.ErrMalformedDescriptor)

	err = eng.Validate("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1")
	assert.ErrorIs(t, err, position.ErrMalformedDescriptor, "seven ranks must be rejected")
}

func TestApplyMove(t *testing.T) {
	eng := New()

	next, err := eng.ApplyMove(position.StartDescriptor, "e2", "e4", "")
	require.NoError(t, err)

	stm, err := position.SideToMove(next)
	require.NoError(t, err)
	assert.Equal(t, position.Black, stm)

	occ, err := eng.Occupants(next)
	require.NoError(t, err)
	_, onOrigin := occ["e2"]
	assert.False(t, onOrigin)
	assert.Equal(t, position.Pawn, occ["e4"].Type)
}

func TestApplyMoveIllegal(t *testing.T) {
	eng := New()

	tests := []struct {
		name     string
		from, to position.Square
	}{
		{"pawn three forward", "e2", "e5"},
		{"empty origin", "e5", "e6"},
		{"opponent piece", "e7", "e5"},
		{"knight to occupied own square", "b1", "d2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.ApplyMove(position.StartDescriptor, tt.from, tt.to, "")
			assert.ErrorIs(t, err, position.ErrIllegalMove)
		})
	}
}

func TestApplyMovePromotion(t *testing.T) {
	eng := New()

	next, err := eng.ApplyMove(promotionFEN, "e7", "e8", "q")
	require.NoError(t, err)

	occ, err := eng.Occupants(next)
	require.NoError(t, err)
	assert.Equal(t, position.Queen, occ["e8"].Type)
	assert.Equal(t, position.White, occ["e8"].Color)
}

func TestApplyMovePromotionRequiresPiece(t *testing.T) {
	eng := New()

	_, err := eng.ApplyMove(promotionFEN, "e7", "e8", "")
	assert.ErrorIs(t, err, position.ErrIllegalMove)
}

func TestApplyMoveCastling(t *testing.T) {
	eng := New()
	castleFEN := "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"

	next, err := eng.ApplyMove(castleFEN, "e1", "g1", "")
	require.NoError(t, err)

	occ, err := eng.Occupants(next)
	require.NoError(t, err)
	assert.Equal(t, position.King, occ["g1"].Type)
	assert.Equal(t, position.Rook, occ["f1"].Type)
}

func TestOccupantsStartPosition(t *testing.T) {
	eng := New()

	occ, err := eng.Occupants(position.StartDescriptor)
	require.NoError(t, err)
	assert.Len(t, occ, 32)
	assert.Equal(t, position.King, occ["e1"].Type)
	assert.Equal(t, position.White, occ["e1"].Color)
	assert.Equal(t, position.Queen, occ["d8"].Type)
	assert.Equal(t, position.Black, occ["d8"].Color)
	_, ok := occ["e4"]
	assert.False(t, ok)
}

func TestLegalTargetsStartPosition(t *testing.T) {
	eng := New()

	targets, err := eng.LegalTargets(position.StartDescriptor)
	require.NoError(t, err)

	// 20 legal first moves from 10 origin squares.
	assert.Len(t, targets, 10)
	assert.ElementsMatch(t, []position.Square{"e3", "e4"}, targets["e2"])
	assert.ElementsMatch(t, []position.Square{"a3", "c3"}, targets["b1"])
}

func TestLegalTargetsDedupesPromotions(t *testing.T) {
	eng := New()

	targets, err := eng.LegalTargets(promotionFEN)
	require.NoError(t, err)

	// Four promotion pieces, one destination square.
	assert.Equal(t, []position.Square{"e8"}, targets["e7"])
}

func TestParseNotation(t *testing.T) {
	eng := New()
	pgn := `[Event "Casual"]
[White "A"]
[Black "B"]

1. e4 e5 2. Nf3 1/2-1/2`

	game, err := eng.ParseNotation(pgn)
	require.NoError(t, err)
	assert.Equal(t, []string{"e4", "e5", "Nf3"}, game.SANMoves)
	assert.Equal(t, "Casual", game.Tags["Event"])

	stm, err := position.SideToMove(game.FinalDescriptor)
	require.NoError(t, err)
	assert.Equal(t, position.Black, stm)
}

func TestParseNotationGarbage(t *testing.T) {
	eng := New()

	_, err := eng.ParseNotation("@@@ definitely not chess @@@")
	assert.Error(t, err)
}

func TestSANLine(t *testing.T) {
	eng := New()

	line, err := eng.SANLine(position.StartDescriptor, []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5"}, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"e4", "e5", "Nf3", "Nc6"}, line)
}

func TestSANLineIllegalMove(t *testing.T) {
	eng := New()

	_, err := eng.SANLine(position.StartDescriptor, []string{"e2e5"}, 4)
	assert.ErrorIs(t, err, position.ErrIllegalMove)
}
