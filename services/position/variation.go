// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package position

import (
	"strconv"
	"strings"
)

// Sentinel tokens the evaluation service may return in place of a
// principal variation. They are a fixed vocabulary; anything carrying
// the generic error prefix is treated the same way.
const (
	SentinelNoScore           = "no score available"
	SentinelEngineUnavailable = "engine unavailable"
	SentinelEmptyVariation    = "empty variation"
)

// genericErrorPrefix marks ad hoc error strings from the service.
const genericErrorPrefix = "error"

// MoveRow is one rendered move pair. First or Second is empty when the
// corresponding half of the pair is absent (mid-pair start, odd tail).
type MoveRow struct {
	Label  string
	First  string
	Second string
}

// Variation is the displayable form of an evaluation's principal
// variation. Exactly one of three shapes:
//
//   - Rows non-empty: a normal move table.
//   - Message non-empty: an error sentinel rendered as prose.
//   - Both empty: the distinguished "no variation" result.
type Variation struct {
	Rows    []MoveRow
	Message string
}

// Empty reports the distinguished "no variation" result, which is
// distinct from any error sentinel.
func (v Variation) Empty() bool {
	return len(v.Rows) == 0 && v.Message == ""
}

// FormatPV renders a raw principal-variation string for display.
//
// Error sentinels bypass pairing entirely and come back as a single
// human-readable message. Otherwise the string is split into ply
// tokens and passed to FormatVariation with the active descriptor's
// side to move and full-move number.
func FormatPV(pv string, sideToMove Color, fullmove, maxPlies int) Variation {
	if msg, ok := sentinelMessage(pv); ok {
		return Variation{Message: msg}
	}
	return FormatVariation(strings.Fields(pv), sideToMove, fullmove, maxPlies)
}

// FormatVariation pairs a flat ply-token sequence into move rows.
//
// firstMover is the side that plays tokens[0]; fullmove is the game's
// full-move number at that ply; maxPlies caps how many tokens are
// rendered. When the sequence starts with Black the first row holds a
// single move labeled with an ellipsis (e.g. "12…"), after which
// pairing continues from White with the counter advanced.
func FormatVariation(tokens []string, firstMover Color, fullmove, maxPlies int) Variation {
	if maxPlies < 0 {
		maxPlies = 0
	}
	if len(tokens) > maxPlies {
		tokens = tokens[:maxPlies]
	}
	if len(tokens) == 0 {
		return Variation{}
	}
	if fullmove < 1 {
		fullmove = 1
	}

	var rows []MoveRow

	if firstMover == Black {
		rows = append(rows, MoveRow{
			Label:  strconv.Itoa(fullmove) + "…",
			Second: tokens[0],
		})
		fullmove++
		tokens = tokens[1:]
	}

	for i := 0; i < len(tokens); i += 2 {
		row := MoveRow{
			Label: strconv.Itoa(fullmove) + ".",
			First: tokens[i],
		}
		if i+1 < len(tokens) {
			row.Second = tokens[i+1]
		}
		rows = append(rows, row)
		fullmove++
	}

	return Variation{Rows: rows}
}

// sentinelMessage maps a recognized sentinel to explanatory prose.
func sentinelMessage(pv string) (string, bool) {
	trimmed := strings.TrimSpace(pv)
	switch trimmed {
	case SentinelNoScore:
		return "The engine returned no score for this position.", true
	case SentinelEngineUnavailable:
		return "The analysis engine is currently unavailable.", true
	case SentinelEmptyVariation:
		return "The engine found no continuation to show.", true
	}
	if strings.HasPrefix(strings.ToLower(trimmed), genericErrorPrefix) {
		return "Engine error: " + trimmed, true
	}
	return "", false
}

