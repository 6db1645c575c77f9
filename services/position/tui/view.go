// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/JansenNye/explain-that-move/services/position"
)

var (
	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	whitePieceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	blackPieceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("172"))
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	modeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	panelStyle      = lipgloss.NewStyle().PaddingLeft(2)
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	board := boardStyle.Render(renderBoard(m.store.ActiveOccupants(), m.flipped))
	panel := panelStyle.Render(m.renderPanel())

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, board, panel))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(":setup :commit :reset :clear :turn :place :drag :flip :quit"))
	b.WriteString("\n")
	return b.String()
}

// renderPanel builds the mode/status/evaluation side panel.
func (m Model) renderPanel() string {
	var lines []string
	lines = append(lines, modeStyle.Render(m.store.Mode().String()))

	if status := m.store.Status(); status != "" {
		lines = append(lines, statusStyle.Render(status))
	}

	if m.eval != nil && m.store.Mode() != position.ModeSetup {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("eval %+.2f", float64(m.eval.Result.ScoreCP)/100))
		lines = append(lines, renderVariation(position.FormatEvaluation(m.eval, pvPlies))...)
	}

	if game := m.store.LastGame(); game != nil && m.store.Mode() == position.ModeLoadedGame {
		lines = append(lines, "")
		if white, ok := game.Tags["White"]; ok {
			lines = append(lines, labelStyle.Render(white+" – "+game.Tags["Black"]))
		}
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%d plies", len(game.SANMoves))))
	}

	return strings.Join(lines, "\n")
}

// renderVariation renders move rows, or the message for sentinel
// results. The distinguished empty variation renders nothing.
func renderVariation(v position.Variation) []string {
	if v.Message != "" {
		return []string{v.Message}
	}
	lines := make([]string, 0, len(v.Rows))
	for _, row := range v.Rows {
		line := row.Label
		if row.First != "" {
			line += " " + row.First
		}
		if row.Second != "" {
			line += " " + row.Second
		}
		lines = append(lines, line)
	}
	return lines
}

// renderBoard draws the 8x8 grid with rank and file labels. Flipped
// puts Black's first rank at the bottom.
func renderBoard(occupants position.Placement, flipped bool) string {
	ranks := []rune("87654321")
	files := []rune("abcdefgh")
	if flipped {
		ranks = []rune("12345678")
		files = []rune("hgfedcba")
	}

	var b strings.Builder
	for _, rank := range ranks {
		b.WriteString(labelStyle.Render(string(rank)))
		b.WriteString(" ")
		for _, file := range files {
			sq := position.Square([]rune{file, rank})
			p, ok := occupants[sq]
			switch {
			case !ok:
				b.WriteString("· ")
			case p.Color == position.White:
				b.WriteString(whitePieceStyle.Render(string(p.FENChar())) + " ")
			default:
				b.WriteString(blackPieceStyle.Render(string(p.FENChar())) + " ")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("  ")
	for _, file := range files {
		b.WriteString(labelStyle.Render(string(file)))
		b.WriteString(" ")
	}
	return b.String()
}
