// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tui provides the interactive analysis board.
//
// # Description
//
// This package implements the terminal front end over the position
// store using bubbletea. Moves are typed in coordinate form ("e2e4",
// "e7e8q"); everything else is a colon command (":setup", ":reset",
// ":flip", ...). Evaluations run as background commands so the board
// stays responsive while the engine service works.
//
// # Thread Safety
//
// The model itself is single-threaded inside the bubbletea event
// loop. The position store it drives is safe for concurrent use, which
// is what lets evaluation commands run off-loop.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JansenNye/explain-that-move/services/position"
)

// evalDepth is the search depth requested for board evaluations; zero
// lets the evaluation client apply its default.
const evalDepth = 0

// pvPlies caps how many plies of the variation the side panel shows.
const pvPlies = 8

// =============================================================================
// Messages
// =============================================================================

// evalMsg delivers a finished evaluation to the event loop. Ev is nil
// when no evaluation applies (setup mode, superseded position).
type evalMsg struct {
	ev  *position.Evaluation
	err error
}

// =============================================================================
// Model
// =============================================================================

// Model is the bubbletea model for the analysis board.
type Model struct {
	store *position.Store
	input textinput.Model

	// Last evaluation shown in the side panel, nil when none.
	eval *position.Evaluation

	flipped  bool
	width    int
	height   int
	quitting bool
}

// NewModel creates a model over the given store.
func NewModel(store *position.Store) Model {
	input := textinput.New()
	input.Placeholder = "move (e2e4) or :command"
	input.CharLimit = 64
	input.Focus()

	return Model{
		store: store,
		input: input,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.evalCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case evalMsg:
		// Errors already surface through the store's status line; a
		// nil result simply leaves the previous panel in place.
		if msg.err == nil && msg.ev != nil {
			m.eval = msg.ev
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if text == "" {
				return m, nil
			}
			return m.execute(text)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// execute dispatches one line of user input.
func (m Model) execute(text string) (tea.Model, tea.Cmd) {
	if strings.HasPrefix(text, ":") {
		return m.executeCommand(text)
	}

	from, to, promotion, ok := parseMove(text)
	if !ok {
		// The store owns the status line for rules rejections; input
		// that is not even coordinate-shaped never reaches it.
		return m, nil
	}
	if err := m.store.ApplyMove(from, to, promotion); err != nil {
		return m, nil
	}
	m.eval = nil
	return m, m.evalCmd()
}

// executeCommand handles colon commands.
func (m Model) executeCommand(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	switch fields[0] {
	case ":quit", ":q":
		m.quitting = true
		return m, tea.Quit

	case ":flip":
		m.flipped = !m.flipped
		return m, nil

	case ":setup":
		if err := m.store.EnterSetupMode(); err == nil {
			m.eval = nil
		}
		return m, nil

	case ":analysis":
		m.store.SwitchMode(position.ModeAnalysis)
		m.eval = nil
		return m, m.evalCmd()

	case ":game":
		m.store.SwitchMode(position.ModeLoadedGame)
		m.eval = nil
		return m, m.evalCmd()

	case ":commit":
		if err := m.store.CommitSetupForAnalysis(); err != nil {
			return m, nil
		}
		m.eval = nil
		return m, m.evalCmd()

	case ":reset":
		if err := m.store.Reset(); err != nil {
			return m, nil
		}
		m.eval = nil
		return m, m.evalCmd()

	case ":clear":
		_ = m.store.ClearBoard()
		return m, nil

	case ":turn":
		_ = m.store.ToggleTurn()
		return m, nil

	case ":place":
		// :place d4 Q  (upper case white, lower case black, "x" erases)
		if len(fields) == 3 {
			if p, ok := parsePaletteToken(fields[2]); ok {
				_ = m.store.Place(position.Square(fields[1]), p)
			}
		}
		return m, nil

	case ":drag":
		if len(fields) == 3 {
			_ = m.store.DragRelocate(position.Square(fields[1]), position.Square(fields[2]))
		}
		return m, nil

	case ":eval":
		return m, m.evalCmd()
	}
	return m, nil
}

// evalCmd requests an evaluation of the active board off-loop.
func (m Model) evalCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ev, err := store.EvaluateActive(context.Background(), evalDepth)
		return evalMsg{ev: ev, err: err}
	}
}

// =============================================================================
// Input parsing
// =============================================================================

// parseMove splits coordinate move text ("e2e4", "e7e8q") into its
// parts. Promotion letters are lower-cased.
func parseMove(text string) (from, to position.Square, promotion string, ok bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if len(text) != 4 && len(text) != 5 {
		return "", "", "", false
	}

	from = position.Square(text[:2])
	to = position.Square(text[2:4])
	if !from.Valid() || !to.Valid() {
		return "", "", "", false
	}

	if len(text) == 5 {
		promotion = text[4:]
		switch promotion {
		case "q", "r", "b", "n":
		default:
			return "", "", "", false
		}
	}
	return from, to, promotion, true
}

// parsePaletteToken maps a FEN-style letter to a piece; "x" selects
// the eraser (the zero Piece).
func parsePaletteToken(token string) (position.Piece, bool) {
	if token == "x" || token == "X" {
		return position.Piece{}, true
	}
	runes := []rune(token)
	if len(runes) != 1 {
		return position.Piece{}, false
	}
	p, err := position.PieceFromFEN(runes[0])
	if err != nil {
		return position.Piece{}, false
	}
	return p, true
}
