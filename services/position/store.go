// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package position

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/JansenNye/explain-that-move/pkg/logging"
	"github.com/JansenNye/explain-that-move/services/eval"
)

// Evaluation couples a fetched result with the descriptor it was
// requested for, so the caller can format the variation against the
// right side to move and full-move number.
type Evaluation struct {
	Descriptor string
	Result     eval.Result
}

// Store owns the three board slots and the active-mode flag, and
// composes the rules engine, the setup synthesizer, and the
// evaluation cache.
//
// Slot lifecycle: the analysis and setup slots are created at
// construction with their canonical defaults and are only ever reset,
// never destroyed. The loaded-game slot starts empty and is populated
// by the first successful notation load.
//
// Every descriptor change, mode switch, or reset advances an internal
// generation counter; in-flight evaluation fetches capture the counter
// at issue time and their results are discarded if it moved on.
type Store struct {
	mu     sync.Mutex
	rules  Rules
	cache  *eval.Cache
	logger *logging.Logger

	analysis BoardSlot
	loaded   BoardSlot
	setup    BoardSlot
	mode     Mode

	generation uint64

	pendingFile string
	pendingText string
	palette     Piece
	paletteSet  bool
	status      string

	// lastGame keeps the most recent successful load for display
	// (move list, tags). Not a slot; cleared by Reset.
	lastGame *LoadedGame
}

// NewStore creates a Store with the analysis slot at the standard
// start position, the setup slot at the empty-plus-kings default, and
// the loaded-game slot empty. Analysis mode is active.
func NewStore(rules Rules, cache *eval.Cache, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Store{
		rules:  rules,
		cache:  cache,
		logger: logger,
		mode:   ModeAnalysis,
	}
	if err := s.fillSlot(&s.analysis, StartDescriptor); err != nil {
		return nil, fmt.Errorf("initialize analysis slot: %w", err)
	}
	if err := s.fillSlot(&s.setup, SetupDefaultDescriptor); err != nil {
		return nil, fmt.Errorf("initialize setup slot: %w", err)
	}
	return s, nil
}

// fillSlot replaces a slot's descriptor and refreshes its cached
// occupancy. The occupancy is the slot's parsed handle; this is the
// only place it is recomputed.
func (s *Store) fillSlot(slot *BoardSlot, descriptor string) error {
	occ, err := s.rules.Occupants(descriptor)
	if err != nil {
		return err
	}
	slot.descriptor = descriptor
	slot.occupants = occ
	return nil
}

// =============================================================================
// Read accessors
// =============================================================================

// Mode returns the active mode.
func (s *Store) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Status returns the transient status message, empty when clear.
func (s *Store) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ActiveDescriptor returns the active slot's descriptor. Empty until
// the loaded-game slot is populated when that mode is active.
func (s *Store) ActiveDescriptor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeSlotLocked().descriptor
}

// ActiveOccupants returns the active slot's placement. Callers must
// not mutate the returned map.
func (s *Store) ActiveOccupants() Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeSlotLocked().occupants
}

// Descriptor returns the named slot's descriptor.
func (s *Store) Descriptor(m Mode) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slotLocked(m).descriptor
}

// LastGame returns the most recently loaded game, or nil.
func (s *Store) LastGame() *LoadedGame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastGame
}

// LegalTargets enumerates legal destinations per origin square for the
// active board; the widget uses it to constrain what a user may
// attempt. Returns an empty map in setup mode or for an empty slot.
func (s *Store) LegalTargets() (map[Square][]Square, error) {
	s.mu.Lock()
	desc := s.activeSlotLocked().descriptor
	mode := s.mode
	s.mu.Unlock()

	if mode == ModeSetup || desc == "" {
		return map[Square][]Square{}, nil
	}
	return s.rules.LegalTargets(desc)
}

func (s *Store) activeSlotLocked() *BoardSlot {
	return s.slotLocked(s.mode)
}

func (s *Store) slotLocked(m Mode) *BoardSlot {
	switch m {
	case ModeLoadedGame:
		return &s.loaded
	case ModeSetup:
		return &s.setup
	default:
		return &s.analysis
	}
}

// =============================================================================
// Transient buffers
// =============================================================================

// SetPastedText stages notation text pasted by the user.
func (s *Store) SetPastedText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingText = text
}

// SetPendingFile stages notation text read from a file.
func (s *Store) SetPendingFile(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingFile = content
}

// PastedText returns the staged pasted text.
func (s *Store) PastedText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingText
}

// PendingFile returns the staged file content.
func (s *Store) PendingFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingFile
}

// SelectPalette picks the piece subsequent setup clicks will place.
// The zero Piece selects the eraser.
func (s *Store) SelectPalette(p Piece) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.palette = p
	s.paletteSet = true
}

// SelectedPalette returns the current palette selection; ok is false
// when nothing has been selected.
func (s *Store) SelectedPalette() (Piece, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.palette, s.paletteSet
}

// ClickSquare applies the selected palette piece to a setup square.
// Without a selection it is a no-op.
func (s *Store) ClickSquare(sq Square) error {
	s.mu.Lock()
	selected := s.paletteSet
	p := s.palette
	s.mu.Unlock()

	if !selected {
		return nil
	}
	return s.Place(sq, p)
}

// =============================================================================
// Operations
// =============================================================================

// ApplyMove applies a user move to the analysis board. Valid only
// while analysis mode is active; legality and application are
// delegated to the rules engine. On rejection the slot is left
// byte-for-byte unchanged and an "invalid move" status is reported.
func (s *Store) ApplyMove(from, to Square, promotion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeAnalysis {
		return ErrWrongMode
	}

	next, err := s.rules.ApplyMove(s.analysis.descriptor, from, to, promotion)
	if err != nil {
		s.status = "invalid move"
		return fmt.Errorf("%w: %s-%s", ErrIllegalMove, from, to)
	}

	if err := s.fillSlot(&s.analysis, next); err != nil {
		// The rules engine produced the descriptor; failing to re-read
		// it would be a bug in the collaborator.
		s.status = "invalid move"
		return fmt.Errorf("reparse applied move: %w", err)
	}
	s.generation++
	s.status = ""
	return nil
}

// LoadGame parses notation text and, on success, populates the
// loaded-game slot and makes it active.
//
// A load succeeds when the parse yields at least one ply, or the
// resulting descriptor differs from the default start descriptor, or
// metadata tags were parsed and the raw text carries a recognizable
// header marker. On failure no slot is mutated and the user's pending
// input is preserved for correction.
func (s *Store) LoadGame(text string, source LoadSource) error {
	game, err := s.rules.ParseNotation(text)
	if err == nil && !loadRecognized(game, text) {
		err = ErrMalformedNotation
	}
	if err != nil {
		s.mu.Lock()
		s.status = loadFailureStatus(source)
		s.mu.Unlock()
		s.logger.Warn("game load failed", "source", sourceName(source), "error", err.Error())
		return fmt.Errorf("%w: %v", ErrMalformedNotation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fillSlot(&s.loaded, game.FinalDescriptor); err != nil {
		s.status = loadFailureStatus(source)
		return fmt.Errorf("%w: %v", ErrMalformedNotation, err)
	}
	s.lastGame = game
	s.mode = ModeLoadedGame
	s.pendingFile = ""
	s.pendingText = ""
	s.generation++
	s.status = ""
	s.logger.Info("game loaded",
		"plies", len(game.SANMoves),
		"tags", len(game.Tags),
		"source", sourceName(source),
	)
	return nil
}

// EnterSetupMode copies the currently active descriptor into the setup
// slot as a starting point and activates setup mode. Active
// descriptors always satisfy the king-presence invariant, so no
// correction is needed.
func (s *Store) EnterSetupMode() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeSetup {
		return nil
	}

	if desc := s.activeSlotLocked().descriptor; desc != "" {
		if err := s.fillSlot(&s.setup, desc); err != nil {
			return fmt.Errorf("enter setup mode: %w", err)
		}
	}
	s.mode = ModeSetup
	s.generation++
	s.status = ""
	return nil
}

// CommitSetupForAnalysis copies the setup slot's descriptor verbatim
// into the analysis slot and switches to analysis mode. Later setup
// edits never retroactively affect the committed descriptor.
func (s *Store) CommitSetupForAnalysis() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fillSlot(&s.analysis, s.setup.descriptor); err != nil {
		return fmt.Errorf("commit setup: %w", err)
	}
	s.mode = ModeAnalysis
	s.generation++
	s.status = ""
	return nil
}

// Reset restores the analysis and loaded-game slots to the default
// start position and, when setup mode is active, the setup slot to its
// empty-plus-kings default. Transient buffers and the status message
// are cleared. The active mode does not change.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fillSlot(&s.analysis, StartDescriptor); err != nil {
		return fmt.Errorf("reset analysis slot: %w", err)
	}
	if err := s.fillSlot(&s.loaded, StartDescriptor); err != nil {
		return fmt.Errorf("reset loaded-game slot: %w", err)
	}
	if s.mode == ModeSetup {
		if err := s.fillSlot(&s.setup, SetupDefaultDescriptor); err != nil {
			return fmt.Errorf("reset setup slot: %w", err)
		}
	}
	s.lastGame = nil
	s.pendingFile = ""
	s.pendingText = ""
	s.palette = Piece{}
	s.paletteSet = false
	s.status = ""
	s.generation++
	return nil
}

// SwitchMode changes which slot is displayed and interactive.
// Switching away from the loaded-game input discards the staged
// upload buffers (never the slot's descriptor); switching away from
// setup discards nothing, so the setup board can be resumed later.
func (s *Store) SwitchMode(target Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if target == s.mode {
		return
	}
	if s.mode == ModeLoadedGame {
		s.pendingFile = ""
		s.pendingText = ""
	}
	s.mode = target
	s.generation++
	s.status = ""
}

// =============================================================================
// Evaluation
// =============================================================================

// EvaluateActive requests an evaluation for the active descriptor.
//
// The cache lookup and fetch issue happen against a single snapshot of
// the store, so at most one fetch is initiated per state transition.
// The returned Evaluation is nil without error when no evaluation
// applies: setup mode (excluded by design), an empty slot, or a
// response that arrived after the position moved on.
func (s *Store) EvaluateActive(ctx context.Context, depth int) (*Evaluation, error) {
	if s.cache == nil {
		return nil, nil
	}
	s.mu.Lock()
	if s.mode == ModeSetup {
		s.mu.Unlock()
		return nil, nil
	}
	desc := s.activeSlotLocked().descriptor
	if desc == "" {
		s.mu.Unlock()
		return nil, nil
	}
	gen := s.generation
	s.mu.Unlock()

	live := func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.generation == gen
	}

	res, ok, err := s.cache.Request(ctx, desc, depth, live)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &Evaluation{Descriptor: desc, Result: res}, nil
}

// FormatEvaluation renders an Evaluation's principal variation using
// the descriptor's side to move and full-move number.
func FormatEvaluation(ev *Evaluation, maxPlies int) Variation {
	if ev == nil {
		return Variation{}
	}
	stm, err := SideToMove(ev.Descriptor)
	if err != nil {
		stm = White
	}
	fullmove, err := FullmoveNumber(ev.Descriptor)
	if err != nil {
		fullmove = 1
	}
	return FormatPV(ev.Result.PV, stm, fullmove, maxPlies)
}

// =============================================================================
// Helpers
// =============================================================================

// loadRecognized applies the three-way load-success test.
func loadRecognized(game *LoadedGame, raw string) bool {
	if len(game.SANMoves) > 0 {
		return true
	}
	if game.FinalDescriptor != StartDescriptor {
		return true
	}
	return len(game.Tags) > 0 && strings.Contains(raw, "[")
}

func loadFailureStatus(source LoadSource) string {
	if source == SourceFile {
		return "failed to load game from file"
	}
	return "failed to load game from pasted text"
}

func sourceName(source LoadSource) string {
	if source == SourceFile {
		return "file"
	}
	return "text"
}
