// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/JansenNye/explain-that-move/services/eval"
	"github.com/JansenNye/explain-that-move/services/position"
	"github.com/JansenNye/explain-that-move/services/position/tui"
	"github.com/JansenNye/explain-that-move/services/rules"
)

var analyzePGNPath string // Game file to load on startup

// analyzeCmd opens the interactive analysis board.
//
// # Description
//
// Runs the terminal board over the position store. Evaluations are
// fetched from the analysis server configured under eval.base_url;
// when that server is unreachable the board still works, only the
// evaluation panel stays empty.
//
// # Examples
//
//	etm analyze
//	etm analyze --pgn game.pgn
//	ETM_EVAL_URL=http://localhost:9090 etm analyze
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Open the interactive analysis board",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzePGNPath, "pgn", "", "PGN file to load on startup")
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Quiet logging: stderr writes would corrupt the rendered board.
	logger := newLogger("analyze", true)

	client := eval.NewClient(cfg.Eval.BaseURL, logger)
	cache := eval.NewCache(client, logger)
	store, err := position.NewStore(rules.New(), cache, logger)
	if err != nil {
		return fmt.Errorf("initialize position store: %w", err)
	}

	if analyzePGNPath != "" {
		raw, err := os.ReadFile(analyzePGNPath)
		if err != nil {
			return fmt.Errorf("read pgn file: %w", err)
		}
		store.SetPendingFile(string(raw))
		if err := store.LoadGame(string(raw), position.SourceFile); err != nil {
			return fmt.Errorf("load pgn file: %w", err)
		}
	}

	program := tea.NewProgram(tui.NewModel(store), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run board: %w", err)
	}
	return nil
}
