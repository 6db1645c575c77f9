// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command etm is the explain-that-move CLI.
//
// Usage:
//
//	etm serve              # start the analysis HTTP server
//	etm analyze            # open the interactive board
//	etm eval [fen]         # one-shot evaluation with explanation
//
// Configuration comes from an optional YAML file (--config) plus
// environment overrides (ETM_SERVER_ADDR, ETM_ENGINE_PATH,
// ETM_EVAL_URL, ETM_DATA_DIR, ETM_DEPTH, OPENAI_API_KEY).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JansenNye/explain-that-move/pkg/config"
	"github.com/JansenNye/explain-that-move/pkg/logging"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

var (
	configPath string // Optional YAML config file
	debugMode  bool   // Verbose logging
)

var rootCmd = &cobra.Command{
	Use:   "etm",
	Short: "Interactive chess analysis with engine evaluations",
	Long: `explain-that-move is an interactive chess position manager.

It keeps three boards (free analysis, a loaded game, and a setup
board), fetches engine evaluations through a caching client, and can
explain the engine's verdict in plain language.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(evalCmd)
}

// loadConfig builds the effective configuration for a command run.
func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

// newLogger builds the service logger honoring --debug.
func newLogger(service string, quiet bool) *logging.Logger {
	level := logging.LevelInfo
	if debugMode {
		level = logging.LevelDebug
	}
	return logging.New(logging.Config{
		Level:   level,
		Service: service,
		Quiet:   quiet,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
