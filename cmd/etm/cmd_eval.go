// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JansenNye/explain-that-move/services/eval"
	"github.com/JansenNye/explain-that-move/services/explain"
	"github.com/JansenNye/explain-that-move/services/position"
	"github.com/JansenNye/explain-that-move/services/rules"
)

// evalTimeout bounds a one-shot request; deep searches on slow
// hardware can take a while.
const evalTimeout = 2 * time.Minute

// printedPVPlies caps the variation table in terminal output.
const printedPVPlies = 12

var (
	evalDepthFlag int  // Search depth override
	evalNoExplain bool // Skip the explanation
)

// evalCmd evaluates a single position.
//
// # Description
//
// Fetches one evaluation from the analysis server, prints the score
// and the principal variation as numbered move pairs, and appends an
// explanation (LLM-backed when OPENAI_API_KEY is set, deterministic
// otherwise).
//
// # Examples
//
//	etm eval                                     # starting position
//	etm eval "r1bqkbnr/... w KQkq - 2 3"
//	etm eval --depth 25 --no-explain "..."
var evalCmd = &cobra.Command{
	Use:   "eval [fen]",
	Short: "Evaluate a position and explain the verdict",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEval,
}

func init() {
	evalCmd.Flags().IntVar(&evalDepthFlag, "depth", 0, "Search depth (0 uses the configured default)")
	evalCmd.Flags().BoolVar(&evalNoExplain, "no-explain", false, "Print only the score and variation")
}

func runEval(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger("eval", false)

	descriptor := position.StartDescriptor
	if len(args) == 1 {
		descriptor = strings.TrimSpace(args[0])
	}
	ruleset := rules.New()
	if err := ruleset.Validate(descriptor); err != nil {
		return fmt.Errorf("invalid position: %w", err)
	}

	depth := evalDepthFlag
	if depth == 0 {
		depth = cfg.Eval.Depth
	}

	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	client := eval.NewClient(cfg.Eval.BaseURL, logger)
	res, err := client.Fetch(ctx, descriptor, depth)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	printResult(descriptor, res)

	if !evalNoExplain {
		stm, err := position.SideToMove(descriptor)
		if err != nil {
			stm = position.White
		}
		explainer := explain.New(cfg.Explain.APIKey, cfg.Explain.Model, logger)
		text := explainer.Explain(ctx, explain.Request{
			Descriptor: descriptor,
			ScoreCP:    res.ScoreCP,
			PV:         strings.Fields(res.PV),
			SideToMove: stm.String(),
		})
		fmt.Println()
		fmt.Println(text)
	}
	return nil
}

// printResult writes the score and the variation table.
func printResult(descriptor string, res eval.Result) {
	fmt.Printf("score %+.2f", float64(res.ScoreCP)/100)
	if res.Cached {
		fmt.Print("  (cached)")
	}
	fmt.Println()

	stm, err := position.SideToMove(descriptor)
	if err != nil {
		stm = position.White
	}
	fullmove, err := position.FullmoveNumber(descriptor)
	if err != nil {
		fullmove = 1
	}

	v := position.FormatPV(res.PV, stm, fullmove, printedPVPlies)
	switch {
	case v.Message != "":
		fmt.Println(v.Message)
	case v.Empty():
		fmt.Println("no variation")
	default:
		for _, row := range v.Rows {
			line := row.Label
			if row.First != "" {
				line += " " + row.First
			}
			if row.Second != "" {
				line += " " + row.Second
			}
			fmt.Println(line)
		}
	}
}
