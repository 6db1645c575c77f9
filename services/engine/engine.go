// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package engine drives a UCI chess engine (stockfish) over
// stdin/stdout.
//
// One engine process is started per Engine value and reused for every
// evaluation; requests are serialized with a mutex since the UCI
// protocol is strictly request/response. Scores are normalized to
// White's perspective, with forced mates mapped to ±MateScore.
package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/JansenNye/explain-that-move/pkg/logging"
)

// MateScore is the centipawn value reported for a forced mate.
const MateScore = 10000

// Sentinel errors for engine operations.
var (
	// ErrEngineStopped is returned when the engine process is not
	// running.
	ErrEngineStopped = errors.New("engine is not running")

	// ErrNoScore is returned when the engine finished a search
	// without reporting any score.
	ErrNoScore = errors.New("engine reported no score")
)

// Result is a single completed search.
type Result struct {
	// ScoreCP is the centipawn score from White's perspective.
	ScoreCP int

	// PV is the principal variation as UCI move tokens.
	PV []string

	// BestMove is the engine's chosen move in UCI form.
	BestMove string
}

// Engine wraps one UCI engine process.
type Engine struct {
	// mu serializes every stdin/stdout exchange: the UCI dialogue is
	// strictly request/response, so a search must fully drain its own
	// bestmove before the next caller may write to the process.
	mu sync.Mutex

	cmd    *exec.Cmd
	stdin  *bufio.Writer
	stdout *bufio.Scanner
	logger *logging.Logger
	closed bool
}

// New starts the engine binary and completes the UCI handshake.
func New(binaryPath string, logger *logging.Logger) (*Engine, error) {
	if logger == nil {
		logger = logging.Default()
	}

	cmd := exec.Command(binaryPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %q: %w", binaryPath, err)
	}

	e := &Engine{
		cmd:    cmd,
		stdin:  bufio.NewWriter(stdin),
		stdout: bufio.NewScanner(stdout),
		logger: logger,
	}

	e.send("uci")
	if !e.waitFor("uciok") {
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("%w: no uciok from %q", ErrEngineStopped, binaryPath)
	}
	e.send("isready")
	if !e.waitFor("readyok") {
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("%w: no readyok from %q", ErrEngineStopped, binaryPath)
	}

	logger.Info("engine started", "binary", binaryPath)
	return e, nil
}

// Evaluate searches the position to the given depth.
//
// The search result is read on a separate goroutine so that a
// canceled context can interrupt the wait; on cancellation a UCI
// "stop" is sent and the (now truncated) search is drained to keep the
// protocol in sync before the context error is returned.
func (e *Engine) Evaluate(ctx context.Context, fen string, depth int) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return Result{}, ErrEngineStopped
	}

	whiteToMove := true
	if fields := strings.Fields(fen); len(fields) >= 2 && fields[1] == "b" {
		whiteToMove = false
	}

	e.send("position fen " + fen)
	e.send("go depth " + strconv.Itoa(depth))

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := e.collect(whiteToMove)
		done <- outcome{res, err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		e.send("stop")
		<-done
		return Result{}, ctx.Err()
	}
}

// collect reads engine output until bestmove, keeping the deepest
// scored line.
func (e *Engine) collect(whiteToMove bool) (Result, error) {
	var (
		best     searchLine
		haveLine bool
		bestMove string
	)

	for e.stdout.Scan() {
		line := e.stdout.Text()
		if strings.HasPrefix(line, "bestmove") {
			fields := strings.Fields(line)
			if len(fields) > 1 {
				bestMove = fields[1]
			}
			break
		}
		if sl, ok := parseInfoLine(line); ok {
			if !haveLine || sl.depth >= best.depth {
				best = sl
				haveLine = true
			}
		}
	}
	if err := e.stdout.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrEngineStopped, err)
	}
	if !haveLine {
		return Result{}, ErrNoScore
	}

	return Result{
		ScoreCP:  best.whitePOV(whiteToMove),
		PV:       best.pv,
		BestMove: bestMove,
	}, nil
}

// Close asks the engine to quit and waits for the process. Blocks
// until any in-flight search has drained.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.send("quit")
	return e.cmd.Wait()
}

func (e *Engine) send(cmd string) {
	_, _ = e.stdin.WriteString(cmd + "\n")
	_ = e.stdin.Flush()
}

// waitFor scans output until a line containing the token appears.
func (e *Engine) waitFor(token string) bool {
	for e.stdout.Scan() {
		if strings.Contains(e.stdout.Text(), token) {
			return true
		}
	}
	return false
}

// =============================================================================
// Output parsing
// =============================================================================

// searchLine is one parsed "info" line with a score.
type searchLine struct {
	depth   int
	scoreCP int
	mateIn  int
	isMate  bool
	pv      []string
}

// whitePOV converts the engine's side-to-move score to White's
// perspective, with mates saturated to ±MateScore.
func (sl searchLine) whitePOV(whiteToMove bool) int {
	score := sl.scoreCP
	if sl.isMate {
		score = MateScore
		if sl.mateIn < 0 {
			score = -MateScore
		}
	}
	if !whiteToMove {
		score = -score
	}
	return score
}

// parseInfoLine extracts depth, score, and pv from a UCI "info" line.
// Lines without a score (e.g. "info string ...") report ok=false.
func parseInfoLine(line string) (searchLine, bool) {
	if !strings.HasPrefix(line, "info") {
		return searchLine{}, false
	}

	var (
		sl       searchLine
		hasScore bool
	)
	fields := strings.Fields(line)
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if i+1 < len(fields) {
				sl.depth, _ = strconv.Atoi(fields[i+1])
			}
		case "score":
			if i+2 < len(fields) {
				switch fields[i+1] {
				case "cp":
					sl.scoreCP, _ = strconv.Atoi(fields[i+2])
					hasScore = true
				case "mate":
					sl.mateIn, _ = strconv.Atoi(fields[i+2])
					sl.isMate = true
					hasScore = true
				}
				i += 2
			}
		case "pv":
			sl.pv = append([]string(nil), fields[i+1:]...)
			i = len(fields)
		}
	}
	return sl, hasScore
}
