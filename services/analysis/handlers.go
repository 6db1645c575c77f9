// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package analysis is the HTTP evaluation service.
//
// It fronts a UCI engine with a persistent, TTL-bounded result store
// so repeated requests for the same position and depth are served
// from disk instead of burning engine time. The service speaks plain
// JSON over REST plus a small websocket protocol for clients that
// stream positions.
package analysis

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JansenNye/explain-that-move/pkg/logging"
	"github.com/JansenNye/explain-that-move/services/engine"
	"github.com/JansenNye/explain-that-move/services/eval"
)

// ServiceVersion is the analysis service version.
const ServiceVersion = "0.1.0"

// Depth limits for the HTTP surface. These are wider than the
// interactive client's range because batch callers may want shallow
// probes or deep overnight runs.
const (
	minRequestDepth     = 1
	maxRequestDepth     = 30
	defaultRequestDepth = 15
)

// pvPlies is how many plies of the principal variation are returned.
const pvPlies = 4

// Evaluator runs a single engine search.
type Evaluator interface {
	Evaluate(ctx context.Context, fen string, depth int) (engine.Result, error)
}

// RuleSet covers the chess-rules queries the handlers need.
type RuleSet interface {
	Validate(descriptor string) error
	SANLine(descriptor string, uciMoves []string, maxPlies int) ([]string, error)
}

// Handlers contains the HTTP handlers for the analysis service.
type Handlers struct {
	store  *ResultStore
	eng    Evaluator
	rules  RuleSet
	logger *logging.Logger
}

// NewHandlers creates handlers wired to the given store, engine, and
// rules implementation.
func NewHandlers(store *ResultStore, eng Evaluator, rules RuleSet, logger *logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handlers{store: store, eng: eng, rules: rules, logger: logger}
}

// HandleHealth reports service liveness.
//
// GET /health
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": ServiceVersion,
	})
}

// HandleEval evaluates a position.
//
// Description:
//
//	Looks the position up in the result store first; on a miss, runs
//	the engine to the requested depth, stores the result, and returns
//	it. The principal variation is rendered in SAN and truncated.
//
// Inputs (query):
//
//	fen - Position in FEN. Required; rejected with 400 if not legal.
//	depth - Search depth 1..30. Out-of-range values are clamped.
//	        Defaults to 15.
//
// Outputs:
//
//	200 - {"cached": bool, "score_cp": int, "pv": []string}
//	400 - Missing or invalid fen parameter.
//	500 - Engine or store failure.
func (h *Handlers) HandleEval(c *gin.Context) {
	fen := c.Query("fen")
	if fen == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fen parameter is required"})
		return
	}
	if err := h.rules.Validate(fen); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fen: " + err.Error()})
		return
	}

	depth := defaultRequestDepth
	if raw := c.Query("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "depth must be an integer"})
			return
		}
		depth = parsed
	}
	if depth < minRequestDepth {
		depth = minRequestDepth
	}
	if depth > maxRequestDepth {
		depth = maxRequestDepth
	}

	res, err := h.evaluate(c.Request.Context(), fen, depth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "engine evaluation failed"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// evaluate serves one position from the store or the engine. Shared
// by the REST and websocket surfaces.
func (h *Handlers) evaluate(ctx context.Context, fen string, depth int) (eval.Result, error) {
	if res, ok, err := h.store.Get(fen, depth); err != nil {
		h.logger.Warn("result store read failed", "error", err)
	} else if ok {
		cacheHits.Inc()
		res.Cached = true
		return res, nil
	}
	cacheMisses.Inc()

	start := time.Now()
	searched, err := h.eng.Evaluate(ctx, fen, depth)
	if err != nil {
		engineErrors.Inc()
		h.logger.Error("engine evaluation failed", "error", err, "depth", depth)
		return eval.Result{}, err
	}
	evalDuration.Observe(time.Since(start).Seconds())

	pv, err := h.rules.SANLine(fen, searched.PV, pvPlies)
	if err != nil {
		// A PV the rules engine cannot replay is suspicious but the
		// score is still usable; return the raw UCI tokens instead.
		h.logger.Warn("pv rendering failed", "error", err)
		pv = searched.PV
		if len(pv) > pvPlies {
			pv = pv[:pvPlies]
		}
	}

	res := eval.Result{
		Cached:  false,
		ScoreCP: searched.ScoreCP,
		PV:      strings.Join(pv, " "),
	}
	if err := h.store.Put(fen, depth, res); err != nil {
		h.logger.Warn("result store write failed", "error", err)
	}
	return res, nil
}
