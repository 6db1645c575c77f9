// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JansenNye/explain-that-move/pkg/logging"
	"github.com/JansenNye/explain-that-move/services/engine"
	"github.com/JansenNye/explain-that-move/services/eval"
)

// stubEvaluator returns a fixed result and counts calls.
type stubEvaluator struct {
	result engine.Result
	err    error
	calls  int
}

func (s *stubEvaluator) Evaluate(_ context.Context, _ string, _ int) (engine.Result, error) {
	s.calls++
	return s.result, s.err
}

// stubRules accepts every FEN and echoes PV tokens unchanged.
type stubRules struct {
	validateErr error
}

func (s *stubRules) Validate(string) error { return s.validateErr }

func (s *stubRules) SANLine(_ string, uciMoves []string, maxPlies int) ([]string, error) {
	if len(uciMoves) > maxPlies {
		uciMoves = uciMoves[:maxPlies]
	}
	return uciMoves, nil
}

func newTestRouter(t *testing.T, eng Evaluator, rules RuleSet) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := openTestStore(t)
	handlers := NewHandlers(store, eng, rules, logging.New(logging.Config{Quiet: true}))

	r := gin.New()
	RegisterRoutes(r, handlers, nil)
	return r
}

func doEval(t *testing.T, r *gin.Engine, url string) (*httptest.ResponseRecorder, eval.Result) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	r.ServeHTTP(w, req)

	var res eval.Result
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	}
	return w, res
}

func TestHandleHealth(t *testing.T) {
	r := newTestRouter(t, &stubEvaluator{}, &stubRules{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHandleEvalMissThenHit(t *testing.T) {
	eng := &stubEvaluator{result: engine.Result{ScoreCP: 35, PV: []string{"e2e4", "e7e5"}}}
	r := newTestRouter(t, eng, &stubRules{})

	w, res := doEval(t, r, "/eval?fen="+testFENQuery+"&depth=15")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, res.Cached)
	assert.Equal(t, 35, res.ScoreCP)
	assert.Equal(t, "e2e4 e7e5", res.PV)
	assert.Equal(t, 1, eng.calls)

	// Second identical request is served from the store.
	w, res = doEval(t, r, "/eval?fen="+testFENQuery+"&depth=15")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, res.Cached)
	assert.Equal(t, 35, res.ScoreCP)
	assert.Equal(t, 1, eng.calls, "cached request must not reach the engine")
}

func TestHandleEvalMissingFEN(t *testing.T) {
	r := newTestRouter(t, &stubEvaluator{}, &stubRules{})

	w, _ := doEval(t, r, "/eval")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleEvalInvalidFEN(t *testing.T) {
	r := newTestRouter(t, &stubEvaluator{}, &stubRules{validateErr: errors.New("bad rank")})

	w, _ := doEval(t, r, "/eval?fen=garbage")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleEvalBadDepth(t *testing.T) {
	r := newTestRouter(t, &stubEvaluator{}, &stubRules{})

	w, _ := doEval(t, r, "/eval?fen="+testFENQuery+"&depth=twelve")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleEvalEngineFailure(t *testing.T) {
	eng := &stubEvaluator{err: errors.New("engine crashed")}
	r := newTestRouter(t, eng, &stubRules{})

	w, _ := doEval(t, r, "/eval?fen="+testFENQuery)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimitRejectsBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(1, 1))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

// testFENQuery is the starting position with spaces escaped for URLs.
const testFENQuery = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR%20w%20KQkq%20-%200%201"
