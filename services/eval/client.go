// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JansenNye/explain-that-move/pkg/logging"
)

// Client fetches evaluations from the analysis HTTP service.
//
// The wire contract is GET {base}/eval?fen=...&depth=... answering
// {"cached": bool, "score_cp": int, "pv": string}.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a Client for the service at baseURL.
//
// No request timeout is set here: the caller's context governs each
// fetch, and the interactive core deliberately keeps a fetch that
// never resolves pending rather than retrying.
func NewClient(baseURL string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Fetch implements Fetcher.
func (c *Client) Fetch(ctx context.Context, descriptor string, depth int) (Result, error) {
	q := url.Values{}
	q.Set("fen", descriptor)
	q.Set("depth", strconv.Itoa(depth))
	reqURL := c.baseURL + "/eval?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build eval request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("eval request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("%w: %d %s", ErrBadStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("decode eval response: %w", err)
	}

	c.logger.Debug("evaluation fetched",
		"depth", depth,
		"score_cp", res.ScoreCP,
		"cached", res.Cached,
	)
	return res, nil
}
