// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package explain turns engine output into a short natural-language
// explanation of a position.
//
// When an OpenAI API key is configured the explanation comes from the
// model; without one the package falls back to a deterministic
// template so the rest of the application works offline.
package explain

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/JansenNye/explain-that-move/pkg/logging"
)

// Request carries everything the explainer knows about a position.
type Request struct {
	// Descriptor is the position in FEN.
	Descriptor string

	// ScoreCP is the engine score in centipawns, White's perspective.
	ScoreCP int

	// PV is the engine's principal variation in SAN.
	PV []string

	// SideToMove is "white" or "black".
	SideToMove string
}

const systemPrompt = "You are a chess coach. Explain the engine's " +
	"assessment of the given position in two or three sentences for a " +
	"club player. Mention the key idea of the principal variation. Do " +
	"not restate the FEN."

// Explainer produces explanations for evaluated positions.
type Explainer struct {
	client *openai.Client
	model  string
	logger *logging.Logger
}

// New creates an Explainer. An empty apiKey disables the API client
// and every call uses the offline fallback.
func New(apiKey, model string, logger *logging.Logger) *Explainer {
	if logger == nil {
		logger = logging.Default()
	}
	e := &Explainer{model: model, logger: logger}
	if apiKey != "" {
		e.client = openai.NewClient(apiKey)
	}
	return e
}

// Explain returns a short prose explanation for the request.
//
// Description:
//
//	Asks the configured model for an explanation; on any API failure,
//	or when no client is configured, returns the deterministic
//	fallback instead of an error. Explanations are advisory text, so
//	degrading beats failing.
func (e *Explainer) Explain(ctx context.Context, req Request) string {
	if e.client == nil {
		return Fallback(req)
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(req)},
		},
		MaxTokens: 200,
	})
	if err != nil {
		e.logger.Warn("explanation request failed, using fallback", "error", err)
		return Fallback(req)
	}
	if len(resp.Choices) == 0 {
		e.logger.Warn("explanation response had no choices, using fallback")
		return Fallback(req)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

func userPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Position (FEN): %s\n", req.Descriptor)
	fmt.Fprintf(&b, "Side to move: %s\n", req.SideToMove)
	fmt.Fprintf(&b, "Engine score: %+d centipawns for White\n", req.ScoreCP)
	if len(req.PV) > 0 {
		fmt.Fprintf(&b, "Principal variation: %s\n", strings.Join(req.PV, " "))
	}
	return b.String()
}

// Fallback builds a deterministic explanation from the engine output
// alone. Exported so callers can render it directly when they know no
// API is available.
func Fallback(req Request) string {
	var b strings.Builder

	switch {
	case req.ScoreCP >= 9000:
		b.WriteString("White has a forced mate.")
	case req.ScoreCP <= -9000:
		b.WriteString("Black has a forced mate.")
	case req.ScoreCP >= 150:
		fmt.Fprintf(&b, "White is clearly better (%+.2f).", float64(req.ScoreCP)/100)
	case req.ScoreCP <= -150:
		fmt.Fprintf(&b, "Black is clearly better (%+.2f).", float64(req.ScoreCP)/100)
	case req.ScoreCP >= 50:
		fmt.Fprintf(&b, "White holds a small edge (%+.2f).", float64(req.ScoreCP)/100)
	case req.ScoreCP <= -50:
		fmt.Fprintf(&b, "Black holds a small edge (%+.2f).", float64(req.ScoreCP)/100)
	default:
		fmt.Fprintf(&b, "The position is roughly balanced (%+.2f).", float64(req.ScoreCP)/100)
	}

	if len(req.PV) > 0 {
		fmt.Fprintf(&b, " The engine's main line continues %s.", strings.Join(req.PV, " "))
	}
	return b.String()
}
