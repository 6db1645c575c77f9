// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The service runs behind the desktop client or a trusted reverse
	// proxy, not on the open web.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is one evaluation request frame from the client.
type wsRequest struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`
}

// wsResponse is one evaluation response frame.
type wsResponse struct {
	Session string `json:"session"`
	FEN     string `json:"fen"`
	Cached  bool   `json:"cached"`
	ScoreCP int    `json:"score_cp"`
	PV      string `json:"pv"`
	Error   string `json:"error,omitempty"`
}

// HandleWebsocket streams evaluations over a websocket session.
//
// Description:
//
//	Upgrades the connection and serves one evaluation per request
//	frame until the client disconnects. Each session gets a UUID that
//	is echoed on every frame so clients multiplexing several boards
//	can correlate responses. Invalid frames produce an error frame
//	rather than closing the session.
//
// GET /ws
func (h *Handlers) HandleWebsocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	session := uuid.NewString()
	wsSessions.Inc()
	defer wsSessions.Dec()
	h.logger.Info("websocket session opened", "session", session)

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", "session", session, "error", err)
			}
			return
		}

		resp := wsResponse{Session: session, FEN: req.FEN}
		if req.FEN == "" {
			resp.Error = "fen is required"
		} else if err := h.rules.Validate(req.FEN); err != nil {
			resp.Error = "invalid fen: " + err.Error()
		} else {
			depth := req.Depth
			if depth == 0 {
				depth = defaultRequestDepth
			}
			if depth < minRequestDepth {
				depth = minRequestDepth
			}
			if depth > maxRequestDepth {
				depth = maxRequestDepth
			}
			res, err := h.evaluate(c.Request.Context(), req.FEN, depth)
			if err != nil {
				resp.Error = "engine evaluation failed"
			} else {
				resp.Cached = res.Cached
				resp.ScoreCP = res.ScoreCP
				resp.PV = res.PV
			}
		}

		if err := conn.WriteJSON(resp); err != nil {
			h.logger.Warn("websocket write failed", "session", session, "error", err)
			return
		}
	}
}
