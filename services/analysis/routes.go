// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers all analysis service routes.
//
// Endpoints:
//
//	GET /health  - Liveness check
//	GET /eval    - Evaluate a position (rate limited)
//	GET /ws      - Websocket evaluation stream (rate limited)
//	GET /metrics - Prometheus metrics
func RegisterRoutes(r *gin.Engine, handlers *Handlers, limit gin.HandlerFunc) {
	r.GET("/health", handlers.HandleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limited := r.Group("/")
	if limit != nil {
		limited.Use(limit)
	}
	limited.GET("/eval", handlers.HandleEval)
	limited.GET("/ws", handlers.HandleWebsocket)
}
