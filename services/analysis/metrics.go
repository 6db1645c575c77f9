// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Service metrics, exposed on /metrics.
var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etm_eval_cache_hits_total",
		Help: "Evaluations served from the result store.",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etm_eval_cache_misses_total",
		Help: "Evaluations that required an engine search.",
	})

	engineErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etm_eval_engine_errors_total",
		Help: "Engine searches that failed.",
	})

	evalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "etm_eval_duration_seconds",
		Help:    "Wall time of engine searches.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etm_requests_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	})

	wsSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "etm_ws_sessions_active",
		Help: "Currently connected websocket sessions.",
	})
)
