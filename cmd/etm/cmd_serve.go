// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/JansenNye/explain-that-move/services/analysis"
	"github.com/JansenNye/explain-that-move/services/engine"
	"github.com/JansenNye/explain-that-move/services/rules"
)

// shutdownGrace is how long in-flight requests get to finish.
const shutdownGrace = 10 * time.Second

// serveCmd starts the analysis HTTP server.
//
// # Description
//
// Boots the UCI engine, opens the evaluation result store, and serves
// /eval, /ws, /health, and /metrics until interrupted. SIGINT/SIGTERM
// trigger a graceful drain before the engine and store close.
//
// # Examples
//
//	etm serve
//	ETM_ENGINE_PATH=/usr/bin/stockfish etm serve
//	etm serve --config etm.yaml --debug
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis HTTP server",
	Long: `Starts the evaluation service: a UCI engine behind a REST and
websocket API with a persistent, TTL-bounded result store.

The engine binary is located via the config file or ETM_ENGINE_PATH.`,
	RunE: runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Engine.BinaryPath == "" {
		return errors.New("no engine binary configured (set engine.binary_path or ETM_ENGINE_PATH)")
	}
	logger := newLogger("analysis", false)

	eng, err := engine.New(cfg.Engine.BinaryPath, logger)
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Warn("engine close failed", "error", err)
		}
	}()

	storeCfg := analysis.InMemoryStoreConfig()
	if cfg.Server.DataDir != "" {
		storeCfg = analysis.DefaultStoreConfig(cfg.Server.DataDir)
		storeCfg.Logger = logger.Slog()
	}
	store, err := analysis.OpenStore(storeCfg)
	if err != nil {
		return fmt.Errorf("open result store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("result store close failed", "error", err)
		}
	}()

	if debugMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if debugMode {
		router.Use(gin.Logger())
	}

	handlers := analysis.NewHandlers(store, eng, rules.New(), logger)
	analysis.RegisterRoutes(router, handlers, analysis.RateLimit(cfg.Server.RatePerSecond, cfg.Server.RateBurst))

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("analysis server listening",
			"addr", cfg.Server.Addr,
			"engine", cfg.Engine.BinaryPath,
			"persistent", cfg.Server.DataDir != "",
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
