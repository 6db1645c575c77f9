// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads and validates configuration for the CLI and the
// analysis server.
//
// Configuration is layered: built-in defaults, then an optional YAML
// file, then environment variable overrides. The merged result is
// validated before use, so every consumer can trust the field ranges.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized by Load. They override file values.
const (
	EnvEnginePath = "ETM_ENGINE_PATH"
	EnvServerAddr = "ETM_SERVER_ADDR"
	EnvEvalURL    = "ETM_EVAL_URL"
	EnvDataDir    = "ETM_DATA_DIR"
	EnvOpenAIKey  = "OPENAI_API_KEY"
	EnvDepth      = "ETM_DEPTH"
)

// ServerConfig configures the analysis HTTP server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr" validate:"required"`

	// DataDir is the directory for the BadgerDB evaluation store.
	// Empty means in-memory (results lost on restart).
	DataDir string `yaml:"data_dir"`

	// RatePerSecond caps /eval requests per second across all clients.
	RatePerSecond float64 `yaml:"rate_per_second" validate:"gt=0"`

	// RateBurst is the rate limiter burst size.
	RateBurst int `yaml:"rate_burst" validate:"gte=1"`
}

// EngineConfig configures the UCI engine the server drives.
type EngineConfig struct {
	// BinaryPath is the stockfish executable. Required by `etm serve`.
	BinaryPath string `yaml:"binary_path"`
}

// EvalConfig configures the client side of the evaluation service.
type EvalConfig struct {
	// BaseURL is the analysis server the TUI and `etm eval` talk to.
	BaseURL string `yaml:"base_url" validate:"required,url"`

	// Depth is the default search depth requested by the client.
	// The evaluation cache clamps per-request depth to [5, 25].
	Depth int `yaml:"depth" validate:"gte=5,lte=25"`
}

// ExplainConfig configures the optional move-explanation feature.
type ExplainConfig struct {
	// APIKey enables LLM-backed explanations. Usually supplied via
	// OPENAI_API_KEY rather than the file. Empty disables the feature;
	// a local deterministic phrasing is used instead.
	APIKey string `yaml:"api_key"`

	// Model is the chat model used for explanations.
	Model string `yaml:"model" validate:"required"`
}

// Config is the root configuration for all etm commands.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Engine  EngineConfig  `yaml:"engine"`
	Eval    EvalConfig    `yaml:"eval"`
	Explain ExplainConfig `yaml:"explain"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:          ":8080",
			RatePerSecond: 10,
			RateBurst:     20,
		},
		Engine: EngineConfig{},
		Eval: EvalConfig{
			BaseURL: "http://localhost:8080",
			Depth:   20,
		},
		Explain: ExplainConfig{
			Model: "gpt-4o-mini",
		},
	}
}

// Load builds a Config from defaults, the optional YAML file at path,
// and environment overrides, then validates it.
//
// A missing file is not an error when path is empty; a named file that
// does not exist is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges on an assembled Config.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("invalid config: field %s failed %q", f.Namespace(), f.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnv overrides cfg fields from the process environment. A set
// but unparsable variable is an error, never a silent fallback.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvEnginePath); v != "" {
		cfg.Engine.BinaryPath = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvEvalURL); v != "" {
		cfg.Eval.BaseURL = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.Server.DataDir = v
	}
	if v := os.Getenv(EnvOpenAIKey); v != "" {
		cfg.Explain.APIKey = v
	}
	if v := os.Getenv(EnvDepth); v != "" {
		depth, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s %q: %w", EnvDepth, v, err)
		}
		cfg.Eval.Depth = depth
	}
	return nil
}
