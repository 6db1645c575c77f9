// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.Eval.BaseURL)
	assert.Equal(t, 20, cfg.Eval.Depth)
	assert.Equal(t, "gpt-4o-mini", cfg.Explain.Model)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "etm.yaml")
	data := []byte(`
server:
  addr: ":9090"
eval:
  base_url: "http://analysis.local:9090"
  depth: 12
engine:
  binary_path: /usr/bin/stockfish
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "http://analysis.local:9090", cfg.Eval.BaseURL)
	assert.Equal(t, 12, cfg.Eval.Depth)
	assert.Equal(t, "/usr/bin/stockfish", cfg.Engine.BinaryPath)
	// Untouched fields keep defaults.
	assert.Equal(t, float64(10), cfg.Server.RatePerSecond)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv(EnvEnginePath, "/opt/stockfish/bin/stockfish")
	t.Setenv(EnvDepth, "15")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/opt/stockfish/bin/stockfish", cfg.Engine.BinaryPath)
	assert.Equal(t, 15, cfg.Eval.Depth)
}

func TestLoad_MalformedDepthEnv(t *testing.T) {
	t.Setenv(EnvDepth, "twenty")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvDepth)
}

func TestLoad_MissingNamedFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_DepthRange(t *testing.T) {
	tests := []struct {
		name    string
		depth   int
		wantErr bool
	}{
		{"below range", 4, true},
		{"lower bound", 5, false},
		{"default", 20, false},
		{"upper bound", 25, false},
		{"above range", 26, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Eval.Depth = tt.depth
			err := Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_BadURL(t *testing.T) {
	cfg := Default()
	cfg.Eval.BaseURL = "not a url"
	assert.Error(t, Validate(cfg))
}
