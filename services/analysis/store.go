// Copyright (C) 2026 Explain-that-Move
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/JansenNye/explain-that-move/services/eval"
)

// ResultTTL is how long a stored evaluation stays valid. Engine
// results for a fixed position and depth are deterministic enough
// that a day of reuse is safe; the TTL bounds disk growth.
const ResultTTL = 24 * time.Hour

// StoreConfig holds configuration for the evaluation result store.
type StoreConfig struct {
	// Path is the directory for BadgerDB files.
	// Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger is the logger for BadgerDB operations.
	// If nil, BadgerDB's internal logging is disabled.
	Logger *slog.Logger
}

// DefaultStoreConfig returns production defaults for a persistent
// store rooted at path.
func DefaultStoreConfig(path string) StoreConfig {
	return StoreConfig{
		Path:       path,
		SyncWrites: true,
	}
}

// InMemoryStoreConfig returns configuration optimized for testing.
func InMemoryStoreConfig() StoreConfig {
	return StoreConfig{
		InMemory:   true,
		SyncWrites: false,
	}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// ResultStore persists finished evaluations keyed by position and
// depth, with a fixed TTL.
type ResultStore struct {
	db *badger.DB
}

// OpenStore opens a ResultStore with the given configuration.
//
// Description:
//
//	Opens a BadgerDB database at the configured path, or in memory if
//	InMemory is true. Creates the directory if it doesn't exist.
//
// Inputs:
//
//	cfg - Store configuration. Path is required unless InMemory is true.
//
// Outputs:
//
//	*ResultStore - The opened store. Caller must call Close() when done.
//	error - Non-nil if path is invalid or database cannot be opened.
//
// Thread Safety: The returned store is safe for concurrent use.
func OpenStore(cfg StoreConfig) (*ResultStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	return &ResultStore{db: db}, nil
}

// Close closes the underlying database.
func (s *ResultStore) Close() error {
	return s.db.Close()
}

// resultKey builds the storage key for a position and depth. The FEN
// is hashed so keys stay short and free of badger-unfriendly bytes;
// the depth prefix keeps keys for different depths distinct and
// greppable in debugging tools.
func resultKey(fen string, depth int) []byte {
	sum := sha256.Sum256([]byte(fen + "-" + strconv.Itoa(depth)))
	digest := hex.EncodeToString(sum[:])[:32]
	return []byte("sf:" + strconv.Itoa(depth) + ":" + digest)
}

// Get returns the stored evaluation for the position and depth, if
// any. The bool reports whether a live (non-expired) entry was found.
func (s *ResultStore) Get(fen string, depth int) (eval.Result, bool, error) {
	var res eval.Result
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(resultKey(fen, depth))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &res)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return eval.Result{}, false, nil
	}
	if err != nil {
		return eval.Result{}, false, fmt.Errorf("read result: %w", err)
	}
	return res, true, nil
}

// Put stores an evaluation for the position and depth with the
// standard TTL.
func (s *ResultStore) Put(fen string, depth int, res eval.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(resultKey(fen, depth), payload).WithTTL(ResultTTL)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
