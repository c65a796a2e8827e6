// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/mealreco/internal/config"
	"github.com/tomtom215/mealreco/internal/logging"
	"github.com/tomtom215/mealreco/internal/store"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var _ store.Store = (*DB)(nil)

// DB wraps the DuckDB connection and implements store.Store.
type DB struct {
	conn *sql.DB
	cfg  config.StoreConfig
}

// New opens the database at cfg.DuckDBPath and creates the curated tables.
func New(cfg config.StoreConfig) (*DB, error) {
	if cfg.DuckDBPath == "" {
		cfg.DuckDBPath = MemoryPath
	}
	if cfg.DuckDBMaxMemory == "" {
		cfg.DuckDBMaxMemory = "1GB"
	}

	// 0750 keeps the data directory private to the service group.
	if cfg.DuckDBPath != MemoryPath {
		if dir := filepath.Dir(cfg.DuckDBPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	conn, err := sql.Open("duckdb", connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}
	db.configureConnectionPool()

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().
		Str("path", cfg.DuckDBPath).
		Str("max_memory", cfg.DuckDBMaxMemory).
		Msg("DuckDB store ready")
	return db, nil
}

// connString builds the DuckDB DSN. Extension autoloading stays off; the
// curated schema only needs core types.
func connString(cfg config.StoreConfig) string {
	threads := cfg.DuckDBThreads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.DuckDBPath, threads, cfg.DuckDBMaxMemory)
}

// configureConnectionPool sizes the pool. An in-memory database is private
// to a single connection, so it is pinned to one.
func (db *DB) configureConnectionPool() {
	if db.cfg.DuckDBPath == MemoryPath {
		db.conn.SetMaxOpenConns(1)
		db.conn.SetMaxIdleConns(1)
		return
	}
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Conn returns the underlying connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.cfg.DuckDBPath
}

// Ping implements store.Store.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// Close implements store.Store.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
