// Package store persists ranked items, analyses, drafts, run history and the
// LLM response cache in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"researchpub/internal/logger"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DatabaseFile is the SQLite file name inside the data directory.
const DatabaseFile = "researchpub.db"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store represents the SQLite-based persistence layer
type Store struct {
	db   *sql.DB
	sb   sq.StatementBuilderType
	path string
	now  func() time.Time
	log  zerolog.Logger
}

// NewStore opens (creating if needed) the database inside dataDir
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return Open(filepath.Join(dataDir, DatabaseFile))
}

// Open opens the database at path and applies the schema
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:   db,
		sb:   sq.StatementBuilder.RunWith(db),
		path: path,
		now:  time.Now,
		log:  logger.Component("store"),
	}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		score REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		payload TEXT NOT NULL,
		fetched_at DATETIME,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_status_score ON items (status, score DESC)`,
	`CREATE TABLE IF NOT EXISTS analyses (
		item_id TEXT PRIMARY KEY,
		success INTEGER NOT NULL,
		payload TEXT NOT NULL,
		analyzed_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS drafts (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL,
		format TEXT NOT NULL,
		title TEXT NOT NULL,
		path TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		status TEXT NOT NULL,
		platform TEXT NOT NULL DEFAULT '',
		published_url TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		published_at DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_drafts_status ON drafts (status, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS llm_cache (
		key TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		response TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		processed INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	)`,
}

// initialize creates the necessary tables
func (s *Store) initialize() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Path returns the database file location
func (s *Store) Path() string {
	return s.path
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s %q: %w", what, id, err)
}
