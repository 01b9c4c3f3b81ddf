package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/stoik/email-fraud-classifier/internal/ports"
)

const dirMode = 0o700

// SQLiteStore implements ports.Storage on a local SQLite file
type SQLiteStore struct {
	*sqlStore
}

var _ ports.Storage = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the SQLite database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path not specified")
	}
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	return &SQLiteStore{sqlStore: &sqlStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		schema:  sqliteSchema,
	}}, nil
}

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS training_runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		used_demo_corpus INTEGER NOT NULL DEFAULT 0,
		corpus_size INTEGER NOT NULL,
		train_size INTEGER NOT NULL,
		test_size INTEGER NOT NULL,
		train_accuracy REAL NOT NULL,
		test_accuracy REAL NOT NULL,
		vocabulary_size INTEGER NOT NULL,
		iterations INTEGER NOT NULL,
		trained_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_training_runs_trained_at ON training_runs(trained_at DESC);

	CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		text TEXT NOT NULL,
		label INTEGER NOT NULL CHECK (label IN (0, 1)),
		confidence REAL NOT NULL,
		fraud_probability REAL NOT NULL,
		predicted_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_predicted_at ON predictions(predicted_at DESC);
	CREATE INDEX IF NOT EXISTS idx_predictions_run ON predictions(run_id);
	`
