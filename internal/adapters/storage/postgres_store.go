package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/stoik/email-fraud-classifier/internal/ports"
)

// PostgresStore implements ports.Storage for PostgreSQL
type PostgresStore struct {
	*sqlStore
}

var _ ports.Storage = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgreSQL storage instance
func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// History writes are small and infrequent
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStore{sqlStore: &sqlStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		schema:  postgresSchema,
	}}, nil
}

const postgresSchema = `
	-- ============================================================================
	-- TRAINING_RUNS TABLE
	-- ============================================================================
	-- One row per training pass: where the corpus came from and how the model scored.
	-- The model itself is rebuilt in-process and never stored.
	CREATE TABLE IF NOT EXISTS training_runs (
		id UUID PRIMARY KEY,
		source TEXT NOT NULL,
		used_demo_corpus BOOLEAN NOT NULL DEFAULT FALSE,
		corpus_size INTEGER NOT NULL,
		train_size INTEGER NOT NULL,
		test_size INTEGER NOT NULL,
		train_accuracy DOUBLE PRECISION NOT NULL,
		test_accuracy DOUBLE PRECISION NOT NULL,
		vocabulary_size INTEGER NOT NULL,
		iterations INTEGER NOT NULL,
		trained_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	-- Backs ListTrainingRuns: most recent first
	CREATE INDEX IF NOT EXISTS idx_training_runs_trained_at ON training_runs(trained_at DESC);

	-- ============================================================================
	-- PREDICTIONS TABLE
	-- ============================================================================
	-- Audit trail of classified messages, linked to the run whose model produced them.
	CREATE TABLE IF NOT EXISTS predictions (
		id UUID PRIMARY KEY,
		run_id UUID NOT NULL,
		text TEXT NOT NULL,
		label SMALLINT NOT NULL CHECK (label IN (0, 1)),
		confidence DOUBLE PRECISION NOT NULL,
		fraud_probability DOUBLE PRECISION NOT NULL,
		predicted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_predicted_at ON predictions(predicted_at DESC);
	CREATE INDEX IF NOT EXISTS idx_predictions_run ON predictions(run_id);
	`
