package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/stoik/email-fraud-classifier/internal/domain"
)

// defaultListLimit caps history queries when the caller passes a non-positive limit
const defaultListLimit = 50

var (
	trainingRunColumns = []string{
		"id", "source", "used_demo_corpus", "corpus_size", "train_size", "test_size",
		"train_accuracy", "test_accuracy", "vocabulary_size", "iterations", "trained_at",
	}
	predictionColumns = []string{
		"id", "run_id", "text", "label", "confidence", "fraud_probability", "predicted_at",
	}
)

// sqlStore holds the dialect-independent query logic shared by the
// Postgres and SQLite stores. Dialects differ in schema and placeholder format.
type sqlStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	schema  string
}

// InitSchema creates tables if they don't exist
func (s *sqlStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// SaveTrainingRun inserts a training run record
func (s *sqlStore) SaveTrainingRun(ctx context.Context, run *domain.TrainingRun) error {
	query, args, err := s.builder.
		Insert("training_runs").
		Columns(trainingRunColumns...).
		Values(
			run.ID, run.Source, run.UsedDemoCorpus, run.CorpusSize, run.TrainSize, run.TestSize,
			run.TrainAccuracy, run.TestAccuracy, run.VocabularySize, run.Iterations, run.TrainedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build training run insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert training run: %w", err)
	}
	return nil
}

// ListTrainingRuns retrieves the most recent training runs, newest first
func (s *sqlStore) ListTrainingRuns(ctx context.Context, limit int) ([]domain.TrainingRun, error) {
	query, args, err := s.builder.
		Select(trainingRunColumns...).
		From("training_runs").
		OrderBy("trained_at DESC").
		Limit(listLimit(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build training run query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.TrainingRun, 0)
	for rows.Next() {
		var run domain.TrainingRun
		err := rows.Scan(
			&run.ID, &run.Source, &run.UsedDemoCorpus, &run.CorpusSize, &run.TrainSize, &run.TestSize,
			&run.TrainAccuracy, &run.TestAccuracy, &run.VocabularySize, &run.Iterations, &run.TrainedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// SavePrediction inserts a prediction audit record
func (s *sqlStore) SavePrediction(ctx context.Context, record *domain.PredictionRecord) error {
	query, args, err := s.builder.
		Insert("predictions").
		Columns(predictionColumns...).
		Values(
			record.ID, record.RunID, record.Text, int(record.Label),
			record.Confidence, record.FraudProbability, record.PredictedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build prediction insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

// ListPredictions retrieves the most recent predictions, newest first
func (s *sqlStore) ListPredictions(ctx context.Context, limit int) ([]domain.PredictionRecord, error) {
	query, args, err := s.builder.
		Select(predictionColumns...).
		From("predictions").
		OrderBy("predicted_at DESC").
		Limit(listLimit(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build prediction query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	records := make([]domain.PredictionRecord, 0)
	for rows.Next() {
		var record domain.PredictionRecord
		var label int
		err := rows.Scan(
			&record.ID, &record.RunID, &record.Text, &label,
			&record.Confidence, &record.FraudProbability, &record.PredictedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		record.Label = domain.Label(label)
		records = append(records, record)
	}

	return records, rows.Err()
}

func listLimit(limit int) uint64 {
	if limit <= 0 {
		return defaultListLimit
	}
	return uint64(limit)
}
