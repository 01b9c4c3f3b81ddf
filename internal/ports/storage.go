package ports

import (
	"context"

	"github.com/stoik/email-fraud-classifier/internal/domain"
)

// Storage defines the contract for persisting training and prediction history.
// The model itself is never persisted; it is rebuilt in-process.
type Storage interface {
	// Lifecycle
	InitSchema(ctx context.Context) error
	Close() error

	// Training run operations
	SaveTrainingRun(ctx context.Context, run *domain.TrainingRun) error
	ListTrainingRuns(ctx context.Context, limit int) ([]domain.TrainingRun, error)

	// Prediction audit operations
	SavePrediction(ctx context.Context, record *domain.PredictionRecord) error
	ListPredictions(ctx context.Context, limit int) ([]domain.PredictionRecord, error)
}
