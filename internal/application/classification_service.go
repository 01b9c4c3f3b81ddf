package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stoik/email-fraud-classifier/internal/domain"
	"github.com/stoik/email-fraud-classifier/internal/ports"
)

// DemoSource names the demonstration corpus in logs and stored runs
const DemoSource = "demo"

// ErrStorageDisabled is returned by History when the service runs without storage
var ErrStorageDisabled = errors.New("history storage is disabled")

// ServiceOptions configures a ClassificationService
type ServiceOptions struct {
	Pipeline PipelineOptions

	// Strict surfaces dataset load failures instead of substituting the demonstration corpus
	Strict bool

	// AutoTrain lets Predict load, prepare and train on demand
	AutoTrain bool

	// DemoCorpus supplies the demonstration corpus; nil disables every fallback
	DemoCorpus func() domain.Corpus
}

// LoadResult describes which corpus ended up loaded
type LoadResult struct {
	Source         string
	Examples       int
	UsedDemoCorpus bool

	// Cause is the load failure that triggered the demonstration fallback
	Cause error
}

// Status is a snapshot of the service state
type Status struct {
	Stage          string                 `json:"stage"`
	Source         string                 `json:"source,omitempty"`
	UsedDemoCorpus bool                   `json:"used_demo_corpus"`
	Examples       int                    `json:"examples"`
	RunID          *uuid.UUID             `json:"run_id,omitempty"`
	Report         *domain.TrainingReport `json:"report,omitempty"`
}

// History holds the most recent stored training runs and predictions
type History struct {
	Runs        []domain.TrainingRun      `json:"runs"`
	Predictions []domain.PredictionRecord `json:"predictions"`
}

// ClassificationService orchestrates dataset loading, training and prediction
// on a single pipeline, and records runs and predictions when storage is set.
// All methods are safe for concurrent use.
type ClassificationService struct {
	mu       sync.Mutex
	source   ports.CorpusSource
	storage  ports.Storage // optional
	opts     ServiceOptions
	logger   *slog.Logger
	pipeline *Pipeline

	corpusSource string
	usedDemo     bool
	runID        uuid.UUID
}

// NewClassificationService creates a new classification service with dependency injection.
// storage may be nil, in which case nothing is recorded.
func NewClassificationService(
	source ports.CorpusSource,
	storage ports.Storage,
	opts ServiceOptions,
	logger *slog.Logger,
) *ClassificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassificationService{
		source:   source,
		storage:  storage,
		opts:     opts,
		logger:   logger,
		pipeline: NewPipeline(opts.Pipeline, logger),
	}
}

// LoadDataset loads the dataset at path into the pipeline.
// Error handling strategy:
//   - In strict mode every failure is returned and the previous state is kept
//   - Otherwise a failed load falls back to the demonstration corpus and the
//     cause is reported in the result
//   - Cancellation is always returned, never masked by the fallback
func (s *ClassificationService) LoadDataset(ctx context.Context, path string) (LoadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.loadFrom(ctx, path)
	if err == nil {
		return LoadResult{Source: path, Examples: len(s.pipeline.Corpus())}, nil
	}

	if ctx.Err() != nil || s.opts.Strict || s.opts.DemoCorpus == nil {
		return LoadResult{}, err
	}

	s.logger.Warn("dataset unavailable, using demonstration corpus", "path", path, "error", err)
	if demoErr := s.loadDemo(); demoErr != nil {
		return LoadResult{}, demoErr
	}
	return LoadResult{
		Source:         DemoSource,
		Examples:       len(s.pipeline.Corpus()),
		UsedDemoCorpus: true,
		Cause:          err,
	}, nil
}

func (s *ClassificationService) loadFrom(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.NewDataError(nil, "no dataset path given")
	}
	if s.source == nil {
		return domain.NewDataError(nil, "no corpus source configured")
	}

	corpus, err := s.source.Load(ctx, path)
	if err != nil {
		return err
	}
	if err := s.pipeline.Load(corpus); err != nil {
		return err
	}

	s.corpusSource = path
	s.usedDemo = false
	s.runID = uuid.Nil
	return nil
}

func (s *ClassificationService) loadDemo() error {
	if err := s.pipeline.Load(s.opts.DemoCorpus()); err != nil {
		return err
	}
	s.corpusSource = DemoSource
	s.usedDemo = true
	s.runID = uuid.Nil
	return nil
}

// Train prepares the loaded corpus and trains a fresh model on it.
// With AutoTrain set and nothing loaded, the demonstration corpus is used.
func (s *ClassificationService) Train(ctx context.Context) (domain.TrainingReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.TrainingReport{}, err
	}

	if s.pipeline.Stage() == StageEmpty && s.opts.AutoTrain && s.opts.DemoCorpus != nil {
		s.logger.Info("no data loaded, loading demonstration corpus")
		if err := s.loadDemo(); err != nil {
			return domain.TrainingReport{}, err
		}
	}

	if err := s.pipeline.Prepare(); err != nil {
		return domain.TrainingReport{}, err
	}
	report, err := s.pipeline.Train()
	if err != nil {
		return domain.TrainingReport{}, err
	}

	s.recordRun(ctx, report)
	return report, nil
}

// Retrain loads path into a fresh pipeline and trains it, swapping it in only
// on success. It never falls back to the demonstration corpus, so any failure
// leaves the current model serving. Training runs outside the lock.
func (s *ClassificationService) Retrain(ctx context.Context, path string) (domain.TrainingReport, error) {
	if strings.TrimSpace(path) == "" {
		return domain.TrainingReport{}, domain.NewDataError(nil, "no dataset path given")
	}
	if s.source == nil {
		return domain.TrainingReport{}, domain.NewDataError(nil, "no corpus source configured")
	}

	corpus, err := s.source.Load(ctx, path)
	if err != nil {
		return domain.TrainingReport{}, err
	}
	next := NewPipeline(s.opts.Pipeline, s.logger)
	if err := next.Load(corpus); err != nil {
		return domain.TrainingReport{}, err
	}
	if err := next.Prepare(); err != nil {
		return domain.TrainingReport{}, err
	}
	report, err := next.Train()
	if err != nil {
		return domain.TrainingReport{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return domain.TrainingReport{}, err
	}
	s.pipeline = next
	s.corpusSource = path
	s.usedDemo = false
	s.recordRun(ctx, report)
	return report, nil
}

// Predict classifies text with the trained model.
// Without AutoTrain, calling it before Train returns a StateError.
func (s *ClassificationService) Predict(ctx context.Context, text string) (domain.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.AutoTrain && s.pipeline.Stage() != StageTrained {
		if err := s.ensureTrained(ctx); err != nil {
			return domain.Prediction{}, err
		}
	}

	prediction, err := s.pipeline.Predict(text)
	if err != nil {
		return domain.Prediction{}, err
	}

	s.recordPrediction(ctx, text, prediction)
	return prediction, nil
}

func (s *ClassificationService) ensureTrained(ctx context.Context) error {
	wasEmpty := s.pipeline.Stage() == StageEmpty
	if err := s.pipeline.EnsureTrained(s.opts.DemoCorpus); err != nil {
		return err
	}
	if wasEmpty {
		s.corpusSource = DemoSource
		s.usedDemo = true
	}
	if report, ok := s.pipeline.Report(); ok {
		s.recordRun(ctx, report)
	}
	return nil
}

// Status returns a snapshot of the pipeline state and the current model
func (s *ClassificationService) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Stage:          s.pipeline.Stage().String(),
		Source:         s.corpusSource,
		UsedDemoCorpus: s.usedDemo,
		Examples:       len(s.pipeline.corpus),
	}
	if report, ok := s.pipeline.Report(); ok {
		status.Report = &report
		if s.runID != uuid.Nil {
			id := s.runID
			status.RunID = &id
		}
	}
	return status
}

// History retrieves recent training runs and predictions from storage
func (s *ClassificationService) History(ctx context.Context, limit int) (History, error) {
	if s.storage == nil {
		return History{}, ErrStorageDisabled
	}

	runs, err := s.storage.ListTrainingRuns(ctx, limit)
	if err != nil {
		return History{}, err
	}
	predictions, err := s.storage.ListPredictions(ctx, limit)
	if err != nil {
		return History{}, err
	}
	return History{Runs: runs, Predictions: predictions}, nil
}

// recordRun assigns a new run ID and stores the run. Storage failures are
// logged but don't fail training.
func (s *ClassificationService) recordRun(ctx context.Context, report domain.TrainingReport) {
	s.runID = uuid.New()
	if s.storage == nil {
		return
	}

	run := &domain.TrainingRun{
		ID:             s.runID,
		Source:         s.corpusSource,
		UsedDemoCorpus: s.usedDemo,
		CorpusSize:     report.TrainSize + report.TestSize,
		TrainSize:      report.TrainSize,
		TestSize:       report.TestSize,
		TrainAccuracy:  report.TrainAccuracy,
		TestAccuracy:   report.TestAccuracy,
		VocabularySize: report.VocabularySize,
		Iterations:     report.Iterations,
		TrainedAt:      time.Now().UTC(),
	}
	if err := s.storage.SaveTrainingRun(ctx, run); err != nil {
		s.logger.Warn("failed to store training run", "run_id", run.ID, "error", err)
	}
}

func (s *ClassificationService) recordPrediction(ctx context.Context, text string, prediction domain.Prediction) {
	if s.storage == nil {
		return
	}

	record := &domain.PredictionRecord{
		ID:               uuid.New(),
		RunID:            s.runID,
		Text:             text,
		Label:            prediction.Label,
		Confidence:       prediction.Confidence,
		FraudProbability: prediction.FraudProbability,
		PredictedAt:      time.Now().UTC(),
	}
	if err := s.storage.SavePrediction(ctx, record); err != nil {
		s.logger.Warn("failed to store prediction", "prediction_id", record.ID, "error", err)
	}
}
