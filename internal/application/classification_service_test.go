package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoik/email-fraud-classifier/internal/adapters/dataset"
	"github.com/stoik/email-fraud-classifier/internal/domain"
)

// fakeSource serves corpora by path; unknown paths fail like a missing file
type fakeSource struct {
	corpora map[string]domain.Corpus
}

func (f *fakeSource) Load(ctx context.Context, path string) (domain.Corpus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	corpus, ok := f.corpora[path]
	if !ok {
		return nil, domain.NewDataError(nil, "dataset not found: %s", path)
	}
	return corpus, nil
}

// fakeStorage records everything in memory
type fakeStorage struct {
	mu          sync.Mutex
	runs        []domain.TrainingRun
	predictions []domain.PredictionRecord
	failWrites  bool
}

func (f *fakeStorage) InitSchema(ctx context.Context) error { return nil }
func (f *fakeStorage) Close() error                         { return nil }

func (f *fakeStorage) SaveTrainingRun(ctx context.Context, run *domain.TrainingRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("disk full")
	}
	f.runs = append(f.runs, *run)
	return nil
}

func (f *fakeStorage) ListTrainingRuns(ctx context.Context, limit int) ([]domain.TrainingRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.TrainingRun(nil), f.runs...), nil
}

func (f *fakeStorage) SavePrediction(ctx context.Context, record *domain.PredictionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("disk full")
	}
	f.predictions = append(f.predictions, *record)
	return nil
}

func (f *fakeStorage) ListPredictions(ctx context.Context, limit int) ([]domain.PredictionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.PredictionRecord(nil), f.predictions...), nil
}

func newTestService(storage *fakeStorage, strict, autoTrain bool) *ClassificationService {
	source := &fakeSource{corpora: map[string]domain.Corpus{
		"emails.csv": dataset.DemoCorpus()[:10],
	}}
	opts := ServiceOptions{
		Pipeline:   DefaultPipelineOptions(),
		Strict:     strict,
		AutoTrain:  autoTrain,
		DemoCorpus: dataset.DemoCorpus,
	}
	if storage == nil {
		return NewClassificationService(source, nil, opts, nil)
	}
	return NewClassificationService(source, storage, opts, nil)
}

func TestClassificationService_LoadDataset(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		strict       bool
		expectDemo   bool
		expectError  bool
		expectedSize int
	}{
		{name: "Dataset found", path: "emails.csv", expectedSize: 10},
		{name: "Missing dataset falls back", path: "missing.csv", expectDemo: true, expectedSize: 20},
		{name: "Empty path falls back", path: "", expectDemo: true, expectedSize: 20},
		{name: "Strict surfaces error", path: "missing.csv", strict: true, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(nil, tt.strict, false)
			result, err := svc.LoadDataset(context.Background(), tt.path)

			if tt.expectError {
				assert.True(t, domain.IsDataError(err), "Expected DataError, got %v", err)
				assert.Equal(t, "Empty", svc.Status().Stage)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectDemo, result.UsedDemoCorpus)
			assert.Equal(t, tt.expectedSize, result.Examples)
			if tt.expectDemo {
				assert.Equal(t, DemoSource, result.Source)
				assert.True(t, domain.IsDataError(result.Cause))
			} else {
				assert.NoError(t, result.Cause)
			}
			assert.Equal(t, "Loaded", svc.Status().Stage)
		})
	}
}

func TestClassificationService_LoadDataset_Canceled(t *testing.T) {
	svc := newTestService(nil, false, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.LoadDataset(ctx, "emails.csv")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "Empty", svc.Status().Stage)
}

func TestClassificationService_StrictFailureKeepsModel(t *testing.T) {
	svc := newTestService(nil, true, false)
	ctx := context.Background()

	_, err := svc.LoadDataset(ctx, "emails.csv")
	require.NoError(t, err)
	_, err = svc.Train(ctx)
	require.NoError(t, err)

	_, err = svc.LoadDataset(ctx, "missing.csv")
	require.Error(t, err)

	status := svc.Status()
	assert.Equal(t, "Trained", status.Stage)
	assert.Equal(t, "emails.csv", status.Source)
}

func TestClassificationService_Retrain(t *testing.T) {
	storage := &fakeStorage{}
	svc := newTestService(storage, false, false)
	ctx := context.Background()

	_, err := svc.LoadDataset(ctx, "missing.csv")
	require.NoError(t, err)
	_, err = svc.Train(ctx)
	require.NoError(t, err)

	report, err := svc.Retrain(ctx, "emails.csv")
	require.NoError(t, err)
	assert.Equal(t, 10, report.TrainSize+report.TestSize)

	status := svc.Status()
	assert.Equal(t, "Trained", status.Stage)
	assert.Equal(t, "emails.csv", status.Source)
	assert.False(t, status.UsedDemoCorpus)
	assert.Equal(t, 10, status.Examples)

	require.Len(t, storage.runs, 2)
	assert.Equal(t, "emails.csv", storage.runs[1].Source)
	assert.False(t, storage.runs[1].UsedDemoCorpus)
	require.NotNil(t, status.RunID)
	assert.Equal(t, storage.runs[1].ID, *status.RunID)
}

func TestClassificationService_RetrainFailureKeepsModel(t *testing.T) {
	var fraudOnly domain.Corpus
	for _, ex := range dataset.DemoCorpus() {
		if ex.Label == domain.LabelFraudulent {
			fraudOnly = append(fraudOnly, ex)
		}
	}

	tests := []struct {
		name string
		path string
	}{
		{name: "Missing dataset", path: "missing.csv"},
		{name: "Empty path", path: " "},
		{name: "Single class dataset", path: "fraud-only.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := &fakeStorage{}
			source := &fakeSource{corpora: map[string]domain.Corpus{
				"emails.csv":     dataset.DemoCorpus(),
				"fraud-only.csv": fraudOnly,
			}}
			svc := NewClassificationService(source, storage, ServiceOptions{
				Pipeline:   DefaultPipelineOptions(),
				DemoCorpus: dataset.DemoCorpus,
			}, nil)
			ctx := context.Background()

			_, err := svc.Retrain(ctx, "emails.csv")
			require.NoError(t, err)
			before := svc.Status()

			_, err = svc.Retrain(ctx, tt.path)
			assert.True(t, domain.IsDataError(err), "Expected DataError, got %v", err)

			after := svc.Status()
			assert.Equal(t, "Trained", after.Stage)
			assert.Equal(t, "emails.csv", after.Source)
			assert.False(t, after.UsedDemoCorpus)
			assert.Equal(t, before.RunID, after.RunID)
			assert.Len(t, storage.runs, 1)

			prediction, err := svc.Predict(ctx, "FREE gift card! Claim now")
			require.NoError(t, err)
			assert.Equal(t, domain.LabelFraudulent, prediction.Label)
		})
	}
}

func TestClassificationService_TrainAndPredict(t *testing.T) {
	storage := &fakeStorage{}
	svc := newTestService(storage, false, false)
	ctx := context.Background()

	_, err := svc.Predict(ctx, "FREE gift card! Claim now")
	assert.True(t, domain.IsStateError(err), "predict before train: %v", err)

	_, err = svc.Train(ctx)
	assert.True(t, domain.IsStateError(err), "train before load: %v", err)

	_, err = svc.LoadDataset(ctx, "missing.csv")
	require.NoError(t, err)

	report, err := svc.Train(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.TestSize)

	prediction, err := svc.Predict(ctx, "FREE gift card! Claim now")
	require.NoError(t, err)
	assert.Equal(t, domain.LabelFraudulent, prediction.Label)

	require.Len(t, storage.runs, 1)
	assert.Equal(t, DemoSource, storage.runs[0].Source)
	assert.True(t, storage.runs[0].UsedDemoCorpus)
	assert.Equal(t, 20, storage.runs[0].CorpusSize)

	require.Len(t, storage.predictions, 1)
	assert.Equal(t, storage.runs[0].ID, storage.predictions[0].RunID)
	assert.Equal(t, "FREE gift card! Claim now", storage.predictions[0].Text)

	status := svc.Status()
	assert.Equal(t, "Trained", status.Stage)
	require.NotNil(t, status.RunID)
	assert.Equal(t, storage.runs[0].ID, *status.RunID)
	require.NotNil(t, status.Report)
	assert.Equal(t, report, *status.Report)
}

func TestClassificationService_AutoTrain(t *testing.T) {
	storage := &fakeStorage{}
	svc := newTestService(storage, false, true)

	prediction, err := svc.Predict(context.Background(), "Hi, see you at lunch tomorrow")
	require.NoError(t, err)
	assert.Equal(t, "Legitimate", prediction.LabelName())

	status := svc.Status()
	assert.Equal(t, "Trained", status.Stage)
	assert.True(t, status.UsedDemoCorpus)
	assert.Len(t, storage.runs, 1, "implicit training is recorded")
}

func TestClassificationService_AutoTrainUsesLoadedCorpus(t *testing.T) {
	svc := newTestService(nil, false, true)
	ctx := context.Background()

	_, err := svc.LoadDataset(ctx, "emails.csv")
	require.NoError(t, err)
	_, err = svc.Predict(ctx, "verify your account")
	require.NoError(t, err)

	status := svc.Status()
	assert.False(t, status.UsedDemoCorpus)
	assert.Equal(t, 10, status.Examples)
}

func TestClassificationService_StorageFailuresAreNotFatal(t *testing.T) {
	svc := newTestService(&fakeStorage{failWrites: true}, false, true)

	_, err := svc.Predict(context.Background(), "claim your prize")
	assert.NoError(t, err)
}

func TestClassificationService_History(t *testing.T) {
	t.Run("Storage disabled", func(t *testing.T) {
		svc := newTestService(nil, false, false)
		_, err := svc.History(context.Background(), 10)
		assert.ErrorIs(t, err, ErrStorageDisabled)
	})

	t.Run("Storage enabled", func(t *testing.T) {
		storage := &fakeStorage{}
		svc := newTestService(storage, false, true)
		ctx := context.Background()

		_, err := svc.Predict(ctx, "claim your prize")
		require.NoError(t, err)

		history, err := svc.History(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, history.Runs, 1)
		assert.Len(t, history.Predictions, 1)
	})
}

func TestClassificationService_ConcurrentPredict(t *testing.T) {
	svc := newTestService(&fakeStorage{}, false, true)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Predict(ctx, "urgent: verify your bank account")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, "Trained", svc.Status().Stage)
}
