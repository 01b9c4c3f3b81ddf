package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoik/email-fraud-classifier/internal/adapters/dataset"
	"github.com/stoik/email-fraud-classifier/internal/domain"
)

func trainedPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p := NewPipeline(DefaultPipelineOptions(), nil)
	require.NoError(t, p.Load(dataset.DemoCorpus()))
	require.NoError(t, p.Prepare())
	_, err := p.Train()
	require.NoError(t, err)
	return p
}

func TestPipeline_StateErrors(t *testing.T) {
	p := NewPipeline(DefaultPipelineOptions(), nil)
	assert.Equal(t, StageEmpty, p.Stage())

	err := p.Prepare()
	assert.True(t, domain.IsStateError(err), "prepare before load: %v", err)

	_, err = p.Train()
	assert.True(t, domain.IsStateError(err), "train before prepare: %v", err)

	_, err = p.Predict("hello")
	assert.True(t, domain.IsStateError(err), "predict before train: %v", err)

	require.NoError(t, p.Load(dataset.DemoCorpus()))
	_, err = p.Train()
	assert.True(t, domain.IsStateError(err), "train before prepare: %v", err)
	assert.Equal(t, StageLoaded, p.Stage(), "failed operation leaves state intact")

	require.NoError(t, p.Prepare())
	_, err = p.Predict("hello")
	assert.True(t, domain.IsStateError(err))
	assert.Equal(t, StagePrepared, p.Stage())
}

func TestPipeline_StateErrorDetails(t *testing.T) {
	p := NewPipeline(DefaultPipelineOptions(), nil)
	_, err := p.Predict("hello")

	var stateErr *domain.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "predict", stateErr.Op)
	assert.Equal(t, "Empty", stateErr.Current)
	assert.Equal(t, "Trained", stateErr.Required)
}

func TestPipeline_LoadRejectsInvalidCorpus(t *testing.T) {
	p := trainedPipeline(t)

	err := p.Load(nil)
	assert.True(t, domain.IsDataError(err))
	assert.Equal(t, StageTrained, p.Stage(), "failed load keeps the trained model")

	_, err = p.Predict("hello")
	assert.NoError(t, err)
}

func TestPipeline_PrepareRejectsSingleClass(t *testing.T) {
	p := NewPipeline(DefaultPipelineOptions(), nil)
	require.NoError(t, p.Load(domain.Corpus{
		{Text: "win money", Label: domain.LabelFraudulent},
		{Text: "claim prize", Label: domain.LabelFraudulent},
		{Text: "free cash", Label: domain.LabelFraudulent},
	}))

	err := p.Prepare()
	assert.True(t, domain.IsDataError(err), "Expected DataError, got %v", err)
	assert.Equal(t, StageLoaded, p.Stage())
}

func TestPipeline_DemoEndToEnd(t *testing.T) {
	p := NewPipeline(DefaultPipelineOptions(), nil)
	require.NoError(t, p.Load(dataset.DemoCorpus()))
	require.NoError(t, p.Prepare())

	split, ok := p.Split()
	require.True(t, ok)
	assert.Len(t, split.Test, 4)
	assert.Len(t, split.Train, 16)
	testCounts := split.Test.CountByLabel()
	assert.Equal(t, 3, testCounts[domain.LabelFraudulent])
	assert.Equal(t, 1, testCounts[domain.LabelLegitimate])

	report, err := p.Train()
	require.NoError(t, err)
	assert.Equal(t, StageTrained, p.Stage())
	assert.Equal(t, 16, report.TrainSize)
	assert.Equal(t, 4, report.TestSize)
	assert.GreaterOrEqual(t, report.TrainAccuracy, 0.0)
	assert.LessOrEqual(t, report.TrainAccuracy, 1.0)
	assert.GreaterOrEqual(t, report.TestAccuracy, 0.0)
	assert.LessOrEqual(t, report.TestAccuracy, 1.0)
	assert.LessOrEqual(t, report.VocabularySize, DefaultPipelineOptions().MaxFeatures)
	assert.Len(t, p.Vocabulary(), report.VocabularySize)

	tests := []struct {
		text     string
		expected string
	}{
		{text: "FREE gift card! Claim now", expected: "Fraudulent"},
		{text: "Hi, see you at lunch tomorrow", expected: "Legitimate"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			prediction, err := p.Predict(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, prediction.LabelName())
			assert.GreaterOrEqual(t, prediction.Confidence, 0.5)
			assert.LessOrEqual(t, prediction.Confidence, 1.0)
		})
	}
}

func TestPipeline_PredictUnknownVocabulary(t *testing.T) {
	p := trainedPipeline(t)

	for _, text := range []string{"", "!!! 123 ???", "zzzz qqqq"} {
		prediction, err := p.Predict(text)
		require.NoError(t, err)
		assert.True(t, prediction.Label.Valid())
		assert.GreaterOrEqual(t, prediction.Confidence, 0.5)
	}
}

func TestPipeline_Deterministic(t *testing.T) {
	first := trainedPipeline(t)
	second := trainedPipeline(t)

	r1, _ := first.Report()
	r2, _ := second.Report()
	assert.Equal(t, r1, r2)

	p1, err := first.Predict("Urgent: verify your bank account")
	require.NoError(t, err)
	p2, err := second.Predict("Urgent: verify your bank account")
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestPipeline_ReloadInvalidatesModel(t *testing.T) {
	p := trainedPipeline(t)

	require.NoError(t, p.Load(dataset.DemoCorpus()))
	assert.Equal(t, StageLoaded, p.Stage())

	_, ok := p.Report()
	assert.False(t, ok)
	_, ok = p.Split()
	assert.False(t, ok)
	assert.Nil(t, p.Vocabulary())

	_, err := p.Predict("hello")
	assert.True(t, domain.IsStateError(err))
}

func TestPipeline_PrepareDiscardsModel(t *testing.T) {
	p := trainedPipeline(t)

	require.NoError(t, p.Prepare())
	assert.Equal(t, StagePrepared, p.Stage())
	_, err := p.Predict("hello")
	assert.True(t, domain.IsStateError(err))
}

func TestPipeline_EnsureTrained(t *testing.T) {
	t.Run("Empty without fallback", func(t *testing.T) {
		p := NewPipeline(DefaultPipelineOptions(), nil)
		err := p.EnsureTrained(nil)
		assert.True(t, domain.IsStateError(err))
		assert.Equal(t, StageEmpty, p.Stage())
	})

	t.Run("Empty with fallback", func(t *testing.T) {
		p := NewPipeline(DefaultPipelineOptions(), nil)
		require.NoError(t, p.EnsureTrained(dataset.DemoCorpus))
		assert.Equal(t, StageTrained, p.Stage())
		assert.Len(t, p.Corpus(), 20)
	})

	t.Run("Loaded corpus is kept", func(t *testing.T) {
		p := NewPipeline(DefaultPipelineOptions(), nil)
		require.NoError(t, p.Load(dataset.DemoCorpus()[:10]))
		called := false
		require.NoError(t, p.EnsureTrained(func() domain.Corpus {
			called = true
			return dataset.DemoCorpus()
		}))
		assert.False(t, called)
		assert.Len(t, p.Corpus(), 10)
	})

	t.Run("Already trained is a no-op", func(t *testing.T) {
		p := trainedPipeline(t)
		before, _ := p.Report()
		require.NoError(t, p.EnsureTrained(nil))
		after, _ := p.Report()
		assert.Equal(t, before, after)
	})
}

func TestPipeline_CorpusIsCopied(t *testing.T) {
	corpus := dataset.DemoCorpus()
	p := NewPipeline(DefaultPipelineOptions(), nil)
	require.NoError(t, p.Load(corpus))

	corpus[0].Text = "mutated"
	assert.NotEqual(t, "mutated", p.Corpus()[0].Text)
}
