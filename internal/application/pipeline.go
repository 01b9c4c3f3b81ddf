package application

import (
	"fmt"
	"log/slog"

	"github.com/stoik/email-fraud-classifier/internal/domain"
	"github.com/stoik/email-fraud-classifier/internal/domain/classification"
)

// Stage is the pipeline state. Stages advance Empty -> Loaded -> Prepared -> Trained;
// reloading or re-preparing drops everything downstream.
type Stage int

const (
	StageEmpty Stage = iota
	StageLoaded
	StagePrepared
	StageTrained
)

func (s Stage) String() string {
	switch s {
	case StageLoaded:
		return "Loaded"
	case StagePrepared:
		return "Prepared"
	case StageTrained:
		return "Trained"
	default:
		return "Empty"
	}
}

// PipelineOptions configures the feature space, split and classifier
type PipelineOptions struct {
	MaxFeatures  int
	TestFraction float64
	SplitSeed    uint64
	Classifier   classification.ClassifierOptions
}

// DefaultPipelineOptions returns the standard configuration
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		MaxFeatures:  classification.DefaultMaxFeatures,
		TestFraction: classification.DefaultTestFraction,
		SplitSeed:    42,
		Classifier:   classification.DefaultClassifierOptions(),
	}
}

// model pairs a feature space with the classifier trained on it.
// They are always replaced together.
type model struct {
	space      *classification.FeatureSpace
	classifier *classification.LogisticClassifier
}

// Pipeline sequences Normalizer -> FeatureSpace -> Classifier across the
// load, prepare and train stages and serves predictions once trained.
//
// A Pipeline is not safe for concurrent use; ClassificationService adds locking.
// Every failed operation leaves the previous state intact.
type Pipeline struct {
	opts   PipelineOptions
	logger *slog.Logger

	stage  Stage
	corpus domain.Corpus
	split  *classification.Split
	model  *model
	report *domain.TrainingReport
}

// NewPipeline creates an empty pipeline
func NewPipeline(opts PipelineOptions, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{opts: opts, logger: logger, stage: StageEmpty}
}

// Stage returns the current pipeline stage
func (p *Pipeline) Stage() Stage {
	return p.stage
}

// Load replaces the corpus. Valid from any stage; any prepared split and
// trained model are discarded.
func (p *Pipeline) Load(corpus domain.Corpus) error {
	if err := corpus.Validate(); err != nil {
		return err
	}

	p.corpus = append(domain.Corpus(nil), corpus...)
	p.split = nil
	p.model = nil
	p.report = nil
	p.stage = StageLoaded

	counts := p.corpus.CountByLabel()
	p.logger.Info("corpus loaded",
		"examples", len(p.corpus),
		"fraudulent", counts[domain.LabelFraudulent],
		"legitimate", counts[domain.LabelLegitimate])
	return nil
}

// Prepare normalizes every example and performs the stratified split.
// Requires a loaded corpus; discards any trained model.
func (p *Pipeline) Prepare() error {
	if p.stage < StageLoaded {
		return p.stateError("prepare", StageLoaded)
	}

	normalized := make(domain.Corpus, len(p.corpus))
	for i, ex := range p.corpus {
		normalized[i] = domain.LabeledExample{Text: classification.Normalize(ex.Text), Label: ex.Label}
	}

	split, err := classification.StratifiedSplit(normalized, p.opts.TestFraction, p.opts.SplitSeed)
	if err != nil {
		return fmt.Errorf("failed to split corpus: %w", err)
	}

	p.split = &split
	p.model = nil
	p.report = nil
	p.stage = StagePrepared

	p.logger.Info("corpus prepared", "train", len(split.Train), "test", len(split.Test))
	return nil
}

// Train fits the feature space on the training split only, fits the
// classifier, and evaluates it on both splits.
func (p *Pipeline) Train() (domain.TrainingReport, error) {
	if p.stage < StagePrepared {
		return domain.TrainingReport{}, p.stateError("train", StagePrepared)
	}

	p.logger.Debug("creating features", "max_features", p.opts.MaxFeatures)
	space, xTrain, err := classification.FitTransform(p.split.Train.Texts(), p.opts.MaxFeatures)
	if err != nil {
		return domain.TrainingReport{}, fmt.Errorf("failed to fit feature space: %w", err)
	}

	xTest := space.Transform(p.split.Test.Texts())
	yTrain := p.split.Train.LabelValues()
	yTest := p.split.Test.LabelValues()

	p.logger.Debug("training model", "features", space.Dim())
	classifier, err := classification.TrainLogistic(xTrain, yTrain, p.opts.Classifier)
	if err != nil {
		return domain.TrainingReport{}, fmt.Errorf("failed to train classifier: %w", err)
	}

	testPreds := classifier.PredictBatch(xTest)
	report := domain.TrainingReport{
		TrainAccuracy:  classification.Accuracy(yTrain, classifier.PredictBatch(xTrain)),
		TestAccuracy:   classification.Accuracy(yTest, testPreds),
		Classes:        classification.ClassificationReport(yTest, testPreds),
		VocabularySize: space.Dim(),
		Iterations:     classifier.Iterations(),
		TrainSize:      len(xTrain),
		TestSize:       len(xTest),
	}

	p.model = &model{space: space, classifier: classifier}
	p.report = &report
	p.stage = StageTrained

	p.logger.Info("model trained",
		"train_accuracy", report.TrainAccuracy,
		"test_accuracy", report.TestAccuracy,
		"vocabulary", report.VocabularySize,
		"iterations", report.Iterations)
	return report, nil
}

// Predict classifies raw text through the already-fitted feature space
func (p *Pipeline) Predict(text string) (domain.Prediction, error) {
	if p.stage < StageTrained || p.model == nil {
		return domain.Prediction{}, p.stateError("predict", StageTrained)
	}

	x := p.model.space.TransformOne(classification.Normalize(text))
	fraudProb := p.model.classifier.Probability(x)

	return domain.Prediction{
		Label:            p.model.classifier.Predict(x),
		Confidence:       p.model.classifier.PredictProba(x),
		FraudProbability: fraudProb,
		RiskLevel:        domain.RiskLevel(fraudProb),
	}, nil
}

// EnsureTrained advances the pipeline to Trained, running whichever stages
// are missing. When nothing is loaded, fallback supplies the corpus.
//
// This mutates state and must be requested explicitly; Predict never calls it.
func (p *Pipeline) EnsureTrained(fallback func() domain.Corpus) error {
	if p.stage == StageEmpty {
		if fallback == nil {
			return p.stateError("ensure trained", StageLoaded)
		}
		p.logger.Info("no data loaded, loading fallback corpus")
		if err := p.Load(fallback()); err != nil {
			return err
		}
	}
	if p.stage == StageLoaded {
		if err := p.Prepare(); err != nil {
			return err
		}
	}
	if p.stage == StagePrepared {
		if _, err := p.Train(); err != nil {
			return err
		}
	}
	return nil
}

// Corpus returns a copy of the loaded corpus
func (p *Pipeline) Corpus() domain.Corpus {
	return append(domain.Corpus(nil), p.corpus...)
}

// Split returns the current train/test partition, if prepared
func (p *Pipeline) Split() (classification.Split, bool) {
	if p.split == nil {
		return classification.Split{}, false
	}
	return *p.split, true
}

// Report returns the evaluation of the current model, if trained
func (p *Pipeline) Report() (domain.TrainingReport, bool) {
	if p.report == nil {
		return domain.TrainingReport{}, false
	}
	return *p.report, true
}

// Vocabulary returns the fitted vocabulary terms, if trained
func (p *Pipeline) Vocabulary() []string {
	if p.model == nil {
		return nil
	}
	return p.model.space.Vocabulary()
}

func (p *Pipeline) stateError(op string, required Stage) error {
	return &domain.StateError{Op: op, Current: p.stage.String(), Required: required.String()}
}
