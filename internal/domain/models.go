package domain

import (
	"time"

	"github.com/google/uuid"
)

// Label is the closed binary class of a message
type Label int

const (
	LabelLegitimate Label = 0
	LabelFraudulent Label = 1
)

// Labels lists every valid label in ascending order
var Labels = []Label{LabelLegitimate, LabelFraudulent}

// String returns the human-readable label name reported to users
func (l Label) String() string {
	if l == LabelFraudulent {
		return "Fraudulent"
	}
	return "Legitimate"
}

// Valid reports whether l belongs to the closed label domain {0, 1}
func (l Label) Valid() bool {
	return l == LabelLegitimate || l == LabelFraudulent
}

// LabeledExample is a single message with its known class
type LabeledExample struct {
	Text  string `json:"text"`
	Label Label  `json:"label"`
}

// Corpus is an ordered sequence of labeled examples.
// Order only matters for reproducible splitting.
type Corpus []LabeledExample

// Validate checks the corpus invariants: non-empty and every label in {0, 1}
func (c Corpus) Validate() error {
	if len(c) == 0 {
		return NewDataError(nil, "corpus is empty")
	}
	for i, ex := range c {
		if !ex.Label.Valid() {
			return NewDataError(nil, "example %d has label %d outside {0,1}", i, int(ex.Label))
		}
	}
	return nil
}

// Texts returns the text of every example, in order
func (c Corpus) Texts() []string {
	out := make([]string, len(c))
	for i, ex := range c {
		out[i] = ex.Text
	}
	return out
}

// LabelValues returns the label of every example, in order
func (c Corpus) LabelValues() []Label {
	out := make([]Label, len(c))
	for i, ex := range c {
		out[i] = ex.Label
	}
	return out
}

// CountByLabel returns how many examples carry each label
func (c Corpus) CountByLabel() map[Label]int {
	counts := make(map[Label]int, len(Labels))
	for _, ex := range c {
		counts[ex.Label]++
	}
	return counts
}

// Prediction is the result of classifying one message
type Prediction struct {
	Label            Label   `json:"label"`
	Confidence       float64 `json:"confidence"`        // probability of the chosen label, in [0.5, 1]
	FraudProbability float64 `json:"fraud_probability"` // P(label = 1)
	RiskLevel        string  `json:"risk_level"`
}

// LabelName returns the name of the predicted label
func (p Prediction) LabelName() string {
	return p.Label.String()
}

// ClassReport holds per-class evaluation figures on a held-out set
type ClassReport struct {
	Label     Label   `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// TrainingReport summarizes one training pass.
// Train and test accuracy are independent figures; a gap between them exposes overfitting.
type TrainingReport struct {
	TrainAccuracy  float64       `json:"train_accuracy"`
	TestAccuracy   float64       `json:"test_accuracy"`
	Classes        []ClassReport `json:"classes"`
	VocabularySize int           `json:"vocabulary_size"`
	Iterations     int           `json:"iterations"`
	TrainSize      int           `json:"train_size"`
	TestSize       int           `json:"test_size"`
}

// TrainingRun is the stored record of a training pass.
// Only metadata is kept; the model itself is rebuilt in-process.
type TrainingRun struct {
	ID             uuid.UUID `json:"id"`
	Source         string    `json:"source"`
	UsedDemoCorpus bool      `json:"used_demo_corpus"`
	CorpusSize     int       `json:"corpus_size"`
	TrainSize      int       `json:"train_size"`
	TestSize       int       `json:"test_size"`
	TrainAccuracy  float64   `json:"train_accuracy"`
	TestAccuracy   float64   `json:"test_accuracy"`
	VocabularySize int       `json:"vocabulary_size"`
	Iterations     int       `json:"iterations"`
	TrainedAt      time.Time `json:"trained_at"`
}

// PredictionRecord is the stored audit entry of a single prediction
type PredictionRecord struct {
	ID               uuid.UUID `json:"id"`
	RunID            uuid.UUID `json:"run_id"`
	Text             string    `json:"text"`
	Label            Label     `json:"label"`
	Confidence       float64   `json:"confidence"`
	FraudProbability float64   `json:"fraud_probability"`
	PredictedAt      time.Time `json:"predicted_at"`
}

// RiskLevel converts a fraud probability to a categorical level
func RiskLevel(score float64) string {
	switch {
	case score >= 0.85:
		return "critical"
	case score >= 0.70:
		return "high"
	case score >= 0.50:
		return "medium"
	case score >= 0.30:
		return "low"
	default:
		return "none"
	}
}
