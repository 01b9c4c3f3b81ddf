package classification

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/stoik/email-fraud-classifier/internal/domain"
)

// decisionThreshold is the P(fraud) above which a message is labeled fraudulent
const decisionThreshold = 0.5

// ClassifierOptions configures logistic regression training
type ClassifierOptions struct {
	MaxIterations int     // hard bound on gradient steps
	LearningRate  float64 // gradient descent step size
	C             float64 // inverse L2 regularization strength
	Tolerance     float64 // stop once the largest gradient component falls below this
	Seed          uint64  // seeds weight initialization only
}

// DefaultClassifierOptions returns the standard training configuration
func DefaultClassifierOptions() ClassifierOptions {
	return ClassifierOptions{
		MaxIterations: 1000,
		LearningRate:  1.0,
		C:             100,
		Tolerance:     1e-6,
		Seed:          42,
	}
}

// Validate checks the options are usable
func (o ClassifierOptions) Validate() error {
	switch {
	case o.MaxIterations <= 0:
		return domain.NewConfigError("max iterations must be positive, got %d", o.MaxIterations)
	case o.LearningRate <= 0:
		return domain.NewConfigError("learning rate must be positive, got %g", o.LearningRate)
	case o.C <= 0:
		return domain.NewConfigError("inverse regularization must be positive, got %g", o.C)
	case o.Tolerance < 0:
		return domain.NewConfigError("tolerance must not be negative, got %g", o.Tolerance)
	}
	return nil
}

// LogisticClassifier is a binary logistic regression model over feature vectors.
// It is only meaningful together with the FeatureSpace it was trained on.
type LogisticClassifier struct {
	weights    []float64
	bias       float64
	iterations int
}

// TrainLogistic fits an L2-regularized logistic regression by full-batch
// gradient descent on the mean log-loss. The bias is not regularized.
func TrainLogistic(X []Vector, y []domain.Label, opts ClassifierOptions) (*LogisticClassifier, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return nil, domain.NewDataError(nil, "cannot train on an empty set")
	}
	if len(X) != len(y) {
		return nil, domain.NewDataError(nil, "got %d vectors but %d labels", len(X), len(y))
	}

	dim := X[0].Dim
	for i, x := range X {
		if x.Dim != dim {
			return nil, domain.NewDataError(nil, "vector %d has dimension %d, expected %d", i, x.Dim, dim)
		}
	}

	classes := make(map[domain.Label]bool)
	for i, label := range y {
		if !label.Valid() {
			return nil, domain.NewDataError(nil, "label %d at row %d is outside {0,1}", int(label), i)
		}
		classes[label] = true
	}
	if len(classes) < 2 {
		return nil, domain.NewDataError(nil, "training data must contain both classes")
	}

	// Small random initialization breaks symmetry; the seed makes it reproducible
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	w := make([]float64, dim)
	for i := range w {
		w[i] = rng.NormFloat64() * 0.01
	}
	b := 0.0

	n := float64(len(X))
	lambda := 1 / (opts.C * n)
	grad := make([]float64, dim)
	iterations := 0

	for iterations < opts.MaxIterations {
		clear(grad)
		gb := 0.0
		for i, x := range X {
			r := sigmoid(x.Dot(w)+b) - float64(y[i])
			for k, idx := range x.Indices {
				grad[idx] += r * x.Values[k]
			}
			gb += r
		}
		floats.Scale(1/n, grad)
		gb /= n
		floats.AddScaled(grad, lambda, w)

		iterations++
		if gradientMax(grad, gb) < opts.Tolerance {
			break
		}

		floats.AddScaled(w, -opts.LearningRate, grad)
		b -= opts.LearningRate * gb
	}

	return &LogisticClassifier{weights: w, bias: b, iterations: iterations}, nil
}

// Probability returns the estimated P(label = fraudulent) for x
func (m *LogisticClassifier) Probability(x Vector) float64 {
	return sigmoid(x.Dot(m.weights) + m.bias)
}

// Predict thresholds the fraud probability at 0.5
func (m *LogisticClassifier) Predict(x Vector) domain.Label {
	if m.Probability(x) > decisionThreshold {
		return domain.LabelFraudulent
	}
	return domain.LabelLegitimate
}

// PredictProba returns the confidence in the chosen label: max(p, 1-p).
// It is never below 0.5.
func (m *LogisticClassifier) PredictProba(x Vector) float64 {
	p := m.Probability(x)
	return math.Max(p, 1-p)
}

// PredictBatch labels every vector
func (m *LogisticClassifier) PredictBatch(X []Vector) []domain.Label {
	out := make([]domain.Label, len(X))
	for i, x := range X {
		out[i] = m.Predict(x)
	}
	return out
}

// Dim returns the feature dimension the model was trained on
func (m *LogisticClassifier) Dim() int {
	return len(m.weights)
}

// Weights returns a copy of the learned weight vector
func (m *LogisticClassifier) Weights() []float64 {
	return append([]float64(nil), m.weights...)
}

// Bias returns the learned intercept
func (m *LogisticClassifier) Bias() float64 {
	return m.bias
}

// Iterations returns how many gradient steps training used
func (m *LogisticClassifier) Iterations() int {
	return m.iterations
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	// Numerically stable branch for large negative z
	e := math.Exp(z)
	return e / (1 + e)
}

func gradientMax(grad []float64, gb float64) float64 {
	m := math.Abs(gb)
	if len(grad) > 0 {
		m = math.Max(m, floats.Norm(grad, math.Inf(1)))
	}
	return m
}
