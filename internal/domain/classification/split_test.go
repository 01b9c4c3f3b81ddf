package classification

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoik/email-fraud-classifier/internal/domain"
)

func makeCorpus(fraud, legit int) domain.Corpus {
	corpus := make(domain.Corpus, 0, fraud+legit)
	for i := 0; i < fraud; i++ {
		corpus = append(corpus, domain.LabeledExample{Text: fmt.Sprintf("fraud %d", i), Label: domain.LabelFraudulent})
	}
	for i := 0; i < legit; i++ {
		corpus = append(corpus, domain.LabeledExample{Text: fmt.Sprintf("legit %d", i), Label: domain.LabelLegitimate})
	}
	return corpus
}

func TestStratifiedSplit_Proportions(t *testing.T) {
	tests := []struct {
		name      string
		fraud     int
		legit     int
		wantTest  int
		wantFraud int
		wantLegit int
	}{
		{name: "Demonstration corpus shape", fraud: 13, legit: 7, wantTest: 4, wantFraud: 3, wantLegit: 1},
		{name: "Remainder to larger share", fraud: 12, legit: 8, wantTest: 4, wantFraud: 2, wantLegit: 2},
		{name: "Balanced", fraud: 50, legit: 50, wantTest: 20, wantFraud: 10, wantLegit: 10},
		{name: "Imbalanced", fraud: 10, legit: 90, wantTest: 20, wantFraud: 2, wantLegit: 18},
		{name: "Ceil on test size", fraud: 3, legit: 3, wantTest: 2, wantFraud: 1, wantLegit: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corpus := makeCorpus(tt.fraud, tt.legit)
			split, err := StratifiedSplit(corpus, DefaultTestFraction, 42)
			require.NoError(t, err)

			assert.Len(t, split.Test, tt.wantTest)
			assert.Len(t, split.Train, len(corpus)-tt.wantTest)

			testCounts := split.Test.CountByLabel()
			assert.Equal(t, tt.wantFraud, testCounts[domain.LabelFraudulent])
			assert.Equal(t, tt.wantLegit, testCounts[domain.LabelLegitimate])

			trainCounts := split.Train.CountByLabel()
			assert.Equal(t, tt.fraud-tt.wantFraud, trainCounts[domain.LabelFraudulent])
			assert.Equal(t, tt.legit-tt.wantLegit, trainCounts[domain.LabelLegitimate])
		})
	}
}

func TestStratifiedSplit_Deterministic(t *testing.T) {
	corpus := makeCorpus(30, 20)

	first, err := StratifiedSplit(corpus, DefaultTestFraction, 7)
	require.NoError(t, err)
	second, err := StratifiedSplit(corpus, DefaultTestFraction, 7)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestStratifiedSplit_IsPartition(t *testing.T) {
	corpus := makeCorpus(12, 8)
	split, err := StratifiedSplit(corpus, DefaultTestFraction, 42)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, ex := range append(append(domain.Corpus{}, split.Train...), split.Test...) {
		seen[ex.Text]++
	}
	assert.Len(t, seen, len(corpus))
	for text, count := range seen {
		assert.Equal(t, 1, count, text)
	}
}

func TestStratifiedSplit_Errors(t *testing.T) {
	tests := []struct {
		name      string
		corpus    domain.Corpus
		fraction  float64
		checkKind func(error) bool
	}{
		{name: "Empty corpus", corpus: domain.Corpus{}, fraction: 0.2, checkKind: domain.IsDataError},
		{name: "Single class", corpus: makeCorpus(5, 0), fraction: 0.2, checkKind: domain.IsDataError},
		{name: "Class with one member", corpus: makeCorpus(5, 1), fraction: 0.2, checkKind: domain.IsDataError},
		{name: "Fraction out of range", corpus: makeCorpus(5, 5), fraction: 1.0, checkKind: domain.IsConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StratifiedSplit(tt.corpus, tt.fraction, 42)
			assert.True(t, tt.checkKind(err), "unexpected error kind: %v", err)
		})
	}
}
