package classification

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/stoik/email-fraud-classifier/internal/domain"
)

// DefaultMaxFeatures bounds the vocabulary size
const DefaultMaxFeatures = 5000

// minTokenLength drops single-character tokens
const minTokenLength = 2

// Vector is a sparse fixed-dimension feature vector.
// Indices are strictly increasing; Values[k] is the weight at Indices[k].
type Vector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// Dense expands the vector to a slice of length Dim
func (v Vector) Dense() []float64 {
	out := make([]float64, v.Dim)
	for k, idx := range v.Indices {
		out[idx] = v.Values[k]
	}
	return out
}

// Dot returns the inner product of v with a dense weight slice of length Dim
func (v Vector) Dot(w []float64) float64 {
	sum := 0.0
	for k, idx := range v.Indices {
		sum += v.Values[k] * w[idx]
	}
	return sum
}

// FeatureSpace is a fitted TF-IDF transform over a bounded vocabulary.
// It is immutable once fitted: transforming never extends the vocabulary.
type FeatureSpace struct {
	vocabulary map[string]int
	terms      []string  // index -> term
	idf        []float64 // index -> inverse document frequency
	documents  int
}

// FitFeatureSpace builds the vocabulary and document-frequency statistics from
// normalized training texts.
//
// The vocabulary keeps at most maxFeatures tokens, ranked by total count across
// the corpus (ties broken by token order), with stop words excluded. Indices are
// assigned in lexicographic token order, so identical input always yields an
// identical space.
func FitFeatureSpace(texts []string, maxFeatures int) (*FeatureSpace, error) {
	if maxFeatures <= 0 {
		return nil, domain.NewConfigError("max features must be positive, got %d", maxFeatures)
	}
	if len(texts) == 0 {
		return nil, domain.NewConfigError("cannot fit feature space on an empty corpus")
	}

	termCounts := make(map[string]int)
	docFreq := make(map[string]int)
	for _, text := range texts {
		seen := make(map[string]bool)
		for _, tok := range Tokenize(text) {
			termCounts[tok]++
			if !seen[tok] {
				seen[tok] = true
				docFreq[tok]++
			}
		}
	}

	if len(termCounts) == 0 {
		return nil, domain.NewConfigError("empty vocabulary: no usable tokens after stop-word removal")
	}

	ranked := make([]string, 0, len(termCounts))
	for term := range termCounts {
		ranked = append(ranked, term)
	}
	sort.Slice(ranked, func(i, j int) bool {
		ci, cj := termCounts[ranked[i]], termCounts[ranked[j]]
		if ci != cj {
			return ci > cj
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > maxFeatures {
		ranked = ranked[:maxFeatures]
	}
	sort.Strings(ranked)

	n := float64(len(texts))
	fs := &FeatureSpace{
		vocabulary: make(map[string]int, len(ranked)),
		terms:      ranked,
		idf:        make([]float64, len(ranked)),
		documents:  len(texts),
	}
	for i, term := range ranked {
		fs.vocabulary[term] = i
		// Smoothed idf: as if one extra document contained every term
		fs.idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	return fs, nil
}

// FitTransform fits a feature space on texts and returns it with their vectors
func FitTransform(texts []string, maxFeatures int) (*FeatureSpace, []Vector, error) {
	fs, err := FitFeatureSpace(texts, maxFeatures)
	if err != nil {
		return nil, nil, err
	}
	return fs, fs.Transform(texts), nil
}

// Transform maps each text to a vector over the fitted vocabulary.
// Out-of-vocabulary tokens contribute nothing.
func (fs *FeatureSpace) Transform(texts []string) []Vector {
	out := make([]Vector, len(texts))
	for i, text := range texts {
		out[i] = fs.TransformOne(text)
	}
	return out
}

// TransformOne maps a single text to an L2-normalized TF-IDF vector
func (fs *FeatureSpace) TransformOne(text string) Vector {
	counts := make(map[int]int)
	for _, tok := range Tokenize(text) {
		if idx, ok := fs.vocabulary[tok]; ok {
			counts[idx]++
		}
	}

	v := Vector{Dim: len(fs.terms)}
	if len(counts) == 0 {
		return v
	}

	v.Indices = make([]int, 0, len(counts))
	for idx := range counts {
		v.Indices = append(v.Indices, idx)
	}
	sort.Ints(v.Indices)

	v.Values = make([]float64, len(v.Indices))
	for k, idx := range v.Indices {
		v.Values[k] = float64(counts[idx]) * fs.idf[idx]
	}

	if l2 := floats.Norm(v.Values, 2); l2 > 0 {
		floats.Scale(1/l2, v.Values)
	}
	return v
}

// Dim returns the fixed dimensionality of every transformed vector
func (fs *FeatureSpace) Dim() int {
	return len(fs.terms)
}

// Vocabulary returns the fitted terms in index order
func (fs *FeatureSpace) Vocabulary() []string {
	return append([]string(nil), fs.terms...)
}

// Index returns the vocabulary index of term
func (fs *FeatureSpace) Index(term string) (int, bool) {
	idx, ok := fs.vocabulary[term]
	return idx, ok
}

// IDF returns the inverse document frequency weight of term
func (fs *FeatureSpace) IDF(term string) (float64, bool) {
	idx, ok := fs.vocabulary[term]
	if !ok {
		return 0, false
	}
	return fs.idf[idx], true
}

// Documents returns the number of training documents the space was fitted on
func (fs *FeatureSpace) Documents() int {
	return fs.documents
}

// Tokenize splits normalized text into vocabulary candidates:
// whitespace-separated tokens of at least two characters that are not stop words.
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) < minTokenLength || IsStopWord(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
