package ports

import (
	"context"

	"github.com/stoik/email-fraud-classifier/internal/domain"
)

// CorpusSource defines the contract for reading a labeled corpus from an external dataset
type CorpusSource interface {
	// Load reads the dataset at path and returns its labeled examples.
	// Unresolvable columns and empty datasets are reported as domain.DataError.
	Load(ctx context.Context, path string) (domain.Corpus, error)
}
