package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stoik/email-fraud-classifier/internal/domain"
	"github.com/stoik/email-fraud-classifier/internal/ports"
)

// CSVSource implements ports.CorpusSource for CSV files with a header row
type CSVSource struct {
	datasetDir string
	logger     *slog.Logger
}

var _ ports.CorpusSource = (*CSVSource)(nil)

// NewCSVSource creates a CSV corpus source. Relative paths that do not exist
// are retried under datasetDir (which may be empty).
func NewCSVSource(datasetDir string, logger *slog.Logger) *CSVSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSource{datasetDir: datasetDir, logger: logger}
}

// Load reads a labeled corpus from the CSV file at path
func (s *CSVSource) Load(ctx context.Context, path string) (domain.Corpus, error) {
	resolved, err := ResolvePath(path, s.datasetDir)
	if err != nil {
		return nil, err
	}
	if resolved != path {
		s.logger.Info("found dataset in dataset directory", "path", resolved)
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, domain.NewDataError(err, "failed to open dataset %s", resolved)
	}
	defer f.Close()

	corpus, err := s.read(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", resolved, err)
	}

	s.logger.Info("dataset loaded", "path", resolved, "emails", len(corpus))
	return corpus, nil
}

func (s *CSVSource) read(ctx context.Context, r io.Reader) (domain.Corpus, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.NewDataError(nil, "dataset is empty")
	}
	if err != nil {
		return nil, domain.NewDataError(err, "malformed header")
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	mapping, err := ResolveColumns(header)
	if err != nil {
		return nil, err
	}
	if mapping.Renamed() {
		s.logger.Info("renamed columns",
			"text_column", mapping.TextColumn,
			"label_column", mapping.LabelColumn)
	}

	corpus := make(domain.Corpus, 0)
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewDataError(err, "malformed record at line %d", line)
		}

		label, err := ParseLabel(field(record, mapping.LabelIndex))
		if err != nil {
			// Don't fail the whole dataset for one bad row
			s.logger.Warn("skipping row", "line", line, "error", err)
			continue
		}

		corpus = append(corpus, domain.LabeledExample{
			Text:  ExtractText(field(record, mapping.TextIndex)),
			Label: label,
		})
	}

	if len(corpus) == 0 {
		return nil, domain.NewDataError(nil, "dataset has no usable rows")
	}
	return corpus, nil
}

// field returns record[i], or "" for short rows
func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

// ParseLabel maps the label spellings found in public spam/fraud datasets to the binary domain
func ParseLabel(raw string) (domain.Label, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "1", "true", "yes", "spam", "fraud", "fraudulent", "phishing", "scam":
		return domain.LabelFraudulent, nil
	case "0", "false", "no", "ham", "legit", "legitimate", "safe", "normal":
		return domain.LabelLegitimate, nil
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		switch f {
		case 1:
			return domain.LabelFraudulent, nil
		case 0:
			return domain.LabelLegitimate, nil
		}
	}
	return 0, domain.NewDataError(nil, "unrecognized label %q", raw)
}

// ResolvePath returns path when it exists, else the file with the same base
// name under datasetDir. A DataError wrapping os.ErrNotExist is returned when
// neither exists.
func ResolvePath(path, datasetDir string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", domain.NewDataError(nil, "no dataset path given")
	}
	if fileExists(path) {
		return path, nil
	}
	if datasetDir != "" {
		candidate := filepath.Join(datasetDir, filepath.Base(path))
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", domain.NewDataError(os.ErrNotExist, "dataset %s not found", path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
