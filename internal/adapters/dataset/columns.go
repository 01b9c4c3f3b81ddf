package dataset

import (
	"strings"

	"github.com/stoik/email-fraud-classifier/internal/domain"
)

// Canonical column names
const (
	TextColumn  = "text"
	LabelColumn = "label"
)

var (
	textSynonyms  = []string{"text", "content", "message"}
	labelSynonyms = []string{"label", "target", "spam", "fraud"}
)

// ColumnMapping locates the text and label columns of a tabular source
type ColumnMapping struct {
	TextColumn  string
	TextIndex   int
	LabelColumn string
	LabelIndex  int
}

// Renamed reports whether either column deviates from the canonical names
func (m ColumnMapping) Renamed() bool {
	return m.TextColumn != TextColumn || m.LabelColumn != LabelColumn
}

// ResolveColumns maps a header row to the text and label columns.
//
// Exact "text"/"label" columns win. Otherwise a case-insensitive substring match
// against the synonyms is used (content/message for text; target/spam/fraud for
// label); when several columns match, the last one wins. A column already chosen
// as text is not considered for the label.
func ResolveColumns(header []string) (ColumnMapping, error) {
	m := ColumnMapping{TextIndex: -1, LabelIndex: -1}

	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if name == TextColumn {
			m.TextColumn, m.TextIndex = col, i
		}
		if name == LabelColumn {
			m.LabelColumn, m.LabelIndex = col, i
		}
	}

	exactText, exactLabel := m.TextIndex >= 0, m.LabelIndex >= 0
	for i, col := range header {
		name := strings.ToLower(col)
		isText := containsAny(name, textSynonyms)
		if !exactText && isText {
			m.TextColumn, m.TextIndex = col, i
		}
		if !exactLabel && !isText && containsAny(name, labelSynonyms) {
			m.LabelColumn, m.LabelIndex = col, i
		}
	}

	// Never echo header cells
	if missing := m.missing(); len(missing) > 0 {
		return ColumnMapping{}, domain.NewDataError(nil,
			"dataset has no %s column (or a recognizable synonym) among %d columns",
			strings.Join(missing, " or "), len(header))
	}
	return m, nil
}

func (m ColumnMapping) missing() []string {
	var missing []string
	if m.TextIndex < 0 {
		missing = append(missing, TextColumn)
	}
	if m.LabelIndex < 0 || m.LabelIndex == m.TextIndex {
		missing = append(missing, LabelColumn)
	}
	return missing
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
