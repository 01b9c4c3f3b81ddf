package classification

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Placeholder tokens substituted for solicitation patterns
const (
	PlaceholderURL     = "URL"
	PlaceholderMoney   = "MONEY"
	PlaceholderPercent = "PERCENT"
)

var (
	urlPattern        = regexp.MustCompile(`http\S+`)
	wwwPattern        = regexp.MustCompile(`www\.\S+`)
	moneyPattern      = regexp.MustCompile(`\$\d+`)
	percentPattern    = regexp.MustCompile(`\d+%`)
	nonLetterPattern  = regexp.MustCompile(`[^a-zA-Z\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize turns raw message text into a normalized token string.
//
// Order matters: URL, money and percent patterns are replaced by placeholders
// before the generic character filter, which would otherwise destroy them.
//
//  1. NFKC folding (full-width forms become ASCII)
//  2. Lowercase, leaving existing placeholder tokens untouched
//  3. http... and www.... tokens -> URL
//  4. $<digits> -> MONEY
//  5. <digits>% -> PERCENT
//  6. Every other character that is not an ASCII letter or whitespace -> space
//  7. Collapse whitespace runs and trim
//
// Normalize is total and idempotent: Normalize(Normalize(t)) == Normalize(t).
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = norm.NFKC.String(text)
	text = lowerPreservingPlaceholders(text)

	text = urlPattern.ReplaceAllString(text, " "+PlaceholderURL+" ")
	text = wwwPattern.ReplaceAllString(text, " "+PlaceholderURL+" ")
	text = moneyPattern.ReplaceAllString(text, " "+PlaceholderMoney+" ")
	text = percentPattern.ReplaceAllString(text, " "+PlaceholderPercent+" ")

	text = nonLetterPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// NormalizeAll normalizes every text, preserving order
func NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Normalize(t)
	}
	return out
}

// lowerPreservingPlaceholders lowercases every whitespace-delimited field
// except the placeholder tokens themselves.
func lowerPreservingPlaceholders(text string) string {
	fields := strings.Fields(text)
	for i, f := range fields {
		if !isPlaceholder(f) {
			fields[i] = strings.ToLower(f)
		}
	}
	return strings.Join(fields, " ")
}

func isPlaceholder(token string) bool {
	switch token {
	case PlaceholderURL, PlaceholderMoney, PlaceholderPercent:
		return true
	}
	return false
}
