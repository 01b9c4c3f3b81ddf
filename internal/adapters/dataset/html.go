package dataset

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var markupPattern = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(\s[^<>]*)?/?>`)

// ExtractText reduces an HTML email body to its visible text.
// Plain text is returned unchanged.
func ExtractText(body string) string {
	if !markupPattern.MatchString(body) {
		return body
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return body
	}
	doc.Find("script, style, head").Remove()

	// Links are a fraud signal; keep their targets so the normalizer sees them
	var hrefs []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && href != "" {
			hrefs = append(hrefs, href)
		}
	})

	text := strings.Join(strings.Fields(doc.Text()), " ")
	if len(hrefs) > 0 {
		text += " " + strings.Join(hrefs, " ")
	}
	return text
}
