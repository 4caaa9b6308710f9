package research

import (
	"maps"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/bid-sniper/internal/model"
)

// SnippetLength is the maximum snippet length in runes.
const SnippetLength = 300

// blockElements get a trailing space so adjacent blocks do not run together.
const blockElements = "p, div, br, li, tr, td, th, h1, h2, h3, h4, h5, h6, section, article, header, footer"

var htmlTagRe = regexp.MustCompile(`<(?:[a-zA-Z][a-zA-Z0-9]*|/[a-zA-Z][a-zA-Z0-9]*)[^>]*>`)

// Normalize converts backend hits into SearchRecords. HTML content is reduced
// to text, whitespace is collapsed, and the snippet is the first
// SnippetLength runes of the content.
func Normalize(hits []Hit) []model.SearchRecord {
	records := make([]model.SearchRecord, 0, len(hits))
	for _, h := range hits {
		content := cleanText(h.Content)

		meta := make(map[string]any, len(h.Metadata)+2)
		maps.Copy(meta, h.Metadata)
		meta[model.MetaFullContent] = content
		meta[model.MetaURL] = h.URL

		records = append(records, model.SearchRecord{
			Title:       collapseSpace(h.Title),
			Snippet:     truncateRunes(content, SnippetLength),
			URL:         h.URL,
			RawMetadata: meta,
		})
	}
	return records
}

func cleanText(s string) string {
	if htmlTagRe.MatchString(s) {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			doc.Find("script, style, noscript").Remove()
			doc.Find(blockElements).AfterHtml(" ")
			s = doc.Text()
		}
	}
	return collapseSpace(s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
