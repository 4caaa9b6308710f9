package extract

import (
	"fmt"
	"strings"

	"github.com/sells-group/bid-sniper/internal/model"
)

const (
	maxPromptRecords = 10
	maxRecordChars   = 2000
)

// FormatRecords renders the first ten records for a prompt, each with at
// most 2000 characters of content.
func FormatRecords(records []model.SearchRecord) string {
	if len(records) > maxPromptRecords {
		records = records[:maxPromptRecords]
	}
	var b strings.Builder
	for i, r := range records {
		content := truncateRunes(r.Content(), maxRecordChars)
		fmt.Fprintf(&b, "Result %d:\nTitle: %s\nContent: %s\nURL: %s\n\n", i+1, r.Title, content, r.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
