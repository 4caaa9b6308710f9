package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrMalformedOutput is returned when a response does not contain a
// parseable JSON object.
var ErrMalformedOutput = eris.New("llm: malformed JSON output")

var (
	// jsonBlockPattern matches JSON inside markdown code blocks: ```json { ... } ```
	jsonBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON pulls a JSON object out of a model response: a fenced code
// block if present, else the span from the first '{' to the last '}'.
// Trailing commas are removed. Returns "" when no object is found.
func ExtractJSON(content string) string {
	raw := ""
	if m := jsonBlockPattern.FindStringSubmatch(content); len(m) > 1 {
		raw = m[1]
	} else {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start >= 0 && end > start {
			raw = content[start : end+1]
		}
	}
	if raw == "" {
		return ""
	}
	return trailingCommaPattern.ReplaceAllString(raw, "$1")
}

// CompleteJSON runs a JSON-mode completion and decodes the object into out.
func CompleteJSON(ctx context.Context, gen Generator, req Request, out any) error {
	req.JSON = true
	text, err := Text(ctx, gen, req)
	if err != nil {
		return err
	}

	raw := ExtractJSON(text)
	if raw == "" {
		return eris.Wrapf(ErrMalformedOutput, "llm: %s: no JSON object in response", req.Operation)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return eris.Wrapf(ErrMalformedOutput, "llm: %s: %v", req.Operation, err)
	}
	return nil
}
