package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bid-sniper/internal/resilience"
	"github.com/sells-group/bid-sniper/pkg/anthropic"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-haiku-4-5-20251001"

// Anthropic generates text with Claude models.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic creates a Claude-backed generator.
func NewAnthropic(client anthropic.Client, model string) *Anthropic {
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &Anthropic{client: client, model: model}
}

// Name implements Generator.
func (a *Anthropic) Name() string { return "anthropic" }

// Complete implements Generator. In JSON mode the assistant turn is
// prefilled with "{" so the reply is a bare object.
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	msgs := []anthropic.Message{{Role: "user", Content: req.Prompt}}
	if req.JSON {
		msgs = append(msgs, anthropic.Message{Role: "assistant", Content: "{"})
	}

	mr := anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   int64(maxTokens(req)),
		Messages:    msgs,
		Temperature: req.Temperature,
	}
	if req.System != "" {
		mr.System = anthropic.CachedSystem(req.System)
	}

	resp, err := a.client.CreateMessage(ctx, mr)
	if err != nil {
		if code := anthropic.StatusCode(err); code != 0 {
			return "", resilience.ClassifyHTTPStatus(err, code)
		}
		return "", err
	}
	resp.Usage.LogCost(a.model, req.Operation)

	text := resp.Text()
	if req.JSON && !strings.HasPrefix(strings.TrimSpace(text), "{") {
		text = "{" + text
	}
	if strings.TrimSpace(text) == "" || text == "{" {
		return "", eris.Wrap(ErrEmptyResponse, "llm: anthropic")
	}
	return text, nil
}
