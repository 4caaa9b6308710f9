package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bid-sniper/internal/resilience"
	"github.com/sells-group/bid-sniper/pkg/perplexity"
)

const jsonInstruction = "Respond with a single JSON object and nothing else."

// Perplexity generates text with Perplexity sonar models.
type Perplexity struct {
	client perplexity.Client
	model  string
}

// NewPerplexity creates a Perplexity-backed generator. An empty model uses
// the client's default.
func NewPerplexity(client perplexity.Client, model string) *Perplexity {
	return &Perplexity{client: client, model: model}
}

// Name implements Generator.
func (p *Perplexity) Name() string { return "perplexity" }

// Complete implements Generator.
func (p *Perplexity) Complete(ctx context.Context, req Request) (string, error) {
	system := req.System
	if req.JSON {
		system = strings.TrimSpace(system + "\n\n" + jsonInstruction)
	}

	var msgs []perplexity.Message
	if system != "" {
		msgs = append(msgs, perplexity.Message{Role: "system", Content: system})
	}
	msgs = append(msgs, perplexity.Message{Role: "user", Content: req.Prompt})

	mt := maxTokens(req)
	resp, err := p.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model:       p.model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   &mt,
	})
	if err != nil {
		var se *perplexity.StatusError
		if errors.As(err, &se) {
			return "", resilience.ClassifyHTTPStatus(err, se.StatusCode)
		}
		return "", err
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", eris.Wrap(ErrEmptyResponse, "llm: perplexity")
	}
	return text, nil
}
