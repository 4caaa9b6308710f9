// Package llm defines the text-generation interface used for context
// extraction, estimation and narrative writing, with Anthropic, Perplexity
// and Gemini implementations.
package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bid-sniper/internal/resilience"
)

// ErrUnavailable is returned when no generator is configured.
var ErrUnavailable = eris.New("llm: no generator configured")

// ErrEmptyResponse is returned when the backend answered with no text.
var ErrEmptyResponse = eris.New("llm: empty response")

// Request is a single-turn completion request.
type Request struct {
	System      string
	Prompt      string
	Temperature *float64
	MaxTokens   int
	// JSON asks the backend for a bare JSON object.
	JSON bool
	// Operation names the call in logs ("dossier", "context", ...).
	Operation string
}

// Generator produces text from a prompt.
type Generator interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Temp returns a pointer to t, for Request.Temperature.
func Temp(t float64) *float64 {
	return &t
}

const defaultMaxTokens = 1024

func maxTokens(req Request) int {
	if req.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return req.MaxTokens
}

// retrying wraps a Generator with a retry policy.
type retrying struct {
	next Generator
	cfg  resilience.RetryConfig
}

// WithRetry retries failures of next that are not marked permanent.
func WithRetry(next Generator, cfg resilience.RetryConfig) Generator {
	if next == nil {
		return nil
	}
	return &retrying{next: next, cfg: cfg}
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) Complete(ctx context.Context, req Request) (string, error) {
	cfg := r.cfg
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(r.next.Name(), req.Operation)
	}
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (string, error) {
		return r.next.Complete(ctx, req)
	})
}

// Text runs a completion and returns its text. A nil generator yields
// ErrUnavailable.
func Text(ctx context.Context, gen Generator, req Request) (string, error) {
	if gen == nil {
		return "", ErrUnavailable
	}
	text, err := gen.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrEmptyResponse
	}
	zap.L().Debug("llm: completion",
		zap.String("provider", gen.Name()),
		zap.String("operation", req.Operation),
		zap.Int("chars", len(text)),
	)
	return text, nil
}
