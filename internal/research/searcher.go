package research

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bid-sniper/internal/resilience"
	"github.com/sells-group/bid-sniper/pkg/jina"
	"github.com/sells-group/bid-sniper/pkg/perplexity"
)

// Hit is one raw result from a search backend before normalisation.
type Hit struct {
	Title   string
	URL     string
	Content string
	// Metadata carries any structured fields the backend returned
	// (year_built, last_sale_price, ...).
	Metadata map[string]any
}

// Searcher is a web search backend. searchType is a backend hint ("web");
// backends without search types ignore it.
type Searcher interface {
	Search(ctx context.Context, query, searchType string) ([]Hit, error)
}

// JinaSearcher adapts the Jina Search API to Searcher.
type JinaSearcher struct {
	client jina.Client
}

// NewJinaSearcher wraps a Jina client.
func NewJinaSearcher(client jina.Client) *JinaSearcher {
	return &JinaSearcher{client: client}
}

// Search runs the query. HTTP statuses are classified so the retry layer
// does not repeat requests that cannot succeed.
func (s *JinaSearcher) Search(ctx context.Context, query, _ string) ([]Hit, error) {
	resp, err := s.client.Search(ctx, query)
	if err != nil {
		var se *jina.StatusError
		if errors.As(err, &se) {
			return nil, resilience.ClassifyHTTPStatus(err, se.StatusCode)
		}
		return nil, err
	}

	hits := make([]Hit, 0, len(resp.Data))
	for _, r := range resp.Data {
		content := r.Content
		if strings.TrimSpace(content) == "" {
			content = r.Description
		}
		hits = append(hits, Hit{Title: r.Title, URL: r.URL, Content: content})
	}
	return hits, nil
}

const perplexitySearchPrompt = "You are a UK property and construction research assistant. " +
	"Answer with the facts you find, quoting prices and rates exactly as the sources state them."

// PerplexitySearcher uses Perplexity's search-grounded chat completions as a
// search backend. The answer text becomes the first hit and every cited
// search result becomes a further hit.
type PerplexitySearcher struct {
	client perplexity.Client
}

// NewPerplexitySearcher wraps a Perplexity client.
func NewPerplexitySearcher(client perplexity.Client) *PerplexitySearcher {
	return &PerplexitySearcher{client: client}
}

// Search runs the query as a single-turn completion.
func (s *PerplexitySearcher) Search(ctx context.Context, query, _ string) ([]Hit, error) {
	resp, err := s.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: "system", Content: perplexitySearchPrompt},
			{Role: "user", Content: query},
		},
	})
	if err != nil {
		var se *perplexity.StatusError
		if errors.As(err, &se) {
			return nil, resilience.ClassifyHTTPStatus(err, se.StatusCode)
		}
		return nil, eris.Wrap(err, "research: perplexity search")
	}

	var hits []Hit
	if len(resp.Choices) > 0 && strings.TrimSpace(resp.Choices[0].Message.Content) != "" {
		hits = append(hits, Hit{
			Title:   "Perplexity answer",
			Content: resp.Choices[0].Message.Content,
		})
	}
	for _, r := range resp.SearchResults {
		hits = append(hits, Hit{Title: r.Title, URL: r.URL, Content: r.Snippet})
	}
	return hits, nil
}
