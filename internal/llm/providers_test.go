package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/sells-group/bid-sniper/internal/resilience"
	"github.com/sells-group/bid-sniper/pkg/anthropic"
	"github.com/sells-group/bid-sniper/pkg/perplexity"
)

func anthropicText(s string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: s}}}
}

func TestAnthropic_Complete(t *testing.T) {
	c := new(mockAnthropicClient)
	c.On("CreateMessage", mock.Anything, mock.MatchedBy(func(r anthropic.MessageRequest) bool {
		return r.Model == DefaultAnthropicModel &&
			r.MaxTokens == 500 &&
			len(r.System) == 1 && r.System[0].Text == "be brief" &&
			len(r.Messages) == 1 && r.Messages[0].Content == "write"
	})).Return(anthropicText("Dear customer"), nil)

	out, err := NewAnthropic(c, "").Complete(context.Background(), Request{
		System: "be brief", Prompt: "write", MaxTokens: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dear customer", out)
}

func TestAnthropic_JSONPrefill(t *testing.T) {
	c := new(mockAnthropicClient)
	c.On("CreateMessage", mock.Anything, mock.MatchedBy(func(r anthropic.MessageRequest) bool {
		return len(r.Messages) == 2 && r.Messages[1].Role == "assistant" && r.Messages[1].Content == "{"
	})).Return(anthropicText(`"base_hours": 16}`), nil)

	out, err := NewAnthropic(c, "m").Complete(context.Background(), Request{Prompt: "p", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"base_hours": 16}`, out)
}

func TestAnthropic_Empty(t *testing.T) {
	c := new(mockAnthropicClient)
	c.On("CreateMessage", mock.Anything, mock.Anything).Return(anthropicText(""), nil)

	_, err := NewAnthropic(c, "m").Complete(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestAnthropic_PlainErrorPassesThrough(t *testing.T) {
	c := new(mockAnthropicClient)
	c.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: refused"))

	_, err := NewAnthropic(c, "m").Complete(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.False(t, resilience.IsPermanent(err))
}

func TestPerplexity_Complete(t *testing.T) {
	c := new(mockPerplexityClient)
	c.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(r perplexity.ChatCompletionRequest) bool {
		return r.Model == "sonar" &&
			len(r.Messages) == 2 &&
			r.Messages[0].Role == "system" &&
			r.Messages[1].Content == "explain" &&
			r.MaxTokens != nil && *r.MaxTokens == defaultMaxTokens
	})).Return(&perplexity.ChatCompletionResponse{
		Choices: []perplexity.Choice{{Message: perplexity.Message{Role: "assistant", Content: "Because."}}},
	}, nil)

	out, err := NewPerplexity(c, "sonar").Complete(context.Background(), Request{System: "s", Prompt: "explain"})
	require.NoError(t, err)
	assert.Equal(t, "Because.", out)
}

func TestPerplexity_JSONInstruction(t *testing.T) {
	c := new(mockPerplexityClient)
	c.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(r perplexity.ChatCompletionRequest) bool {
		return len(r.Messages) == 2 && r.Messages[0].Content == jsonInstruction
	})).Return(&perplexity.ChatCompletionResponse{
		Choices: []perplexity.Choice{{Message: perplexity.Message{Content: `{}`}}},
	}, nil)

	_, err := NewPerplexity(c, "").Complete(context.Background(), Request{Prompt: "p", JSON: true})
	require.NoError(t, err)
}

func TestPerplexity_ClassifiesStatus(t *testing.T) {
	c := new(mockPerplexityClient)
	c.On("ChatCompletion", mock.Anything, mock.Anything).
		Return(nil, &perplexity.StatusError{StatusCode: http.StatusUnauthorized, Body: "bad key"}).Once()
	c.On("ChatCompletion", mock.Anything, mock.Anything).
		Return(nil, &perplexity.StatusError{StatusCode: http.StatusTooManyRequests}).Once()

	p := NewPerplexity(c, "")
	_, err := p.Complete(context.Background(), Request{Prompt: "p"})
	assert.True(t, resilience.IsPermanent(err))

	_, err = p.Complete(context.Background(), Request{Prompt: "p"})
	assert.True(t, resilience.IsTransient(err))
}

func TestGemini_Complete(t *testing.T) {
	m := new(mockGeminiModels)
	m.On("GenerateContent", mock.Anything, DefaultGeminiModel, mock.Anything,
		mock.MatchedBy(func(c *genai.GenerateContentConfig) bool {
			return c.ResponseMIMEType == "application/json" &&
				c.SystemInstruction != nil &&
				c.Temperature != nil && *c.Temperature == float32(0.2) &&
				c.MaxOutputTokens == int32(defaultMaxTokens)
		}),
	).Return(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(`{"ok":true}`, genai.RoleModel)}},
	}, nil)

	out, err := newGemini(m, "").Complete(context.Background(), Request{
		System: "extract", Prompt: "records", JSON: true, Temperature: Temp(0.2),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
}

func TestGemini_APIError(t *testing.T) {
	m := new(mockGeminiModels)
	m.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, genai.APIError{Code: http.StatusBadRequest, Message: "invalid"})

	_, err := newGemini(m, "g").Complete(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.True(t, resilience.IsPermanent(err))
}

func TestGemini_Empty(t *testing.T) {
	m := new(mockGeminiModels)
	m.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&genai.GenerateContentResponse{}, nil)

	_, err := newGemini(m, "g").Complete(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestProviderNames(t *testing.T) {
	assert.Equal(t, "anthropic", NewAnthropic(nil, "").Name())
	assert.Equal(t, "perplexity", NewPerplexity(nil, "").Name())
	assert.Equal(t, "gemini", newGemini(nil, "").Name())
}
