package main

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bid-sniper/internal/config"
	"github.com/sells-group/bid-sniper/internal/estimate"
	"github.com/sells-group/bid-sniper/internal/extract"
	"github.com/sells-group/bid-sniper/internal/llm"
	"github.com/sells-group/bid-sniper/internal/narrative"
	"github.com/sells-group/bid-sniper/internal/pipeline"
	"github.com/sells-group/bid-sniper/internal/pricing"
	"github.com/sells-group/bid-sniper/internal/rates"
	"github.com/sells-group/bid-sniper/internal/research"
	"github.com/sells-group/bid-sniper/internal/resilience"
	"github.com/sells-group/bid-sniper/internal/store"
	"github.com/sells-group/bid-sniper/internal/voice"
	anthropicpkg "github.com/sells-group/bid-sniper/pkg/anthropic"
	"github.com/sells-group/bid-sniper/pkg/jina"
	"github.com/sells-group/bid-sniper/pkg/perplexity"
)

// jinaBurst is the burst allowance for the Jina rate limiter.
const jinaBurst = 2

// appEnv holds everything the serve and bid commands need.
type appEnv struct {
	Store    store.BidStore
	Pipeline *pipeline.Pipeline
	Voice    *voice.Issuer // nil when voice is not configured
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initApp validates config for mode, opens the store and builds the
// pipeline. Callers should defer env.Close().
func initApp(ctx context.Context, c *config.Config, mode string) (*appEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	cat, err := initCatalogue(c.Pricing)
	if err != nil {
		return nil, err
	}

	gen, err := initGenerator(ctx, c)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, c.Store.Driver, c.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	retry := resilience.FromRetryConfig(c.Research.MaxRetries, c.Research.InitialDelayMs, c.Research.BackoffFactor)
	cache := rates.NewLabourRateCache(time.Duration(c.Rates.CacheTTLHours) * time.Hour)
	researcher := research.NewClient(initSearcher(c), cache, retry)

	p := pipeline.New(
		researcher,
		extract.New(gen),
		estimate.New(gen),
		pricing.NewEngine(cat),
		narrative.New(gen),
		st,
	)

	env := &appEnv{Store: st, Pipeline: p}
	env.Voice, err = voice.NewIssuer(
		c.Voice.APIKey,
		c.Voice.APISecret,
		c.Voice.URL,
		time.Duration(c.Voice.TokenTTLSecs)*time.Second,
	)
	if err != nil {
		if !errors.Is(err, voice.ErrNotConfigured) {
			env.Close()
			return nil, err
		}
		zap.L().Info("voice tokens disabled: no api key or secret")
	}

	zap.L().Info("bid pipeline ready",
		zap.String("store", c.Store.Driver),
		zap.String("llm", c.EffectiveProvider()),
		zap.String("research", c.Research.Backend),
	)
	return env, nil
}

// initCatalogue loads the material catalogue overlay, or the defaults when
// no path is configured.
func initCatalogue(c config.PricingConfig) (*pricing.Catalogue, error) {
	if c.CataloguePath == "" {
		return pricing.DefaultCatalogue(), nil
	}
	cat, err := pricing.LoadCatalogue(c.CataloguePath)
	if err != nil {
		return nil, eris.Wrap(err, "load material catalogue")
	}
	return cat, nil
}

// initGenerator builds the configured generator wrapped with retries. It
// returns nil when no provider has credentials, which puts every
// generated stage on its fallback.
func initGenerator(ctx context.Context, c *config.Config) (llm.Generator, error) {
	var gen llm.Generator
	switch c.EffectiveProvider() {
	case "anthropic":
		gen = llm.NewAnthropic(anthropicpkg.NewClient(c.Anthropic.Key), c.Anthropic.Model)
	case "perplexity":
		client := perplexity.NewClient(c.Perplexity.Key,
			perplexity.WithBaseURL(c.Perplexity.BaseURL),
			perplexity.WithModel(c.Perplexity.Model),
		)
		gen = llm.NewPerplexity(client, "")
	case "gemini":
		g, err := llm.NewGemini(ctx, c.Gemini.Key, c.Gemini.Model)
		if err != nil {
			return nil, err
		}
		gen = g
	default:
		zap.L().Warn("no generative backend configured, using fallbacks")
		return nil, nil
	}

	retry := resilience.FromRetryConfig(c.Research.MaxRetries, c.Research.InitialDelayMs, c.Research.BackoffFactor)
	return llm.WithRetry(gen, retry), nil
}

// initSearcher picks the search backend.
func initSearcher(c *config.Config) research.Searcher {
	if c.Research.Backend == "perplexity" {
		return research.NewPerplexitySearcher(perplexity.NewClient(c.Perplexity.Key,
			perplexity.WithBaseURL(c.Perplexity.BaseURL),
			perplexity.WithModel(c.Perplexity.Model),
		))
	}

	opts := []jina.Option{jina.WithRateLimit(c.Jina.RatePerSec, jinaBurst)}
	if c.Jina.SearchBaseURL != "" {
		opts = append(opts, jina.WithSearchBaseURL(c.Jina.SearchBaseURL))
	}
	return research.NewJinaSearcher(jina.NewClient(c.Jina.Key, opts...))
}
