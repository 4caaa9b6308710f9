// Package research runs property, market and labour-rate searches against a
// web search backend and turns the hits into SearchRecords.
package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/bid-sniper/internal/model"
	"github.com/sells-group/bid-sniper/internal/rates"
	"github.com/sells-group/bid-sniper/internal/resilience"
)

const searchTypeWeb = "web"

// LabourRateLookup is the outcome of a labour rate search. When Found is
// false the caller falls back to a regional default; Err explains why when a
// backend failure (rather than an empty result) was the cause.
type LabourRateLookup struct {
	Rate   float64
	Found  bool
	Source model.LabourRateSource
	Err    error
}

// Client runs the research queries. Every backend call is wrapped in the
// retry policy; failures that survive it degrade to empty results.
type Client struct {
	searcher Searcher
	cache    *rates.LabourRateCache
	retry    resilience.RetryConfig
}

// NewClient creates a research client. cache may be shared across clients.
func NewClient(searcher Searcher, cache *rates.LabourRateCache, retry resilience.RetryConfig) *Client {
	if cache == nil {
		cache = rates.NewLabourRateCache(rates.DefaultCacheTTL)
	}
	return &Client{searcher: searcher, cache: cache, retry: retry}
}

// Cache returns the labour rate cache.
func (c *Client) Cache() *rates.LabourRateCache {
	return c.cache
}

// PropertyQuery builds the broad property-details query.
func PropertyQuery(address, region string) string {
	return fmt.Sprintf("%s, %s property type detached terraced flat house bungalow semi_detached "+
		"year built construction date when built age "+
		"square meters sqm size "+
		"number of bedrooms rooms "+
		"property history building permits sales price value zoning "+
		"architectural style Victorian Edwardian Georgian modern new build", address, region)
}

// MarketQuery builds the market-rates query.
func MarketQuery(region, jobType string) string {
	return fmt.Sprintf("%s %s average cost price market rate", region, humanJob(jobType))
}

// LabourQuery builds the labour-rate query.
func LabourQuery(location, jobType string) string {
	return fmt.Sprintf("hourly labour rate for %s in %s cost per hour tradesperson price", humanJob(jobType), location)
}

func humanJob(jobType string) string {
	return strings.ReplaceAll(jobType, "_", " ")
}

// SearchPropertyDetails searches for information about the property.
func (c *Client) SearchPropertyDetails(ctx context.Context, address, region string) model.Result[[]model.SearchRecord] {
	return c.search(ctx, "property_details", PropertyQuery(address, region))
}

// SearchMarketRates searches for typical market prices for the job.
func (c *Client) SearchMarketRates(ctx context.Context, region, jobType string) model.Result[[]model.SearchRecord] {
	return c.search(ctx, "market_rates", MarketQuery(region, jobType))
}

// SearchLabourRates returns a labour rate for the location, consulting the
// cache first. The cache is keyed by address when given, else region.
func (c *Client) SearchLabourRates(ctx context.Context, region, jobType, address string) LabourRateLookup {
	location := address
	if strings.TrimSpace(location) == "" {
		location = region
	}
	log := zap.L().With(zap.String("location", location), zap.String("job_type", jobType))

	if rate, ok := c.cache.Get(location, jobType); ok {
		log.Debug("research: labour rate cache hit", zap.Float64("rate", rate))
		return LabourRateLookup{Rate: rate, Found: true, Source: model.RateFromCache}
	}

	res := c.search(ctx, "labour_rates", LabourQuery(location, jobType))
	if res.Fallback {
		return LabourRateLookup{Err: res.Err}
	}

	rate, ok := ExtractLabourRate(res.Value)
	if !ok {
		log.Info("research: no labour rate in results", zap.Int("results", len(res.Value)))
		return LabourRateLookup{}
	}

	c.cache.Set(location, jobType, rate)
	log.Info("research: labour rate detected",
		zap.Float64("rate", rate),
		zap.String("pattern_version", RatePatternVersion),
	)
	return LabourRateLookup{Rate: rate, Found: true, Source: model.RateFromSearch}
}

func (c *Client) search(ctx context.Context, operation, query string) model.Result[[]model.SearchRecord] {
	cfg := c.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("research", operation)
	}

	hits, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]Hit, error) {
		return c.searcher.Search(ctx, query, searchTypeWeb)
	})
	if err != nil {
		zap.L().Warn("research: search failed, continuing without results",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return model.Degraded([]model.SearchRecord{}, err)
	}

	records := Normalize(hits)
	zap.L().Debug("research: search complete",
		zap.String("operation", operation),
		zap.Int("results", len(records)),
	)
	return model.OK(records)
}
