// Package pipeline runs a bid end to end: research, labour rate, context
// extraction, job estimation, pricing and narrative, then stores the
// assembled record.
package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bid-sniper/internal/extract"
	"github.com/sells-group/bid-sniper/internal/model"
	"github.com/sells-group/bid-sniper/internal/pricing"
	"github.com/sells-group/bid-sniper/internal/research"
	"github.com/sells-group/bid-sniper/internal/store"
)

// ErrInvalidRequest is returned for a request that cannot be priced.
var ErrInvalidRequest = eris.New("pipeline: invalid request")

// Stage names recorded on the bid.
const (
	StageResearch   = "research"
	StageLabourRate = "labour_rate"
	StageContext    = "context"
	StageEstimate   = "estimate"
	StagePricing    = "pricing"
	StageNarrative  = "narrative"
)

// Researcher runs the property, market and labour-rate searches.
type Researcher interface {
	SearchPropertyDetails(ctx context.Context, address, region string) model.Result[[]model.SearchRecord]
	SearchMarketRates(ctx context.Context, region, jobType string) model.Result[[]model.SearchRecord]
	SearchLabourRates(ctx context.Context, region, jobType, address string) research.LabourRateLookup
}

// ContextExtractor turns research records into a property context.
type ContextExtractor interface {
	Optimize(ctx context.Context, records []model.SearchRecord, job extract.Job) model.Result[*model.PropertyContext]
}

// JobEstimator produces job hours and materials.
type JobEstimator interface {
	Estimate(ctx context.Context, req model.BidRequest, pc *model.PropertyContext) model.Result[model.JobEstimate]
}

// Pricer computes the price tiers.
type Pricer interface {
	Calculate(in pricing.Input) (*model.PricingOutput, error)
}

// NarrativeWriter writes the bid text.
type NarrativeWriter interface {
	Dossier(ctx context.Context, pc *model.PropertyContext, req model.BidRequest) model.Result[string]
	Explanation(ctx context.Context, pc *model.PropertyContext, p *model.PricingOutput) model.Result[string]
	Proposal(ctx context.Context, pc *model.PropertyContext, p *model.PricingOutput, req model.BidRequest) model.Result[string]
	FollowUps(ctx context.Context, p *model.PricingOutput, req model.BidRequest) model.Result[model.FollowUpScripts]
	Coach(ctx context.Context, bid *model.BidRecord, message string) model.Result[string]
}

// Pipeline orchestrates one bid.
type Pipeline struct {
	research  Researcher
	extractor ContextExtractor
	estimator JobEstimator
	pricer    Pricer
	writer    NarrativeWriter
	store     store.BidStore

	nowFunc func() time.Time
	newID   func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.nowFunc = now }
}

// WithIDFunc sets the bid id generator.
func WithIDFunc(f func() string) Option {
	return func(p *Pipeline) { p.newID = f }
}

// New creates a Pipeline with all dependencies.
func New(
	researcher Researcher,
	extractor ContextExtractor,
	estimator JobEstimator,
	pricer Pricer,
	writer NarrativeWriter,
	st store.BidStore,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		research:  researcher,
		extractor: extractor,
		estimator: estimator,
		pricer:    pricer,
		writer:    writer,
		store:     st,
		nowFunc:   time.Now,
		newID:     uuid.NewString,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ValidateRequest checks a request before any research runs.
func ValidateRequest(req model.BidRequest) error {
	if err := pricing.ValidateMargin(req.DesiredMargin); err != nil {
		return err
	}
	var problems []string
	if strings.TrimSpace(req.Address) == "" && strings.TrimSpace(req.Region) == "" {
		problems = append(problems, "address or region is required")
	}
	if !req.JobType.Valid() {
		problems = append(problems, "job_type must be one of roof_repair, bathroom_remodel, electrical_rewire, general_renovation, other")
	}
	switch req.Urgency {
	case "", model.UrgencyLow, model.UrgencyMedium, model.UrgencyHigh, model.UrgencyEmergency:
	default:
		problems = append(problems, "urgency must be one of low, medium, high, emergency")
	}
	if len(problems) > 0 {
		return eris.Wrap(ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return nil
}

// stageTracker records stage outcomes in order.
type stageTracker struct {
	mu     sync.Mutex
	log    *zap.Logger
	stages []model.StageOutcome
}

// track runs fn as a named stage. fn returns a non-empty detail when the
// stage degraded, or an error when it failed.
func (t *stageTracker) track(name string, fn func() (string, error)) error {
	start := time.Now()
	detail, err := fn()
	duration := time.Since(start).Milliseconds()

	outcome := model.StageOutcome{Name: name, Status: model.StageComplete, DurationMs: duration}
	switch {
	case err != nil:
		outcome.Status = model.StageFailed
		outcome.Detail = err.Error()
		t.log.Error("pipeline: stage failed",
			zap.String("stage", name),
			zap.Int64("duration_ms", duration),
			zap.Error(err),
		)
	case detail != "":
		outcome.Status = model.StageDegraded
		outcome.Detail = detail
		t.log.Warn("pipeline: stage degraded",
			zap.String("stage", name),
			zap.Int64("duration_ms", duration),
			zap.String("detail", detail),
		)
	default:
		t.log.Info("pipeline: stage complete",
			zap.String("stage", name),
			zap.Int64("duration_ms", duration),
		)
	}

	t.mu.Lock()
	t.stages = append(t.stages, outcome)
	t.mu.Unlock()
	return err
}

// GetBid returns a stored bid. Unknown ids yield store.ErrBidNotFound.
func (p *Pipeline) GetBid(ctx context.Context, id string) (*model.BidRecord, error) {
	return p.store.Get(ctx, id)
}

// Coach answers a live negotiation message using a stored bid as context.
func (p *Pipeline) Coach(ctx context.Context, id, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", eris.Wrap(ErrInvalidRequest, "message is required")
	}
	bid, err := p.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	res := p.writer.Coach(ctx, bid, message)
	if res.Fallback {
		zap.L().Warn("pipeline: coaching fell back to template",
			zap.String("bid_id", id),
			zap.String("reason", res.Reason()),
		)
	}
	return res.Value, nil
}
