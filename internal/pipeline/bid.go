package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/bid-sniper/internal/extract"
	"github.com/sells-group/bid-sniper/internal/model"
	"github.com/sells-group/bid-sniper/internal/pricing"
	"github.com/sells-group/bid-sniper/internal/rates"
)

// CreateBid runs the full pipeline for req and stores the result. Research,
// estimation and narrative failures degrade to defaults and are recorded as
// degraded stages. Only an invalid request, a pricing failure or a store
// failure is returned as an error.
func (p *Pipeline) CreateBid(ctx context.Context, req model.BidRequest) (*model.BidRecord, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	bid := &model.BidRecord{
		ID:        p.newID(),
		CreatedAt: p.nowFunc().UTC(),
		Request:   req,
	}
	log := zap.L().With(zap.String("bid_id", bid.ID), zap.String("job_type", string(req.JobType)))
	log.Info("pipeline: starting bid", zap.String("address", req.Address), zap.String("region", req.Region))
	start := time.Now()

	tracker := &stageTracker{log: log}
	jobType := string(req.JobType)

	// Research: property and market searches in parallel.
	var property, market model.Result[[]model.SearchRecord]
	_ = tracker.track(StageResearch, func() (string, error) {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			property = p.research.SearchPropertyDetails(gctx, req.Address, req.Region)
			return nil
		})
		g.Go(func() error {
			market = p.research.SearchMarketRates(gctx, req.Region, jobType)
			return nil
		})
		_ = g.Wait()

		var degraded []string
		if property.Fallback {
			degraded = append(degraded, "property: "+property.Reason())
		}
		if market.Fallback {
			degraded = append(degraded, "market: "+market.Reason())
		}
		return strings.Join(degraded, "; "), nil
	})
	records := make([]model.SearchRecord, 0, len(property.Value)+len(market.Value))
	records = append(records, property.Value...)
	records = append(records, market.Value...)
	bid.RawResearch = records

	// Labour rate: cache, then search, then regional default.
	var labourRate float64
	_ = tracker.track(StageLabourRate, func() (string, error) {
		lookup := p.research.SearchLabourRates(ctx, req.Region, jobType, req.Address)
		if lookup.Found {
			labourRate = lookup.Rate
			bid.LabourRateSource = lookup.Source
			return "", nil
		}
		labourRate = rates.RegionalRate(req.Address, req.Region)
		bid.LabourRateSource = model.RateFromRegion
		reason := "no rate found in search results"
		if lookup.Err != nil {
			reason = lookup.Err.Error()
		}
		return fmt.Sprintf("regional default £%g/hr: %s", labourRate, reason), nil
	})

	// Context extraction.
	var pc *model.PropertyContext
	_ = tracker.track(StageContext, func() (string, error) {
		res := p.extractor.Optimize(ctx, records, extract.Job{Type: req.JobType, Address: req.Address})
		pc = res.Value
		return res.Reason(), nil
	})
	if pc == nil {
		pc = model.NewPropertyContext()
	}
	pc.DetectedLabourRate = &labourRate
	bid.PropertyContext = pc

	// Job estimation.
	var est model.JobEstimate
	_ = tracker.track(StageEstimate, func() (string, error) {
		res := p.estimator.Estimate(ctx, req, pc)
		est = res.Value
		return res.Reason(), nil
	})

	// Pricing.
	err := tracker.track(StagePricing, func() (string, error) {
		out, err := p.pricer.Calculate(pricing.Input{
			Context:            pc,
			JobType:            req.JobType,
			LabourRate:         labourRate,
			DesiredMargin:      req.DesiredMargin,
			EstimatedHours:     est.BaseHours,
			EstimatedMaterials: est.MaterialsCost,
			LabourTasks:        est.LabourTasks,
			Materials:          est.Materials,
			Urgency:            req.EffectiveUrgency(),
		})
		if err != nil {
			return "", err
		}
		bid.Pricing = out
		for _, w := range out.Warnings {
			log.Warn("pipeline: pricing warning", zap.String("warning", w))
		}
		return "", nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: price bid %s", bid.ID)
	}

	// Narrative: four generations in parallel.
	_ = tracker.track(StageNarrative, func() (string, error) {
		var dossier, explanation, proposal model.Result[string]
		var followUps model.Result[model.FollowUpScripts]

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			dossier = p.writer.Dossier(gctx, pc, req)
			return nil
		})
		g.Go(func() error {
			explanation = p.writer.Explanation(gctx, pc, bid.Pricing)
			return nil
		})
		g.Go(func() error {
			proposal = p.writer.Proposal(gctx, pc, bid.Pricing, req)
			return nil
		})
		g.Go(func() error {
			followUps = p.writer.FollowUps(gctx, bid.Pricing, req)
			return nil
		})
		_ = g.Wait()

		bid.Dossier = dossier.Value
		bid.PricingExplanation = explanation.Value
		bid.ProposalDraft = proposal.Value
		bid.FollowUp = followUps.Value

		var degraded []string
		for name, fb := range map[string]bool{
			"dossier":     dossier.Fallback,
			"explanation": explanation.Fallback,
			"proposal":    proposal.Fallback,
			"followups":   followUps.Fallback,
		} {
			if fb {
				degraded = append(degraded, name)
			}
		}
		if len(degraded) == 0 {
			return "", nil
		}
		slices.Sort(degraded)
		return "template text used for " + strings.Join(degraded, ", "), nil
	})

	bid.Stages = tracker.stages

	storeStart := time.Now()
	if err := p.store.Put(ctx, bid); err != nil {
		log.Error("pipeline: store failed", zap.Error(err))
		return nil, eris.Wrapf(err, "pipeline: store bid %s", bid.ID)
	}
	log.Info("pipeline: bid complete",
		zap.Int64("store_ms", time.Since(storeStart).Milliseconds()),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		zap.Bool("degraded", bid.Degraded()),
		zap.Float64("balanced_price", bid.Pricing.PriceBands.Balanced),
	)
	return bid, nil
}
