// Package narrative writes the contractor-facing text of a bid: dossier,
// pricing explanation, proposal, follow-up scripts and live coaching.
// Every operation returns usable text; when generation fails a plain
// template built from the bid data is substituted.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/bid-sniper/internal/llm"
	"github.com/sells-group/bid-sniper/internal/model"
)

const narrativeTemperature = 0.7

// Writer generates bid text with a generator.
type Writer struct {
	gen llm.Generator
}

// New creates a Writer. A nil generator always yields template text.
func New(gen llm.Generator) *Writer {
	return &Writer{gen: gen}
}

func (w *Writer) generate(ctx context.Context, op, system, prompt string, maxTokens int, fallback func() string) model.Result[string] {
	text, err := llm.Text(ctx, w.gen, llm.Request{
		System:      system,
		Prompt:      prompt,
		Temperature: llm.Temp(narrativeTemperature),
		MaxTokens:   maxTokens,
		Operation:   op,
	})
	if err != nil {
		if w.gen != nil {
			zap.L().Warn("narrative: generation failed, using template",
				zap.String("operation", op),
				zap.Error(err),
			)
		}
		return model.Degraded(fallback(), eris.Wrapf(err, "narrative: %s", op))
	}
	return model.OK(strings.TrimSpace(text))
}

// Dossier writes the pre-meeting briefing on the property.
func (w *Writer) Dossier(ctx context.Context, pc *model.PropertyContext, req model.BidRequest) model.Result[string] {
	prompt := fmt.Sprintf("Context: %s\nJob: %s\n\nSummarise the property history, neighbourhood and key talking points.",
		contextJSON(pc), jobSummary(req))
	return w.generate(ctx, "dossier", dossierSystem, prompt, 1024, func() string {
		return fallbackDossier(pc, req)
	})
}

// Explanation explains the pricing tiers for this property.
func (w *Writer) Explanation(ctx context.Context, pc *model.PropertyContext, p *model.PricingOutput) model.Result[string] {
	prompt := pricingFacts(pc, p) + explanationAsk
	return w.generate(ctx, "explanation", explanationSystem, prompt, 600, func() string {
		return fallbackExplanation(pc, p)
	})
}

// Proposal writes the homeowner-facing proposal at the balanced price.
func (w *Writer) Proposal(ctx context.Context, pc *model.PropertyContext, p *model.PricingOutput, req model.BidRequest) model.Result[string] {
	prompt := fmt.Sprintf("Job: %s\nNotes: %s\nPrice: %s\n\nWrite a friendly, professional proposal.",
		jobSummary(req), req.Notes, money(p.PriceBands.Balanced))
	return w.generate(ctx, "proposal", proposalSystem, prompt, 1024, func() string {
		return fallbackProposal(req, p)
	})
}

// FollowUps writes the day-2 and day-7 emails and the price-objection
// script with three concurrent calls. The result is a fallback when any
// of the three fell back.
func (w *Writer) FollowUps(ctx context.Context, p *model.PricingOutput, req model.BidRequest) model.Result[model.FollowUpScripts] {
	base := fmt.Sprintf("Job: %s\nPrice: %s\n\n", jobSummary(req), money(p.PriceBands.Balanced))

	var d2, d7, objection model.Result[string]
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d2 = w.generate(gctx, "followup_d2", followUpSystem, base+"Output only the body of an email sent 2 days after the visit.", 400,
			func() string { return fallbackEmailDay2(req, p) })
		return nil
	})
	g.Go(func() error {
		d7 = w.generate(gctx, "followup_d7", followUpSystem, base+"Output only the body of an email sent 7 days after the visit.", 400,
			func() string { return fallbackEmailDay7(req, p) })
		return nil
	})
	g.Go(func() error {
		objection = w.generate(gctx, "price_objection", followUpSystem, base+"Output only a script for handling the 'too expensive' objection.", 400,
			func() string { return fallbackObjection(p) })
		return nil
	})
	_ = g.Wait()

	scripts := model.FollowUpScripts{
		EmailDay2:            d2.Value,
		EmailDay7:            d7.Value,
		PriceObjectionScript: objection.Value,
	}
	for _, r := range []model.Result[string]{d2, d7, objection} {
		if r.Fallback {
			return model.Degraded(scripts, r.Err)
		}
	}
	return model.OK(scripts)
}

// Coach gives short negotiation advice for a message, using the stored bid
// as context.
func (w *Writer) Coach(ctx context.Context, bid *model.BidRecord, message string) model.Result[string] {
	prompt := fmt.Sprintf("Bid Context: %s\nUser Message/Situation: %s\n\nGive short, actionable advice.",
		coachingContext(bid), message)
	return w.generate(ctx, "coach", coachSystem, prompt, 300, func() string {
		return fallbackCoaching(bid)
	})
}

func contextJSON(pc *model.PropertyContext) string {
	if pc == nil {
		return "{}"
	}
	b, err := json.Marshal(pc)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func jobSummary(req model.BidRequest) string {
	parts := []string{
		"type=" + string(req.JobType),
		"address=" + req.Address,
		"region=" + req.Region,
		"urgency=" + string(req.EffectiveUrgency()),
	}
	if req.JobDescription != "" {
		parts = append(parts, "description="+req.JobDescription)
	}
	if req.ScopeOfWork != "" {
		parts = append(parts, "scope="+req.ScopeOfWork)
	}
	if len(req.KnownIssues) > 0 {
		parts = append(parts, "known_issues="+strings.Join(req.KnownIssues, "; "))
	}
	if len(req.Complications) > 0 {
		parts = append(parts, "complications="+strings.Join(req.Complications, "; "))
	}
	return strings.Join(parts, ", ")
}

func money(v float64) string {
	return fmt.Sprintf("£%.2f", v)
}

func humanJob(j model.JobType) string {
	if j == "" {
		return "job"
	}
	return strings.ReplaceAll(string(j), "_", " ")
}
