package narrative

import (
	"fmt"
	"strings"

	"github.com/sells-group/bid-sniper/internal/model"
)

func fallbackDossier(pc *model.PropertyContext, req model.BidRequest) string {
	if pc == nil {
		pc = model.NewPropertyContext()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Property dossier: %s\n", req.Address)
	fmt.Fprintf(&b, "Job: %s (%s urgency)\n", humanJob(req.JobType), req.EffectiveUrgency())
	fmt.Fprintf(&b, "Type: %s, built %s (%s)\n", orUnknown(string(pc.PropertyType)), intOrUnknown(pc.YearBuilt), pc.YearBuiltConfidence)
	if pc.NeighbourhoodMedian != nil {
		fmt.Fprintf(&b, "Neighbourhood median: %s (%s)\n", money(*pc.NeighbourhoodMedian), orUnknown(pc.NeighbourhoodTrend))
	}
	fmt.Fprintf(&b, "Risks: %s", risks(pc))
	return b.String()
}

func fallbackExplanation(pc *model.PropertyContext, p *model.PricingOutput) string {
	if pc == nil {
		pc = model.NewPropertyContext()
	}
	return fmt.Sprintf(
		"Internal cost is %s: labour %s and materials %s, with %s material costs and %s labour rates for the area. "+
			"Risks considered: %s. Quote %s to win, %s for a balanced margin, or %s as a premium option.",
		money(p.InternalCostEstimate), money(p.TotalLabourCost), money(p.TotalMaterialsCost),
		pc.MaterialCostBand, pc.LabourRateBand, risks(pc),
		money(p.PriceBands.WinAtAllCosts), money(p.PriceBands.Balanced), money(p.PriceBands.Premium),
	)
}

func fallbackProposal(req model.BidRequest, p *model.PricingOutput) string {
	return fmt.Sprintf(
		"Thank you for the opportunity to quote for the %s at %s. "+
			"We propose to complete the work for %s, covering labour, materials and making good. "+
			"We would be glad to discuss the scope or schedule at your convenience.",
		humanJob(req.JobType), req.Address, money(p.PriceBands.Balanced),
	)
}

func fallbackEmailDay2(req model.BidRequest, p *model.PricingOutput) string {
	return fmt.Sprintf(
		"Hi, thanks again for showing us the %s at %s. Your quote of %s is attached. Any questions, just reply here.",
		humanJob(req.JobType), req.Address, money(p.PriceBands.Balanced),
	)
}

func fallbackEmailDay7(req model.BidRequest, p *model.PricingOutput) string {
	return fmt.Sprintf(
		"Hi, just checking in on the %s quote (%s). We can hold the price and pencil in a start date whenever suits.",
		humanJob(req.JobType), money(p.PriceBands.Balanced),
	)
}

func fallbackObjection(p *model.PricingOutput) string {
	return fmt.Sprintf(
		"I understand. The price reflects the work needed to do the job properly. "+
			"If budget is the concern, we can look at a reduced scope starting from %s.",
		money(p.MinRecommendedPrice),
	)
}

func fallbackCoaching(bid *model.BidRecord) string {
	if bid == nil || bid.Pricing == nil {
		return "Listen first, restate the customer's concern, and anchor on the value of the work before discussing price."
	}
	return fmt.Sprintf(
		"Hold at %s if you can. Do not go below %s, which is your minimum recommended price.",
		money(bid.Pricing.PriceBands.Balanced), money(bid.Pricing.MinRecommendedPrice),
	)
}
