package narrative

import (
	"fmt"
	"strings"

	"github.com/sells-group/bid-sniper/internal/model"
)

const dossierSystem = "You are an expert construction estimator assistant. Create a pre-meeting dossier for a contractor."

const explanationSystem = `You are a pricing strategist for construction contractors. Write a location-specific explanation of the pricing strategy.
Do not use generic templates. Refer to the property location, local market, property age and type, and the identified risks. Be conversational.`

const explanationAsk = `
Explain the pricing strategy for this property:
1. Why the internal cost is what it is
2. How the local market affects pricing
3. What risks were factored in
4. Why each pricing tier makes sense here

Keep it under 200 words.`

const proposalSystem = "You are a professional copywriter for construction proposals. Write a persuasive proposal for the homeowner."

const followUpSystem = "You are a sales coach. Write follow-up messages for a contractor."

const coachSystem = "You are a real-time negotiation coach for a contractor."

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func intOrUnknown(v *int) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprint(*v)
}

func floatOrUnknown(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%g", *v)
}

func risks(pc *model.PropertyContext) string {
	if len(pc.RiskFlags) == 0 {
		return "None identified"
	}
	return strings.Join(pc.RiskFlags, ", ")
}

func labourRate(pc *model.PropertyContext) string {
	if pc.DetectedLabourRate == nil {
		return "unknown"
	}
	return fmt.Sprintf("£%g/hr", *pc.DetectedLabourRate)
}

func pricingFacts(pc *model.PropertyContext, p *model.PricingOutput) string {
	if pc == nil {
		pc = model.NewPropertyContext()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "PROPERTY DETAILS:\n")
	fmt.Fprintf(&b, "- Type: %s\n", orUnknown(string(pc.PropertyType)))
	fmt.Fprintf(&b, "- Year Built: %s (%s)\n", intOrUnknown(pc.YearBuilt), orUnknown(pc.ArchitecturalPeriod))
	fmt.Fprintf(&b, "- Size: %s sqm, %s bedrooms\n\n", floatOrUnknown(pc.SizeSqm), intOrUnknown(pc.Bedrooms))
	fmt.Fprintf(&b, "MARKET CONTEXT:\n")
	fmt.Fprintf(&b, "- Neighbourhood Median Price: %s\n", floatOrUnknown(pc.NeighbourhoodMedian))
	fmt.Fprintf(&b, "- Price Trend: %s\n", orUnknown(pc.NeighbourhoodTrend))
	fmt.Fprintf(&b, "- Labour Rate: %s\n\n", labourRate(pc))
	fmt.Fprintf(&b, "RISK FACTORS:\n%s\n\n", risks(pc))
	fmt.Fprintf(&b, "PRICING:\n")
	fmt.Fprintf(&b, "- Internal Cost: %s\n", money(p.InternalCostEstimate))
	fmt.Fprintf(&b, "- Win Price: %s\n", money(p.PriceBands.WinAtAllCosts))
	fmt.Fprintf(&b, "- Balanced: %s\n", money(p.PriceBands.Balanced))
	fmt.Fprintf(&b, "- Premium: %s\n", money(p.PriceBands.Premium))
	return b.String()
}

func coachingContext(bid *model.BidRecord) string {
	if bid == nil {
		return "no bid on record"
	}
	parts := []string{
		"job=" + humanJob(bid.Request.JobType),
		"address=" + bid.Request.Address,
	}
	if bid.Pricing != nil {
		parts = append(parts,
			"win="+money(bid.Pricing.PriceBands.WinAtAllCosts),
			"balanced="+money(bid.Pricing.PriceBands.Balanced),
			"premium="+money(bid.Pricing.PriceBands.Premium),
			"internal_cost="+money(bid.Pricing.InternalCostEstimate),
		)
	}
	if bid.PropertyContext != nil && len(bid.PropertyContext.RiskFlags) > 0 {
		parts = append(parts, "risks="+strings.Join(bid.PropertyContext.RiskFlags, "; "))
	}
	return strings.Join(parts, ", ")
}
