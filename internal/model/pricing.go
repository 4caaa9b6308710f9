package model

// LabourTask is one itemised unit of labour.
type LabourTask struct {
	Task       string  `json:"task"`
	Hours      float64 `json:"hours"`
	Workers    int     `json:"workers"`
	SkillLevel string  `json:"skill_level,omitempty"`
}

// MaterialLineItem is one itemised material purchase.
type MaterialLineItem struct {
	Item      string  `json:"item"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
	UnitCost  float64 `json:"unit_cost"`
	TotalCost float64 `json:"total_cost"`
}

// JobEstimate holds the job parameters produced by AI estimation (or the
// per-job defaults when estimation is unavailable).
type JobEstimate struct {
	BaseHours            float64            `json:"base_hours"`
	MaterialsCost        float64            `json:"materials_cost"`
	LabourTasks          []LabourTask       `json:"labour_tasks"`
	Materials            []MaterialLineItem `json:"materials"`
	ComplexityMultiplier float64            `json:"complexity_multiplier"`
	UrgencyMultiplier    float64            `json:"urgency_multiplier"`
}

// PriceBands are the three quoted price tiers.
type PriceBands struct {
	WinAtAllCosts float64 `json:"win_at_all_costs"`
	Balanced      float64 `json:"balanced"`
	Premium       float64 `json:"premium"`
}

// MarketStats is a simulated market envelope around the balanced price. It is
// context for the contractor and never feeds the pricing decision.
type MarketStats struct {
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// PricingOutput is the result of one pricing computation.
type PricingOutput struct {
	InternalCostEstimate float64            `json:"internal_cost_estimate"`
	PriceBands           PriceBands         `json:"price_bands"`
	MinRecommendedPrice  float64            `json:"min_recommended_price"`
	MaterialsBreakdown   []MaterialLineItem `json:"materials_breakdown,omitempty"`
	LabourBreakdown      []LabourTask       `json:"labour_breakdown,omitempty"`
	TotalMaterialsCost   float64            `json:"total_materials_cost"`
	TotalLabourCost      float64            `json:"total_labour_cost"`
	MarketStats          *MarketStats       `json:"market_stats,omitempty"`
	Warnings             []string           `json:"warnings,omitempty"`
}
