// Package pricing computes internal cost and the three quoted price tiers
// for a job. Calculate is pure and deterministic.
package pricing

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bid-sniper/internal/model"
)

// Margin tiers.
const (
	WinMargin        = 0.15
	PremiumMarginAdd = 0.15
	// MaxDesiredMargin is exclusive: premium = desired + 0.15 must stay below 1.
	MaxDesiredMargin = 1 - PremiumMarginAdd
)

// Context multipliers.
const (
	HighLabourBandFactor    = 1.2
	HighMaterialBandFactor  = 1.3
	LowMaterialBandFactor   = 0.9
	OldServicesRiskAdd      = 0.15
	HighUrgencyRiskAdd      = 0.10
	EmergencyUrgencyRiskAdd = 0.30
)

// Market envelope parameters.
const (
	marketMeanDivisor = 0.99
	marketStdFraction = 0.12
	marketSigmas      = 3
)

var (
	// ErrInvalidMargin is returned for a desired margin outside [0, 0.85).
	ErrInvalidMargin = eris.New("pricing: invalid margin")
	// ErrNoPricingInputs is returned when there is nothing to price.
	ErrNoPricingInputs = eris.New("pricing: no pricing inputs")
	// ErrInvalidInput is returned for negative or non-finite rates, hours
	// or costs.
	ErrInvalidInput = eris.New("pricing: invalid input")
)

// LowMarginWarning is attached when the desired margin is below the win
// margin, which puts the balanced price under the win-at-all-costs price.
const LowMarginWarning = "desired margin is below 15%: balanced price is lower than the win-at-all-costs price"

// Input is everything the engine prices from.
type Input struct {
	Context            *model.PropertyContext
	JobType            model.JobType
	LabourRate         float64
	DesiredMargin      float64
	EstimatedHours     float64
	EstimatedMaterials float64
	LabourTasks        []model.LabourTask
	Materials          []model.MaterialLineItem
	Urgency            model.Urgency
}

// ValidateMargin rejects margins for which a tier price is undefined.
func ValidateMargin(m float64) error {
	if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 || m >= MaxDesiredMargin {
		return eris.Wrapf(ErrInvalidMargin, "desired margin %v must be in [0, %.2f)", m, MaxDesiredMargin)
	}
	return nil
}

// PriceWithMargin returns cost / (1 - margin).
func PriceWithMargin(cost, margin float64) float64 {
	return cost / (1 - margin)
}

// Engine prices jobs against a material catalogue.
type Engine struct {
	catalogue *Catalogue
}

// NewEngine creates an Engine. A nil catalogue uses the defaults.
func NewEngine(cat *Catalogue) *Engine {
	if cat == nil {
		cat = DefaultCatalogue()
	}
	return &Engine{catalogue: cat}
}

var defaultEngine = NewEngine(nil)

// Calculate prices in with the default catalogue.
func Calculate(in Input) (*model.PricingOutput, error) {
	return defaultEngine.Calculate(in)
}

// Calculate prices in. Identical inputs give bit-identical output.
func (e *Engine) Calculate(in Input) (*model.PricingOutput, error) {
	if err := ValidateMargin(in.DesiredMargin); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.EstimatedHours == 0 && in.EstimatedMaterials == 0 && len(in.LabourTasks) == 0 && len(in.Materials) == 0 {
		return nil, ErrNoPricingInputs
	}

	pc := in.Context
	if pc == nil {
		pc = model.NewPropertyContext()
	}
	labourBand := model.NormalizeBand(string(pc.LabourRateBand))
	materialBand := model.NormalizeBand(string(pc.MaterialCostBand))

	var warnings []string

	rate := in.LabourRate
	if labourBand == model.BandHigh {
		rate *= HighLabourBandFactor
	}

	labourCost := in.EstimatedHours * rate
	var labourBreakdown []model.LabourTask
	if len(in.LabourTasks) > 0 {
		labourCost = 0
		labourBreakdown = make([]model.LabourTask, len(in.LabourTasks))
		for i, t := range in.LabourTasks {
			if t.Workers < 1 {
				t.Workers = 1
			}
			labourCost += t.Hours * rate * float64(t.Workers)
			labourBreakdown[i] = t
		}
	}

	materialsCost := in.EstimatedMaterials
	var materialsBreakdown []model.MaterialLineItem
	if len(in.Materials) > 0 {
		materialsCost = 0
		materialsBreakdown = make([]model.MaterialLineItem, len(in.Materials))
		for i, m := range in.Materials {
			line, ok := e.lineCost(m)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("material %q has no catalogue entry or cost", m.Item))
			}
			materialsCost += line.TotalCost
			materialsBreakdown[i] = line
		}
	}

	switch materialBand {
	case model.BandHigh:
		materialsCost *= HighMaterialBandFactor
	case model.BandLow:
		materialsCost *= LowMaterialBandFactor
	}

	risk := riskMultiplier(pc, in.Urgency)
	internal := (labourCost + materialsCost) * risk

	win := PriceWithMargin(internal, WinMargin)
	balanced := PriceWithMargin(internal, in.DesiredMargin)
	premium := PriceWithMargin(internal, in.DesiredMargin+PremiumMarginAdd)
	if in.DesiredMargin < WinMargin {
		warnings = append(warnings, LowMarginWarning)
	}

	return &model.PricingOutput{
		InternalCostEstimate: round2(internal),
		PriceBands: model.PriceBands{
			WinAtAllCosts: round2(win),
			Balanced:      round2(balanced),
			Premium:       round2(premium),
		},
		MinRecommendedPrice: round2(win),
		MaterialsBreakdown:  materialsBreakdown,
		LabourBreakdown:     labourBreakdown,
		TotalMaterialsCost:  round2(materialsCost),
		TotalLabourCost:     round2(labourCost),
		MarketStats:         marketStats(balanced),
		Warnings:            warnings,
	}, nil
}

// lineCost prices one material line: catalogue midpoint × quantity for known
// items, else the supplied total, else quantity × unit cost. It reports
// false when no cost could be determined.
func (e *Engine) lineCost(m model.MaterialLineItem) (model.MaterialLineItem, bool) {
	if mc, ok := e.catalogue.Lookup(m.Item); ok {
		m.UnitCost = mc.Midpoint()
		m.TotalCost = round2(mc.Midpoint() * m.Quantity)
		if m.Unit == "" {
			m.Unit = mc.Unit
		}
		return m, true
	}
	if m.TotalCost > 0 {
		return m, true
	}
	m.TotalCost = round2(m.Quantity * m.UnitCost)
	return m, m.TotalCost > 0
}

func riskMultiplier(pc *model.PropertyContext, urgency model.Urgency) float64 {
	risk := 1.0
	if pc.HasRisk(model.RiskOldServices) {
		risk += OldServicesRiskAdd
	}
	switch urgency {
	case model.UrgencyHigh:
		risk += HighUrgencyRiskAdd
	case model.UrgencyEmergency:
		risk += EmergencyUrgencyRiskAdd
	}
	return risk
}

func marketStats(balanced float64) *model.MarketStats {
	mean := balanced / marketMeanDivisor
	std := mean * marketStdFraction
	return &model.MarketStats{
		Mean:       round2(mean),
		StdDev:     round2(std),
		LowerBound: round2(mean - marketSigmas*std),
		UpperBound: round2(mean + marketSigmas*std),
	}
}

func validateInput(in Input) error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return eris.Wrapf(ErrInvalidInput, "%s %v", name, v)
		}
		return nil
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"labour rate", in.LabourRate},
		{"estimated hours", in.EstimatedHours},
		{"estimated materials", in.EstimatedMaterials},
	} {
		if err := check(f.name, f.v); err != nil {
			return err
		}
	}
	for _, t := range in.LabourTasks {
		if err := check("task hours", t.Hours); err != nil {
			return err
		}
	}
	for _, m := range in.Materials {
		if err := check("material quantity", m.Quantity); err != nil {
			return err
		}
		if err := check("material unit cost", m.UnitCost); err != nil {
			return err
		}
		if err := check("material total cost", m.TotalCost); err != nil {
			return err
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
