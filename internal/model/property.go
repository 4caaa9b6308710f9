package model

import "strings"

// Band is a coarse three-level classifier used to scale a cost or rate.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// NormalizeBand maps any band vocabulary onto low/medium/high. The model
// sometimes answers in budget/medium/premium terms; anything unrecognised
// collapses to medium.
func NormalizeBand(s string) Band {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "budget":
		return BandLow
	case "high", "premium":
		return BandHigh
	default:
		return BandMedium
	}
}

// YearConfidence describes how a build year was obtained.
type YearConfidence string

const (
	YearExact     YearConfidence = "exact"
	YearEstimated YearConfidence = "estimated"
	YearInferred  YearConfidence = "inferred"
	YearUnknown   YearConfidence = "unknown"
)

// NormalizeYearConfidence returns a known confidence, defaulting to unknown.
func NormalizeYearConfidence(s string) YearConfidence {
	switch c := YearConfidence(strings.ToLower(strings.TrimSpace(s))); c {
	case YearExact, YearEstimated, YearInferred:
		return c
	default:
		return YearUnknown
	}
}

// PropertyType is the structural category of a property.
type PropertyType string

const (
	PropertyFlat         PropertyType = "flat"
	PropertyTerraced     PropertyType = "terraced"
	PropertySemiDetached PropertyType = "semi_detached"
	PropertyDetached     PropertyType = "detached"
	PropertyBungalow     PropertyType = "bungalow"
	PropertyOther        PropertyType = "other"
)

// NormalizePropertyType maps free-form labels ("semi-detached", "Terrace")
// onto the enum. Empty input yields an empty type.
func NormalizePropertyType(s string) PropertyType {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer("-", "_", " ", "_").Replace(v)
	switch v {
	case "":
		return ""
	case "flat", "apartment", "maisonette":
		return PropertyFlat
	case "terraced", "terrace", "end_terrace", "mid_terrace":
		return PropertyTerraced
	case "semi_detached", "semi":
		return PropertySemiDetached
	case "detached":
		return PropertyDetached
	case "bungalow":
		return PropertyBungalow
	default:
		return PropertyOther
	}
}

// RiskOldServices is the risk flag raised for pre-1970 properties. The
// pricing engine keys its risk buffer on this exact label.
const RiskOldServices = "Old wiring/plumbing risk"

// Permit is a planning or building permit on record.
type Permit struct {
	Type string `json:"type"`
	Year string `json:"year"`
}

// PropertyContext is the structured view of a property used for pricing.
type PropertyContext struct {
	YearBuilt           *int           `json:"property_year_built,omitempty"`
	YearBuiltConfidence YearConfidence `json:"year_built_confidence"`
	ArchitecturalPeriod string         `json:"architectural_period,omitempty"`

	PropertyType PropertyType `json:"property_type,omitempty"`
	SizeSqm      *float64     `json:"property_size_sqm,omitempty"`
	Bedrooms     *int         `json:"number_of_bedrooms,omitempty"`
	Floors       *int         `json:"number_of_floors,omitempty"`

	LastSalePrice          *float64 `json:"last_sale_price,omitempty"`
	LastSaleDate           string   `json:"last_sale_date,omitempty"`
	OwnershipDurationYears *float64 `json:"ownership_duration_years,omitempty"`
	NeighbourhoodMedian    *float64 `json:"neighbourhood_price_median,omitempty"`
	NeighbourhoodTrend     string   `json:"neighbourhood_price_trend,omitempty"`
	EstimatedValue         *float64 `json:"estimated_value,omitempty"`

	Zoning    string   `json:"zoning,omitempty"`
	Permits   []Permit `json:"permits"`
	RiskFlags []string `json:"likely_risk_flags"`

	MaterialCostBand   Band     `json:"material_cost_band"`
	LabourRateBand     Band     `json:"labour_rate_band"`
	DetectedLabourRate *float64 `json:"detected_labour_rate,omitempty"`
}

// NewPropertyContext returns an empty context with both bands at medium.
func NewPropertyContext() *PropertyContext {
	return &PropertyContext{
		YearBuiltConfidence: YearUnknown,
		Permits:             []Permit{},
		RiskFlags:           []string{},
		MaterialCostBand:    BandMedium,
		LabourRateBand:      BandMedium,
	}
}

// Normalize enforces the context invariants in place: bands are always one
// of low/medium/high, confidence is a known value, and slices are non-nil.
func (c *PropertyContext) Normalize() {
	c.MaterialCostBand = NormalizeBand(string(c.MaterialCostBand))
	c.LabourRateBand = NormalizeBand(string(c.LabourRateBand))
	c.YearBuiltConfidence = NormalizeYearConfidence(string(c.YearBuiltConfidence))
	if c.PropertyType != "" {
		c.PropertyType = NormalizePropertyType(string(c.PropertyType))
	}
	if c.Permits == nil {
		c.Permits = []Permit{}
	}
	if c.RiskFlags == nil {
		c.RiskFlags = []string{}
	}
}

// HasRisk reports whether the flag is present.
func (c *PropertyContext) HasRisk(flag string) bool {
	for _, f := range c.RiskFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// AddRisk appends a flag unless it is already present.
func (c *PropertyContext) AddRisk(flag string) {
	if !c.HasRisk(flag) {
		c.RiskFlags = append(c.RiskFlags, flag)
	}
}
