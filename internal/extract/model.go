package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bid-sniper/internal/llm"
	"github.com/sells-group/bid-sniper/internal/model"
)

const contextSystemPrompt = `You are an expert property data analyst. Extract property details from search results into a JSON object with these fields:
- property_year_built: integer. Infer from period words: Victorian ~1870, Edwardian ~1905, 1930s ~1935.
- year_built_confidence: "exact", "estimated", "inferred" or "unknown"
- architectural_period: string
- property_type: "flat", "terraced", "semi_detached", "detached", "bungalow" or "other"
- property_size_sqm: number (sqft * 0.0929)
- number_of_bedrooms: integer
- number_of_floors: integer
- last_sale_price: number
- last_sale_date: "YYYY-MM-DD"
- estimated_value: number
- neighbourhood_price_median: number
- neighbourhood_price_trend: "up", "down" or "stable"
- zoning: string
- permits: [{"type": string, "year": string}]
- likely_risk_flags: [string]
- material_cost_band: "low", "medium" or "high"
- labour_rate_band: "low", "medium" or "high"

If only the period is known, estimate the year and set confidence to "inferred". Omit fields you cannot determine.`

const contextUserPrompt = `Extract property context from these search results:

%s

Job Type: %s
Address: %s

Check every result for any mention of age, period or construction date, and for clues to the property type.`

// ModelStrategy extracts context with a generator in JSON mode.
type ModelStrategy struct {
	gen llm.Generator
}

// NewModelStrategy creates a generator-backed strategy.
func NewModelStrategy(gen llm.Generator) *ModelStrategy {
	return &ModelStrategy{gen: gen}
}

// Name implements Strategy.
func (m *ModelStrategy) Name() string { return "model" }

// Extract implements Strategy.
func (m *ModelStrategy) Extract(ctx context.Context, records []model.SearchRecord, job Job) (*model.PropertyContext, error) {
	if len(records) == 0 {
		return nil, eris.New("extract: no records for model extraction")
	}

	var out contextJSON
	err := llm.CompleteJSON(ctx, m.gen, llm.Request{
		System:      contextSystemPrompt,
		Prompt:      fmt.Sprintf(contextUserPrompt, FormatRecords(records), orUnknown(string(job.Type)), orUnknown(job.Address)),
		Temperature: llm.Temp(0.1),
		MaxTokens:   1024,
		Operation:   "context",
	}, &out)
	if err != nil {
		return nil, eris.Wrap(err, "extract: model")
	}
	return out.toContext(), nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// contextJSON is the wire shape the model is asked for. Numbers are
// accepted as JSON numbers or numeric strings.
type contextJSON struct {
	YearBuilt           *flexNumber  `json:"property_year_built"`
	YearBuiltConfidence string       `json:"year_built_confidence"`
	ArchitecturalPeriod string       `json:"architectural_period"`
	PropertyType        string       `json:"property_type"`
	SizeSqm             *flexNumber  `json:"property_size_sqm"`
	Bedrooms            *flexNumber  `json:"number_of_bedrooms"`
	Floors              *flexNumber  `json:"number_of_floors"`
	LastSalePrice       *flexNumber  `json:"last_sale_price"`
	LastSaleDate        string       `json:"last_sale_date"`
	OwnershipYears      *flexNumber  `json:"ownership_duration_years"`
	NeighbourhoodMedian *flexNumber  `json:"neighbourhood_price_median"`
	NeighbourhoodTrend  string       `json:"neighbourhood_price_trend"`
	EstimatedValue      *flexNumber  `json:"estimated_value"`
	Zoning              string       `json:"zoning"`
	Permits             []permitJSON `json:"permits"`
	RiskFlags           []string     `json:"likely_risk_flags"`
	MaterialCostBand    string       `json:"material_cost_band"`
	LabourRateBand      string       `json:"labour_rate_band"`
}

type permitJSON struct {
	Type flexString `json:"type"`
	Year flexString `json:"year"`
}

func (c contextJSON) toContext() *model.PropertyContext {
	pc := model.NewPropertyContext()
	pc.YearBuilt = c.YearBuilt.intPtr()
	pc.YearBuiltConfidence = model.YearConfidence(c.YearBuiltConfidence)
	pc.ArchitecturalPeriod = c.ArchitecturalPeriod
	pc.PropertyType = model.PropertyType(c.PropertyType)
	pc.SizeSqm = c.SizeSqm.floatPtr()
	pc.Bedrooms = c.Bedrooms.intPtr()
	pc.Floors = c.Floors.intPtr()
	pc.LastSalePrice = c.LastSalePrice.floatPtr()
	pc.LastSaleDate = c.LastSaleDate
	pc.OwnershipDurationYears = c.OwnershipYears.floatPtr()
	pc.NeighbourhoodMedian = c.NeighbourhoodMedian.floatPtr()
	pc.NeighbourhoodTrend = c.NeighbourhoodTrend
	pc.EstimatedValue = c.EstimatedValue.floatPtr()
	pc.Zoning = c.Zoning
	for _, p := range c.Permits {
		pc.Permits = append(pc.Permits, model.Permit{Type: orUnknown(string(p.Type)), Year: orUnknown(string(p.Year))})
	}
	for _, f := range c.RiskFlags {
		if f = strings.TrimSpace(f); f != "" {
			pc.AddRisk(f)
		}
	}
	pc.MaterialCostBand = model.Band(c.MaterialCostBand)
	pc.LabourRateBand = model.Band(c.LabourRateBand)
	return pc
}

// flexNumber decodes a JSON number, a numeric string, or null.
type flexNumber struct {
	v     float64
	valid bool
}

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.NewReplacer(",", "", "£", "", " ", "").Replace(s)
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// Unparseable strings ("unknown") are treated as absent.
			return nil
		}
		f.v, f.valid = v, true
		return nil
	}
	if err := json.Unmarshal(b, &f.v); err != nil {
		return err
	}
	f.valid = true
	return nil
}

func (f *flexNumber) floatPtr() *float64 {
	if f == nil || !f.valid {
		return nil
	}
	v := f.v
	return &v
}

func (f *flexNumber) intPtr() *int {
	if f == nil || !f.valid {
		return nil
	}
	v := int(f.v)
	return &v
}

// flexString decodes a JSON string or number as a string.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(b)
	return nil
}
