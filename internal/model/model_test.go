package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBand(t *testing.T) {
	tests := map[string]Band{
		"low":     BandLow,
		"budget":  BandLow,
		" LOW ":   BandLow,
		"medium":  BandMedium,
		"high":    BandHigh,
		"Premium": BandHigh,
		"":        BandMedium,
		"extreme": BandMedium,
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeBand(in), "input %q", in)
	}
}

func TestNormalizeYearConfidence(t *testing.T) {
	assert.Equal(t, YearExact, NormalizeYearConfidence("Exact"))
	assert.Equal(t, YearInferred, NormalizeYearConfidence("inferred"))
	assert.Equal(t, YearUnknown, NormalizeYearConfidence("probably"))
	assert.Equal(t, YearUnknown, NormalizeYearConfidence(""))
}

func TestNormalizePropertyType(t *testing.T) {
	tests := map[string]PropertyType{
		"semi-detached": PropertySemiDetached,
		"Semi Detached": PropertySemiDetached,
		"terrace":       PropertyTerraced,
		"end-terrace":   PropertyTerraced,
		"apartment":     PropertyFlat,
		"detached":      PropertyDetached,
		"bungalow":      PropertyBungalow,
		"castle":        PropertyOther,
		"":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePropertyType(in), "input %q", in)
	}
}

func TestPropertyContext_Normalize(t *testing.T) {
	c := &PropertyContext{
		MaterialCostBand:    "premium",
		LabourRateBand:      "whatever",
		YearBuiltConfidence: "maybe",
		PropertyType:        "semi-detached",
	}
	c.Normalize()

	assert.Equal(t, BandHigh, c.MaterialCostBand)
	assert.Equal(t, BandMedium, c.LabourRateBand)
	assert.Equal(t, YearUnknown, c.YearBuiltConfidence)
	assert.Equal(t, PropertySemiDetached, c.PropertyType)
	assert.NotNil(t, c.Permits)
	assert.NotNil(t, c.RiskFlags)
}

func TestPropertyContext_Risks(t *testing.T) {
	c := NewPropertyContext()
	assert.False(t, c.HasRisk(RiskOldServices))

	c.AddRisk(RiskOldServices)
	c.AddRisk(RiskOldServices)
	assert.True(t, c.HasRisk(RiskOldServices))
	assert.Len(t, c.RiskFlags, 1)
}

func TestPropertyContext_JSON(t *testing.T) {
	year := 1932
	c := NewPropertyContext()
	c.YearBuilt = &year
	c.YearBuiltConfidence = YearExact

	b, err := json.Marshal(c)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.InDelta(t, 1932, raw["property_year_built"], 0)
	assert.Equal(t, "exact", raw["year_built_confidence"])
	assert.Equal(t, "medium", raw["material_cost_band"])
	assert.NotContains(t, raw, "last_sale_price")
	assert.Equal(t, []any{}, raw["likely_risk_flags"])
}

func TestSearchRecord_Content(t *testing.T) {
	r := SearchRecord{Snippet: "short"}
	assert.Equal(t, "short", r.Content())

	r.RawMetadata = map[string]any{MetaFullContent: ""}
	assert.Equal(t, "short", r.Content())

	r.RawMetadata[MetaFullContent] = "the full text"
	assert.Equal(t, "the full text", r.Content())
}

func TestJobType_Valid(t *testing.T) {
	assert.True(t, JobRoofRepair.Valid())
	assert.True(t, JobOther.Valid())
	assert.False(t, JobType("landscaping").Valid())
	assert.False(t, JobType("").Valid())
}

func TestBidRequest_EffectiveUrgency(t *testing.T) {
	assert.Equal(t, UrgencyMedium, BidRequest{}.EffectiveUrgency())
	assert.Equal(t, UrgencyEmergency, BidRequest{Urgency: UrgencyEmergency}.EffectiveUrgency())
}

func TestBidRecord_Degraded(t *testing.T) {
	b := &BidRecord{Stages: []StageOutcome{{Name: "research", Status: StageComplete}}}
	assert.False(t, b.Degraded())

	b.Stages = append(b.Stages, StageOutcome{Name: "context", Status: StageDegraded})
	assert.True(t, b.Degraded())
}

func TestResult(t *testing.T) {
	ok := OK(42)
	assert.Equal(t, 42, ok.Value)
	assert.False(t, ok.Fallback)
	assert.Empty(t, ok.Reason())

	d := Degraded([]string{}, errors.New("search timed out"))
	assert.True(t, d.Fallback)
	assert.Equal(t, "search timed out", d.Reason())

	assert.Equal(t, "fallback", Degraded(0, nil).Reason())
}
