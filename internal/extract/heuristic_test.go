package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bid-sniper/internal/model"
)

func extractHeuristic(t *testing.T, records []model.SearchRecord) *model.PropertyContext {
	t.Helper()
	h := NewHeuristic()
	h.nowFunc = fixedClock
	pc, err := h.Extract(context.Background(), records, roofJob)
	require.NoError(t, err)
	return pc
}

func TestHeuristic_Metadata(t *testing.T) {
	pc := extractHeuristic(t, []model.SearchRecord{{
		RawMetadata: map[string]any{
			model.MetaYearBuilt:      1985,
			model.MetaLastSalePrice:  "450,000",
			model.MetaLastSaleDate:   "2016-05-20",
			model.MetaMedianPrice:    520000.0,
			model.MetaTrend:          "up",
			model.MetaEstimatedValue: 610000.0,
			model.MetaZoning:         "residential",
			model.MetaPermits: []any{
				map[string]any{"type": "loft", "year": 2019.0},
				map[string]any{},
			},
		},
	}})

	assert.Equal(t, 1985, *pc.YearBuilt)
	assert.Equal(t, model.YearExact, pc.YearBuiltConfidence)
	assert.Equal(t, 450000.0, *pc.LastSalePrice)
	assert.Equal(t, "2016-05-20", pc.LastSaleDate)
	assert.Equal(t, 10.0, *pc.OwnershipDurationYears)
	assert.Equal(t, 520000.0, *pc.NeighbourhoodMedian)
	assert.Equal(t, "up", pc.NeighbourhoodTrend)
	assert.Equal(t, "residential", pc.Zoning)
	assert.Equal(t, []model.Permit{{Type: "loft", Year: "2019"}, {Type: "unknown", Year: "unknown"}}, pc.Permits)
	assert.Empty(t, pc.RiskFlags)
	assert.Equal(t, model.BandMedium, pc.MaterialCostBand)
	// Estimated value above the threshold raises the labour band.
	assert.Equal(t, model.BandHigh, pc.LabourRateBand)
}

func TestHeuristic_OldPropertyRisk(t *testing.T) {
	pc := extractHeuristic(t, []model.SearchRecord{{RawMetadata: map[string]any{model.MetaYearBuilt: 1969}}})
	assert.Equal(t, []string{model.RiskOldServices}, pc.RiskFlags)
	assert.Equal(t, model.BandHigh, pc.MaterialCostBand)

	pc = extractHeuristic(t, []model.SearchRecord{{RawMetadata: map[string]any{model.MetaYearBuilt: 1970}}})
	assert.Empty(t, pc.RiskFlags)
	assert.Equal(t, model.BandMedium, pc.MaterialCostBand)
}

func TestHeuristic_HighValueMedian(t *testing.T) {
	pc := extractHeuristic(t, []model.SearchRecord{{RawMetadata: map[string]any{model.MetaMedianPrice: 600001.0}}})
	assert.Equal(t, model.BandHigh, pc.LabourRateBand)

	pc = extractHeuristic(t, []model.SearchRecord{{RawMetadata: map[string]any{model.MetaMedianPrice: 600000.0}}})
	assert.Equal(t, model.BandMedium, pc.LabourRateBand)
}

func TestHeuristic_TextScan(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		year       int
		confidence model.YearConfidence
		period     string
		typ        model.PropertyType
	}{
		{"built in", "A detached house built in 1962 with garden", 1962, model.YearEstimated, "", model.PropertyDetached},
		{"victorian", "Charming Victorian terraced house", 1870, model.YearInferred, "Victorian", model.PropertyTerraced},
		{"edwardian", "Edwardian semi-detached family home", 1905, model.YearInferred, "Edwardian", model.PropertySemiDetached},
		{"georgian", "Georgian townhouse flat conversion", 1780, model.YearInferred, "Georgian", model.PropertyFlat},
		{"1930s", "Classic 1930s bungalow", 1935, model.YearInferred, "1930s", model.PropertyBungalow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := extractHeuristic(t, []model.SearchRecord{{Snippet: tt.text}})
			require.NotNil(t, pc.YearBuilt)
			assert.Equal(t, tt.year, *pc.YearBuilt)
			assert.Equal(t, tt.confidence, pc.YearBuiltConfidence)
			assert.Equal(t, tt.period, pc.ArchitecturalPeriod)
			assert.Equal(t, tt.typ, pc.PropertyType)
			assert.True(t, pc.HasRisk(model.RiskOldServices))
		})
	}
}

func TestHeuristic_MetadataYearBeatsText(t *testing.T) {
	pc := extractHeuristic(t, []model.SearchRecord{{
		Snippet:     "Victorian style",
		RawMetadata: map[string]any{model.MetaYearBuilt: "2001"},
	}})
	assert.Equal(t, 2001, *pc.YearBuilt)
	assert.Equal(t, model.YearExact, pc.YearBuiltConfidence)
	assert.Empty(t, pc.ArchitecturalPeriod)
}

func TestHeuristic_Empty(t *testing.T) {
	pc := extractHeuristic(t, nil)
	assert.Nil(t, pc.YearBuilt)
	assert.Equal(t, model.YearUnknown, pc.YearBuiltConfidence)
	assert.Equal(t, model.BandMedium, pc.MaterialCostBand)
	assert.Equal(t, model.BandMedium, pc.LabourRateBand)
	assert.NotNil(t, pc.Permits)
	assert.NotNil(t, pc.RiskFlags)
}
