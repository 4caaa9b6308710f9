package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/bid-sniper/internal/model"
)

// HighValueThreshold is the median or estimated value above which the
// labour band is raised to high.
const HighValueThreshold = 600000

// OldPropertyYear is the build year below which old-services risk applies.
const OldPropertyYear = 1970

var builtInRe = regexp.MustCompile(`(?i)\bbuilt\s+(?:in|circa|c\.?|around)?\s*(1[6-9]\d{2}|20[0-2]\d)\b`)

// periodYears maps period words to a representative build year. Order
// matters: the first match wins.
var periodYears = []struct {
	pattern *regexp.Regexp
	period  string
	year    int
}{
	{regexp.MustCompile(`(?i)\bgeorgian\b`), "Georgian", 1780},
	{regexp.MustCompile(`(?i)\bvictorian\b`), "Victorian", 1870},
	{regexp.MustCompile(`(?i)\bedwardian\b`), "Edwardian", 1905},
	{regexp.MustCompile(`(?i)\b1930'?s\b`), "1930s", 1935},
}

var propertyTypeWords = []struct {
	pattern *regexp.Regexp
	typ     model.PropertyType
}{
	{regexp.MustCompile(`(?i)\bsemi[- ]detached\b`), model.PropertySemiDetached},
	{regexp.MustCompile(`(?i)\bdetached\b`), model.PropertyDetached},
	{regexp.MustCompile(`(?i)\b(?:end[- ]|mid[- ])?terrace(?:d)?\b`), model.PropertyTerraced},
	{regexp.MustCompile(`(?i)\bbungalow\b`), model.PropertyBungalow},
	{regexp.MustCompile(`(?i)\b(?:flat|apartment|maisonette)\b`), model.PropertyFlat},
}

// Heuristic derives context from structured metadata and simple text
// patterns. It never fails.
type Heuristic struct {
	nowFunc func() time.Time
}

// NewHeuristic creates a heuristic strategy using the wall clock.
func NewHeuristic() *Heuristic {
	return &Heuristic{nowFunc: time.Now}
}

// Name implements Strategy.
func (h *Heuristic) Name() string { return "heuristic" }

// Extract implements Strategy.
func (h *Heuristic) Extract(_ context.Context, records []model.SearchRecord, _ Job) (*model.PropertyContext, error) {
	pc := model.NewPropertyContext()

	for _, r := range records {
		h.applyMetadata(pc, r.RawMetadata)
	}
	if pc.YearBuilt == nil || pc.PropertyType == "" {
		scanText(pc, records)
	}

	if pc.YearBuilt != nil && *pc.YearBuilt < OldPropertyYear {
		pc.AddRisk(model.RiskOldServices)
		pc.MaterialCostBand = model.BandHigh
	}

	switch {
	case pc.NeighbourhoodMedian != nil && *pc.NeighbourhoodMedian > HighValueThreshold:
		pc.LabourRateBand = model.BandHigh
	case pc.EstimatedValue != nil && *pc.EstimatedValue > HighValueThreshold:
		pc.LabourRateBand = model.BandHigh
	}
	return pc, nil
}

// applyMetadata copies recognised keys. Later records overwrite earlier ones.
func (h *Heuristic) applyMetadata(pc *model.PropertyContext, meta map[string]any) {
	if len(meta) == 0 {
		return
	}
	if v, ok := toFloat64(meta[model.MetaYearBuilt]); ok {
		y := int(v)
		pc.YearBuilt = &y
		pc.YearBuiltConfidence = model.YearExact
	}
	if v, ok := toFloat64(meta[model.MetaLastSalePrice]); ok {
		pc.LastSalePrice = &v
	}
	if s, ok := toString(meta[model.MetaLastSaleDate]); ok && s != "" {
		pc.LastSaleDate = s
		if d, ok := h.ownershipYears(s); ok {
			pc.OwnershipDurationYears = &d
		}
	}
	if v, ok := toFloat64(meta[model.MetaMedianPrice]); ok {
		pc.NeighbourhoodMedian = &v
	}
	if s, ok := toString(meta[model.MetaTrend]); ok {
		pc.NeighbourhoodTrend = s
	}
	if v, ok := toFloat64(meta[model.MetaEstimatedValue]); ok {
		pc.EstimatedValue = &v
	}
	if s, ok := toString(meta[model.MetaZoning]); ok {
		pc.Zoning = s
	}
	pc.Permits = append(pc.Permits, toPermits(meta[model.MetaPermits])...)
}

// ownershipYears is the current year minus the sale year of a YYYY-MM-DD
// (or YYYY) date.
func (h *Heuristic) ownershipYears(date string) (float64, bool) {
	yearPart, _, _ := strings.Cut(date, "-")
	saleYear, err := strconv.Atoi(strings.TrimSpace(yearPart))
	if err != nil {
		return 0, false
	}
	return float64(h.nowFunc().Year() - saleYear), true
}

func scanText(pc *model.PropertyContext, records []model.SearchRecord) {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(r.Title)
		b.WriteByte(' ')
		b.WriteString(r.Content())
		b.WriteByte('\n')
	}
	text := b.String()

	if pc.YearBuilt == nil {
		if m := builtInRe.FindStringSubmatch(text); m != nil {
			y, _ := strconv.Atoi(m[1])
			pc.YearBuilt = &y
			pc.YearBuiltConfidence = model.YearEstimated
		} else {
			for _, p := range periodYears {
				if p.pattern.MatchString(text) {
					y := p.year
					pc.YearBuilt = &y
					pc.YearBuiltConfidence = model.YearInferred
					pc.ArchitecturalPeriod = p.period
					break
				}
			}
		}
	}

	if pc.PropertyType == "" {
		for _, w := range propertyTypeWords {
			if w.pattern.MatchString(text) {
				pc.PropertyType = w.typ
				break
			}
		}
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(n), ",", ""), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case nil:
		return "", false
	default:
		return fmt.Sprint(s), true
	}
}

func toPermits(v any) []model.Permit {
	var out []model.Permit
	add := func(m map[string]any) {
		typ, ok := toString(m["type"])
		if !ok || typ == "" {
			typ = "unknown"
		}
		year, ok := toString(m["year"])
		if !ok || year == "" {
			year = "unknown"
		}
		out = append(out, model.Permit{Type: typ, Year: year})
	}
	switch ps := v.(type) {
	case []any:
		for _, p := range ps {
			if m, ok := p.(map[string]any); ok {
				add(m)
			}
		}
	case []map[string]any:
		for _, m := range ps {
			add(m)
		}
	case []model.Permit:
		out = append(out, ps...)
	}
	return out
}
