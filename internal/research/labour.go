package research

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/sells-group/bid-sniper/internal/model"
)

// RatePatternVersion identifies the current set of labour-rate patterns.
// Bump it whenever ratePatterns changes.
const RatePatternVersion = "2"

// Plausible hourly labour rates in £/hr. Anything outside is discarded.
const (
	MinPlausibleRate = 15.0
	MaxPlausibleRate = 200.0
)

const (
	num      = `(\d+(?:\.\d+)?)`
	hourUnit = `(?:per\s+hour|an\s+hour|/\s*h(?:ou)?r\b|ph\b)`
)

type ratePattern struct {
	name string
	re   *regexp.Regexp
}

// ratePatterns are applied in order. Each match's span is blanked before the
// next pattern runs, so "hourly rate £45/hr" counts once.
var ratePatterns = []ratePattern{
	{"range", regexp.MustCompile(`(?i)£\s*` + num + `\s*(?:-|–|to)\s*£?\s*` + num + `\s*` + hourUnit)},
	{"pound_per_hour", regexp.MustCompile(`(?i)£\s*` + num + `\s*` + hourUnit)},
	{"pounds_word", regexp.MustCompile(`(?i)` + num + `\s*(?:pounds|gbp)\s*` + hourUnit)},
	{"hourly_rate", regexp.MustCompile(`(?i)hourly\s+rates?[^£]{0,80}£\s*` + num)},
	{"labour_cost", regexp.MustCompile(`(?i)labou?r\s+costs?[^£]{0,80}£\s*` + num)},
}

// ExtractLabourRate scans records for hourly labour rates and returns the
// median of the plausible ones. Each record's full content is used when
// present, otherwise its snippet.
func ExtractLabourRate(records []model.SearchRecord) (float64, bool) {
	var rates []float64
	for _, rec := range records {
		rates = append(rates, scanRates(rec.Content())...)
	}

	valid := rates[:0]
	for _, r := range rates {
		if r >= MinPlausibleRate && r <= MaxPlausibleRate {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return 0, false
	}
	return median(valid), true
}

func scanRates(text string) []float64 {
	var out []float64
	for _, p := range ratePatterns {
		locs := p.re.FindAllStringSubmatchIndex(text, -1)
		if len(locs) == 0 {
			continue
		}

		var b strings.Builder
		prev := 0
		for _, loc := range locs {
			if v, ok := matchValue(text, loc); ok {
				out = append(out, v)
			}
			b.WriteString(text[prev:loc[0]])
			b.WriteByte(' ')
			prev = loc[1]
		}
		b.WriteString(text[prev:])
		text = b.String()
	}
	return out
}

// matchValue returns the rate for one match: the single captured number, or
// the midpoint when two were captured.
func matchValue(text string, loc []int) (float64, bool) {
	var vals []float64
	for i := 2; i+1 < len(loc); i += 2 {
		if loc[i] < 0 {
			continue
		}
		v, err := strconv.ParseFloat(text[loc[i]:loc[i+1]], 64)
		if err != nil {
			return 0, false
		}
		vals = append(vals, v)
	}
	switch len(vals) {
	case 1:
		return vals[0], true
	case 2:
		return (vals[0] + vals[1]) / 2, true
	default:
		return 0, false
	}
}

func median(vals []float64) float64 {
	s := slices.Clone(vals)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
