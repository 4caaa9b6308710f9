// Package rates provides labour rate defaults by UK postcode area and a TTL
// cache for rates discovered through research.
package rates

import (
	"regexp"
	"strings"
)

// DefaultRate is the hourly labour rate (£/hr) used when no postcode area is
// recognised.
const DefaultRate = 65.0

// LondonFallbackRate applies when the address mentions London but carries no
// recognised postcode area.
const LondonFallbackRate = 70.0

var londonRates = map[string]float64{
	"SW": 75,
	"W":  80,
	"NW": 70,
	"N":  65,
	"E":  60,
	"SE": 65,
	"EC": 85,
	"WC": 85,
}

var ukRates = map[string]float64{
	// South east
	"GU": 65,
	"RH": 65,
	"TN": 60,
	"BR": 65,
	// Home counties
	"AL": 65,
	"HP": 65,
	"SL": 70,
	"WD": 65,
	// Cities
	"M":  60,
	"B":  55,
	"LS": 55,
	"BS": 60,
	"EH": 60,
	"G":  55,
}

var (
	postcodeRe = regexp.MustCompile(`\b([A-Z]{1,2}\d{1,2}[A-Z]?)\b`)
	areaRe     = regexp.MustCompile(`^[A-Z]+`)
)

// RegionalRate returns the default hourly labour rate for an address. It is
// total and deterministic: the first postcode-like token with a known area
// wins (London table before the UK table), then a London mention, then
// DefaultRate.
func RegionalRate(address, region string) float64 {
	text := strings.ToUpper(address + " " + region)

	for _, tok := range postcodeRe.FindAllString(text, -1) {
		area := areaRe.FindString(tok)
		if r, ok := londonRates[area]; ok {
			return r
		}
		if r, ok := ukRates[area]; ok {
			return r
		}
	}

	if strings.Contains(text, "LONDON") {
		return LondonFallbackRate
	}
	return DefaultRate
}
