package pricing

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// MaterialCost is the per-unit cost range of a catalogue material.
type MaterialCost struct {
	Unit string  `yaml:"unit"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

// Midpoint returns the unit cost used for pricing.
func (m MaterialCost) Midpoint() float64 {
	return (m.Min + m.Max) / 2
}

var defaultMaterials = map[string]MaterialCost{
	"roof_tiles":   {Unit: "per tile", Min: 5, Max: 15},
	"roofing_felt": {Unit: "per m²", Min: 6, Max: 12},
	"nails":        {Unit: "per box", Min: 10, Max: 20},
	"plaster":      {Unit: "per litre", Min: 12, Max: 25},
	"paint":        {Unit: "per litre", Min: 15, Max: 40},
	"copper_pipe":  {Unit: "per metre", Min: 8, Max: 20},
	"drywall":      {Unit: "per sheet", Min: 8, Max: 18},
	"insulation":   {Unit: "per m²", Min: 10, Max: 30},
	"timber":       {Unit: "per metre", Min: 5, Max: 12},
	"concrete":     {Unit: "per m³", Min: 70, Max: 120},
}

// Catalogue maps material keys to cost ranges. Keys are lower snake case;
// lookups normalise "Roof Tiles" and "roof-tiles" to "roof_tiles".
type Catalogue struct {
	items map[string]MaterialCost
}

// DefaultCatalogue returns the built-in material costs.
func DefaultCatalogue() *Catalogue {
	items := make(map[string]MaterialCost, len(defaultMaterials))
	for k, v := range defaultMaterials {
		items[k] = v
	}
	return &Catalogue{items: items}
}

// LoadCatalogue reads a YAML file of material costs and overlays it on the
// defaults. The file has a top-level "materials" mapping:
//
//	materials:
//	  roof_tiles: {unit: per tile, min: 6, max: 16}
func LoadCatalogue(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pricing: read catalogue %s", path)
	}

	var file struct {
		Materials map[string]MaterialCost `yaml:"materials"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "pricing: parse catalogue")
	}

	c := DefaultCatalogue()
	for name, mc := range file.Materials {
		if mc.Min < 0 || mc.Max < mc.Min {
			return nil, eris.Errorf("pricing: catalogue item %q has invalid range [%g, %g]", name, mc.Min, mc.Max)
		}
		c.items[normalizeItem(name)] = mc
	}
	return c, nil
}

// Lookup returns the cost range for an item.
func (c *Catalogue) Lookup(item string) (MaterialCost, bool) {
	mc, ok := c.items[normalizeItem(item)]
	return mc, ok
}

// Cost returns midpoint unit cost × quantity for a known item, rounded to
// 2 dp.
func (c *Catalogue) Cost(item string, quantity float64) (float64, bool) {
	mc, ok := c.Lookup(item)
	if !ok {
		return 0, false
	}
	return round2(mc.Midpoint() * quantity), true
}

// Items returns the catalogue keys in sorted order.
func (c *Catalogue) Items() []string {
	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeItem(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
