package space

import (
	"fmt"
	"strings"
)

// Sub-space names accepted in the run configuration.
const (
	SpaceBuy      = "buy"
	SpaceSell     = "sell"
	SpaceRoi      = "roi"
	SpaceStoploss = "stoploss"
	SpaceAll      = "all"
)

// Provider supplies the dimensions for each searchable sub-space.
// A strategy implements this to make itself tunable.
type Provider interface {
	IndicatorSpace() []Dimension
	SellIndicatorSpace() []Dimension
	RoiSpace() []Dimension
	StoplossSpace() []Dimension
}

// Selection is the set of sub-spaces enabled for a run.
type Selection struct {
	names map[string]bool
}

// ParseSelection validates a list of sub-space names. The "all"
// wildcard enables every sub-space.
func ParseSelection(names []string) (Selection, error) {
	valid := map[string]bool{
		SpaceBuy:      true,
		SpaceSell:     true,
		SpaceRoi:      true,
		SpaceStoploss: true,
		SpaceAll:      true,
	}

	sel := Selection{names: make(map[string]bool)}
	for _, name := range names {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		if !valid[name] {
			return Selection{}, fmt.Errorf("unknown search space %q", name)
		}
		sel.names[name] = true
	}

	if len(sel.names) == 0 {
		return Selection{}, fmt.Errorf("no search spaces selected")
	}
	return sel, nil
}

// Has reports whether a sub-space is enabled, honoring the "all" wildcard.
func (s Selection) Has(name string) bool {
	return s.names[name] || s.names[SpaceAll]
}

// Build assembles the ordered parameter space from the enabled
// sub-spaces, concatenated in the fixed order buy, sell, roi, stoploss.
func Build(sel Selection, provider Provider) Space {
	var dims []Dimension
	if sel.Has(SpaceBuy) {
		dims = append(dims, provider.IndicatorSpace()...)
	}
	if sel.Has(SpaceSell) {
		dims = append(dims, provider.SellIndicatorSpace()...)
	}
	if sel.Has(SpaceRoi) {
		dims = append(dims, provider.RoiSpace()...)
	}
	if sel.Has(SpaceStoploss) {
		dims = append(dims, provider.StoplossSpace()...)
	}
	return New(dims)
}
