// Package strategy defines the capability set a tunable trading
// strategy exposes to the search engine: sub-space dimensions, rule
// generators and the ROI table generator.
package strategy

import (
	"github.com/quantflow/hypertune/internal/dataset"
	"github.com/quantflow/hypertune/internal/space"
)

// Rule decides whether a signal fires on candle i of the processed frame.
type Rule func(f *dataset.Frame, i int) bool

// RuleGenerator turns named parameters into concrete trading rules.
type RuleGenerator interface {
	BuyRule(params space.Params) Rule
	SellRule(params space.Params) Rule
}

// RoiTableGenerator derives a rate-of-return table from named
// parameters. Keys are trade ages in minutes, values are the minimum
// profit ratio at which the trade exits.
type RoiTableGenerator interface {
	RoiTable(params space.Params) map[int]float64
}

// Strategy is the full capability set required for a hyperopt run.
type Strategy interface {
	Name() string
	space.Provider
	RuleGenerator
	RoiTableGenerator
}

// FallbackRules is an optional capability: fixed rules used for the
// signal sides whose sub-space is not being searched.
type FallbackRules interface {
	PopulateBuyRule() Rule
	PopulateSellRule() Rule
}
