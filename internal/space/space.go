// Package space defines search-space dimensions and the parameter space
// assembled from a strategy's enabled sub-spaces.
package space

import (
	"fmt"
	"math"
	"math/rand"
)

// Kind identifies the type of a search dimension.
type Kind string

const (
	KindReal        Kind = "real"
	KindInteger     Kind = "integer"
	KindCategorical Kind = "categorical"
)

// Dimension is one named axis of the search space.
// Real and integer dimensions use the inclusive [Low, High] bounds,
// categorical dimensions use Choices.
type Dimension struct {
	Name    string
	Kind    Kind
	Low     float64
	High    float64
	Choices []string
}

// Real creates a real-valued dimension with inclusive bounds.
func Real(name string, low, high float64) Dimension {
	return Dimension{Name: name, Kind: KindReal, Low: low, High: high}
}

// Integer creates an integer-valued dimension with inclusive bounds.
func Integer(name string, low, high int) Dimension {
	return Dimension{Name: name, Kind: KindInteger, Low: float64(low), High: float64(high)}
}

// Categorical creates a dimension over a fixed choice set.
func Categorical(name string, choices ...string) Dimension {
	return Dimension{Name: name, Kind: KindCategorical, Choices: choices}
}

// Value converts a raw point coordinate into the dimension's concrete value:
// float64 for real, int for integer, the choice string for categorical.
// Raw coordinates outside the bounds are clamped.
func (d Dimension) Value(raw float64) interface{} {
	switch d.Kind {
	case KindInteger:
		v := int(math.Round(raw))
		if v < int(d.Low) {
			v = int(d.Low)
		}
		if v > int(d.High) {
			v = int(d.High)
		}
		return v
	case KindCategorical:
		idx := int(math.Round(raw))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(d.Choices) {
			idx = len(d.Choices) - 1
		}
		return d.Choices[idx]
	default:
		v := raw
		if v < d.Low {
			v = d.Low
		}
		if v > d.High {
			v = d.High
		}
		return v
	}
}

// sample draws a uniform random raw coordinate for the dimension.
func (d Dimension) sample(rng *rand.Rand) float64 {
	switch d.Kind {
	case KindInteger:
		return float64(int(d.Low) + rng.Intn(int(d.High)-int(d.Low)+1))
	case KindCategorical:
		return float64(rng.Intn(len(d.Choices)))
	default:
		return d.Low + rng.Float64()*(d.High-d.Low)
	}
}

// Point is one candidate point proposed by the optimizer: one raw
// coordinate per dimension, in dimension order.
type Point []float64

// Clone returns an independent copy of the point.
func (p Point) Clone() Point {
	out := make(Point, len(p))
	copy(out, p)
	return out
}

// Space is the ordered parameter space for a run. Its length and
// dimension order are fixed once built.
type Space struct {
	dims []Dimension
}

// New creates a space over the given dimensions, preserving order.
func New(dims []Dimension) Space {
	owned := make([]Dimension, len(dims))
	copy(owned, dims)
	return Space{dims: owned}
}

// Len returns the number of dimensions.
func (s Space) Len() int {
	return len(s.dims)
}

// Dimensions returns the ordered dimension list.
func (s Space) Dimensions() []Dimension {
	return s.dims
}

// Sample draws a uniform random point from the space.
func (s Space) Sample(rng *rand.Rand) Point {
	p := make(Point, len(s.dims))
	for i, d := range s.dims {
		p[i] = d.sample(rng)
	}
	return p
}

// Params zips a raw point with the space's dimensions into named
// parameters. The point arity must match the space exactly.
func (s Space) Params(p Point) (Params, error) {
	if len(p) != len(s.dims) {
		return Params{}, fmt.Errorf(
			"mismatch in number of search-space dimensions: len(dimensions)==%d and len(point)==%d",
			len(s.dims), len(p))
	}

	names := make([]string, len(s.dims))
	values := make(map[string]interface{}, len(s.dims))
	for i, d := range s.dims {
		names[i] = d.Name
		values[d.Name] = d.Value(p[i])
	}
	return Params{names: names, values: values}, nil
}
