package optimizer

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/quantflow/hypertune/internal/space"
)

// Config tunes the bundled surrogate optimizer.
type Config struct {
	Seed          int64 // RNG seed; 0 uses the default
	InitialPoints int   // uniform samples before the surrogate engages
	CandidatePool int   // candidates scored per ask after the initial phase
}

const (
	defaultSeed          = 777
	defaultInitialPoints = 30
	defaultCandidatePool = 64

	neighborCount     = 8    // observations consulted per prediction
	perturbScale      = 0.1  // gaussian step as a fraction of each dimension's range
	explorationWeight = 0.25 // bonus for candidates far from known observations
)

// Surrogate is the bundled ask/tell optimizer: uniform sampling for an
// initial phase, then candidate pools scored against an
// inverse-distance model of the observed losses.
type Surrogate struct {
	space         space.Space
	rng           *rand.Rand
	initialPoints int
	candidatePool int

	asked int
	told  int

	observed   []space.Point // raw observed points
	normalized [][]float64   // same points in unit coordinates
	losses     []float64
}

// NewSurrogate creates a surrogate optimizer over a built space.
func NewSurrogate(sp space.Space, cfg Config) *Surrogate {
	seed := cfg.Seed
	if seed == 0 {
		seed = defaultSeed
	}
	initial := cfg.InitialPoints
	if initial <= 0 {
		initial = defaultInitialPoints
	}
	pool := cfg.CandidatePool
	if pool <= 0 {
		pool = defaultCandidatePool
	}

	return &Surrogate{
		space:         sp,
		rng:           rand.New(rand.NewSource(seed)),
		initialPoints: initial,
		candidatePool: pool,
	}
}

// Ask proposes the next candidate point.
func (s *Surrogate) Ask() space.Point {
	s.asked++

	if len(s.losses) < s.initialPoints {
		return s.space.Sample(s.rng)
	}

	best := s.space.Sample(s.rng)
	bestScore := s.score(best)
	for i := 1; i < s.candidatePool; i++ {
		var cand space.Point
		if i%2 == 0 {
			cand = s.space.Sample(s.rng)
		} else {
			cand = s.perturbBest()
		}
		if sc := s.score(cand); sc < bestScore {
			best, bestScore = cand, sc
		}
	}
	return best
}

// Tell feeds back a batch of evaluated points with their losses, in
// matching positional order.
func (s *Surrogate) Tell(points []space.Point, losses []float64) error {
	if len(points) != len(losses) {
		return fmt.Errorf("tell: %d points but %d losses", len(points), len(losses))
	}
	if s.told+len(points) > s.asked {
		return tellCountError(s.told+len(points), s.asked)
	}
	s.told += len(points)

	for i, p := range points {
		if len(p) != s.space.Len() {
			return fmt.Errorf("tell: point arity %d does not match space length %d", len(p), s.space.Len())
		}
		s.observed = append(s.observed, p.Clone())
		s.normalized = append(s.normalized, s.normalize(p))
		s.losses = append(s.losses, losses[i])
	}
	return nil
}

// perturbBest draws a gaussian step around one of the best observed points.
func (s *Surrogate) perturbBest() space.Point {
	top := s.topIndices(5)
	base := s.observed[top[s.rng.Intn(len(top))]]

	cand := base.Clone()
	for i, d := range s.space.Dimensions() {
		var span float64
		if d.Kind == space.KindCategorical {
			span = float64(len(d.Choices) - 1)
		} else {
			span = d.High - d.Low
		}
		cand[i] += s.rng.NormFloat64() * perturbScale * span
		cand[i] = clampRaw(d, cand[i])
	}
	return cand
}

// score predicts a loss for a candidate: the inverse-distance-weighted
// mean of its nearest observed losses, minus an exploration bonus for
// unvisited regions.
func (s *Surrogate) score(p space.Point) float64 {
	norm := s.normalize(p)

	type neighbor struct {
		dist float64
		loss float64
	}
	neighbors := make([]neighbor, len(s.normalized))
	for i, obs := range s.normalized {
		neighbors[i] = neighbor{dist: floats.Distance(norm, obs, 2), loss: s.losses[i]}
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].dist < neighbors[j].dist })

	k := neighborCount
	if k > len(neighbors) {
		k = len(neighbors)
	}
	values := make([]float64, k)
	weights := make([]float64, k)
	for i := 0; i < k; i++ {
		values[i] = neighbors[i].loss
		weights[i] = 1 / (neighbors[i].dist + 1e-9)
	}
	predicted := stat.Mean(values, weights)

	spread := stat.StdDev(s.losses, nil)
	if math.IsNaN(spread) || spread == 0 {
		spread = 1
	}
	return predicted - explorationWeight*spread*neighbors[0].dist
}

// topIndices returns the indices of the n lowest observed losses.
func (s *Surrogate) topIndices(n int) []int {
	idx := make([]int, len(s.losses))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return s.losses[idx[a]] < s.losses[idx[b]] })
	if n > len(idx) {
		n = len(idx)
	}
	return idx[:n]
}

// normalize maps a raw point into unit coordinates so distances are
// comparable across dimensions.
func (s *Surrogate) normalize(p space.Point) []float64 {
	out := make([]float64, len(p))
	for i, d := range s.space.Dimensions() {
		switch d.Kind {
		case space.KindCategorical:
			if len(d.Choices) > 1 {
				out[i] = p[i] / float64(len(d.Choices)-1)
			}
		default:
			if d.High > d.Low {
				out[i] = (p[i] - d.Low) / (d.High - d.Low)
			}
		}
	}
	return out
}

func clampRaw(d space.Dimension, v float64) float64 {
	low, high := d.Low, d.High
	if d.Kind == space.KindCategorical {
		low, high = 0, float64(len(d.Choices)-1)
	}
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
