// Package optimizer provides the sequential ask/tell optimizer that
// proposes candidate points for evaluation. The bundled surrogate is a
// replaceable black box behind the Optimizer interface; the engine only
// relies on the ask/tell contract.
//
// An Optimizer is not safe for concurrent use. It is owned by the
// run's controlling sequence and must never be called from a worker.
package optimizer

import (
	"fmt"

	"github.com/quantflow/hypertune/internal/space"
)

// Optimizer is the ask/tell contract. Ask proposes the next candidate
// point; Tell feeds evaluated (point, loss) pairs back in matching
// positional order, at most once per batch of pending results.
type Optimizer interface {
	Ask() space.Point
	Tell(points []space.Point, losses []float64) error
}

// tellCountError reports a violation of the told-never-exceeds-asked
// invariant.
func tellCountError(told, asked int) error {
	return fmt.Errorf("optimizer told %d results but only %d points were asked", told, asked)
}
