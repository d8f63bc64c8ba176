package hyperopt

import (
	"context"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/quantflow/hypertune/internal/space"
	"github.com/quantflow/hypertune/internal/trials"
)

// Task is one candidate evaluation: the asked point tagged with its
// global sequence index within the run.
type Task struct {
	Index int
	Point space.Point
}

// Objective evaluates one task into a trial. It runs on a worker
// goroutine and must not touch optimizer state.
type Objective func(task Task) trials.Trial

// ResultSink receives each completed trial immediately, in completion
// order. Implementations must be cheap and non-blocking: append to a
// pending buffer, emit a best-effort progress marker, nothing more.
type ResultSink interface {
	OnTaskComplete(task Task, trial trials.Trial)
}

// WorkerPool evaluates candidate points across parallel workers with an
// immediate per-task completion callback.
type WorkerPool struct {
	numWorkers int
	sink       ResultSink
	log        zerolog.Logger
}

// NewWorkerPool creates a pool. A non-positive worker count defaults to
// the number of available cores. The sink is registered once at
// construction and invoked for every completed task.
func NewWorkerPool(numWorkers int, sink ResultSink, log zerolog.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		numWorkers: numWorkers,
		sink:       sink,
		log:        log.With().Str("component", "worker_pool").Logger(),
	}
}

// NumWorkers returns the configured parallelism degree.
func (p *WorkerPool) NumWorkers() int {
	return p.numWorkers
}

// Run evaluates n tasks. The next function produces task i and is only
// ever called from the dispatch loop, as a worker slot frees up: that
// is the single sequence point where the caller may flush pending
// results and ask the optimizer for the next point.
//
// Completed trials are reported to the sink immediately, in completion
// order, and returned in submission order. When the context is
// cancelled, unstarted tasks are abandoned, in-flight tasks finish,
// and the completed prefix of results is returned.
func (p *WorkerPool) Run(ctx context.Context, n int, next func(i int) Task, objective Objective) []trials.Trial {
	if n <= 0 {
		return nil
	}

	slots := make(chan struct{}, p.numWorkers)
	results := make([]trials.Trial, n)
	done := make([]bool, n)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			p.log.Warn().Int("submitted", i).Int("planned", n).Msg("Dispatch stopped, abandoning remaining tasks")
			break
		}

		slots <- struct{}{}
		task := next(i)

		wg.Add(1)
		go func(pos int, task Task) {
			defer wg.Done()
			defer func() { <-slots }()

			trial := p.evaluate(task, objective)

			mu.Lock()
			results[pos] = trial
			done[pos] = true
			mu.Unlock()

			p.sink.OnTaskComplete(task, trial)
		}(i, task)
	}

	wg.Wait()

	out := make([]trials.Trial, 0, n)
	for i := range results {
		if done[i] {
			out = append(out, results[i])
		}
	}
	return out
}

// evaluate runs the objective, converting a panic into a sentinel-loss
// trial so one broken evaluation never corrupts the run.
func (p *WorkerPool) evaluate(task Task, objective Objective) (trial trials.Trial) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().
				Int("index", task.Index).
				Floats64("point", task.Point).
				Interface("panic", r).
				Msg("Evaluation panicked, recording sentinel loss")
			trial = trials.Trial{
				Loss:   MaxLoss,
				Result: "evaluation failed",
				Asked:  task.Point,
			}
		}
	}()
	return objective(task)
}
