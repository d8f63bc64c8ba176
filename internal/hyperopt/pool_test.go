package hyperopt

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantflow/hypertune/internal/space"
	"github.com/quantflow/hypertune/internal/trials"
)

// recordingSink captures completion callbacks for assertions.
type recordingSink struct {
	mu        sync.Mutex
	completed []Task
	losses    []float64
}

func (s *recordingSink) OnTaskComplete(task Task, trial trials.Trial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, task)
	s.losses = append(s.losses, trial.Loss)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completed)
}

func indexTask(i int) Task {
	return Task{Index: i, Point: space.Point{float64(i)}}
}

func TestWorkerPool_ResultsInSubmissionOrder(t *testing.T) {
	sink := &recordingSink{}
	pool := NewWorkerPool(4, sink, zerolog.Nop())

	// Uneven evaluation times so completion order differs from
	// submission order.
	objective := func(task Task) trials.Trial {
		time.Sleep(time.Duration((task.Index%3)*3) * time.Millisecond)
		return trials.Trial{Loss: float64(task.Index), Result: fmt.Sprintf("trial %d", task.Index)}
	}

	results := pool.Run(context.Background(), 12, indexTask, objective)

	require.Len(t, results, 12)
	for i, trial := range results {
		assert.Equal(t, float64(i), trial.Loss)
	}
	assert.Equal(t, 12, sink.count())
}

func TestWorkerPool_SinkCalledPerTask(t *testing.T) {
	sink := &recordingSink{}
	pool := NewWorkerPool(2, sink, zerolog.Nop())

	objective := func(task Task) trials.Trial {
		return trials.Trial{Loss: float64(task.Index) * 2}
	}

	pool.Run(context.Background(), 5, indexTask, objective)

	require.Equal(t, 5, sink.count())
	seen := make(map[int]bool)
	for _, task := range sink.completed {
		seen[task.Index] = true
	}
	assert.Len(t, seen, 5)
}

func TestWorkerPool_NextCalledSequentially(t *testing.T) {
	sink := &recordingSink{}
	pool := NewWorkerPool(4, sink, zerolog.Nop())

	var asked []int
	next := func(i int) Task {
		// Run only calls next from the dispatch goroutine, so no lock.
		asked = append(asked, i)
		return indexTask(i)
	}

	objective := func(task Task) trials.Trial {
		return trials.Trial{Loss: 1}
	}

	pool.Run(context.Background(), 10, next, objective)

	require.Len(t, asked, 10)
	for i, got := range asked {
		assert.Equal(t, i, got)
	}
}

func TestWorkerPool_PanicYieldsSentinelTrial(t *testing.T) {
	sink := &recordingSink{}
	pool := NewWorkerPool(2, sink, zerolog.Nop())

	objective := func(task Task) trials.Trial {
		if task.Index == 3 {
			panic("indicator out of range")
		}
		return trials.Trial{Loss: 1.0}
	}

	results := pool.Run(context.Background(), 6, indexTask, objective)

	require.Len(t, results, 6)
	assert.EqualValues(t, MaxLoss, results[3].Loss)
	assert.Equal(t, "evaluation failed", results[3].Result)
	for i, trial := range results {
		if i == 3 {
			continue
		}
		assert.Equal(t, 1.0, trial.Loss)
	}
	// The sink still hears about the failed task.
	assert.Equal(t, 6, sink.count())
}

func TestWorkerPool_CancelStopsDispatch(t *testing.T) {
	sink := &recordingSink{}
	pool := NewWorkerPool(1, sink, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())

	var evaluated int
	objective := func(task Task) trials.Trial {
		evaluated++
		if task.Index == 1 {
			cancel()
		}
		return trials.Trial{Loss: 1}
	}

	results := pool.Run(ctx, 100, indexTask, objective)

	// With one worker the dispatch loop sees the cancellation after a
	// couple of submissions; far fewer than 100 tasks actually run.
	assert.Less(t, evaluated, 10)
	assert.Len(t, results, evaluated)
	assert.Equal(t, evaluated, sink.count())
}

func TestWorkerPool_DefaultsWorkerCount(t *testing.T) {
	pool := NewWorkerPool(0, &recordingSink{}, zerolog.Nop())
	assert.Greater(t, pool.NumWorkers(), 0)

	pool = NewWorkerPool(-3, &recordingSink{}, zerolog.Nop())
	assert.Greater(t, pool.NumWorkers(), 0)
}

func TestWorkerPool_ZeroTasks(t *testing.T) {
	pool := NewWorkerPool(2, &recordingSink{}, zerolog.Nop())
	results := pool.Run(context.Background(), 0, indexTask, func(Task) trials.Trial {
		t.Fatal("objective must not run")
		return trials.Trial{}
	})
	assert.Nil(t, results)
}
