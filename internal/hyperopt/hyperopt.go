// Package hyperopt is the optimization-scheduling engine: it drives a
// sequential ask/tell optimizer with a parallel pool of backtest
// workers, partitioning the evaluation budget into frames and
// accumulating trial results across the run.
package hyperopt

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quantflow/hypertune/internal/backtest"
	"github.com/quantflow/hypertune/internal/config"
	"github.com/quantflow/hypertune/internal/dataset"
	"github.com/quantflow/hypertune/internal/optimizer"
	"github.com/quantflow/hypertune/internal/space"
	"github.com/quantflow/hypertune/internal/strategy"
	"github.com/quantflow/hypertune/internal/trials"
	"github.com/quantflow/hypertune/internal/utils"
)

// State names the orchestrator's lifecycle phases.
type State string

const (
	StateInit           State = "init"
	StateSpaceBuilt     State = "space_built"
	StateOptimizerReady State = "optimizer_ready"
	StateRunningFrame   State = "running_frame"
	StateInterrupted    State = "interrupted"
	StateFinalizing     State = "finalizing"
	StateDone           State = "done"
)

// initialBestLoss is the threshold a result must beat before the first
// best-result line is printed.
const initialBestLoss = 100.0

// defaultRoiTable applies when the roi space is not being searched.
var defaultRoiTable = map[int]float64{
	0:   0.10,
	40:  0.04,
	90:  0.02,
	180: 0,
}

// pendingResult is one evaluated candidate not yet told to the optimizer.
type pendingResult struct {
	asked space.Point
	loss  float64
}

// Hyperopt owns the run state and wires the parameter space, optimizer,
// worker pool and trial store together.
type Hyperopt struct {
	cfg   *config.Config
	strat strategy.Strategy
	log   zerolog.Logger
	out   io.Writer

	engine       backtest.Backtester
	newOptimizer func(space.Space) optimizer.Optimizer
	frame        *dataset.Frame

	runID string
	state State

	sel   space.Selection
	space space.Space
	opt   optimizer.Optimizer
	store *trials.Store

	totalTries      int
	currentBestLoss float64

	// pending buffer: owned here, filled by completion callbacks,
	// drained into tell() before every ask().
	mu      sync.Mutex
	pending []pendingResult
}

// New creates a hyperopt run over the given strategy.
func New(cfg *config.Config, strat strategy.Strategy, log zerolog.Logger) *Hyperopt {
	h := &Hyperopt{
		cfg:             cfg,
		strat:           strat,
		log:             log.With().Str("component", "hyperopt").Logger(),
		out:             os.Stdout,
		engine:          backtest.NewEngine(log),
		runID:           uuid.New().String(),
		state:           StateInit,
		totalTries:      cfg.Epochs,
		currentBestLoss: initialBestLoss,
	}
	h.newOptimizer = func(sp space.Space) optimizer.Optimizer {
		return optimizer.NewSurrogate(sp, optimizer.Config{Seed: cfg.Seed})
	}
	return h
}

// SetOutput redirects progress and result output (default: stdout).
func (h *Hyperopt) SetOutput(w io.Writer) {
	h.out = w
}

// SetEngine replaces the backtest engine.
func (h *Hyperopt) SetEngine(e backtest.Backtester) {
	h.engine = e
}

// SetOptimizerFactory replaces the optimizer construction.
func (h *Hyperopt) SetOptimizerFactory(f func(space.Space) optimizer.Optimizer) {
	h.newOptimizer = f
}

// SetFrameData injects an already-processed dataset, skipping the
// history database load.
func (h *Hyperopt) SetFrameData(f *dataset.Frame) {
	h.frame = f
}

// State returns the current lifecycle phase.
func (h *Hyperopt) State() State {
	return h.state
}

// Space returns the built parameter space. Valid after Run has passed
// the space-built phase.
func (h *Hyperopt) Space() space.Space {
	return h.space
}

// Store returns the trial store. Valid after Run has passed the
// space-built phase.
func (h *Hyperopt) Store() *trials.Store {
	return h.store
}

// Run executes the full optimization: load data, build the space,
// construct the optimizer, evaluate frame by frame, then persist and
// report. A cancelled context interrupts the frame loop but still
// persists everything accumulated so far.
func (h *Hyperopt) Run(ctx context.Context) error {
	h.log.Info().Str("run_id", h.runID).Int("epochs", h.totalTries).
		Strs("spaces", h.cfg.Spaces).Int("jobs", h.cfg.Jobs).Msg("Starting hyperopt")
	defer utils.OperationTimer("hyperopt_run", h.log)()

	if err := h.init(); err != nil {
		return err
	}
	if err := h.buildSpace(); err != nil {
		return err
	}
	h.setState(StateOptimizerReady)
	h.opt = h.newOptimizer(h.space)

	pool := NewWorkerPool(h.cfg.Jobs, h, h.log)
	h.log.Info().Int("workers", pool.NumWorkers()).Msg("Worker pool ready")

	interrupted := false
	for _, fr := range PartitionFrames(h.totalTries, h.cfg.FrameSize) {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		h.setState(StateRunningFrame)
		h.runFrame(ctx, fr, pool)
		if ctx.Err() != nil {
			interrupted = true
		}
	}

	if interrupted {
		h.setState(StateInterrupted)
		fmt.Fprint(h.out, "\nUser interrupted..")
	}

	h.setState(StateFinalizing)
	fmt.Fprintln(h.out)
	if err := h.store.Persist(); err != nil {
		h.log.Error().Err(err).Msg("Failed to persist trials")
	}
	h.reportBest()

	h.setState(StateDone)
	return nil
}

// init loads and preprocesses the historical dataset once for the
// whole run, unless one was injected.
func (h *Hyperopt) init() error {
	h.setState(StateInit)
	if h.frame != nil {
		return nil
	}

	db, err := dataset.Open(h.cfg.HistoryDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	history := dataset.NewHistoryDB(db, h.log)
	candles, err := history.Candles(h.cfg.Pair, h.cfg.TimerangeFrom, h.cfg.TimerangeTo)
	if err != nil {
		return err
	}

	frame, err := dataset.Preprocess(h.cfg.Pair, h.cfg.TimeframeMinutes, candles)
	if err != nil {
		return err
	}
	h.frame = frame
	h.log.Info().Str("pair", frame.Pair).Int("candles", frame.Len()).Msg("Dataset processed")
	return nil
}

// buildSpace assembles the parameter space from the enabled sub-spaces
// and preloads any prior trial checkpoint. Enabling the sell space
// force-enables sell-signal usage for every evaluation.
func (h *Hyperopt) buildSpace() error {
	h.setState(StateSpaceBuilt)

	sel, err := space.ParseSelection(h.cfg.Spaces)
	if err != nil {
		return err
	}
	h.sel = sel

	if sel.Has(space.SpaceSell) {
		h.cfg.UseSellSignal = true
	}

	h.space = space.Build(sel, h.strat)
	if h.space.Len() == 0 {
		return fmt.Errorf("empty parameter space for spaces %v", h.cfg.Spaces)
	}

	h.store = trials.NewStore(h.cfg.TrialsPath(), h.log)
	if _, err := h.store.LoadPrevious(); err != nil {
		return err
	}
	return nil
}

// runFrame evaluates one frame: points are generated lazily as worker
// slots free up, with the pending buffer flushed to the optimizer
// immediately before each ask. Completed trials are appended to the
// store in submission order and checked against the best loss so far.
func (h *Hyperopt) runFrame(ctx context.Context, fr Frame, pool *WorkerPool) {
	fmt.Fprintf(h.out, "\n%d-%d/%d: ", fr.Start+1, fr.Start+fr.Length, h.totalTries)

	batch := pool.Run(ctx, fr.Length, func(i int) Task {
		h.flushPending()
		return Task{Index: fr.Start + i, Point: h.opt.Ask()}
	}, h.objective)

	h.store.AppendAll(batch)
	h.logResults(batch, fr.Start)
}

// flushPending tells the optimizer every buffered result, in the order
// the completions arrived, and clears the buffer. Called only from the
// dispatch loop, immediately before the next ask.
func (h *Hyperopt) flushPending() {
	h.mu.Lock()
	drained := h.pending
	h.pending = nil
	h.mu.Unlock()

	if len(drained) == 0 {
		return
	}

	points := make([]space.Point, len(drained))
	losses := make([]float64, len(drained))
	for i, r := range drained {
		points[i] = r.asked
		losses[i] = r.loss
	}
	if err := h.opt.Tell(points, losses); err != nil {
		h.log.Error().Err(err).Msg("Optimizer rejected result batch")
	}
}

// OnTaskComplete implements the worker pool's result sink: buffer the
// result for the next tell and emit the live progress marker. Runs on
// worker goroutines and must stay cheap.
func (h *Hyperopt) OnTaskComplete(task Task, trial trials.Trial) {
	h.mu.Lock()
	h.pending = append(h.pending, pendingResult{asked: task.Point, loss: trial.Loss})
	h.mu.Unlock()

	fmt.Fprint(h.out, ".")
}

// objective evaluates one candidate: zip the point into named params,
// build the immutable per-trial evaluation config, run the backtest
// and compute the loss. Runs on a worker goroutine.
func (h *Hyperopt) objective(task Task) trials.Trial {
	params, err := h.space.Params(task.Point)
	if err != nil {
		// Arity mismatches are configuration errors; record the failed
		// point without running a backtest.
		h.log.Error().Err(err).Int("index", task.Index).Msg("Invalid asked point")
		return trials.Trial{Loss: MaxLoss, Result: "invalid point", Asked: task.Point}
	}

	evalCfg := h.buildEvalConfig(params)
	tradeList := h.engine.Run(evalCfg, h.frame)
	summary := backtest.Summarize(tradeList)

	loss := CalculateLoss(summary.TotalProfit, summary.TradeCount, summary.AvgDurationMinutes)
	return trials.NewTrial(loss, params, summary.Format(h.cfg.StakeCurrency), task.Point)
}

// buildEvalConfig derives the per-trial evaluation configuration from
// named parameters, falling back to the strategy's fixed rules and the
// configured defaults for the sides not being searched.
func (h *Hyperopt) buildEvalConfig(params space.Params) backtest.EvalConfig {
	evalCfg := backtest.EvalConfig{
		RoiTable:      defaultRoiTable,
		Stoploss:      h.cfg.DefaultStoploss,
		UseSellSignal: h.cfg.UseSellSignal,
		Fee:           h.cfg.Fee,
		StakeAmount:   h.cfg.StakeAmount,
	}

	fallback, hasFallback := h.strat.(strategy.FallbackRules)

	if h.sel.Has(space.SpaceBuy) {
		evalCfg.BuyRule = h.strat.BuyRule(params)
	} else if hasFallback {
		evalCfg.BuyRule = fallback.PopulateBuyRule()
	}

	if h.sel.Has(space.SpaceSell) {
		evalCfg.SellRule = h.strat.SellRule(params)
	} else if hasFallback {
		evalCfg.SellRule = fallback.PopulateSellRule()
	}

	if h.sel.Has(space.SpaceRoi) {
		evalCfg.RoiTable = h.strat.RoiTable(params)
	}
	if h.sel.Has(space.SpaceStoploss) {
		evalCfg.Stoploss = params.Float("stoploss")
	}

	return evalCfg
}

// logResults prints one line per new best result in the batch, keeping
// the running best loss non-increasing.
func (h *Hyperopt) logResults(batch []trials.Trial, frameStart int) {
	for i, t := range batch {
		if t.Loss < h.currentBestLoss {
			h.currentBestLoss = t.Loss
			fmt.Fprintf(h.out, "\n%5d/%d: %s. Loss %.5f",
				frameStart+i+1, h.totalTries, t.Result, t.Loss)
		}
	}
}

// reportBest prints the best trial found across the run, including the
// derived rate-of-return table when the roi group was searched.
func (h *Hyperopt) reportBest() {
	best, ok := h.store.Best()
	if !ok {
		h.log.Warn().Msg("No evaluations to report")
		return
	}

	fmt.Fprintf(h.out, "\nBest result:\n%s\nwith values:\n", best.Result)
	for _, name := range best.ParamNames {
		fmt.Fprintf(h.out, "    %s: %v\n", name, best.ParamValues[name])
	}

	if best.HasParam("roi_t1") {
		fmt.Fprintln(h.out, "ROI table:")
		table := h.strat.RoiTable(best.Params())
		for _, minutes := range sortedKeys(table) {
			fmt.Fprintf(h.out, "    %d: %.5f\n", minutes, table[minutes])
		}
	}

	h.log.Info().Float64("loss", best.Loss).Int("trials", h.store.Len()).Msg("Hyperopt finished")
}

func (h *Hyperopt) setState(s State) {
	h.state = s
	h.log.Debug().Str("state", string(s)).Msg("State transition")
}

func sortedKeys(table map[int]float64) []int {
	keys := make([]int, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
