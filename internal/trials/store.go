// Package trials accumulates evaluated trial results and persists them
// to a msgpack checkpoint between runs.
package trials

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/quantflow/hypertune/internal/space"
)

// Trial is the recorded outcome of evaluating one candidate point.
// Immutable once produced.
type Trial struct {
	Loss        float64                `msgpack:"loss"`
	ParamNames  []string               `msgpack:"param_names"`
	ParamValues map[string]interface{} `msgpack:"param_values"`
	Result      string                 `msgpack:"result"`
	Asked       []float64              `msgpack:"asked"`
}

// NewTrial packages one evaluation outcome.
func NewTrial(loss float64, params space.Params, result string, asked space.Point) Trial {
	return Trial{
		Loss:        loss,
		ParamNames:  params.Names(),
		ParamValues: params.Map(),
		Result:      result,
		Asked:       asked.Clone(),
	}
}

// Params rebuilds the named parameters of the trial.
func (t Trial) Params() space.Params {
	return space.NewParams(t.ParamNames, t.ParamValues)
}

// HasParam reports whether the trial searched the named parameter.
func (t Trial) HasParam(name string) bool {
	_, ok := t.ParamValues[name]
	return ok
}

// Store accumulates trials across a run and persists them to a single
// checkpoint file.
type Store struct {
	path   string
	log    zerolog.Logger
	trials []Trial
}

// NewStore creates a trial store backed by the given checkpoint path.
func NewStore(path string, log zerolog.Logger) *Store {
	return &Store{
		path: path,
		log:  log.With().Str("component", "trials").Logger(),
	}
}

// Append records one trial.
func (s *Store) Append(t Trial) {
	s.trials = append(s.trials, t)
}

// AppendAll records a batch of trials in order.
func (s *Store) AppendAll(batch []Trial) {
	s.trials = append(s.trials, batch...)
}

// Len returns the number of accumulated trials.
func (s *Store) Len() int {
	return len(s.trials)
}

// Trials returns the accumulated trials in insertion order.
func (s *Store) Trials() []Trial {
	return s.trials
}

// LoadPrevious seeds the store from a prior run's checkpoint. The
// checkpoint file is consumed: it is deleted after a successful read.
// A missing or empty file means no prior trials and is not an error.
func (s *Store) LoadPrevious() (int, error) {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat trials checkpoint: %w", err)
	}
	if info.Size() == 0 {
		return 0, nil
	}

	file, err := os.Open(s.path)
	if err != nil {
		return 0, fmt.Errorf("failed to open trials checkpoint: %w", err)
	}

	dec := msgpack.NewDecoder(file)
	dec.UseLooseInterfaceDecoding(true)

	var loaded []Trial
	if err := dec.Decode(&loaded); err != nil {
		file.Close()
		return 0, fmt.Errorf("failed to decode trials checkpoint: %w", err)
	}
	file.Close()

	if err := os.Remove(s.path); err != nil {
		return 0, fmt.Errorf("failed to remove consumed trials checkpoint: %w", err)
	}

	s.trials = append(loaded, s.trials...)
	s.log.Info().Int("count", len(loaded)).Str("path", s.path).Msg("Loaded previous evaluations from disk")
	return len(loaded), nil
}

// Persist writes the accumulated trials to the checkpoint. Skipped
// when the store is empty.
func (s *Store) Persist() error {
	if len(s.trials) == 0 {
		return nil
	}

	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create trials checkpoint: %w", err)
	}

	enc := msgpack.NewEncoder(file)
	if err := enc.Encode(s.trials); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode trials checkpoint: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close trials checkpoint: %w", err)
	}

	s.log.Info().Int("count", len(s.trials)).Str("path", s.path).Msg("Saved evaluations")
	return nil
}

// Best returns the trial with the minimum loss, ties broken by first
// occurrence in insertion order. The second return is false when the
// store is empty.
func (s *Store) Best() (Trial, bool) {
	if len(s.trials) == 0 {
		return Trial{}, false
	}

	best := s.trials[0]
	for _, t := range s.trials[1:] {
		if t.Loss < best.Loss {
			best = t
		}
	}
	return best, true
}
