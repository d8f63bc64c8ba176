package trials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantflow/hypertune/internal/space"
)

func makeTrial(t *testing.T, loss float64, rsi int) Trial {
	t.Helper()
	sp := space.New([]space.Dimension{
		space.Integer("rsi-value", 20, 45),
		space.Real("stoploss", -0.5, -0.02),
	})
	params, err := sp.Params(space.Point{float64(rsi), -0.1})
	require.NoError(t, err)
	return NewTrial(loss, params, "ok", space.Point{float64(rsi), -0.1})
}

func TestStore_Best_FirstOccurrenceWins(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "trials.msgpack"), zerolog.Nop())

	_, ok := s.Best()
	assert.False(t, ok)

	s.Append(makeTrial(t, 2.0, 25))
	s.Append(makeTrial(t, 1.0, 30))
	s.Append(makeTrial(t, 1.0, 35))
	s.Append(makeTrial(t, 1.5, 40))

	best, ok := s.Best()
	require.True(t, ok)
	assert.Equal(t, 1.0, best.Loss)
	assert.Equal(t, 30, best.Params().Int("rsi-value"))
}

func TestStore_PersistLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trials.msgpack")

	s := NewStore(path, zerolog.Nop())
	s.Append(makeTrial(t, 1.2, 25))
	s.Append(makeTrial(t, 0.8, 32))
	require.NoError(t, s.Persist())

	reloaded := NewStore(path, zerolog.Nop())
	n, err := reloaded.LoadPrevious()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Equal(t, 2, reloaded.Len())

	for i, orig := range s.Trials() {
		got := reloaded.Trials()[i]
		assert.Equal(t, orig.Loss, got.Loss)
		assert.Equal(t, orig.Result, got.Result)
		assert.Equal(t, orig.Asked, got.Asked)
		assert.Equal(t, orig.ParamNames, got.ParamNames)
		assert.Equal(t, orig.Params().Int("rsi-value"), got.Params().Int("rsi-value"))
		assert.InDelta(t, orig.Params().Float("stoploss"), got.Params().Float("stoploss"), 1e-12)
	}

	// Checkpoint is consumed on load
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestStore_LoadPrevious_MissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.msgpack"), zerolog.Nop())
	n, err := s.LoadPrevious()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, s.Len())
}

func TestStore_LoadPrevious_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.msgpack")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	s := NewStore(path, zerolog.Nop())
	n, err := s.LoadPrevious()
	require.NoError(t, err)
	assert.Zero(t, n)

	// Empty checkpoints are left alone
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestStore_Persist_SkipsWhenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trials.msgpack")
	s := NewStore(path, zerolog.Nop())

	require.NoError(t, s.Persist())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestStore_LoadPrevious_SeedsBeforeCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trials.msgpack")

	first := NewStore(path, zerolog.Nop())
	first.Append(makeTrial(t, 3.0, 21))
	require.NoError(t, first.Persist())

	second := NewStore(path, zerolog.Nop())
	second.Append(makeTrial(t, 2.0, 22))
	n, err := second.LoadPrevious()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Equal(t, 2, second.Len())
	assert.Equal(t, 3.0, second.Trials()[0].Loss)
	assert.Equal(t, 2.0, second.Trials()[1].Loss)
}
