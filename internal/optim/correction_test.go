package optim

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trajectory runs n gradient descent updates with a constant unit gradient
// and returns the parameter after each one.
func trajectory(t *testing.T, c Correction, lr float64, n int) []float64 {
	t.Helper()
	u := MustNewUpdater(NewGradientDescent(), WithCorrection(c))
	params := []float64{0}
	out := make([]float64, n)
	for i := range out {
		require.NoError(t, u.UpdateVariable(params, []float64{1}, lr))
		out[i] = params[0]
	}
	return out
}

func TestStandardMomentum_Trajectory(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
		want   []float64
	}{
		{"weight 0.5", 0.5, []float64{-2, -5, -8.5}},
		{"weight 0 is plain descent", 0, []float64{-2, -4, -6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewStandardMomentum(tt.weight)
			require.NoError(t, err)
			got := trajectory(t, m, 2, len(tt.want))
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestNesterovMomentum_Trajectory(t *testing.T) {
	m, err := NewNesterovMomentum(0.5)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-3, -6.5, -10.25}, trajectory(t, m, 2, 3), 1e-12)

	plain, err := NewNesterovMomentum(0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-2, -4}, trajectory(t, plain, 2, 2), 1e-12)
}

func TestMomentum_Validation(t *testing.T) {
	for _, w := range []float64{-0.1, 1, 2, math.NaN()} {
		_, err := NewStandardMomentum(w)
		assert.Error(t, err, "weight %v", w)
		_, err = NewNesterovMomentum(w)
		assert.Error(t, err, "weight %v", w)
	}

	m, err := NewStandardMomentum(0.9)
	require.NoError(t, err)
	assert.Equal(t, 0.9, m.Weight())
	assert.Error(t, m.SetHyperparameters(map[string]float64{ParamWeight: 1}))
	assert.Error(t, m.SetHyperparameters(map[string]float64{ParamMax: 0.5}))
	require.NoError(t, m.SetHyperparameters(map[string]float64{ParamWeight: 0.5}))
	assert.Equal(t, 0.5, m.Weight())
}

func TestMomentum_VelocityState(t *testing.T) {
	m, err := NewStandardMomentum(0.5)
	require.NoError(t, err)
	trajectory(t, m, 2, 2)
	assert.Equal(t, map[string][]float64{"velocity": {-3}}, m.StateDict())

	require.NoError(t, m.Allocate(1))
	err = m.Allocate(2)
	var oor *ErrOutOfRange
	assert.True(t, errors.As(err, &oor))

	// Correct sizes the velocity itself when used without an Updater.
	n, err := NewNesterovMomentum(0.5)
	require.NoError(t, err)
	dir := []float64{1, 2}
	require.NoError(t, n.Correct(nil, dir))
	assert.Equal(t, map[string][]float64{"velocity": {-1, -2}}, n.StateDict())
}

func TestValueClip(t *testing.T) {
	_, err := NewValueClip(0)
	assert.Error(t, err)

	c, err := NewValueClip(1)
	require.NoError(t, err)
	assert.Equal(t, "value_clip", c.Name())

	dir := []float64{3, -3, 0.5, -1}
	require.NoError(t, c.Correct(nil, dir))
	assert.Equal(t, []float64{1, -1, 0.5, -1}, dir)

	require.NoError(t, c.SetHyperparameters(map[string]float64{ParamMax: 0.25}))
	assert.Equal(t, map[string]float64{ParamMax: 0.25}, c.Hyperparameters())
	assert.Error(t, c.SetHyperparameters(map[string]float64{ParamMax: -1}))
	assert.Error(t, c.LoadStateDict(map[string][]float64{"velocity": {1}}))
}

func TestNormClip(t *testing.T) {
	c, err := NewNormClip(5)
	require.NoError(t, err)
	assert.Equal(t, "norm_clip", c.Name())

	dir := []float64{6, 8}
	require.NoError(t, c.Correct(nil, dir))
	assert.InDeltaSlice(t, []float64{3, 4}, dir, 1e-12)

	dir = []float64{3, 4}
	require.NoError(t, c.Correct(nil, dir))
	assert.Equal(t, []float64{3, 4}, dir, "vectors within the bound are untouched")

	dir = []float64{0, 0}
	require.NoError(t, c.Correct(nil, dir))
	assert.Equal(t, []float64{0, 0}, dir)
}

func TestChain(t *testing.T) {
	m, err := NewStandardMomentum(0.5)
	require.NoError(t, err)
	clip, err := NewValueClip(2.5)
	require.NoError(t, err)

	chain := NewChain(m, nil, clip)
	require.Len(t, chain, 2)
	assert.Equal(t, "chain(momentum,value_clip)", chain.Name())

	// Momentum builds velocity 2, 3, 3.5; the clip caps the applied step.
	assert.InDeltaSlice(t, []float64{-2, -4.5, -7}, trajectory(t, chain, 2, 3), 1e-12)

	assert.Equal(t, map[string]float64{"0.weight": 0.5, "1.max": 2.5}, chain.Hyperparameters())
	assert.Equal(t, map[string][]float64{"0.velocity": {-3.5}}, chain.StateDict())

	require.NoError(t, chain.SetHyperparameters(map[string]float64{"1.max": 4}))
	assert.Equal(t, map[string]float64{ParamMax: 4}, clip.Hyperparameters())

	for _, key := range []string{"max", "x.max", "2.max", "-1.max"} {
		err := chain.SetHyperparameters(map[string]float64{key: 1})
		var invalid *ErrInvalidArgument
		assert.True(t, errors.As(err, &invalid), "key %q", key)
	}

	require.NoError(t, chain.LoadStateDict(map[string][]float64{"0.velocity": {1}}))
	assert.Equal(t, map[string][]float64{"velocity": {1}}, m.StateDict())
}

func TestChain_Empty(t *testing.T) {
	chain := NewChain()
	assert.Equal(t, "chain()", chain.Name())
	require.NoError(t, chain.Allocate(3))
	dir := []float64{1, 2}
	require.NoError(t, chain.Correct(nil, dir))
	assert.Equal(t, []float64{1, 2}, dir)
}
