package optim

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/descent/internal/parallel"
)

func newGroups(n int) []*Group {
	groups := make([]*Group, n)
	for i := range groups {
		groups[i] = &Group{
			Name:       string(rune('a' + i)),
			Parameters: []float64{1, 2, 3},
			Updater:    MustNewUpdater(NewGradientDescent()),
		}
	}
	return groups
}

func TestStepGroups(t *testing.T) {
	for name, cfg := range map[string]parallel.Config{
		"sequential": parallel.Sequential(),
		"coarse":     parallel.CoarseConfig(),
	} {
		t.Run(name, func(t *testing.T) {
			groups := newGroups(8)
			gradients := make([][]float64, len(groups))
			for i := range gradients {
				gradients[i] = []float64{float64(i), 0, -1}
			}

			require.NoError(t, StepGroups(groups, gradients, 0.5, cfg))
			for i, g := range groups {
				assert.Equal(t, []float64{1 - 0.5*float64(i), 2, 3.5}, g.Parameters, "group %s", g.Name)
			}
		})
	}
}

func TestStepGroups_CollectsFailures(t *testing.T) {
	groups := newGroups(3)
	gradients := [][]float64{{1, 1, 1}, {1, 1}, {1, 1, 1, 1}}

	err := StepGroups(groups, gradients, 1, parallel.CoarseConfig())
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)
	assert.Contains(t, err.Error(), "group 1 (b)")
	assert.Contains(t, err.Error(), "group 2 (c)")

	var mismatch *ErrDimensionMismatch
	assert.True(t, errors.As(merr.Errors[0], &mismatch))

	assert.Equal(t, []float64{0, 1, 2}, groups[0].Parameters, "healthy group is still updated")
	assert.Equal(t, []float64{1, 2, 3}, groups[1].Parameters)
	assert.Equal(t, []float64{1, 2, 3}, groups[2].Parameters)
}

func TestStepGroups_RejectsSharing(t *testing.T) {
	groups := newGroups(2)
	groups[1].Updater = groups[0].Updater
	err := StepGroups(groups, [][]float64{{1, 1, 1}, {1, 1, 1}}, 1, parallel.Sequential())
	var invalid *ErrInvalidArgument
	assert.True(t, errors.As(err, &invalid))

	groups = newGroups(2)
	groups[1].Parameters = groups[0].Parameters
	err = StepGroups(groups, [][]float64{{1, 1, 1}, {1, 1, 1}}, 1, parallel.Sequential())
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, []float64{1, 2, 3}, groups[0].Parameters)
}

func TestStepGroups_RejectsSharedState(t *testing.T) {
	cfg := parallel.Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1}
	rule := MustNewRMSProp(1, 1e-6, 0.9)
	momentum, err := NewStandardMomentum(0.5)
	require.NoError(t, err)

	tests := map[string]func() []*Group{
		"rule": func() []*Group {
			return []*Group{
				{Name: "a", Parameters: []float64{1, 2}, Updater: MustNewUpdater(rule)},
				{Name: "b", Parameters: []float64{1, 2}, Updater: MustNewUpdater(rule)},
			}
		},
		"correction": func() []*Group {
			return []*Group{
				{Name: "a", Parameters: []float64{1, 2}, Updater: MustNewUpdater(NewGradientDescent(), WithCorrection(momentum))},
				{Name: "b", Parameters: []float64{1, 2}, Updater: MustNewUpdater(NewGradientDescent(), WithCorrection(momentum))},
			}
		},
		"correction in chain": func() []*Group {
			clip, err := NewValueClip(1)
			require.NoError(t, err)
			return []*Group{
				{Name: "a", Parameters: []float64{1, 2}, Updater: MustNewUpdater(NewGradientDescent(), WithCorrection(momentum))},
				{Name: "b", Parameters: []float64{1, 2}, Updater: MustNewUpdater(NewGradientDescent(), WithCorrection(NewChain(clip, momentum)))},
			}
		},
	}
	for name, build := range tests {
		t.Run(name, func(t *testing.T) {
			groups := build()
			err := StepGroups(groups, [][]float64{{1, 1}, {1, 1}}, 1, cfg)

			var invalid *ErrInvalidArgument
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Contains(t, err.Error(), "with group a")
			for _, g := range groups {
				assert.Equal(t, []float64{1, 2}, g.Parameters)
			}
		})
	}
	assert.Empty(t, rule.MeanSquare())
}

func TestStepGroups_ParameterOverlap(t *testing.T) {
	cfg := parallel.Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1}
	step := func(a, b []float64) error {
		groups := []*Group{
			{Name: "a", Parameters: a, Updater: MustNewUpdater(NewGradientDescent())},
			{Name: "b", Parameters: b, Updater: MustNewUpdater(NewGradientDescent())},
		}
		return StepGroups(groups, [][]float64{ones(len(a)), ones(len(b))}, 1, cfg)
	}

	buf := make([]float64, 8)
	var invalid *ErrInvalidArgument
	assert.True(t, errors.As(step(buf[0:5], buf[3:8]), &invalid))
	assert.True(t, errors.As(step(buf[3:8], buf[0:5]), &invalid))
	assert.True(t, errors.As(step(buf[2:3], buf[0:8]), &invalid))
	assert.Equal(t, make([]float64, 8), buf)

	require.NoError(t, step(buf[0:4], buf[4:8]))
	assert.Equal(t, []float64{-1, -1, -1, -1, -1, -1, -1, -1}, buf)
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func TestStepGroups_CountMismatch(t *testing.T) {
	err := StepGroups(newGroups(2), [][]float64{{1, 1, 1}}, 1, parallel.Sequential())
	var mismatch *ErrDimensionMismatch
	assert.True(t, errors.As(err, &mismatch))
}

func TestGroup_Step(t *testing.T) {
	g := &Group{Name: "orphan", Parameters: []float64{1}}
	assert.Error(t, g.Step([]float64{1}, 1))
	assert.Error(t, StepGroups([]*Group{nil}, [][]float64{{1}}, 1, parallel.Sequential()))
}
