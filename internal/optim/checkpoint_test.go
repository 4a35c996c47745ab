package optim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/descent/internal/serialization"
)

func newMomentumRMSProp(t *testing.T) *Updater {
	t.Helper()
	m, err := NewNesterovMomentum(0.9)
	require.NoError(t, err)
	clip, err := NewNormClip(10)
	require.NoError(t, err)
	return MustNewUpdater(MustNewRMSProp(0.01, 1e-8, 0.9), WithCorrection(NewChain(m, clip)))
}

func TestSaveLoadState_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.safetensors")
	grad := []float64{0.3, -1.2, 0.05}

	original := newMomentumRMSProp(t)
	params := []float64{1, 2, 3}
	for i := 0; i < 4; i++ {
		require.NoError(t, original.UpdateVariable(params, grad, 0))
	}
	require.NoError(t, SaveState(path, original, map[string]string{"run": "unit"}))

	restored := newMomentumRMSProp(t)
	require.NoError(t, LoadState(path, restored))
	assert.Equal(t, 3, restored.Size())

	a := append([]float64(nil), params...)
	b := append([]float64(nil), params...)
	for i := 0; i < 3; i++ {
		require.NoError(t, original.UpdateVariable(a, grad, 0))
		require.NoError(t, restored.UpdateVariable(b, grad, 0))
	}
	assert.Equal(t, a, b, "restored updater must continue identically")

	f, err := serialization.ReadFile(path, serialization.ReaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "rmsprop", f.Metadata[MetaRule])
	assert.Equal(t, "chain(nesterov,norm_clip)", f.Metadata[MetaCorrection])
	assert.Equal(t, "0.01", f.Metadata["rule.learning_rate"])
	assert.Equal(t, "0.9", f.Metadata["correction.0.weight"])
	assert.Equal(t, "unit", f.Metadata["run"])
	assert.Equal(t, []string{"correction.0.velocity", "rule.mean_square"}, f.Names())
}

func TestSaveLoadState_RestoresHyperparameters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.safetensors")

	a := mustAdam(t, AdamConfig{LR: 0.02, Epsilon: 1e-7, Beta1: 0.8, Beta2: 0.99})
	src := MustNewUpdater(a)
	require.NoError(t, src.UpdateVariable([]float64{1, 1}, []float64{1, -1}, 0))
	require.NoError(t, src.UpdateVariable([]float64{1, 1}, []float64{1, -1}, 0))
	require.NoError(t, SaveState(path, src, nil))

	b := mustAdam(t, DefaultAdamConfig())
	dst := MustNewUpdater(b)
	require.NoError(t, LoadState(path, dst))
	assert.Equal(t, a.Hyperparameters(), b.Hyperparameters())
	assert.Equal(t, 2, b.Timestep())
	assert.Equal(t, a.StateDict(), b.StateDict())
}

func TestLoadState_RuleMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.safetensors")
	require.NoError(t, SaveState(path, MustNewUpdater(MustNewRMSProp(1, 1e-6, 0.9)), nil))

	err := LoadState(path, MustNewUpdater(mustAdam(t, DefaultAdamConfig())))
	var invalid *ErrInvalidArgument
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, MetaRule, invalid.Name)

	m, err := NewStandardMomentum(0.5)
	require.NoError(t, err)
	err = LoadState(path, MustNewUpdater(MustNewRMSProp(1, 1e-6, 0.9), WithCorrection(m)))
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, MetaCorrection, invalid.Name)
}

func TestLoadState_DetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.safetensors")
	u := MustNewUpdater(MustNewRMSProp(1, 1e-6, 0.9))
	require.NoError(t, u.UpdateVariable([]float64{1, 2}, []float64{1, 1}, 0))
	require.NoError(t, SaveState(path, u, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0x01
	require.NoError(t, os.WriteFile(path, data, 0o600))

	fresh := MustNewRMSProp(1, 1e-6, 0.9)
	err = LoadState(path, MustNewUpdater(fresh))
	assert.True(t, errors.Is(err, serialization.ErrChecksumMismatch), "got %v", err)
	assert.Nil(t, fresh.MeanSquare())
}

func TestRestore_RollsBackOnFailure(t *testing.T) {
	r := MustNewRMSProp(1, 1e-6, 0.9)
	u := MustNewUpdater(r)
	require.NoError(t, u.UpdateVariable([]float64{1}, []float64{1}, 0))
	before := r.MeanSquare()

	err := u.Restore(Snapshot{
		Metadata: map[string]string{MetaRule: "rmsprop", "rule.learning_rate": "0.5"},
		Tensors:  map[string][]float64{"rule.unknown": {1}},
	})
	require.Error(t, err)
	assert.Equal(t, 1.0, r.LearningRate())
	assert.Equal(t, before, r.MeanSquare())

	err = u.Restore(Snapshot{
		Metadata: map[string]string{MetaRule: "rmsprop", "rule.learning_rate": "fast"},
	})
	assert.Error(t, err)

	err = u.Restore(Snapshot{
		Metadata: map[string]string{MetaRule: "rmsprop"},
		Tensors:  map[string][]float64{"stray": {1}},
	})
	assert.Error(t, err)
}

func TestSaveState_ReservedMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.safetensors")
	u := MustNewUpdater(MustNewRMSProp(1, 1e-6, 0.9))
	for _, key := range []string{MetaRule, "rule.epsilon", "correction.x", serialization.MetaChecksum} {
		assert.Error(t, SaveState(path, u, map[string]string{key: "x"}), key)
	}
}

type opaqueRule struct{ GradientDescent }

func (opaqueRule) Hyperparameters() {}

func TestSnapshot_RequiresStatefulRule(t *testing.T) {
	u := MustNewUpdater(&opaqueRule{})
	_, err := u.Snapshot()
	assert.Error(t, err)
}
