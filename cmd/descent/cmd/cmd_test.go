package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := RootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "descent "+Version))
}

func TestMinimize_Quadratic(t *testing.T) {
	out, err := run(t, "minimize",
		"--rule", "sgd",
		"--rate", "0.1",
		"--dimensions", "3",
		"--passes", "500",
		"--log-every", "0",
		"--log-level", "error",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "rule:          gradient_descent")
	assert.Contains(t, out, "converged:     true")
}

func TestMinimize_InvalidFlag(t *testing.T) {
	_, err := run(t, "minimize", "--decay", "1.5", "--log-level", "error")
	assert.Error(t, err)

	_, err = run(t, "minimize", "--rule", "newton", "--log-level", "error")
	assert.Error(t, err)
}

func TestMinimize_SaveInspectResume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.safetensors")

	_, err := run(t, "minimize",
		"--rule", "rmsprop",
		"--momentum", "0.5",
		"--objective", "rosenbrock",
		"--passes", "50",
		"--tolerance", "0",
		"--log-level", "error",
		"--save-state", path,
	)
	require.NoError(t, err)

	out, err := run(t, "inspect", path)
	require.NoError(t, err)
	var summary StateSummary
	require.NoError(t, yaml.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "rmsprop", summary.Metadata["rule"])
	assert.Equal(t, "momentum", summary.Metadata["correction"])
	assert.Equal(t, "rosenbrock", summary.Metadata["objective"])
	assert.Equal(t, "50", summary.Metadata["iterations"])
	require.Len(t, summary.Tensors, 2)
	assert.Equal(t, "correction.velocity", summary.Tensors[0].Name)
	assert.Equal(t, "rule.mean_square", summary.Tensors[1].Name)
	assert.Equal(t, []int64{2}, summary.Tensors[1].Shape)
	assert.Nil(t, summary.Tensors[1].Values)

	out, err = run(t, "inspect", path, "-o", "json", "--values")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Len(t, summary.Tensors[1].Values, 2)

	_, err = run(t, "minimize",
		"--rule", "rmsprop",
		"--momentum", "0.5",
		"--objective", "rosenbrock",
		"--passes", "10",
		"--log-level", "error",
		"--load-state", path,
	)
	require.NoError(t, err)

	_, err = run(t, "minimize", "--rule", "adam", "--log-level", "error", "--load-state", path)
	assert.Error(t, err, "state saved for rmsprop cannot be loaded into adam")
}

func TestInspect_Errors(t *testing.T) {
	_, err := run(t, "inspect")
	assert.Error(t, err)

	_, err = run(t, "inspect", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "state.safetensors")
	_, err = run(t, "minimize", "--passes", "1", "--log-level", "error", "--save-state", path)
	require.NoError(t, err)
	_, err = run(t, "inspect", path, "-o", "xml")
	assert.Error(t, err)
}
