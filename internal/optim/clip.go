package optim

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ValueClip clamps every element of the descent vector to [-max, max].
type ValueClip struct {
	max float64
}

// NewValueClip creates an elementwise clip with a positive bound.
func NewValueClip(bound float64) (*ValueClip, error) {
	if err := checkPositive(ParamMax, bound); err != nil {
		return nil, err
	}
	return &ValueClip{max: bound}, nil
}

// Name implements Correction.
func (c *ValueClip) Name() string {
	return "value_clip"
}

// CanAllocate implements Correction.
func (c *ValueClip) CanAllocate(_ int) error {
	return nil
}

// Allocate implements Correction. Clipping keeps no state.
func (c *ValueClip) Allocate(_ int) error {
	return nil
}

// Correct implements Correction.
func (c *ValueClip) Correct(_, direction []float64) error {
	for i, d := range direction {
		direction[i] = math.Max(-c.max, math.Min(c.max, d))
	}
	return nil
}

// Hyperparameters implements Stateful.
func (c *ValueClip) Hyperparameters() map[string]float64 {
	return map[string]float64{ParamMax: c.max}
}

// SetHyperparameters implements Stateful.
func (c *ValueClip) SetHyperparameters(params map[string]float64) error {
	bound, err := clipBound(c.max, params)
	if err != nil {
		return err
	}
	c.max = bound
	return nil
}

// StateDict implements Stateful.
func (c *ValueClip) StateDict() map[string][]float64 {
	return map[string][]float64{}
}

// LoadStateDict implements Stateful.
func (c *ValueClip) LoadStateDict(state map[string][]float64) error {
	return loadStates(state)
}

// NormClip rescales the whole descent vector when its L2 norm exceeds max,
// preserving its direction.
type NormClip struct {
	max float64
}

// NewNormClip creates a norm clip with a positive bound.
func NewNormClip(bound float64) (*NormClip, error) {
	if err := checkPositive(ParamMax, bound); err != nil {
		return nil, err
	}
	return &NormClip{max: bound}, nil
}

// Name implements Correction.
func (c *NormClip) Name() string {
	return "norm_clip"
}

// CanAllocate implements Correction.
func (c *NormClip) CanAllocate(_ int) error {
	return nil
}

// Allocate implements Correction. Clipping keeps no state.
func (c *NormClip) Allocate(_ int) error {
	return nil
}

// Correct implements Correction.
func (c *NormClip) Correct(_, direction []float64) error {
	norm := floats.Norm(direction, 2)
	if norm > c.max {
		floats.Scale(c.max/norm, direction)
	}
	return nil
}

// Hyperparameters implements Stateful.
func (c *NormClip) Hyperparameters() map[string]float64 {
	return map[string]float64{ParamMax: c.max}
}

// SetHyperparameters implements Stateful.
func (c *NormClip) SetHyperparameters(params map[string]float64) error {
	bound, err := clipBound(c.max, params)
	if err != nil {
		return err
	}
	c.max = bound
	return nil
}

// StateDict implements Stateful.
func (c *NormClip) StateDict() map[string][]float64 {
	return map[string][]float64{}
}

// LoadStateDict implements Stateful.
func (c *NormClip) LoadStateDict(state map[string][]float64) error {
	return loadStates(state)
}

func clipBound(current float64, params map[string]float64) (float64, error) {
	for name, v := range params {
		if name != ParamMax {
			return 0, invalidArgument(name, v, "unknown hyperparameter for clipping")
		}
		if err := checkPositive(ParamMax, v); err != nil {
			return 0, err
		}
		current = v
	}
	return current, nil
}
