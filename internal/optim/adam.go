package optim

import (
	"math"

	"github.com/pkg/errors"
)

const iterationKey = "iteration"

// Adam implements the Adam (Adaptive Moment Estimation) rule.
//
// Adam combines ideas from RMSProp and momentum:
//   - Maintains exponential moving averages of gradients (first moment)
//   - Maintains exponential moving averages of squared gradients (second moment)
//   - Applies bias correction to compensate for initialization at zero
//
// Update rule, with t counted once per UpdateVariable call:
//
//	m[i]   = beta1 * m[i] + (1-beta1) * gradient
//	v[i]   = beta2 * v[i] + (1-beta2) * gradient²
//	result = lr * sqrt(1-beta2^t) / (1-beta1^t) * m[i] / (sqrt(v[i]) + eps)
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	cfg       AdamConfig
	t         int
	first     MomentState
	second    MomentState
	biasFirst float64 // 1 - beta1^t, refreshed by Advance
	biasScale float64 // sqrt(1 - beta2^t), refreshed by Advance
}

// AdamConfig holds Adam hyperparameters.
type AdamConfig struct {
	LR      float64 // Built-in learning rate, > 0
	Epsilon float64 // Added to the root of the second moment, >= 0
	Beta1   float64 // First moment decay, in [0, 1)
	Beta2   float64 // Second moment decay, in [0, 1)
}

// DefaultAdamConfig returns LR 0.001, Epsilon 1e-8, Beta1 0.9, Beta2 0.999.
func DefaultAdamConfig() AdamConfig {
	return AdamConfig{LR: 0.001, Epsilon: 1e-8, Beta1: 0.9, Beta2: 0.999}
}

// Validate checks every field against its allowed range.
func (c AdamConfig) Validate() error {
	if err := checkPositive(ParamLearningRate, c.LR); err != nil {
		return err
	}
	if err := checkNonNegative(ParamEpsilon, c.Epsilon); err != nil {
		return err
	}
	if err := checkUnitInterval(ParamBeta1, c.Beta1); err != nil {
		return err
	}
	return checkUnitInterval(ParamBeta2, c.Beta2)
}

// NewAdam creates an Adam rule.
func NewAdam(cfg AdamConfig) (*Adam, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Adam{
		cfg:    cfg,
		first:  NewMomentState("first_moment"),
		second: NewMomentState("second_moment"),
	}
	a.refreshBias()
	return a, nil
}

// Name implements Rule.
func (a *Adam) Name() string {
	return "adam"
}

// CanAllocate implements Rule.
func (a *Adam) CanAllocate(n int) error {
	if err := a.first.Fits(n); err != nil {
		return err
	}
	return a.second.Fits(n)
}

// Allocate implements Rule.
func (a *Adam) Allocate(n int) error {
	if err := a.CanAllocate(n); err != nil {
		return err
	}
	if err := a.first.Allocate(n); err != nil {
		return err
	}
	return a.second.Allocate(n)
}

// Advance implements Advancer.
func (a *Adam) Advance() {
	a.t++
	a.refreshBias()
}

// Timestep returns the number of update calls seen so far.
func (a *Adam) Timestep() int {
	return a.t
}

// refreshBias recomputes the bias correction terms. Before the first
// Advance, t is treated as 1 so that direct Compute calls stay finite.
func (a *Adam) refreshBias() {
	t := float64(max(a.t, 1))
	a.biasFirst = 1.0 - math.Pow(a.cfg.Beta1, t)
	a.biasScale = math.Sqrt(1.0 - math.Pow(a.cfg.Beta2, t))
}

// Compute implements Rule. learningRate is ignored.
func (a *Adam) Compute(gradient float64, idx int, _ float64) (float64, error) {
	if err := a.first.check(idx); err != nil {
		return 0, err
	}
	if err := a.second.check(idx); err != nil {
		return 0, err
	}
	m := a.first.average(idx, a.cfg.Beta1, gradient)
	v := a.second.average(idx, a.cfg.Beta2, gradient*gradient)
	return a.cfg.LR * a.biasScale / a.biasFirst * m / (math.Sqrt(v) + a.cfg.Epsilon), nil
}

// Hyperparameters implements Stateful.
func (a *Adam) Hyperparameters() map[string]float64 {
	return map[string]float64{
		ParamLearningRate: a.cfg.LR,
		ParamEpsilon:      a.cfg.Epsilon,
		ParamBeta1:        a.cfg.Beta1,
		ParamBeta2:        a.cfg.Beta2,
	}
}

// SetHyperparameters implements Stateful.
func (a *Adam) SetHyperparameters(params map[string]float64) error {
	cfg := a.cfg
	for name, v := range params {
		switch name {
		case ParamLearningRate:
			cfg.LR = v
		case ParamEpsilon:
			cfg.Epsilon = v
		case ParamBeta1:
			cfg.Beta1 = v
		case ParamBeta2:
			cfg.Beta2 = v
		default:
			return invalidArgument(name, v, "unknown hyperparameter for adam")
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.refreshBias()
	return nil
}

// StateDict implements Stateful. The timestep is stored as a one-element
// vector under "iteration".
func (a *Adam) StateDict() map[string][]float64 {
	out := stateDict(&a.first, &a.second)
	out[iterationKey] = []float64{float64(a.t)}
	return out
}

// LoadStateDict implements Stateful.
func (a *Adam) LoadStateDict(state map[string][]float64) error {
	moments := make(map[string][]float64, len(state))
	t := 0
	for name, v := range state {
		if name != iterationKey {
			moments[name] = v
			continue
		}
		if len(v) != 1 {
			return errors.WithStack(&ErrDimensionMismatch{Name: iterationKey, Expected: 1, Actual: len(v)})
		}
		if v[0] < 0 || v[0] != math.Trunc(v[0]) {
			return invalidArgument(iterationKey, v[0], "must be a non-negative integer")
		}
		t = int(v[0])
	}
	if err := loadStates(moments, &a.first, &a.second); err != nil {
		return err
	}
	a.t = t
	a.refreshBias()
	return nil
}
