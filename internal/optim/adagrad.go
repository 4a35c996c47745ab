package optim

import "math"

// AdaGrad scales each gradient by the root of its accumulated squares.
//
// Update rule:
//
//	acc[i] += gradient²
//	result  = lr * gradient / sqrt(acc[i] + epsilon)
//
// Like RMSProp, it uses its built-in learning rate and ignores the rate
// passed to Compute.
//
// Reference: Duchi et al., "Adaptive Subgradient Methods for Online Learning
// and Stochastic Optimization" (JMLR, 2011)
type AdaGrad struct {
	cfg         AdaGradConfig
	accumulated MomentState
}

// AdaGradConfig holds AdaGrad hyperparameters.
type AdaGradConfig struct {
	LR      float64 // Built-in learning rate, > 0
	Epsilon float64 // Added under the square root, >= 0
}

// DefaultAdaGradConfig returns LR 1.0, Epsilon 1e-6.
func DefaultAdaGradConfig() AdaGradConfig {
	return AdaGradConfig{LR: 1.0, Epsilon: 1e-6}
}

// Validate checks every field against its allowed range.
func (c AdaGradConfig) Validate() error {
	if err := checkPositive(ParamLearningRate, c.LR); err != nil {
		return err
	}
	return checkNonNegative(ParamEpsilon, c.Epsilon)
}

// NewAdaGrad creates an AdaGrad rule.
func NewAdaGrad(lr, epsilon float64) (*AdaGrad, error) {
	cfg := AdaGradConfig{LR: lr, Epsilon: epsilon}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &AdaGrad{cfg: cfg, accumulated: NewMomentState("sum_square")}, nil
}

// Name implements Rule.
func (a *AdaGrad) Name() string {
	return "adagrad"
}

// CanAllocate implements Rule.
func (a *AdaGrad) CanAllocate(n int) error {
	return a.accumulated.Fits(n)
}

// Allocate implements Rule.
func (a *AdaGrad) Allocate(n int) error {
	return a.accumulated.Allocate(n)
}

// Compute implements Rule. learningRate is ignored.
func (a *AdaGrad) Compute(gradient float64, idx int, _ float64) (float64, error) {
	if err := a.accumulated.check(idx); err != nil {
		return 0, err
	}
	acc := a.accumulated.accumulate(idx, gradient*gradient)
	return a.cfg.LR * gradient / math.Sqrt(acc+a.cfg.Epsilon), nil
}

// Hyperparameters implements Stateful.
func (a *AdaGrad) Hyperparameters() map[string]float64 {
	return map[string]float64{
		ParamLearningRate: a.cfg.LR,
		ParamEpsilon:      a.cfg.Epsilon,
	}
}

// SetHyperparameters implements Stateful.
func (a *AdaGrad) SetHyperparameters(params map[string]float64) error {
	cfg := a.cfg
	for name, v := range params {
		switch name {
		case ParamLearningRate:
			cfg.LR = v
		case ParamEpsilon:
			cfg.Epsilon = v
		default:
			return invalidArgument(name, v, "unknown hyperparameter for adagrad")
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// StateDict implements Stateful.
func (a *AdaGrad) StateDict() map[string][]float64 {
	return stateDict(&a.accumulated)
}

// LoadStateDict implements Stateful.
func (a *AdaGrad) LoadStateDict(state map[string][]float64) error {
	return loadStates(state, &a.accumulated)
}
