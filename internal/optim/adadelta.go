package optim

import "math"

// AdaDelta adapts the step size from running averages of both squared
// gradients and squared updates, so the effective rate needs little tuning.
//
// Update rule:
//
//	g2[i] = decay * g2[i] + (1-decay) * gradient²
//	step  = sqrt(d2[i] + epsilon) * gradient / sqrt(g2[i] + epsilon)
//	d2[i] = decay * d2[i] + (1-decay) * step²
//	result = lr * step
//
// Reference: Zeiler, "ADADELTA: An Adaptive Learning Rate Method" (2012)
type AdaDelta struct {
	cfg         AdaDeltaConfig
	gradSquare  MomentState
	deltaSquare MomentState
}

// AdaDeltaConfig holds AdaDelta hyperparameters.
type AdaDeltaConfig struct {
	LR      float64 // Built-in learning rate, > 0
	Epsilon float64 // Added under both square roots, > 0
	Decay   float64 // Moving average decay factor, in [0, 1)
}

// DefaultAdaDeltaConfig returns LR 1.0, Epsilon 1e-6, Decay 0.9.
func DefaultAdaDeltaConfig() AdaDeltaConfig {
	return AdaDeltaConfig{LR: 1.0, Epsilon: 1e-6, Decay: 0.9}
}

// Validate checks every field against its allowed range.
func (c AdaDeltaConfig) Validate() error {
	if err := checkPositive(ParamLearningRate, c.LR); err != nil {
		return err
	}
	// With no epsilon the update numerator sqrt(d2+epsilon) starts and stays at zero.
	if err := checkPositive(ParamEpsilon, c.Epsilon); err != nil {
		return err
	}
	return checkUnitInterval(ParamDecayFactor, c.Decay)
}

// NewAdaDelta creates an AdaDelta rule. epsilon must be positive.
func NewAdaDelta(lr, epsilon, decay float64) (*AdaDelta, error) {
	cfg := AdaDeltaConfig{LR: lr, Epsilon: epsilon, Decay: decay}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &AdaDelta{
		cfg:         cfg,
		gradSquare:  NewMomentState("gradient_square"),
		deltaSquare: NewMomentState("delta_square"),
	}, nil
}

// Name implements Rule.
func (a *AdaDelta) Name() string {
	return "adadelta"
}

// CanAllocate implements Rule.
func (a *AdaDelta) CanAllocate(n int) error {
	if err := a.gradSquare.Fits(n); err != nil {
		return err
	}
	return a.deltaSquare.Fits(n)
}

// Allocate implements Rule.
func (a *AdaDelta) Allocate(n int) error {
	if err := a.CanAllocate(n); err != nil {
		return err
	}
	if err := a.gradSquare.Allocate(n); err != nil {
		return err
	}
	return a.deltaSquare.Allocate(n)
}

// Compute implements Rule. learningRate is ignored.
func (a *AdaDelta) Compute(gradient float64, idx int, _ float64) (float64, error) {
	if err := a.gradSquare.check(idx); err != nil {
		return 0, err
	}
	if err := a.deltaSquare.check(idx); err != nil {
		return 0, err
	}
	g2 := a.gradSquare.average(idx, a.cfg.Decay, gradient*gradient)
	step := math.Sqrt(a.deltaSquare.values[idx]+a.cfg.Epsilon) * gradient / math.Sqrt(g2+a.cfg.Epsilon)
	a.deltaSquare.average(idx, a.cfg.Decay, step*step)
	return a.cfg.LR * step, nil
}

// Hyperparameters implements Stateful.
func (a *AdaDelta) Hyperparameters() map[string]float64 {
	return map[string]float64{
		ParamLearningRate: a.cfg.LR,
		ParamEpsilon:      a.cfg.Epsilon,
		ParamDecayFactor:  a.cfg.Decay,
	}
}

// SetHyperparameters implements Stateful.
func (a *AdaDelta) SetHyperparameters(params map[string]float64) error {
	cfg := a.cfg
	for name, v := range params {
		switch name {
		case ParamLearningRate:
			cfg.LR = v
		case ParamEpsilon:
			cfg.Epsilon = v
		case ParamDecayFactor:
			cfg.Decay = v
		default:
			return invalidArgument(name, v, "unknown hyperparameter for adadelta")
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// StateDict implements Stateful.
func (a *AdaDelta) StateDict() map[string][]float64 {
	return stateDict(&a.gradSquare, &a.deltaSquare)
}

// LoadStateDict implements Stateful.
func (a *AdaDelta) LoadStateDict(state map[string][]float64) error {
	return loadStates(state, &a.gradSquare, &a.deltaSquare)
}
