package optim

import "math"

// Hyperparameter names shared by the rules.
const (
	ParamLearningRate = "learning_rate"
	ParamEpsilon      = "epsilon"
	ParamDecayFactor  = "decay_factor"
	ParamBeta1        = "beta1"
	ParamBeta2        = "beta2"
	ParamWeight       = "weight"
	ParamMax          = "max"
)

// RMSProp scales each gradient by a running root mean square of its past values.
//
// Update rule:
//
//	state[i] = decay * state[i] + (1-decay) * gradient²
//	result   = lr * gradient / sqrt(state[i] + epsilon)
//
// lr is the rule's own configured learning rate. The learningRate passed to
// Compute is ignored, so a schedule driving UpdateVariable has no effect on
// RMSProp.
//
// Reference: Tieleman & Hinton, "Lecture 6.5 - RMSProp" (COURSERA, 2012)
type RMSProp struct {
	cfg        RMSPropConfig
	meanSquare MomentState
}

// RMSPropConfig holds RMSProp hyperparameters.
type RMSPropConfig struct {
	LR      float64 // Built-in learning rate, > 0
	Epsilon float64 // Added under the square root, >= 0
	Decay   float64 // Moving average decay factor, in [0, 1)
}

// DefaultRMSPropConfig returns LR 1.0, Epsilon 1e-6, Decay 0.9.
func DefaultRMSPropConfig() RMSPropConfig {
	return RMSPropConfig{LR: 1.0, Epsilon: 1e-6, Decay: 0.9}
}

// Validate checks every field against its allowed range.
func (c RMSPropConfig) Validate() error {
	if err := checkPositive(ParamLearningRate, c.LR); err != nil {
		return err
	}
	if err := checkNonNegative(ParamEpsilon, c.Epsilon); err != nil {
		return err
	}
	return checkUnitInterval(ParamDecayFactor, c.Decay)
}

// NewRMSProp creates an RMSProp rule. Returns ErrInvalidArgument if any
// hyperparameter is out of range.
func NewRMSProp(lr, epsilon, decay float64) (*RMSProp, error) {
	return NewRMSPropWithConfig(RMSPropConfig{LR: lr, Epsilon: epsilon, Decay: decay})
}

// NewRMSPropWithConfig creates an RMSProp rule from a config.
func NewRMSPropWithConfig(cfg RMSPropConfig) (*RMSProp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RMSProp{cfg: cfg, meanSquare: NewMomentState("mean_square")}, nil
}

// MustNewRMSProp is like NewRMSProp but panics on invalid hyperparameters.
func MustNewRMSProp(lr, epsilon, decay float64) *RMSProp {
	r, err := NewRMSProp(lr, epsilon, decay)
	if err != nil {
		panic(err)
	}
	return r
}

// Name implements Rule.
func (r *RMSProp) Name() string {
	return "rmsprop"
}

// CanAllocate implements Rule.
func (r *RMSProp) CanAllocate(n int) error {
	return r.meanSquare.Fits(n)
}

// Allocate implements Rule.
func (r *RMSProp) Allocate(n int) error {
	return r.meanSquare.Allocate(n)
}

// Compute implements Rule. learningRate is ignored; see RMSProp.
func (r *RMSProp) Compute(gradient float64, idx int, _ float64) (float64, error) {
	if err := r.meanSquare.check(idx); err != nil {
		return 0, err
	}
	scale := r.meanSquare.average(idx, r.cfg.Decay, gradient*gradient)
	return r.cfg.LR * gradient / math.Sqrt(scale+r.cfg.Epsilon), nil
}

// LearningRate returns the built-in learning rate.
func (r *RMSProp) LearningRate() float64 {
	return r.cfg.LR
}

// SetLearningRate updates the built-in learning rate; lr must be positive.
func (r *RMSProp) SetLearningRate(lr float64) error {
	if err := checkPositive(ParamLearningRate, lr); err != nil {
		return err
	}
	r.cfg.LR = lr
	return nil
}

// Epsilon returns the numerical stability term.
func (r *RMSProp) Epsilon() float64 {
	return r.cfg.Epsilon
}

// SetEpsilon updates epsilon; it must be non-negative.
func (r *RMSProp) SetEpsilon(epsilon float64) error {
	if err := checkNonNegative(ParamEpsilon, epsilon); err != nil {
		return err
	}
	r.cfg.Epsilon = epsilon
	return nil
}

// DecayFactor returns the moving average decay factor.
func (r *RMSProp) DecayFactor() float64 {
	return r.cfg.Decay
}

// SetDecayFactor updates the decay factor; it must lie in [0, 1).
func (r *RMSProp) SetDecayFactor(decay float64) error {
	if err := checkUnitInterval(ParamDecayFactor, decay); err != nil {
		return err
	}
	r.cfg.Decay = decay
	return nil
}

// MeanSquare returns a copy of the squared-gradient moving average.
func (r *RMSProp) MeanSquare() []float64 {
	return r.meanSquare.Values()
}

// Hyperparameters implements Stateful.
func (r *RMSProp) Hyperparameters() map[string]float64 {
	return map[string]float64{
		ParamLearningRate: r.cfg.LR,
		ParamEpsilon:      r.cfg.Epsilon,
		ParamDecayFactor:  r.cfg.Decay,
	}
}

// SetHyperparameters implements Stateful.
func (r *RMSProp) SetHyperparameters(params map[string]float64) error {
	cfg := r.cfg
	for name, v := range params {
		switch name {
		case ParamLearningRate:
			cfg.LR = v
		case ParamEpsilon:
			cfg.Epsilon = v
		case ParamDecayFactor:
			cfg.Decay = v
		default:
			return invalidArgument(name, v, "unknown hyperparameter for rmsprop")
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.cfg = cfg
	return nil
}

// StateDict implements Stateful.
func (r *RMSProp) StateDict() map[string][]float64 {
	return stateDict(&r.meanSquare)
}

// LoadStateDict implements Stateful.
func (r *RMSProp) LoadStateDict(state map[string][]float64) error {
	return loadStates(state, &r.meanSquare)
}
