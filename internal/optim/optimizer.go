// Package optim implements first-order parameter updaters.
//
// This package provides:
//   - Rule: per-scalar update rules (RMSProp, AdaGrad, AdaDelta, Adam, plain gradient descent)
//   - MomentState: lazily sized per-parameter accumulators owned by a rule
//   - Correction: strategies that adjust the descent vector before it is applied
//     (standard and Nesterov momentum, value and norm clipping)
//   - Updater: the per-iteration driver that validates shapes and mutates parameters in place
//   - LearningRate schedules, parameter groups and state persistence
//
// A rule is composed into an Updater rather than extended:
//
//	rule, err := optim.NewRMSProp(1.0, 1e-6, 0.9)
//	if err != nil {
//	    return err
//	}
//	momentum, _ := optim.NewStandardMomentum(0.9)
//	updater, _ := optim.NewUpdater(rule, optim.WithCorrection(momentum))
//
//	for iter := 1; iter <= passes; iter++ {
//	    cost.Gradient(params, grad)
//	    if err := updater.UpdateVariable(params, grad, schedule.Rate(iter)); err != nil {
//	        return err
//	    }
//	}
//
// Updaters are not safe for concurrent use. Independent updaters may be
// driven from different goroutines; see StepGroups.
package optim

import "github.com/pkg/errors"

// Rule computes the negative descent direction for a single scalar parameter.
//
// Rules own their adaptive state. Allocate is called by the Updater with the
// parameter count before every update; Compute may then be called once per index.
type Rule interface {
	// Name identifies the rule in persisted state, e.g. "rmsprop".
	Name() string

	// CanAllocate returns the error Allocate(n) would return, without
	// touching any state.
	CanAllocate(n int) error

	// Allocate sizes the adaptive state on first use.
	//
	// It is a no-op once the state exists, except that a parameter count
	// larger than the allocated state returns ErrOutOfRange. On error no
	// state is changed.
	Allocate(n int) error

	// Compute returns the quantity to subtract from the parameter at idx.
	//
	// Returns ErrOutOfRange without touching state if idx is not a valid
	// position in the adaptive state.
	Compute(gradient float64, idx int, learningRate float64) (float64, error)
}

// Advancer is implemented by rules that count update calls (e.g. Adam's
// bias correction). The Updater calls Advance once per UpdateVariable,
// before any Compute.
type Advancer interface {
	Advance()
}

// Stateful is implemented by rules and corrections whose hyperparameters and
// adaptive state can be persisted and restored.
type Stateful interface {
	// Hyperparameters returns the current hyperparameters keyed by name.
	Hyperparameters() map[string]float64

	// SetHyperparameters validates and applies the named hyperparameters.
	// Unknown names are rejected; missing names keep their current value.
	SetHyperparameters(params map[string]float64) error

	// StateDict returns copies of the adaptive state vectors.
	// Unallocated state is omitted.
	StateDict() map[string][]float64

	// LoadStateDict replaces the adaptive state. All vectors must have
	// the same length.
	LoadStateDict(state map[string][]float64) error
}

// loadStates restores several MomentStates from a dictionary. Vectors that
// are present must agree in length; absent ones are reset to empty.
func loadStates(state map[string][]float64, targets ...*MomentState) error {
	n := -1
	for _, t := range targets {
		v, ok := state[t.Name()]
		if !ok {
			continue
		}
		if n >= 0 && len(v) != n {
			return errors.WithStack(&ErrDimensionMismatch{Name: t.Name(), Expected: n, Actual: len(v)})
		}
		n = len(v)
	}
	for name, v := range state {
		known := false
		for _, t := range targets {
			if t.Name() == name {
				known = true
				break
			}
		}
		if !known {
			return invalidArgument(name, len(v), "unknown state vector")
		}
	}
	for _, t := range targets {
		t.Load(state[t.Name()])
	}
	return nil
}

// stateDict collects the allocated MomentStates.
func stateDict(sources ...*MomentState) map[string][]float64 {
	out := make(map[string][]float64, len(sources))
	for _, s := range sources {
		if s.Len() > 0 {
			out[s.Name()] = s.Values()
		}
	}
	return out
}
