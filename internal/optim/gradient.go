package optim

import "github.com/pkg/errors"

// GradientDescent is plain stochastic gradient descent.
//
// Update rule:
//
//	result = learningRate * gradient
//
// Unlike the adaptive rules it has no built-in learning rate and no state;
// the rate comes from the caller on every update. Combine it with
// StandardMomentum or NesterovMomentum for momentum SGD.
//
// Example:
//
//	updater, _ := optim.NewUpdater(optim.NewGradientDescent())
//	for iter := 1; iter <= passes; iter++ {
//	    _ = updater.UpdateVariable(params, grad, 0.01)
//	}
type GradientDescent struct{}

// NewGradientDescent creates a plain gradient descent rule.
func NewGradientDescent() *GradientDescent {
	return &GradientDescent{}
}

// Name implements Rule.
func (g *GradientDescent) Name() string {
	return "gradient_descent"
}

// CanAllocate implements Rule.
func (g *GradientDescent) CanAllocate(_ int) error {
	return nil
}

// Allocate implements Rule. Gradient descent keeps no state.
func (g *GradientDescent) Allocate(_ int) error {
	return nil
}

// Compute implements Rule.
func (g *GradientDescent) Compute(gradient float64, idx int, learningRate float64) (float64, error) {
	if idx < 0 {
		return 0, errors.WithStack(&ErrOutOfRange{Name: "parameters", Index: idx})
	}
	return learningRate * gradient, nil
}

// Hyperparameters implements Stateful.
func (g *GradientDescent) Hyperparameters() map[string]float64 {
	return map[string]float64{}
}

// SetHyperparameters implements Stateful.
func (g *GradientDescent) SetHyperparameters(params map[string]float64) error {
	if len(params) > 0 {
		return invalidArgument("hyperparameters", len(params), "gradient_descent has no hyperparameters")
	}
	return nil
}

// StateDict implements Stateful.
func (g *GradientDescent) StateDict() map[string][]float64 {
	return map[string][]float64{}
}

// LoadStateDict implements Stateful.
func (g *GradientDescent) LoadStateDict(state map[string][]float64) error {
	return loadStates(state)
}
