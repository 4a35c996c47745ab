// Package minimize drives an optim.Updater over a differentiable cost
// until it converges or runs out of passes.
package minimize

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/descent/internal/optim"
)

// ErrDiverged is returned when the gradient stops being finite.
var ErrDiverged = errors.New("minimizer diverged: gradient is not finite")

// Minimizer runs gradient descent iterations over a Cost.
type Minimizer struct {
	Cost     Cost
	Updater  *optim.Updater
	Schedule optim.LearningRate // Rate per iteration; nil means a constant 1
	Passes   int                // Maximum iterations, > 0

	// Tolerance stops the loop once the L2 norm of the gradient is at or
	// below it. Zero stops only at an exact stationary point.
	Tolerance float64

	LogEvery int                // Info progress every N iterations; 0 disables
	Log      logrus.FieldLogger // Defaults to the logrus standard logger
}

// Result summarizes a run.
type Result struct {
	Value        float64 // Cost at the final parameters
	GradientNorm float64 // Norm of the last gradient evaluated
	Iterations   int     // Updates applied
	Converged    bool    // Whether Tolerance was reached
}

// Minimize updates x in place. It checks ctx between iterations and returns
// the context error, with x holding the last completed update, if it is
// cancelled.
func (m *Minimizer) Minimize(ctx context.Context, x []float64) (Result, error) {
	if err := m.validate(x); err != nil {
		return Result{}, err
	}
	log := m.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("rule", m.Updater.Rule().Name())

	var res Result
	grad := make([]float64, len(x))
	for iter := 1; iter <= m.Passes; iter++ {
		if err := ctx.Err(); err != nil {
			return res, errors.WithStack(err)
		}

		m.Cost.Gradient(x, grad)
		res.GradientNorm = floats.Norm(grad, 2)
		if math.IsNaN(res.GradientNorm) || math.IsInf(res.GradientNorm, 0) {
			return res, errors.Wrapf(ErrDiverged, "iteration %d", iter)
		}
		if res.GradientNorm <= m.Tolerance {
			res.Converged = true
			break
		}

		if err := m.Updater.UpdateVariable(x, grad, m.rate(iter)); err != nil {
			return res, err
		}
		res.Iterations = iter

		if m.LogEvery > 0 && iter%m.LogEvery == 0 {
			log.WithFields(logrus.Fields{
				"iteration":     iter,
				"value":         m.Cost.Value(x),
				"gradient_norm": res.GradientNorm,
			}).Info("minimizer progress")
		}
	}

	res.Value = m.Cost.Value(x)
	log.WithFields(logrus.Fields{
		"iterations": res.Iterations,
		"value":      res.Value,
		"converged":  res.Converged,
	}).Debug("minimization finished")
	return res, nil
}

func (m *Minimizer) rate(iter int) float64 {
	if m.Schedule == nil {
		return 1
	}
	return m.Schedule.Rate(iter)
}

func (m *Minimizer) validate(x []float64) error {
	switch {
	case m.Cost == nil:
		return errors.WithStack(&optim.ErrInvalidArgument{Name: "cost", Message: "must not be nil"})
	case m.Updater == nil:
		return errors.WithStack(&optim.ErrInvalidArgument{Name: "updater", Message: "must not be nil"})
	case m.Passes <= 0:
		return errors.WithStack(&optim.ErrInvalidArgument{Name: "passes", Value: m.Passes, Message: "must be positive"})
	case !(m.Tolerance >= 0):
		return errors.WithStack(&optim.ErrInvalidArgument{Name: "tolerance", Value: m.Tolerance, Message: "must be non-negative"})
	case len(x) == 0:
		return errors.WithStack(&optim.ErrInvalidArgument{Name: "parameters", Value: 0, Message: "must not be empty"})
	}
	if d := m.Cost.Dim(); d > 0 && d != len(x) {
		return errors.WithStack(&optim.ErrDimensionMismatch{Name: "cost", Expected: len(x), Actual: d})
	}
	return nil
}
