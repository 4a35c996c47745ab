package minimize

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/descent/internal/optim"
)

// Cost is a differentiable objective.
type Cost interface {
	// Dim returns the required parameter count, or 0 if any length works.
	Dim() int
	// Value returns the objective at x.
	Value(x []float64) float64
	// Gradient writes the gradient at x into grad, which has len(x).
	Gradient(x, grad []float64)
}

// Quadratic is the weighted squared distance to a center:
//
//	f(x) = sum_i w[i] * (x[i] - c[i])²
type Quadratic struct {
	center  []float64
	weights []float64
}

// NewQuadratic creates a quadratic bowl around center. weights may be nil
// for unit weights; otherwise it must match center and be positive.
func NewQuadratic(center, weights []float64) (*Quadratic, error) {
	if len(center) == 0 {
		return nil, errors.WithStack(&optim.ErrInvalidArgument{Name: "center", Value: len(center), Message: "must not be empty"})
	}
	if weights == nil {
		weights = make([]float64, len(center))
		floats.AddConst(1, weights)
	}
	if len(weights) != len(center) {
		return nil, errors.WithStack(&optim.ErrDimensionMismatch{Name: "weights", Expected: len(center), Actual: len(weights)})
	}
	for _, w := range weights {
		if !(w > 0) {
			return nil, errors.WithStack(&optim.ErrInvalidArgument{Name: "weights", Value: w, Message: "must be positive"})
		}
	}
	return &Quadratic{
		center:  append([]float64(nil), center...),
		weights: append([]float64(nil), weights...),
	}, nil
}

// Center returns a copy of the minimizer of the bowl.
func (q *Quadratic) Center() []float64 {
	return append([]float64(nil), q.center...)
}

// Dim implements Cost.
func (q *Quadratic) Dim() int {
	return len(q.center)
}

// Value implements Cost.
func (q *Quadratic) Value(x []float64) float64 {
	diff := make([]float64, len(x))
	floats.SubTo(diff, x, q.center)
	sq := make([]float64, len(x))
	floats.MulTo(sq, diff, diff)
	return floats.Dot(q.weights, sq)
}

// Gradient implements Cost.
func (q *Quadratic) Gradient(x, grad []float64) {
	floats.SubTo(grad, x, q.center)
	floats.Mul(grad, q.weights)
	floats.Scale(2, grad)
}

// Rosenbrock is the n-dimensional Rosenbrock function, minimized at all ones:
//
//	f(x) = sum_{i<n-1} 100*(x[i+1] - x[i]²)² + (1 - x[i])²
type Rosenbrock struct {
	n int
}

// NewRosenbrock creates a Rosenbrock objective in n >= 2 dimensions.
func NewRosenbrock(n int) (*Rosenbrock, error) {
	if n < 2 {
		return nil, errors.WithStack(&optim.ErrInvalidArgument{Name: "dimensions", Value: n, Message: "must be at least 2"})
	}
	return &Rosenbrock{n: n}, nil
}

// Dim implements Cost.
func (r *Rosenbrock) Dim() int {
	return r.n
}

// Value implements Cost.
func (r *Rosenbrock) Value(x []float64) float64 {
	var sum float64
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		b := 1 - x[i]
		sum += 100*a*a + b*b
	}
	return sum
}

// Gradient implements Cost.
func (r *Rosenbrock) Gradient(x, grad []float64) {
	for i := range grad {
		grad[i] = 0
	}
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		grad[i] += -400*a*x[i] - 2*(1-x[i])
		grad[i+1] += 200 * a
	}
}
