package optim

import "math"

// LearningRate yields the learning rate passed to UpdateVariable on a given
// iteration. Iterations count from 1; smaller values are treated as 1.
type LearningRate interface {
	Rate(iteration int) float64
}

// ConstantLearningRate returns the same rate on every iteration.
type ConstantLearningRate struct {
	rate float64
}

// NewConstantLearningRate creates a constant schedule; rate must be positive.
func NewConstantLearningRate(rate float64) (*ConstantLearningRate, error) {
	if err := checkPositive(ParamLearningRate, rate); err != nil {
		return nil, err
	}
	return &ConstantLearningRate{rate: rate}, nil
}

// Rate implements LearningRate.
func (c *ConstantLearningRate) Rate(_ int) float64 {
	return c.rate
}

// InverseScalingLearningRate decays the rate polynomially:
//
//	rate(t) = initial / (intercept + slope*t)^exponent
type InverseScalingLearningRate struct {
	initial   float64
	intercept float64
	slope     float64
	exponent  float64
}

// NewInverseScalingLearningRate creates an inverse scaling schedule.
//
// initial must be positive; intercept, slope and exponent non-negative, and
// intercept+slope positive so the first denominator is non-zero.
func NewInverseScalingLearningRate(initial, intercept, slope, exponent float64) (*InverseScalingLearningRate, error) {
	if err := checkPositive("initial_learning_rate", initial); err != nil {
		return nil, err
	}
	if err := checkNonNegative("intercept", intercept); err != nil {
		return nil, err
	}
	if err := checkNonNegative("slope", slope); err != nil {
		return nil, err
	}
	if err := checkNonNegative("exponent", exponent); err != nil {
		return nil, err
	}
	if intercept+slope == 0 {
		return nil, invalidArgument("slope", slope, "intercept and slope must not both be zero")
	}
	return &InverseScalingLearningRate{
		initial:   initial,
		intercept: intercept,
		slope:     slope,
		exponent:  exponent,
	}, nil
}

// Rate implements LearningRate.
func (s *InverseScalingLearningRate) Rate(iteration int) float64 {
	t := float64(max(iteration, 1))
	return s.initial / math.Pow(s.intercept+s.slope*t, s.exponent)
}
