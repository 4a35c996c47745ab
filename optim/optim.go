// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/descent/internal/optim"
	"github.com/born-ml/descent/internal/parallel"
)

// Rule computes the negative descent value for a single scalar parameter.
type Rule = optim.Rule

// Correction adjusts the whole descent vector before it is applied.
type Correction = optim.Correction

// Stateful is implemented by rules and corrections that can be persisted.
type Stateful = optim.Stateful

// MomentState is a lazily sized per-parameter accumulator.
type MomentState = optim.MomentState

// Errors

// ErrInvalidArgument reports an out-of-range hyperparameter or argument.
type ErrInvalidArgument = optim.ErrInvalidArgument

// ErrDimensionMismatch reports vectors of different lengths.
type ErrDimensionMismatch = optim.ErrDimensionMismatch

// ErrOutOfRange reports an index outside the adaptive state.
type ErrOutOfRange = optim.ErrOutOfRange

// Rules

// RMSProp scales gradients by a running root mean square.
type RMSProp = optim.RMSProp

// RMSPropConfig holds RMSProp hyperparameters.
type RMSPropConfig = optim.RMSPropConfig

// NewRMSProp creates an RMSProp rule.
//
// Example:
//
//	rule, err := optim.NewRMSProp(1.0, 1e-6, 0.9)
func NewRMSProp(lr, epsilon, decay float64) (*RMSProp, error) {
	return optim.NewRMSProp(lr, epsilon, decay)
}

// DefaultRMSPropConfig returns LR 1.0, Epsilon 1e-6, Decay 0.9.
func DefaultRMSPropConfig() RMSPropConfig {
	return optim.DefaultRMSPropConfig()
}

// GradientDescent is plain gradient descent.
type GradientDescent = optim.GradientDescent

// NewGradientDescent creates a gradient descent rule.
func NewGradientDescent() *GradientDescent {
	return optim.NewGradientDescent()
}

// AdaGrad scales gradients by the root of their accumulated squares.
type AdaGrad = optim.AdaGrad

// NewAdaGrad creates an AdaGrad rule.
func NewAdaGrad(lr, epsilon float64) (*AdaGrad, error) {
	return optim.NewAdaGrad(lr, epsilon)
}

// AdaDelta adapts step sizes from running averages of gradients and updates.
type AdaDelta = optim.AdaDelta

// NewAdaDelta creates an AdaDelta rule.
func NewAdaDelta(lr, epsilon, decay float64) (*AdaDelta, error) {
	return optim.NewAdaDelta(lr, epsilon, decay)
}

// Adam is Adaptive Moment Estimation with bias correction.
type Adam = optim.Adam

// AdamConfig holds Adam hyperparameters.
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam rule.
//
// Example:
//
//	rule, err := optim.NewAdam(optim.DefaultAdamConfig())
func NewAdam(cfg AdamConfig) (*Adam, error) {
	return optim.NewAdam(cfg)
}

// DefaultAdamConfig returns LR 0.001, Epsilon 1e-8, Beta1 0.9, Beta2 0.999.
func DefaultAdamConfig() AdamConfig {
	return optim.DefaultAdamConfig()
}

// Corrections

// StandardMomentum accumulates a velocity of past steps.
type StandardMomentum = optim.StandardMomentum

// NewStandardMomentum creates a momentum correction.
func NewStandardMomentum(weight float64) (*StandardMomentum, error) {
	return optim.NewStandardMomentum(weight)
}

// NesterovMomentum applies Nesterov's accelerated gradient.
type NesterovMomentum = optim.NesterovMomentum

// NewNesterovMomentum creates a Nesterov correction.
func NewNesterovMomentum(weight float64) (*NesterovMomentum, error) {
	return optim.NewNesterovMomentum(weight)
}

// ValueClip clamps each element of the descent vector.
type ValueClip = optim.ValueClip

// NewValueClip creates an elementwise clip.
func NewValueClip(bound float64) (*ValueClip, error) {
	return optim.NewValueClip(bound)
}

// NormClip rescales the descent vector to a maximum L2 norm.
type NormClip = optim.NormClip

// NewNormClip creates a norm clip.
func NewNormClip(bound float64) (*NormClip, error) {
	return optim.NewNormClip(bound)
}

// Chain applies corrections in order.
type Chain = optim.Chain

// NewChain builds a chain, dropping nil entries.
func NewChain(corrections ...Correction) Chain {
	return optim.NewChain(corrections...)
}

// Updater

// Updater drives a rule and correction over a parameter vector.
type Updater = optim.Updater

// UpdaterOption configures an Updater.
type UpdaterOption = optim.UpdaterOption

// NewUpdater creates an updater driving rule.
func NewUpdater(rule Rule, opts ...UpdaterOption) (*Updater, error) {
	return optim.NewUpdater(rule, opts...)
}

// WithCorrection sets the correction applied to each descent vector.
func WithCorrection(c Correction) UpdaterOption {
	return optim.WithCorrection(c)
}

// Schedules

// LearningRate yields the learning rate for an iteration.
type LearningRate = optim.LearningRate

// ConstantLearningRate returns the same rate on every iteration.
type ConstantLearningRate = optim.ConstantLearningRate

// InverseScalingLearningRate decays the rate polynomially.
type InverseScalingLearningRate = optim.InverseScalingLearningRate

// NewConstantLearningRate creates a constant schedule.
func NewConstantLearningRate(rate float64) (*ConstantLearningRate, error) {
	return optim.NewConstantLearningRate(rate)
}

// NewInverseScalingLearningRate creates an inverse scaling schedule.
func NewInverseScalingLearningRate(initial, intercept, slope, exponent float64) (*InverseScalingLearningRate, error) {
	return optim.NewInverseScalingLearningRate(initial, intercept, slope, exponent)
}

// Groups

// Group is a named parameter vector with its own updater.
type Group = optim.Group

// StepGroups updates independent groups concurrently.
func StepGroups(groups []*Group, gradients [][]float64, learningRate float64) error {
	return optim.StepGroups(groups, gradients, learningRate, parallel.CoarseConfig())
}

// State files

// SaveState writes the updater's hyperparameters and adaptive state to path.
func SaveState(path string, u *Updater, metadata map[string]string) error {
	return optim.SaveState(path, u, metadata)
}

// LoadState restores an updater from a file written by SaveState.
func LoadState(path string, u *Updater) error {
	return optim.LoadState(path, u)
}
