// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides first-order parameter updaters for gradient-based
// training.
//
// # Overview
//
// This package contains:
//   - Rule: per-scalar update rules (RMSProp, AdaGrad, AdaDelta, Adam, GradientDescent)
//   - Correction: adjustments applied to the whole descent vector
//     (StandardMomentum, NesterovMomentum, ValueClip, NormClip, Chain)
//   - Updater: the driver that applies a rule and correction to a parameter vector in place
//   - LearningRate schedules, parameter groups and state files
//
// # Basic Usage
//
//	import "github.com/born-ml/descent/optim"
//
//	func train(params []float64, gradient func([]float64) []float64) error {
//	    rule, err := optim.NewRMSProp(0.01, 1e-6, 0.9)
//	    if err != nil {
//	        return err
//	    }
//	    updater, err := optim.NewUpdater(rule)
//	    if err != nil {
//	        return err
//	    }
//
//	    for iter := 1; iter <= 1000; iter++ {
//	        if err := updater.UpdateVariable(params, gradient(params), 0); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	}
//
// # Rules
//
// RMSProp keeps a moving average of squared gradients and uses its own
// learning rate; the rate passed to UpdateVariable is ignored:
//
//	rule, _ := optim.NewRMSProp(1.0, 1e-6, 0.9)
//
// GradientDescent uses the rate passed on each call, so it pairs with a
// schedule:
//
//	schedule, _ := optim.NewInverseScalingLearningRate(0.1, 1, 1, 0.5)
//	updater, _ := optim.NewUpdater(optim.NewGradientDescent())
//	_ = updater.UpdateVariable(params, grad, schedule.Rate(iter))
//
// # Corrections
//
// Corrections are composed into the Updater rather than built into rules:
//
//	momentum, _ := optim.NewNesterovMomentum(0.9)
//	clip, _ := optim.NewNormClip(5)
//	updater, _ := optim.NewUpdater(rule, optim.WithCorrection(optim.NewChain(momentum, clip)))
//
// # State Files
//
// Hyperparameters and adaptive state can be saved and restored so that a
// resumed run continues exactly where it stopped:
//
//	if err := optim.SaveState("state.safetensors", updater, nil); err != nil {
//	    return err
//	}
//	resumed, _ := optim.NewUpdater(sameRule, optim.WithCorrection(sameCorrection))
//	if err := optim.LoadState("state.safetensors", resumed); err != nil {
//	    return err
//	}
package optim
