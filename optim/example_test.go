// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim_test

import (
	"fmt"

	"github.com/born-ml/descent/optim"
)

func ExampleNewRMSProp() {
	rule, err := optim.NewRMSProp(1.0, 1e-6, 0.9)
	if err != nil {
		panic(err)
	}
	updater, err := optim.NewUpdater(rule)
	if err != nil {
		panic(err)
	}

	params := []float64{2.0}
	if err := updater.UpdateVariable(params, []float64{0.1}, 1.0); err != nil {
		panic(err)
	}
	fmt.Printf("state=%.4f param=%.4f\n", rule.MeanSquare()[0], params[0])
	// Output: state=0.0010 param=-1.1607
}

func ExampleNewNesterovMomentum() {
	momentum, _ := optim.NewNesterovMomentum(0.5)
	updater, _ := optim.NewUpdater(optim.NewGradientDescent(), optim.WithCorrection(momentum))

	params := []float64{0}
	for i := 0; i < 3; i++ {
		_ = updater.UpdateVariable(params, []float64{1}, 2)
		fmt.Println(params[0])
	}
	// Output:
	// -3
	// -6.5
	// -10.25
}

func ExampleUpdater_UpdateVariable_errors() {
	updater, _ := optim.NewUpdater(optim.NewGradientDescent())
	err := updater.UpdateVariable([]float64{1, 2, 3}, []float64{1, 2, 3, 4}, 0.1)
	fmt.Println(err)
	// Output: length of gradient (4) does not match length of parameters (3)
}
