package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/born-ml/descent/internal/config"
	"github.com/born-ml/descent/internal/minimize"
	"github.com/born-ml/descent/internal/optim"
)

func minimizeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minimize",
		Short: "Minimize a built-in objective",
		Long: `Minimize a built-in objective with the configured rule, corrections
and learning rate schedule.

Every flag may also be set in the --config file or through a DESCENT_
environment variable, e.g. DESCENT_RULE_KIND=adam.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			return runMinimize(cmd, cfg)
		},
	}

	d := config.Default()
	f := cmd.Flags()
	f.String("rule", string(d.Rule.Kind), "Update rule (rmsprop, gradient_descent, adagrad, adadelta, adam)")
	f.Float64("learning-rate", d.Rule.LearningRate, "Built-in learning rate of adaptive rules")
	f.Float64("epsilon", d.Rule.Epsilon, "Numerical stability term")
	f.Float64("decay", d.Rule.Decay, "Moving average decay factor")
	f.Float64("momentum", d.Correction.Momentum, "Momentum weight; 0 disables momentum")
	f.Bool("nesterov", d.Correction.Nesterov, "Use Nesterov momentum")
	f.Float64("clip-value", d.Correction.ClipValue, "Clamp each step element to this magnitude; 0 disables")
	f.Float64("clip-norm", d.Correction.ClipNorm, "Rescale steps to at most this L2 norm; 0 disables")
	f.String("schedule", d.Schedule.Kind, "Learning rate schedule (constant, inverse_scaling)")
	f.Float64("rate", d.Schedule.Rate, "Initial rate passed to the rule on each update")
	f.String("objective", d.Minimize.Objective, "Objective (quadratic, rosenbrock)")
	f.Int("dimensions", d.Minimize.Dimensions, "Number of parameters")
	f.Float64("start", d.Minimize.Start, "Initial value of every parameter")
	f.Int("passes", d.Minimize.Passes, "Maximum number of updates")
	f.Float64("tolerance", d.Minimize.Tolerance, "Stop when the gradient norm falls to this value")
	f.Int("log-every", d.Minimize.LogEvery, "Log progress every N updates; 0 disables")
	f.String("save-state", d.Minimize.SaveState, "Write the updater state to this file when done")
	f.String("load-state", d.Minimize.LoadState, "Restore the updater state from this file before starting")

	for key, flag := range map[string]string{
		"rule.kind":            "rule",
		"rule.learningRate":    "learning-rate",
		"rule.epsilon":         "epsilon",
		"rule.decay":           "decay",
		"correction.momentum":  "momentum",
		"correction.nesterov":  "nesterov",
		"correction.clipValue": "clip-value",
		"correction.clipNorm":  "clip-norm",
		"schedule.kind":        "schedule",
		"schedule.rate":        "rate",
		"minimize.objective":   "objective",
		"minimize.dimensions":  "dimensions",
		"minimize.start":       "start",
		"minimize.passes":      "passes",
		"minimize.tolerance":   "tolerance",
		"minimize.logEvery":    "log-every",
		"minimize.saveState":   "save-state",
		"minimize.loadState":   "load-state",
	} {
		mustBind(v, key, f.Lookup(flag))
	}
	return cmd
}

func runMinimize(cmd *cobra.Command, cfg config.Config) error {
	cost, err := newCost(cfg.Minimize)
	if err != nil {
		return err
	}
	logger := log.StandardLogger()
	updater, err := cfg.NewUpdater(logger)
	if err != nil {
		return err
	}
	schedule, err := cfg.Schedule.NewSchedule()
	if err != nil {
		return err
	}
	if path := cfg.Minimize.LoadState; path != "" {
		if err := optim.LoadState(path, updater); err != nil {
			return err
		}
		log.WithField("path", path).Info("restored updater state")
	}

	x := make([]float64, cfg.Minimize.Dimensions)
	for i := range x {
		x[i] = cfg.Minimize.Start
	}

	m := &minimize.Minimizer{
		Cost:      cost,
		Updater:   updater,
		Schedule:  schedule,
		Passes:    cfg.Minimize.Passes,
		Tolerance: cfg.Minimize.Tolerance,
		LogEvery:  cfg.Minimize.LogEvery,
		Log:       logger,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	res, err := m.Minimize(ctx, x)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "objective:     %s\n", cfg.Minimize.Objective)
	fmt.Fprintf(out, "rule:          %s\n", updater.Rule().Name())
	fmt.Fprintf(out, "iterations:    %d\n", res.Iterations)
	fmt.Fprintf(out, "converged:     %t\n", res.Converged)
	fmt.Fprintf(out, "value:         %g\n", res.Value)
	fmt.Fprintf(out, "gradient norm: %g\n", res.GradientNorm)
	fmt.Fprintf(out, "parameters:    %v\n", x)

	if path := cfg.Minimize.SaveState; path != "" {
		meta := map[string]string{
			"objective":  cfg.Minimize.Objective,
			"iterations": strconv.Itoa(res.Iterations),
		}
		if err := optim.SaveState(path, updater, meta); err != nil {
			return err
		}
		log.WithField("path", path).Info("saved updater state")
	}
	return nil
}

func newCost(cfg config.MinimizeConfig) (minimize.Cost, error) {
	switch cfg.Objective {
	case "quadratic":
		center := make([]float64, cfg.Dimensions)
		for i := range center {
			center[i] = 1
		}
		return minimize.NewQuadratic(center, nil)
	case "rosenbrock":
		return minimize.NewRosenbrock(cfg.Dimensions)
	}
	return nil, errors.Errorf("unknown objective %q", cfg.Objective)
}
