package config

import (
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/born-ml/descent/internal/optim"
)

// RuleKind names an update rule.
type RuleKind string

// Supported rules.
const (
	RuleRMSProp         RuleKind = "rmsprop"
	RuleGradientDescent RuleKind = "gradient_descent"
	RuleAdaGrad         RuleKind = "adagrad"
	RuleAdaDelta        RuleKind = "adadelta"
	RuleAdam            RuleKind = "adam"
)

var ruleAliases = map[string]RuleKind{
	"rmsprop":          RuleRMSProp,
	"gradient_descent": RuleGradientDescent,
	"sgd":              RuleGradientDescent,
	"adagrad":          RuleAdaGrad,
	"adadelta":         RuleAdaDelta,
	"adam":             RuleAdam,
}

// ParseRuleKind parses a rule name, ignoring case and surrounding space.
// "sgd" is accepted for gradient_descent.
func ParseRuleKind(s string) (RuleKind, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if k, ok := ruleAliases[key]; ok {
		return k, nil
	}
	return "", errors.Errorf("unknown rule %q", s)
}

// RuleKindHookFunc decodes strings into RuleKind values.
func RuleKindHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(RuleKind("")) {
			return data, nil
		}
		return ParseRuleKind(data.(string))
	}
}

// NewRule builds the configured rule.
func (c RuleConfig) NewRule() (optim.Rule, error) {
	switch c.Kind {
	case RuleRMSProp:
		return optim.NewRMSProp(c.LearningRate, c.Epsilon, c.Decay)
	case RuleGradientDescent:
		return optim.NewGradientDescent(), nil
	case RuleAdaGrad:
		return optim.NewAdaGrad(c.LearningRate, c.Epsilon)
	case RuleAdaDelta:
		return optim.NewAdaDelta(c.LearningRate, c.Epsilon, c.Decay)
	case RuleAdam:
		return optim.NewAdam(optim.AdamConfig{
			LR:      c.LearningRate,
			Epsilon: c.Epsilon,
			Beta1:   c.Beta1,
			Beta2:   c.Beta2,
		})
	}
	return nil, errors.Errorf("unknown rule %q", c.Kind)
}

// NewCorrection builds the configured corrections. It returns nil when every
// stage is disabled and the correction itself when only one is enabled.
func (c CorrectionConfig) NewCorrection() (optim.Correction, error) {
	var stages []optim.Correction
	if c.Momentum > 0 {
		var m optim.Correction
		var err error
		if c.Nesterov {
			m, err = optim.NewNesterovMomentum(c.Momentum)
		} else {
			m, err = optim.NewStandardMomentum(c.Momentum)
		}
		if err != nil {
			return nil, err
		}
		stages = append(stages, m)
	}
	if c.ClipValue > 0 {
		clip, err := optim.NewValueClip(c.ClipValue)
		if err != nil {
			return nil, err
		}
		stages = append(stages, clip)
	}
	if c.ClipNorm > 0 {
		clip, err := optim.NewNormClip(c.ClipNorm)
		if err != nil {
			return nil, err
		}
		stages = append(stages, clip)
	}

	switch len(stages) {
	case 0:
		return nil, nil
	case 1:
		return stages[0], nil
	}
	return optim.NewChain(stages...), nil
}

// NewSchedule builds the configured learning rate schedule.
func (c ScheduleConfig) NewSchedule() (optim.LearningRate, error) {
	switch c.Kind {
	case "constant":
		return optim.NewConstantLearningRate(c.Rate)
	case "inverse_scaling":
		return optim.NewInverseScalingLearningRate(c.Rate, c.Intercept, c.Slope, c.Exponent)
	}
	return nil, errors.Errorf("unknown schedule %q", c.Kind)
}

// NewUpdater builds an updater from the rule and correction sections.
func (c Config) NewUpdater(log logrus.FieldLogger) (*optim.Updater, error) {
	rule, err := c.Rule.NewRule()
	if err != nil {
		return nil, err
	}
	correction, err := c.Correction.NewCorrection()
	if err != nil {
		return nil, err
	}
	opts := []optim.UpdaterOption{optim.WithLogger(log)}
	if correction != nil {
		opts = append(opts, optim.WithCorrection(correction))
	}
	return optim.NewUpdater(rule, opts...)
}
