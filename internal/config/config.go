// Package config loads and validates the descent command line configuration.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// DESCENT_RULE_LEARNINGRATE.
const EnvPrefix = "DESCENT"

// Config is the full configuration of a descent run.
type Config struct {
	LogLevel   string           `mapstructure:"logLevel" validate:"oneof=trace debug info warn warning error"`
	Rule       RuleConfig       `mapstructure:"rule"`
	Correction CorrectionConfig `mapstructure:"correction"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Minimize   MinimizeConfig   `mapstructure:"minimize"`
}

// RuleConfig selects and parameterizes the update rule. Fields that do not
// apply to the chosen kind are ignored.
type RuleConfig struct {
	Kind         RuleKind `mapstructure:"kind" validate:"required"`
	LearningRate float64  `mapstructure:"learningRate" validate:"gt=0"`
	Epsilon      float64  `mapstructure:"epsilon" validate:"gte=0"`
	Decay        float64  `mapstructure:"decay" validate:"gte=0,lt=1"`
	Beta1        float64  `mapstructure:"beta1" validate:"gte=0,lt=1"`
	Beta2        float64  `mapstructure:"beta2" validate:"gte=0,lt=1"`
}

// CorrectionConfig describes the corrections applied after the rule, in the
// order momentum, value clip, norm clip. Zero values disable each stage.
type CorrectionConfig struct {
	Momentum  float64 `mapstructure:"momentum" validate:"gte=0,lt=1"`
	Nesterov  bool    `mapstructure:"nesterov"`
	ClipValue float64 `mapstructure:"clipValue" validate:"gte=0"`
	ClipNorm  float64 `mapstructure:"clipNorm" validate:"gte=0"`
}

// ScheduleConfig selects the learning rate schedule passed to each update.
type ScheduleConfig struct {
	Kind      string  `mapstructure:"kind" validate:"oneof=constant inverse_scaling"`
	Rate      float64 `mapstructure:"rate" validate:"gt=0"`
	Intercept float64 `mapstructure:"intercept" validate:"gte=0"`
	Slope     float64 `mapstructure:"slope" validate:"gte=0"`
	Exponent  float64 `mapstructure:"exponent" validate:"gte=0"`
}

// MinimizeConfig controls the minimize command.
type MinimizeConfig struct {
	Objective  string  `mapstructure:"objective" validate:"oneof=quadratic rosenbrock"`
	Dimensions int     `mapstructure:"dimensions" validate:"gte=1"`
	Start      float64 `mapstructure:"start"`
	Passes     int     `mapstructure:"passes" validate:"gte=1"`
	Tolerance  float64 `mapstructure:"tolerance" validate:"gte=0"`
	LogEvery   int     `mapstructure:"logEvery" validate:"gte=0"`
	SaveState  string  `mapstructure:"saveState"`
	LoadState  string  `mapstructure:"loadState"`
}

// SetDefaults registers the default value of every key on v. Keys must be
// known to viper for environment overrides to apply on Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")

	v.SetDefault("rule.kind", string(RuleRMSProp))
	v.SetDefault("rule.learningRate", 0.01)
	v.SetDefault("rule.epsilon", 1e-6)
	v.SetDefault("rule.decay", 0.9)
	v.SetDefault("rule.beta1", 0.9)
	v.SetDefault("rule.beta2", 0.999)

	v.SetDefault("correction.momentum", 0.0)
	v.SetDefault("correction.nesterov", false)
	v.SetDefault("correction.clipValue", 0.0)
	v.SetDefault("correction.clipNorm", 0.0)

	v.SetDefault("schedule.kind", "constant")
	v.SetDefault("schedule.rate", 0.01)
	v.SetDefault("schedule.intercept", 1.0)
	v.SetDefault("schedule.slope", 1.0)
	v.SetDefault("schedule.exponent", 0.5)

	v.SetDefault("minimize.objective", "quadratic")
	v.SetDefault("minimize.dimensions", 2)
	v.SetDefault("minimize.start", -1.0)
	v.SetDefault("minimize.passes", 1000)
	v.SetDefault("minimize.tolerance", 1e-6)
	v.SetDefault("minimize.logEvery", 100)
	v.SetDefault("minimize.saveState", "")
	v.SetDefault("minimize.loadState", "")
}

// Load reads the configuration from defaults, the optional file at path,
// DESCENT_ environment variables and any flags already bound on v, in
// increasing order of precedence. The result is validated.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, CustomHooks...); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against its struct tags. The returned error is a
// validator.ValidationErrors when a field is invalid.
func Validate(cfg Config) error {
	return validator.New().Struct(cfg)
}

// CustomHooks are the decode hooks used when unmarshalling a Config.
var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(RuleKindHookFunc()),
}

// Default returns the built-in defaults, ignoring files and environment.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg, CustomHooks...); err != nil {
		panic(errors.Wrap(err, "decode default config"))
	}
	return cfg
}
