// Package cmd implements the descent subcommands.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/born-ml/descent/internal/config"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:          "descent",
		Short:        "descent runs and inspects first-order parameter updaters.",
		SilenceUsage: true,
	}

	defaults := config.Default()
	cmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	cmd.PersistentFlags().String("log-level", defaults.LogLevel, "Log level (trace, debug, info, warn, error)")
	mustBind(v, "logLevel", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(
		minimizeCmd(v),
		inspectCmd(),
		versionCmd(),
	)
	return cmd
}

// loadConfig reads the configuration for cmd and configures logging from it.
func loadConfig(cmd *cobra.Command, v *viper.Viper) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(v, path)
	if err != nil {
		config.LogValidationErrors(err)
		return config.Config{}, err
	}
	if err := config.ConfigureLogging(cmd.ErrOrStderr(), cfg.LogLevel); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
