package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/config"
)

const app = "ats"

var (
	// Used for flags.
	cfgFile  string
	logLevel string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "ats ranks CVs against a job description by semantic similarity",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// A missing .env is fine: the environment may already be set.
			_ = godotenv.Load()
			return nil
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute() //nolint:wrapcheck // cobra already printed it
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"a config file (default is config/<ENV>.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override the log level: debug, info, warn, error")
}

// loadConfig reads --config when given, otherwise config/<ENV>.yaml.
func loadConfig(env string) (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.LoadFile(cfgFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("load %s: %w", cfgFile, err)
		}
		return cfg, nil
	}
	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, fmt.Errorf("load %s config: %w", env, err)
	}
	return cfg, nil
}
