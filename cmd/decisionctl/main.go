// Package main implements decisionctl, the offline tool for training and
// inspecting the decision model.
package main

import (
	"errors"
	"fmt"
	"os"

	"decision-service/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// configPath is the optional YAML config shared with the server
	configPath string
	// verbose enables debug logging
	verbose bool
)

// exitError carries a specific process exit status out of a command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "decisionctl",
	Short: "Train and inspect the option A vs option B decision model",
	Long: `decisionctl trains the decision classifier from a labeled dataset and
runs the decision pipeline and section parser locally, without the server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yml", "path to the YAML config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(decideCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(exportCmd)
}

// loadConfig reads configPath, falling back to defaults when it does not exist
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return config.LoadConfig(configPath)
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}
