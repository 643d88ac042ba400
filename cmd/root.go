package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var configFile string

func Run() error {
	rootCmd := &cobra.Command{
		Use:   "pulsewatch",
		Short: "Endpoints monitoring server",
	}
	var logLevel string
	var logFormat string
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "v", "info", "Logger log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Logger logs format (text, json)")

	// flags are only parsed once a command runs
	logger := func() *slog.Logger {
		return buildLogger(logLevel, logFormat)
	}
	rootCmd.AddCommand(buildServerCmd(logger))
	rootCmd.AddCommand(buildProbeCmd(logger))
	return rootCmd.Execute()
}
