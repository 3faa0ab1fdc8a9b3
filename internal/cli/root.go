// Package cli implements the interviewprep command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/interviewprep-dev/interviewprep/pkg/prep"
	"github.com/interviewprep-dev/interviewprep/pkg/prep/config"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interviewprep",
		Short: "Admissions interview preparation on cached Gemini context",
		Long: `interviewprep analyzes a student record and personal statement,
generates interview questions, strategy reports and model answers, and
runs a mock interview, all against server-side cached document context.

Commands:
  serve  Run the HTTP API server
  chat   Run the workflow interactively in the terminal`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewChatCmd())

	return cmd
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads .env, the YAML config and validates the result.
func loadConfig(path string) (*config.Config, error) {
	// Missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func newApp(cmd *cobra.Command, configPath string) (*prep.App, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return prep.NewFromConfig(cmd.Context(), cfg, newLogger())
}
