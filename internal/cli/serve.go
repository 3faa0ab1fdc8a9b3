package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the interview-prep HTTP API server.

Examples:
  interviewprep serve
  interviewprep serve --config /path/to/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML configuration file")

	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	app, err := newApp(cmd, configPath)
	if err != nil {
		return err
	}

	server := app.Build()

	errChan := make(chan error, 1)
	go func() {
		fmt.Printf("interviewprep listening on %s\n", server.Addr)
		if err := server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-sigChan:
		fmt.Println("\nShutting down...")
	case <-cmd.Context().Done():
		fmt.Println("\nContext cancelled, shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown gracefully: %w", err)
	}
	fmt.Println("Server stopped")
	return nil
}
