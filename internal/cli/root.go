package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/samarth126/SmartShelf/internal/backend"
	"github.com/samarth126/SmartShelf/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "smartshelf",
	Short: "Terminal client for the SmartShelf pantry backend",
	Long: `smartshelf talks to the SmartShelf backend from the terminal:
upload receipt photos, chat about your pantry, browse inventory lists
and match a pantry photo against a shopping list.

The backend address is read from SMARTSHELF_BACKEND_URI
(or NEXT_PUBLIC_BACKEND_URI) and can be overridden with --backend.`,
	SilenceUsage: true,
}

var (
	backendURL     string
	backendTimeout time.Duration
	verbose        bool
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "backend base URL (overrides SMARTSHELF_BACKEND_URI)")
	rootCmd.PersistentFlags().DurationVar(&backendTimeout, "timeout", 0, "backend request timeout (overrides BACKEND_TIMEOUT)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log backend traffic to stderr")
}

func newClient() (*backend.Client, error) {
	cfg := config.BackendConfig{BaseURL: backendURL, Timeout: 60 * time.Second}
	if backendURL == "" {
		loaded, err := config.LoadBackend()
		if err != nil {
			return nil, fmt.Errorf("failed to load backend config: %w", err)
		}
		cfg = loaded
	}

	if backendTimeout > 0 {
		cfg.Timeout = backendTimeout
	}

	return backend.NewClient(cfg.BaseURL, cfg.Timeout), nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
