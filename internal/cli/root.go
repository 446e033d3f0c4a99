// Package cli wires configuration, the reference model and the trainer into
// the trainloop command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Execute runs the command tree with os.Args and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// NewRootCmd constructs the command tree writing to stdout and stderr.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "trainloop",
		Short:         "Checkpoint-resumable training loop with patience based early stopping",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults TRAINLOOP_LOG_LEVEL, config, or info)")

	logger := func(cfgLevel string) zerolog.Logger {
		lvl := logLevel
		if lvl == "" {
			lvl = os.Getenv("TRAINLOOP_LOG_LEVEL")
		}
		if lvl == "" {
			lvl = cfgLevel
		}
		return newLogger(stderr, lvl)
	}

	root.AddCommand(newTrainCmd(stdout, stderr, logger))
	root.AddCommand(newStatsCmd(stdout))
	root.AddCommand(newListCmd(stdout))
	root.AddCommand(newRunsCmd(stdout, logger))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(stdout, Version)
			return err
		},
	})
	return root
}

// newLogger returns a console logger at level (info when unknown).
func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(lvl).
		With().Timestamp().Logger()
}
