// Command sentinel generates a continuous stream of synthetic card
// transactions with occasional injected fraud patterns.
//
// Usage:
//
//	sentinel serve    [--config file] [--addr :8080] [--interval 500ms] [--seed N]
//	sentinel generate [--config file] [--count 1000] [--out -] [--seed N]
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sentinel",
		Short:        "Synthetic transaction generator with fraud injection",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path (YAML)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newGenerateCmd())
	return root
}

// newLogger builds the process logger: text by default, JSON when asked.
func newLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}
