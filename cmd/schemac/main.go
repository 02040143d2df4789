// Package main contains the cli implementation of the tool. It uses cobra
// package for cli tool implementation.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"schemac/internal/output"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	dialect string
	version string
	format  string
	output  string
	verbose bool

	log *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{log: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:           "schemac",
		Short:         "Database-agnostic DDL compiler",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(opts.verbose)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			opts.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.log.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.dialect, "dialect", "d", "", "Target dialect (overrides [database].dialect)")
	flags.StringVar(&opts.version, "version", "", "Target server version (overrides [database].version)")
	flags.StringVarP(&opts.format, "format", "f", "sql", "Output format: sql, json or summary")
	flags.StringVarP(&opts.output, "output", "o", "", "Output file (default stdout)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(createCmd(opts))
	rootCmd.AddCommand(alterCmd(opts))
	rootCmd.AddCommand(diffCmd(opts))
	rootCmd.AddCommand(applyCmd(opts))
	rootCmd.AddCommand(dialectsCmd(opts))
	return rootCmd
}

// newLogger builds a production logger that only reports warnings, or a
// development logger with debug output when verbose is set.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// printInfo writes a status line. JSON output keeps stdout machine readable,
// so status goes to stderr there.
func printInfo(cmd *cobra.Command, format, msg string) {
	var w io.Writer = cmd.OutOrStdout()
	if strings.EqualFold(strings.TrimSpace(format), string(output.FormatJSON)) {
		w = cmd.ErrOrStderr()
	}
	_, _ = fmt.Fprintln(w, msg)
}
