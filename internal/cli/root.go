// Package cli implements the iuv command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/iuv/internal/config"
	"github.com/theirongolddev/iuv/internal/loop"
	"github.com/theirongolddev/iuv/internal/output"
)

var (
	// Build information - set via ldflags
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// app holds flag values and the collaborators a command invocation uses.
type app struct {
	stdout io.Writer
	stderr io.Writer

	cfgFile    string
	debounceMs int
	root       string
	patterns   []string
	poll       bool
	clear      bool
	eventsLog  string
	verbose    bool
	noColor    bool

	logger *slog.Logger

	// Overridable in tests.
	ctx        context.Context
	runner     loop.Runner
	subscriber loop.Subscriber
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iuv",
		Short: "Rerun a uv command whenever files change",
		Long: `iuv watches a directory tree and reruns a command every time files change.
Rapid successive changes are debounced into a single rerun.

Quick Start:
  iuv run app.py                  # uv run app.py, rerun on change
  iuv run -d 300 -- -m pkg.server # 300ms debounce, run a module
  iuv run --pattern '**/*.py' app.py

Changes under .git, .venv and __pycache__ never trigger a rerun.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.logger = newLogger(a.stderr, a.verbose)
			slog.SetDefault(a.logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	flags := cmd.PersistentFlags()
	flags.IntVarP(&a.debounceMs, "debounce", "d", config.DefaultDebounceMs, "debounce window in milliseconds")
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is "+config.DefaultPath()+")")
	flags.StringVar(&a.root, "root", "", "directory to watch (default is the current directory)")
	flags.StringArrayVar(&a.patterns, "pattern", nil, "only rerun for paths matching this glob (repeatable)")
	flags.BoolVar(&a.poll, "poll", false, "poll the file tree instead of using filesystem notifications")
	flags.BoolVar(&a.clear, "clear", false, "clear the terminal before each rerun")
	flags.StringVar(&a.eventsLog, "events-log", "", "append a JSONL record of every run to this file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log diagnostics to stderr")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newRunCmd(a),
		newVersionCmd(a),
		newConfigCmd(a),
	)
	return cmd
}

// Execute runs the command line in os.Args and reports failures on stderr.
func Execute() error {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) error {
	return executeApp(newApp(stdout, stderr), args)
}

func executeApp(a *app, args []string) error {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		reportError(a.stderr, err)
		return err
	}
	return nil
}

// reportError prints err the way its kind asks for.
func reportError(w io.Writer, err error) {
	var usage *UsageError
	var cliErr *output.CLIError
	switch {
	case errors.As(err, &usage):
		fmt.Fprintln(w, UsageLine)
	case errors.As(err, &cliErr):
		fmt.Fprint(w, output.FormatCLIError(cliErr))
	default:
		fmt.Fprint(w, output.FormatCLIError(output.NewCLIError(err.Error())))
	}
}

func newVersionCmd(a *app) *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				fmt.Fprintln(a.stdout, Version)
				return nil
			}
			fmt.Fprintf(a.stdout, "iuv version %s\n", Version)
			fmt.Fprintf(a.stdout, "  commit:    %s\n", Commit)
			fmt.Fprintf(a.stdout, "  built:     %s\n", Date)
			fmt.Fprintf(a.stdout, "  go:        %s\n", runtime.Version())
			fmt.Fprintf(a.stdout, "  platform:  %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version number")
	return cmd
}
