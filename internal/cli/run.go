package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/iuv/internal/config"
	"github.com/theirongolddev/iuv/internal/events"
	"github.com/theirongolddev/iuv/internal/filter"
	"github.com/theirongolddev/iuv/internal/loop"
	"github.com/theirongolddev/iuv/internal/output"
	"github.com/theirongolddev/iuv/internal/theme"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script_or_module> [args...]",
		Short: "Run a command now and rerun it whenever files change",
		Long: `Run "uv run <script_or_module> [args...]" once, then again after every
debounced batch of file changes under the watched root.

Flags after the script are passed to it untouched. Use -- to pass flags
that iuv would otherwise read:

  iuv run app.py --port 8000
  iuv run -- -m http.server`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd, args)
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// ComposeCommand prefixes args with the runner, dropping every "--" token.
func ComposeCommand(runner, args []string) []string {
	command := make([]string, 0, len(runner)+len(args))
	command = append(command, runner...)
	for _, arg := range args {
		if arg == "--" {
			continue
		}
		command = append(command, arg)
	}
	return command
}

func stripDashes(args []string) []string {
	return ComposeCommand(nil, args)
}

func (a *app) runWatch(cmd *cobra.Command, args []string) error {
	args = stripDashes(args)
	if len(args) == 0 {
		return &UsageError{Reason: "no script or module given"}
	}

	root, err := a.watchRoot()
	if err != nil {
		return err
	}

	cfg, err := config.LoadMerged(a.cfgFile, root)
	if err != nil {
		return output.NewCLIError("could not load configuration").
			WithCause(err.Error()).
			WithHint("check " + configPathFor(a.cfgFile) + " and any .iuv.yaml in " + root)
	}

	debounceMs := cfg.DebounceMs
	if cmd.Flags().Changed("debounce") {
		debounceMs = a.debounceMs
	}

	command := ComposeCommand(cfg.Runner, args)
	wc, err := config.NewWatchConfig(command, msToDuration(debounceMs), root)
	if err != nil {
		return output.NewCLIError("invalid watch settings").WithCause(err.Error())
	}

	patterns, err := filter.NewPatterns(append(append([]string(nil), cfg.Patterns...), a.patterns...))
	if err != nil {
		return output.NewCLIError("invalid include pattern").
			WithCause(err.Error()).
			WithHint("patterns use doublestar syntax, e.g. '**/*.py'")
	}

	pollEvery, err := cfg.PollEvery()
	if err != nil {
		return err
	}

	eventsPath := cfg.EventsLog
	if a.eventsLog != "" {
		eventsPath = a.eventsLog
	}
	eventLog, err := events.NewLogger(eventsPath)
	if err != nil {
		return output.NewCLIError("could not open events log").WithCause(err.Error())
	}
	defer eventLog.Close()

	themeName := cfg.Theme
	if a.noColor {
		themeName = "plain"
	}

	opts := []loop.Option{
		loop.WithPrinter(output.NewPrinter(a.stdout, a.stderr, theme.FromName(themeName))),
		loop.WithIgnoreSet(filter.DefaultIgnoreSet()),
		loop.WithPatterns(patterns),
		loop.WithClearScreen(a.clear || cfg.ClearScreen),
		loop.WithPolling(a.poll || cfg.Poll, pollEvery),
		loop.WithEventLog(eventLog),
		loop.WithLogger(a.logger),
	}
	if a.runner != nil {
		opts = append(opts, loop.WithRunner(a.runner))
	}
	if a.subscriber != nil {
		opts = append(opts, loop.WithSubscriber(a.subscriber))
	}

	l, err := loop.New(wc, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := a.signalContext()
	defer cancel()
	return l.Run(ctx)
}

func (a *app) watchRoot() (string, error) {
	root := a.root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", root, err)
	}
	return abs, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func (a *app) signalContext() (context.Context, context.CancelFunc) {
	if a.ctx != nil {
		return context.WithCancel(a.ctx)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Handle Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func configPathFor(flag string) string {
	if flag != "" {
		return flag
	}
	return config.DefaultPath()
}
