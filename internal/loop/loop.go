// Package loop runs a command once, then again every time the watched tree
// changes, until its context is cancelled.
package loop

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/iuv/internal/config"
	"github.com/theirongolddev/iuv/internal/events"
	"github.com/theirongolddev/iuv/internal/filter"
	"github.com/theirongolddev/iuv/internal/output"
	"github.com/theirongolddev/iuv/internal/runner"
	"github.com/theirongolddev/iuv/internal/theme"
	"github.com/theirongolddev/iuv/internal/watcher"
)

// ErrEmptyCommand is returned by New when the config carries no command.
var ErrEmptyCommand = config.ErrEmptyCommand

// Runner executes one command to completion.
type Runner interface {
	Run(ctx context.Context, command []string) (runner.Result, error)
}

// Source yields debounced change batches.
type Source interface {
	Next(ctx context.Context) (watcher.Batch, error)
	Close() error
}

// Subscriber opens a Source for root.
type Subscriber func(root string, opts ...watcher.Option) (Source, error)

// WatcherSubscriber subscribes with the fsnotify-backed watcher.
func WatcherSubscriber(root string, opts ...watcher.Option) (Source, error) {
	return watcher.Subscribe(root, opts...)
}

// Loop is one watch session.
type Loop struct {
	cfg config.WatchConfig

	printer   *output.Printer
	runner    Runner
	subscribe Subscriber
	ignore    filter.IgnoreSet
	patterns  filter.Patterns
	clear     bool
	poll      bool
	pollEvery time.Duration
	eventLog  *events.Logger
	logger    *slog.Logger
	lifecycle *lifecycle
	runs      int
}

// Option configures a Loop.
type Option func(*Loop)

// WithPrinter sets where status lines go.
func WithPrinter(p *output.Printer) Option {
	return func(l *Loop) { l.printer = p }
}

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(l *Loop) { l.runner = r }
}

// WithSubscriber replaces the change source.
func WithSubscriber(s Subscriber) Option {
	return func(l *Loop) { l.subscribe = s }
}

// WithIgnoreSet sets the ignored directory names.
func WithIgnoreSet(set filter.IgnoreSet) Option {
	return func(l *Loop) { l.ignore = set }
}

// WithPatterns restricts reruns to changes matching p.
func WithPatterns(p filter.Patterns) Option {
	return func(l *Loop) { l.patterns = p }
}

// WithClearScreen clears the terminal before each rerun.
func WithClearScreen(on bool) Option {
	return func(l *Loop) { l.clear = on }
}

// WithPolling forces the polling watcher, scanning every interval.
func WithPolling(on bool, interval time.Duration) Option {
	return func(l *Loop) {
		l.poll = on
		l.pollEvery = interval
	}
}

// WithEventLog records runs to el.
func WithEventLog(el *events.Logger) Option {
	return func(l *Loop) { l.eventLog = el }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New validates cfg and builds a Loop.
func New(cfg config.WatchConfig, opts ...Option) (*Loop, error) {
	if !cfg.Valid() {
		return nil, ErrEmptyCommand
	}

	lc, err := newLifecycle()
	if err != nil {
		return nil, err
	}

	l := &Loop{
		cfg:       cfg,
		subscribe: WatcherSubscriber,
		ignore:    filter.DefaultIgnoreSet(),
		logger:    slog.Default(),
		lifecycle: lc,
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.printer == nil {
		l.printer = output.NewPrinter(os.Stdout, os.Stderr, theme.FromName("auto"))
	}
	if l.runner == nil {
		l.runner = runner.New(runner.WithDir(cfg.Root()), runner.WithLogger(l.logger))
	}
	return l, nil
}

// State returns the current lifecycle state.
func (l *Loop) State() string {
	return l.lifecycle.current()
}

// Runs returns how many times the command has been started.
func (l *Loop) Runs() int {
	return l.runs
}

// Run prints the banner, runs the command once, then reruns it after every
// batch of relevant changes. It returns nil when ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	root := l.cfg.Root()
	l.printer.Banner(root, l.cfg.CommandLine())
	l.record(events.EventWatchStart, "", events.WatchStartData{
		Root:       root,
		Command:    l.cfg.CommandLine(),
		DebounceMs: l.cfg.Debounce().Milliseconds(),
	})

	if l.execute(ctx, "startup", 0) || ctx.Err() != nil {
		return l.stop()
	}

	src, err := l.subscribe(root, l.watcherOptions()...)
	if err != nil {
		l.lifecycle.send(eventStop)
		return fmt.Errorf("watching %s: %w", root, err)
	}
	defer src.Close()

	for {
		batch, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return l.stop()
			}
			l.lifecycle.send(eventStop)
			return fmt.Errorf("waiting for changes: %w", err)
		}

		batch = l.patterns.Apply(filter.Filter(l.dropEventLog(batch), l.ignore), root)
		if len(batch) == 0 {
			l.logger.Debug("batch fully filtered")
			continue
		}

		if l.clear {
			l.printer.Clear()
		}
		l.printer.Rerun(len(batch))
		if l.execute(ctx, "change", len(batch)) {
			return l.stop()
		}
	}
}

// execute runs the command once and reports whether ctx ended during the run.
func (l *Loop) execute(ctx context.Context, trigger string, changes int) bool {
	l.lifecycle.send(eventRun)
	l.runs++
	runID := events.NewRunID()

	res, err := l.runner.Run(ctx, l.cfg.Command())
	if err != nil {
		l.logger.Debug("run interrupted", "error", err)
		return true
	}
	l.lifecycle.send(eventFinish)

	switch res.Status {
	case runner.SpawnFailed:
		msg := ""
		if res.Err != nil {
			msg = res.Err.Error()
		}
		l.record(events.EventSpawnError, runID, events.SpawnErrorData{Message: msg})
	default:
		if !res.Success() {
			l.logger.Debug("command exited", "code", res.ExitCode)
		}
		l.record(events.EventRun, runID, events.RunData{
			Trigger:    trigger,
			Changes:    changes,
			ExitCode:   res.ExitCode,
			DurationMs: res.Duration.Milliseconds(),
		})
	}
	return false
}

func (l *Loop) stop() error {
	l.lifecycle.send(eventStop)
	l.record(events.EventWatchStop, "", events.StopData{Runs: l.runs})
	l.printer.Stopped()
	return nil
}

func (l *Loop) record(t events.EventType, runID string, data interface{}) {
	if err := l.eventLog.LogEvent(t, runID, data); err != nil {
		l.logger.Warn("event log write failed", "error", err)
	}
}

// dropEventLog removes writes to our own event log, which may live under
// the watched root and would otherwise trigger a rerun after every run.
func (l *Loop) dropEventLog(batch watcher.Batch) watcher.Batch {
	logPath := l.eventLog.Path()
	if logPath == "" {
		return batch
	}
	out := batch[:0:0]
	for _, e := range batch {
		if filepath.Clean(e.Path) == logPath {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (l *Loop) watcherOptions() []watcher.Option {
	ignore := l.ignore
	logPath := l.eventLog.Path()
	opts := []watcher.Option{
		watcher.WithDebounce(l.cfg.Debounce()),
		watcher.WithIgnore(func(path string) bool {
			return (logPath != "" && filepath.Clean(path) == logPath) || filter.Ignored(path, ignore)
		}),
		watcher.WithErrorHandler(func(err error) {
			l.logger.Warn("watcher error", "error", err)
		}),
	}
	if l.poll {
		opts = append(opts, watcher.WithPolling(true), watcher.WithPollInterval(l.pollEvery))
	}
	return opts
}
