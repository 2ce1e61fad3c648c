// Package runner executes the rerun command and reports how it ended.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrEmptyCommand is returned when Run is given no program to execute.
var ErrEmptyCommand = errors.New("runner: empty command")

// DefaultGrace is how long Run waits for a child to exit on its own after
// the context is cancelled.
const DefaultGrace = 2 * time.Second

// Status describes how a run ended.
type Status int

const (
	// Completed means the process started and exited, whatever its code.
	Completed Status = iota + 1
	// SpawnFailed means the process could not be started.
	SpawnFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case SpawnFailed:
		return "spawn_failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one run.
type Result struct {
	// Status tells a started process apart from one that never started.
	Status Status

	// ExitCode is the process exit code. It is -1 when the process was
	// terminated by a signal or never started.
	ExitCode int

	// Err holds the spawn error for SpawnFailed, or a wait error that is
	// not a plain non-zero exit.
	Err error

	// Duration is the wall time from start to exit.
	Duration time.Duration
}

// Success reports whether the process started and exited with code 0.
func (r Result) Success() bool {
	return r.Status == Completed && r.ExitCode == 0
}

// Runner runs commands in the foreground with inherited standard streams.
type Runner struct {
	dir    string
	env    []string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	grace  time.Duration
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithDir sets the working directory of spawned commands.
func WithDir(dir string) Option {
	return func(r *Runner) { r.dir = dir }
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) Option {
	return func(r *Runner) { r.env = append(r.env, env...) }
}

// WithStdio overrides the standard streams. nil leaves a stream unchanged.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		if stdin != nil {
			r.stdin = stdin
		}
		if stdout != nil {
			r.stdout = stdout
		}
		if stderr != nil {
			r.stderr = stderr
		}
	}
}

// WithGrace sets how long to wait for a child after cancellation before
// killing it.
func WithGrace(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.grace = d
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Runner that inherits the current process's stdio.
func New(opts ...Option) *Runner {
	r := &Runner{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		grace:  DefaultGrace,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts command and waits for it to exit.
//
// A non-zero exit is reported in the Result, never as an error. A spawn
// failure is written to the error stream and reported as SpawnFailed. The
// returned error is non-nil only when ctx ends while waiting, in which case
// it is ctx.Err() and the Result describes the child as far as it got.
func (r *Runner) Run(ctx context.Context, command []string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{ExitCode: -1}, err
	}
	if len(command) == 0 || command[0] == "" {
		return r.spawnFailed(ErrEmptyCommand), nil
	}

	// The child shares our process group, so a terminal interrupt reaches
	// it directly; Run only decides how long to wait for it.
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = r.dir
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return r.spawnFailed(err), nil
	}
	r.logger.Debug("command started", "pid", cmd.Process.Pid, "command", strings.Join(command, " "))

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		res := completed(err, time.Since(start))
		r.logger.Debug("command exited", "code", res.ExitCode, "duration", res.Duration)
		return res, nil
	case <-ctx.Done():
	}

	timer := time.NewTimer(r.grace)
	defer timer.Stop()
	select {
	case err := <-done:
		return completed(err, time.Since(start)), ctx.Err()
	case <-timer.C:
		r.logger.Debug("command still running after interrupt, killing", "pid", cmd.Process.Pid, "grace", r.grace)
		_ = cmd.Process.Kill()
		return completed(<-done, time.Since(start)), ctx.Err()
	}
}

func (r *Runner) spawnFailed(err error) Result {
	fmt.Fprintf(r.stderr, "[iuv] error running command: %v\n", err)
	return Result{Status: SpawnFailed, ExitCode: -1, Err: err}
}

func completed(err error, d time.Duration) Result {
	res := Result{Status: Completed, Duration: d}
	if err == nil {
		return res
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res
	}
	res.ExitCode = -1
	res.Err = err
	return res
}
