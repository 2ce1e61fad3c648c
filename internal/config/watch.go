package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrEmptyCommand is returned when no command was given.
	ErrEmptyCommand = errors.New("no command given")
	// ErrInvalidDebounce is returned for a non-positive debounce window.
	ErrInvalidDebounce = errors.New("debounce must be positive")
	// ErrRelativeRoot is returned when the watched root is not absolute.
	ErrRelativeRoot = errors.New("root must be an absolute path")
)

// WatchConfig is the validated, read-only description of one watch session.
type WatchConfig struct {
	command  []string
	debounce time.Duration
	root     string
}

// NewWatchConfig validates its inputs and returns a WatchConfig.
// root must be an absolute path to an existing directory.
func NewWatchConfig(command []string, debounce time.Duration, root string) (WatchConfig, error) {
	if len(command) == 0 || command[0] == "" {
		return WatchConfig{}, ErrEmptyCommand
	}
	if debounce <= 0 {
		return WatchConfig{}, fmt.Errorf("%w: %v", ErrInvalidDebounce, debounce)
	}
	if !filepath.IsAbs(root) {
		return WatchConfig{}, fmt.Errorf("%w: %q", ErrRelativeRoot, root)
	}
	info, err := os.Stat(root)
	if err != nil {
		return WatchConfig{}, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return WatchConfig{}, fmt.Errorf("watch root %s is not a directory", root)
	}

	return WatchConfig{
		command:  append([]string(nil), command...),
		debounce: debounce,
		root:     filepath.Clean(root),
	}, nil
}

// Command returns a copy of the program and its arguments.
func (c WatchConfig) Command() []string {
	return append([]string(nil), c.command...)
}

// CommandLine returns the command joined with spaces, for display.
func (c WatchConfig) CommandLine() string {
	return strings.Join(c.command, " ")
}

// Debounce returns the debounce window.
func (c WatchConfig) Debounce() time.Duration {
	return c.debounce
}

// Root returns the absolute watched directory.
func (c WatchConfig) Root() string {
	return c.root
}

// Valid reports whether c was produced by NewWatchConfig.
func (c WatchConfig) Valid() bool {
	return len(c.command) > 0
}
