// Package config loads iuv settings from the user config file, the project
// directory and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/iuv/internal/util"
)

// DefaultDebounceMs is the debounce window used when nothing else is configured.
const DefaultDebounceMs = 150

// DefaultPollInterval is the scan interval used in poll mode.
const DefaultPollInterval = "1s"

// Config holds user-tunable settings. Zero values in a config file leave the
// previous layer's value in place.
type Config struct {
	DebounceMs   int      `toml:"debounce_ms" yaml:"debounce_ms"`     // Debounce window in milliseconds
	Runner       []string `toml:"runner" yaml:"runner"`               // Prefix prepended to the forwarded command
	Patterns     []string `toml:"patterns" yaml:"patterns"`           // Include globs; empty means every file
	Poll         bool     `toml:"poll" yaml:"poll"`                   // Force polling instead of fsnotify
	PollInterval string   `toml:"poll_interval" yaml:"poll_interval"` // Scan interval in poll mode
	ClearScreen  bool     `toml:"clear_screen" yaml:"clear_screen"`   // Clear the terminal before each rerun
	EventsLog    string   `toml:"events_log" yaml:"events_log"`       // JSONL run log path (empty disables)
	Theme        string   `toml:"theme" yaml:"theme"`                 // auto, mocha, latte, plain
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DebounceMs:   DefaultDebounceMs,
		Runner:       []string{"uv", "run"},
		PollInterval: DefaultPollInterval,
		Theme:        "auto",
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "iuv", "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "iuv", "config.toml")
}

// ProjectFiles lists the project config names, in lookup order.
var ProjectFiles = []string{".iuv.yaml", ".iuv.yml", ".iuv.toml"}

// Load reads the TOML config at path on top of the defaults.
// An empty path means DefaultPath. A missing file is reported as an error
// wrapping fs.ErrNotExist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadMerged layers the user config at path (a missing file is fine), the
// first project file found in projectDir, and environment overrides.
func LoadMerged(path, projectDir string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	if err := decodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if projectDir != "" {
		if projectPath, ok := FindProjectConfig(projectDir); ok {
			if err := decodeFile(projectPath, cfg); err != nil {
				return nil, err
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindProjectConfig returns the first project config file present in dir.
func FindProjectConfig(dir string) (string, bool) {
	for _, name := range ProjectFiles {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// decodeFile decodes path into cfg by extension. Keys absent from the file
// keep their current values.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return nil
}

// applyEnvOverrides applies IUV_* environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("IUV_DEBOUNCE_MS")); v != "" {
		d, err := util.ParseMillis(v)
		if err != nil {
			return fmt.Errorf("IUV_DEBOUNCE_MS: %w", err)
		}
		cfg.DebounceMs = int(d.Milliseconds())
	}
	if v := strings.TrimSpace(os.Getenv("IUV_RUNNER")); v != "" {
		cfg.Runner = strings.Fields(v)
	}
	if v := os.Getenv("IUV_EVENTS_LOG"); v != "" {
		cfg.EventsLog = v
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.DebounceMs <= 0 {
		return fmt.Errorf("debounce_ms must be positive, got %d", c.DebounceMs)
	}
	if _, err := c.PollEvery(); err != nil {
		return err
	}
	return nil
}

// Debounce returns the debounce window as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// PollEvery parses PollInterval. An empty value means DefaultPollInterval;
// a bare number is milliseconds.
func (c *Config) PollEvery() (time.Duration, error) {
	s := c.PollInterval
	if s == "" {
		s = DefaultPollInterval
	}
	d, err := util.ParsePositiveMillis(s)
	if err != nil {
		return 0, fmt.Errorf("poll_interval: %w", err)
	}
	return d, nil
}

// Print writes cfg as TOML.
func Print(cfg *Config, w io.Writer) error {
	fmt.Fprintln(w, "# iuv configuration")
	fmt.Fprintf(w, "# %s\n\n", DefaultPath())
	return toml.NewEncoder(w).Encode(cfg)
}
