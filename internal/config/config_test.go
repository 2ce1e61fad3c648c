package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) failed: %v", path, err)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"IUV_DEBOUNCE_MS", "IUV_RUNNER", "IUV_EVENTS_LOG"} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DebounceMs != 150 {
		t.Errorf("DebounceMs = %d, want 150", cfg.DebounceMs)
	}
	if !reflect.DeepEqual(cfg.Runner, []string{"uv", "run"}) {
		t.Errorf("Runner = %v, want [uv run]", cfg.Runner)
	}
	if cfg.Debounce() != 150*time.Millisecond {
		t.Errorf("Debounce() = %v, want 150ms", cfg.Debounce())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := DefaultPath(); got != filepath.Join("/tmp/xdg", "iuv", "config.toml") {
		t.Errorf("DefaultPath() = %q", got)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
debounce_ms = 400
runner = ["python", "-m"]
patterns = ["**/*.py"]
clear_screen = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.DebounceMs != 400 {
		t.Errorf("DebounceMs = %d, want 400", cfg.DebounceMs)
	}
	if !reflect.DeepEqual(cfg.Runner, []string{"python", "-m"}) {
		t.Errorf("Runner = %v", cfg.Runner)
	}
	if !reflect.DeepEqual(cfg.Patterns, []string{"**/*.py"}) {
		t.Errorf("Patterns = %v", cfg.Patterns)
	}
	if !cfg.ClearScreen {
		t.Error("ClearScreen should be true")
	}
	// Absent keys keep their defaults.
	if cfg.PollInterval != DefaultPollInterval || cfg.Theme != "auto" {
		t.Errorf("defaults lost: poll_interval=%q theme=%q", cfg.PollInterval, cfg.Theme)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load() of a missing file = %v, want fs.ErrNotExist", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "debounce_ms = = 3"},
		{"zero debounce", "debounce_ms = -5"},
		{"bad poll interval", `poll_interval = "soon"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestLoadMergedLayers(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	global := filepath.Join(dir, "config.toml")
	writeFile(t, global, "debounce_ms = 300\ntheme = \"plain\"\n")

	project := t.TempDir()
	writeFile(t, filepath.Join(project, ".iuv.yaml"), "debounce_ms: 75\npatterns:\n  - \"*.py\"\n")

	cfg, err := LoadMerged(global, project)
	if err != nil {
		t.Fatalf("LoadMerged() failed: %v", err)
	}
	if cfg.DebounceMs != 75 {
		t.Errorf("DebounceMs = %d, project file should win", cfg.DebounceMs)
	}
	if cfg.Theme != "plain" {
		t.Errorf("Theme = %q, global value should survive", cfg.Theme)
	}
	if !reflect.DeepEqual(cfg.Patterns, []string{"*.py"}) {
		t.Errorf("Patterns = %v", cfg.Patterns)
	}
}

func TestLoadMergedMissingGlobal(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadMerged(filepath.Join(t.TempDir(), "absent.toml"), t.TempDir())
	if err != nil {
		t.Fatalf("LoadMerged() failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("LoadMerged() = %+v, want defaults", cfg)
	}
}

func TestLoadMergedProjectToml(t *testing.T) {
	clearEnv(t)
	project := t.TempDir()
	writeFile(t, filepath.Join(project, ".iuv.toml"), "runner = []\n")

	cfg, err := LoadMerged(filepath.Join(t.TempDir(), "absent.toml"), project)
	if err != nil {
		t.Fatalf("LoadMerged() failed: %v", err)
	}
	if len(cfg.Runner) != 0 {
		t.Errorf("Runner = %v, want empty", cfg.Runner)
	}
}

func TestLoadMergedBlankRunnerEnvIsUnset(t *testing.T) {
	for _, v := range []string{"", "   "} {
		clearEnv(t)
		t.Setenv("IUV_RUNNER", v)

		cfg, err := LoadMerged(filepath.Join(t.TempDir(), "absent.toml"), "")
		if err != nil {
			t.Fatalf("LoadMerged() failed: %v", err)
		}
		if want := Default().Runner; !reflect.DeepEqual(cfg.Runner, want) {
			t.Errorf("IUV_RUNNER=%q: Runner = %v, want %v", v, cfg.Runner, want)
		}
	}
}

func TestLoadMergedEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("IUV_DEBOUNCE_MS", "900")
	t.Setenv("IUV_RUNNER", "poetry run")
	t.Setenv("IUV_EVENTS_LOG", "/tmp/iuv.jsonl")

	cfg, err := LoadMerged(filepath.Join(t.TempDir(), "absent.toml"), "")
	if err != nil {
		t.Fatalf("LoadMerged() failed: %v", err)
	}
	if cfg.DebounceMs != 900 {
		t.Errorf("DebounceMs = %d, want 900", cfg.DebounceMs)
	}
	if !reflect.DeepEqual(cfg.Runner, []string{"poetry", "run"}) {
		t.Errorf("Runner = %v", cfg.Runner)
	}
	if cfg.EventsLog != "/tmp/iuv.jsonl" {
		t.Errorf("EventsLog = %q", cfg.EventsLog)
	}

	t.Setenv("IUV_DEBOUNCE_MS", "fast")
	if _, err := LoadMerged(filepath.Join(t.TempDir(), "absent.toml"), ""); err == nil {
		t.Error("LoadMerged() should reject a non-numeric IUV_DEBOUNCE_MS")
	}

	t.Setenv("IUV_DEBOUNCE_MS", "400ms")
	cfg, err = LoadMerged(filepath.Join(t.TempDir(), "absent.toml"), "")
	if err != nil || cfg.DebounceMs != 400 {
		t.Errorf("IUV_DEBOUNCE_MS=400ms gave %v, %v; want 400", cfg, err)
	}
}

func TestFindProjectConfigOrder(t *testing.T) {
	dir := t.TempDir()
	if _, ok := FindProjectConfig(dir); ok {
		t.Fatal("FindProjectConfig() found a file in an empty dir")
	}
	writeFile(t, filepath.Join(dir, ".iuv.toml"), "")
	writeFile(t, filepath.Join(dir, ".iuv.yaml"), "")

	got, ok := FindProjectConfig(dir)
	if !ok || filepath.Base(got) != ".iuv.yaml" {
		t.Errorf("FindProjectConfig() = %q, %v; want .iuv.yaml first", got, ok)
	}
}

func TestPollEvery(t *testing.T) {
	cfg := Default()
	cfg.PollInterval = ""
	if d, err := cfg.PollEvery(); err != nil || d != time.Second {
		t.Errorf("PollEvery() = %v, %v; want 1s", d, err)
	}
	cfg.PollInterval = "250ms"
	if d, err := cfg.PollEvery(); err != nil || d != 250*time.Millisecond {
		t.Errorf("PollEvery() = %v, %v; want 250ms", d, err)
	}
	cfg.PollInterval = "750"
	if d, err := cfg.PollEvery(); err != nil || d != 750*time.Millisecond {
		t.Errorf("PollEvery() = %v, %v; want 750ms", d, err)
	}
	cfg.PollInterval = "0s"
	if _, err := cfg.PollEvery(); err == nil {
		t.Error("PollEvery() should reject zero")
	}
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(Default(), &buf); err != nil {
		t.Fatalf("Print() failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"debounce_ms = 150", `runner = ["uv", "run"]`} {
		if !strings.Contains(out, want) {
			t.Errorf("Print() output missing %q:\n%s", want, out)
		}
	}
}
