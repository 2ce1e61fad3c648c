// Package theme provides the color palettes used for console output.
package theme

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme is a small semantic palette.
type Theme struct {
	Name    string
	Text    lipgloss.Color
	Overlay lipgloss.Color // Dimmed text

	Primary lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color
}

// Mocha is the dark palette (Catppuccin Mocha).
var Mocha = Theme{
	Name:    "mocha",
	Text:    lipgloss.Color("#cdd6f4"),
	Overlay: lipgloss.Color("#6c7086"),
	Primary: lipgloss.Color("#89b4fa"),
	Success: lipgloss.Color("#a6e3a1"),
	Warning: lipgloss.Color("#f9e2af"),
	Error:   lipgloss.Color("#f38ba8"),
	Info:    lipgloss.Color("#89dceb"),
}

// Latte is the light palette (Catppuccin Latte).
var Latte = Theme{
	Name:    "latte",
	Text:    lipgloss.Color("#4c4f69"),
	Overlay: lipgloss.Color("#7c7f93"),
	Primary: lipgloss.Color("#1e66f5"),
	Success: lipgloss.Color("#40a02b"),
	Warning: lipgloss.Color("#df8e1d"),
	Error:   lipgloss.Color("#d20f39"),
	Info:    lipgloss.Color("#04a5e5"),
}

// Plain has no colors at all.
var Plain = Theme{Name: "plain"}

// IsPlain reports whether t renders without color.
func (t Theme) IsPlain() bool {
	return t.Primary == ""
}

// NoColorEnabled reports whether color output is disabled by the environment.
// IUV_NO_COLOR takes precedence over the standard NO_COLOR.
func NoColorEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("IUV_NO_COLOR"))) {
	case "0", "false", "no", "off":
		return false
	case "1", "true", "yes", "on":
		return true
	}
	_, set := os.LookupEnv("NO_COLOR")
	return set
}

// FromName returns the theme called name. Unknown names and "auto" pick a
// palette matching the terminal background.
func FromName(name string) Theme {
	if NoColorEnabled() {
		return Plain
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "plain", "none", "no-color", "nocolor":
		return Plain
	case "mocha", "dark":
		return Mocha
	case "latte", "light":
		return Latte
	default:
		return autoTheme()
	}
}

// detectDarkBackground is a variable for tests.
var detectDarkBackground = func() bool {
	return termenv.NewOutput(os.Stdout).HasDarkBackground()
}

var (
	cachedAutoTheme Theme
	autoThemeOnce   sync.Once
)

func resetAutoTheme() {
	autoThemeOnce = sync.Once{}
	cachedAutoTheme = Theme{}
}

func autoTheme() Theme {
	autoThemeOnce.Do(func() {
		cachedAutoTheme = Mocha
		defer func() {
			if recover() != nil {
				cachedAutoTheme = Mocha
			}
		}()
		if !detectDarkBackground() {
			cachedAutoTheme = Latte
		}
	})
	return cachedAutoTheme
}
