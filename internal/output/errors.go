package output

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/theirongolddev/iuv/internal/theme"
)

// CLIError is a user-facing error with an optional remediation hint.
type CLIError struct {
	Message string // What failed
	Cause   string // Why it failed (optional)
	Hint    string // Fastest way to fix it (optional)
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	return e.Message
}

// NewCLIError creates a CLIError with just a message.
func NewCLIError(msg string) *CLIError {
	return &CLIError{Message: msg}
}

// WithCause adds a cause to the error.
func (e *CLIError) WithCause(cause string) *CLIError {
	e.Cause = cause
	return e
}

// WithHint adds a remediation hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

func isStderrTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// FormatCLIError renders e for stderr. Colors are used only when stderr is
// a terminal and color is not disabled.
func FormatCLIError(e *CLIError) string {
	return formatCLIError(e, isStderrTerminal() && !theme.NoColorEnabled())
}

func formatCLIError(e *CLIError, useColor bool) string {
	label := func(s string, c lipgloss.Color, bold bool) string { return s }
	t := theme.Plain
	if useColor {
		t = theme.FromName("auto")
		label = func(s string, c lipgloss.Color, bold bool) string {
			return lipgloss.NewStyle().Foreground(c).Bold(bold).Render(s)
		}
	}

	var sb strings.Builder
	sb.WriteString(label("Error: ", t.Error, true))
	sb.WriteString(e.Message)
	sb.WriteString("\n")
	if e.Cause != "" {
		sb.WriteString(label("  Cause: ", t.Overlay, false))
		sb.WriteString(e.Cause)
		sb.WriteString("\n")
	}
	if e.Hint != "" {
		sb.WriteString(label("  Hint: ", t.Info, false))
		sb.WriteString(e.Hint)
		sb.WriteString("\n")
	}
	return sb.String()
}
