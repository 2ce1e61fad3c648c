// Package output renders iuv's console messages.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/theirongolddev/iuv/internal/theme"
)

// Prefix tags every line iuv itself prints.
const Prefix = "[iuv]"

// clearScreen resets the cursor and clears the terminal.
const clearScreen = "\033[H\033[2J"

// Printer writes status lines to stdout and problems to stderr.
type Printer struct {
	out   io.Writer
	err   io.Writer
	color bool

	prefix  lipgloss.Style
	accent  lipgloss.Style
	dim     lipgloss.Style
	warning lipgloss.Style
}

// PrinterOption configures a Printer.
type PrinterOption func(*Printer)

// WithColor forces colors on or off.
func WithColor(on bool) PrinterOption {
	return func(p *Printer) { p.color = on }
}

// NewPrinter creates a Printer using palette t. Colors default to on when
// out is a terminal.
func NewPrinter(out, errOut io.Writer, t theme.Theme, opts ...PrinterOption) *Printer {
	p := &Printer{
		out:   out,
		err:   errOut,
		color: IsTerminal(out) && !t.IsPlain(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.prefix = lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	p.accent = lipgloss.NewStyle().Foreground(t.Success)
	p.dim = lipgloss.NewStyle().Foreground(t.Overlay)
	p.warning = lipgloss.NewStyle().Foreground(t.Warning)
	return p
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p *Printer) line(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", p.style(p.prefix, Prefix), msg)
}

// Banner announces the watched root and the command.
func (p *Printer) Banner(root, commandLine string) {
	p.line(p.out, fmt.Sprintf("watching %s recursively. %s", root, p.style(p.dim, "Press Ctrl+C to stop.")))
	p.line(p.out, "command: "+p.style(p.accent, commandLine))
}

// Rerun announces a rerun caused by n changes.
func (p *Printer) Rerun(n int) {
	p.line(p.out, fmt.Sprintf("%d change(s) detected -> rerun", n))
}

// Stopped announces the end of the watch session.
func (p *Printer) Stopped() {
	fmt.Fprintln(p.out)
	p.line(p.out, "stopped")
}

// Warn writes a warning line to stderr.
func (p *Printer) Warn(msg string) {
	p.line(p.err, p.style(p.warning, msg))
}

// Clear clears the terminal. It does nothing when stdout is not a terminal.
func (p *Printer) Clear() {
	if !IsTerminal(p.out) {
		return
	}
	fmt.Fprint(p.out, clearScreen)
}
