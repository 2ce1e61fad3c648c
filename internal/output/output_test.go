package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/theirongolddev/iuv/internal/theme"
)

func plainPrinter() (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewPrinter(&out, &errOut, theme.Mocha), &out, &errOut
}

func TestPrinterBanner(t *testing.T) {
	p, out, _ := plainPrinter()
	p.Banner("/home/dev/proj", "uv run app.py --port 8000")

	want := "[iuv] watching /home/dev/proj recursively. Press Ctrl+C to stop.\n" +
		"[iuv] command: uv run app.py --port 8000\n"
	if out.String() != want {
		t.Errorf("Banner() wrote %q, want %q", out.String(), want)
	}
}

func TestPrinterRerun(t *testing.T) {
	p, out, _ := plainPrinter()
	p.Rerun(2)
	if got := out.String(); got != "[iuv] 2 change(s) detected -> rerun\n" {
		t.Errorf("Rerun() wrote %q", got)
	}
}

func TestPrinterStopped(t *testing.T) {
	p, out, _ := plainPrinter()
	p.Stopped()
	if got := out.String(); got != "\n[iuv] stopped\n" {
		t.Errorf("Stopped() wrote %q", got)
	}
}

func TestPrinterWarnGoesToStderr(t *testing.T) {
	p, out, errOut := plainPrinter()
	p.Warn("fsnotify unavailable")
	if out.Len() != 0 {
		t.Errorf("Warn() wrote to stdout: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "fsnotify unavailable") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestPrinterNonTerminalHasNoEscapes(t *testing.T) {
	p, out, _ := plainPrinter()
	p.Banner("/r", "cmd")
	p.Clear()
	if strings.Contains(out.String(), "\033") {
		t.Errorf("non-terminal output contains escape codes: %q", out.String())
	}
}

func TestIsTerminalNonFile(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
}

func TestFormatCLIErrorPlain(t *testing.T) {
	e := NewCLIError("no command given").
		WithCause("`iuv run` needs a script or module").
		WithHint("iuv run app.py")

	got := formatCLIError(e, false)
	want := "Error: no command given\n" +
		"  Cause: `iuv run` needs a script or module\n" +
		"  Hint: iuv run app.py\n"
	if got != want {
		t.Errorf("formatCLIError() = %q, want %q", got, want)
	}
	if e.Error() != "no command given" {
		t.Errorf("Error() = %q", e.Error())
	}
}

func TestFormatCLIErrorMessageOnly(t *testing.T) {
	if got := formatCLIError(NewCLIError("boom"), false); got != "Error: boom\n" {
		t.Errorf("formatCLIError() = %q", got)
	}
}
