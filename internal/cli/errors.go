package cli

// UsageLine is printed when iuv run is invoked without a command.
const UsageLine = "Usage: iuv run <script_or_module> [args...]"

// UsageError reports an invocation iuv cannot act on.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	if e.Reason == "" {
		return "usage error"
	}
	return "usage error: " + e.Reason
}

// ExitCode maps an Execute error to a process exit status. Interrupts end
// Execute without an error, so every error is a failure.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
