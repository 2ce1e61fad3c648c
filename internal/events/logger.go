package events

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger appends events to a JSONL file. A nil or disabled Logger discards
// everything, so callers never need to check before logging.
type Logger struct {
	path    string
	session string

	mu   sync.Mutex
	file *os.File
}

// NewLogger opens path for appending. An empty path returns a disabled
// logger. Every logger gets a fresh session id.
func NewLogger(path string) (*Logger, error) {
	l := &Logger{session: uuid.NewString()}
	if path == "" {
		return l, nil
	}
	abs, err := filepath.Abs(expandPath(path))
	if err != nil {
		return nil, fmt.Errorf("resolving log path: %w", err)
	}
	l.path = abs

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	l.file = f
	return l, nil
}

// Enabled reports whether events are written anywhere.
func (l *Logger) Enabled() bool {
	return l != nil && l.file != nil
}

// Session returns the id shared by every event of this logger.
func (l *Logger) Session() string {
	if l == nil {
		return ""
	}
	return l.session
}

// Path returns the absolute log file path, or "" when disabled.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Log writes one event.
func (l *Logger) Log(event *Event) error {
	if !l.Enabled() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// LogEvent builds and writes an event in one call.
func (l *Logger) LogEvent(eventType EventType, runID string, data interface{}) error {
	if !l.Enabled() {
		return nil
	}
	return l.Log(&Event{
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Session:   l.session,
		RunID:     runID,
		Data:      ToMap(data),
	})
}

// NewRunID returns an id for one run.
func NewRunID() string {
	return uuid.NewString()
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// expandPath expands a leading ~ to the home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
