// Package events records watch-session activity to a JSONL file.
package events

import (
	"time"
)

// EventType names a kind of logged event.
type EventType string

const (
	EventWatchStart EventType = "watch_start"
	EventRun        EventType = "run"
	EventSpawnError EventType = "spawn_error"
	EventWatchStop  EventType = "watch_stop"
)

// Event is a single JSONL record.
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	Type      EventType              `json:"type"`
	Session   string                 `json:"session"`
	RunID     string                 `json:"run_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// WatchStartData describes a new watch session.
type WatchStartData struct {
	Root       string `json:"root"`
	Command    string `json:"command"`
	DebounceMs int64  `json:"debounce_ms"`
}

// RunData describes one completed run.
type RunData struct {
	Trigger    string `json:"trigger"` // "startup" or "change"
	Changes    int    `json:"changes,omitempty"`
	ExitCode   int    `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
}

// SpawnErrorData describes a command that could not be started.
type SpawnErrorData struct {
	Message string `json:"message"`
}

// StopData describes the end of a watch session.
type StopData struct {
	Runs int `json:"runs"`
}

// ToMap converts event data to a map.
func ToMap(v interface{}) map[string]interface{} {
	switch d := v.(type) {
	case WatchStartData:
		return map[string]interface{}{
			"root":        d.Root,
			"command":     d.Command,
			"debounce_ms": d.DebounceMs,
		}
	case RunData:
		return map[string]interface{}{
			"trigger":     d.Trigger,
			"changes":     d.Changes,
			"exit_code":   d.ExitCode,
			"duration_ms": d.DurationMs,
		}
	case SpawnErrorData:
		return map[string]interface{}{"message": d.Message}
	case StopData:
		return map[string]interface{}{"runs": d.Runs}
	case map[string]interface{}:
		return d
	default:
		return nil
	}
}
