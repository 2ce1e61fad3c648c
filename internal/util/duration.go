// Package util provides small parsing helpers shared across iuv.
package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseMillis parses a duration written either as a bare number of
// milliseconds or as a Go duration string.
//
// Examples:
//   - "150"   -> 150 milliseconds
//   - "150ms" -> 150 milliseconds
//   - "2s"    -> 2 seconds
//   - "1m30s" -> 90 seconds
func ParseMillis(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty")
	}

	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Millisecond, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %s (use milliseconds or units like 500ms, 1s)", s)
	}
	return d, nil
}

// ParsePositiveMillis is ParseMillis restricted to durations above zero.
func ParsePositiveMillis(s string) (time.Duration, error) {
	d, err := ParseMillis(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", s)
	}
	return d, nil
}
