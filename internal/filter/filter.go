// Package filter decides which filesystem changes are allowed to trigger a rerun.
package filter

import (
	"os"
	"slices"
	"strings"

	"github.com/theirongolddev/iuv/internal/watcher"
)

// defaultIgnoredDirs are directory names whose contents never trigger a rerun:
// version-control metadata, virtual environments and bytecode caches.
var defaultIgnoredDirs = []string{".git", ".venv", "__pycache__"}

// IgnoreSet is an immutable set of directory names.
type IgnoreSet struct {
	names map[string]struct{}
}

// NewIgnoreSet builds an IgnoreSet from names. Empty names are skipped.
func NewIgnoreSet(names ...string) IgnoreSet {
	set := IgnoreSet{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if n == "" {
			continue
		}
		set.names[n] = struct{}{}
	}
	return set
}

// DefaultIgnoreSet returns the set of directories ignored by iuv.
func DefaultIgnoreSet() IgnoreSet {
	return NewIgnoreSet(defaultIgnoredDirs...)
}

// Contains reports whether name is in the set.
func (s IgnoreSet) Contains(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Names returns the sorted entries of the set.
func (s IgnoreSet) Names() []string {
	names := make([]string, 0, len(s.names))
	for n := range s.names {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of entries.
func (s IgnoreSet) Len() int {
	return len(s.names)
}

// Ignored reports whether any segment of path names an ignored directory.
func Ignored(path string, set IgnoreSet) bool {
	if set.Len() == 0 {
		return false
	}
	for _, seg := range segments(path) {
		if set.Contains(seg) {
			return true
		}
	}
	return false
}

// Filter returns the events of batch whose paths touch no ignored directory,
// in their original order. batch itself is not modified.
func Filter(batch watcher.Batch, set IgnoreSet) watcher.Batch {
	out := make(watcher.Batch, 0, len(batch))
	for _, e := range batch {
		if Ignored(e.Path, set) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// segments splits path on both the OS separator and '/'.
func segments(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == os.PathSeparator
	})
}
