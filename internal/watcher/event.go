package watcher

import (
	"github.com/fsnotify/fsnotify"
)

// Kind classifies a filesystem change.
type Kind uint8

const (
	// Created is reported when a file or directory appears.
	Created Kind = iota + 1
	// Modified is reported when file contents change.
	Modified
	// Deleted is reported when a file or directory is removed or renamed away.
	Deleted
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Event is a single filesystem change.
type Event struct {
	// Kind is the type of change.
	Kind Kind
	// Path is the absolute path of the changed file or directory.
	Path string
	// IsDir is true if the event refers to a directory.
	IsDir bool
}

// Batch is the ordered set of events collected within one debounce window.
type Batch []Event

// Paths returns the path of every event in order.
func (b Batch) Paths() []string {
	paths := make([]string, 0, len(b))
	for _, e := range b {
		paths = append(paths, e.Path)
	}
	return paths
}

// merge appends events to b, skipping any (Kind, Path) pair already present.
func (b Batch) merge(events []Event) Batch {
	type key struct {
		kind Kind
		path string
	}
	seen := make(map[key]bool, len(b)+len(events))
	for _, e := range b {
		seen[key{e.Kind, e.Path}] = true
	}
	for _, e := range events {
		k := key{e.Kind, e.Path}
		if seen[k] {
			continue
		}
		seen[k] = true
		b = append(b, e)
	}
	return b
}

// kindFromFsnotify maps an fsnotify operation to a Kind.
// Chmod-only operations carry no content change and report ok=false.
func kindFromFsnotify(op fsnotify.Op) (Kind, bool) {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return Deleted, true
	case op.Has(fsnotify.Create):
		return Created, true
	case op.Has(fsnotify.Write):
		return Modified, true
	default:
		return 0, false
	}
}
