package filter

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/theirongolddev/iuv/internal/watcher"
)

// Patterns restricts reruns to paths matching at least one include glob.
// Globs use doublestar syntax ("**/*.py") and are matched against the
// slash-separated path relative to the watched root, and against the base
// name. An empty Patterns matches everything.
type Patterns struct {
	globs []string
}

// NewPatterns validates globs and returns a Patterns.
func NewPatterns(globs []string) (Patterns, error) {
	p := Patterns{globs: make([]string, 0, len(globs))}
	for _, g := range globs {
		if g == "" {
			continue
		}
		if !doublestar.ValidatePattern(g) {
			return Patterns{}, fmt.Errorf("invalid pattern %q", g)
		}
		p.globs = append(p.globs, g)
	}
	return p, nil
}

// Empty reports whether no globs are configured.
func (p Patterns) Empty() bool {
	return len(p.globs) == 0
}

// Globs returns a copy of the configured globs.
func (p Patterns) Globs() []string {
	return append([]string(nil), p.globs...)
}

// Match reports whether rel (relative to the watched root) is included.
func (p Patterns) Match(rel string) bool {
	if p.Empty() {
		return true
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(rel)
	for _, g := range p.globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, base); ok {
			return true
		}
	}
	return false
}

// Apply keeps the events of batch whose path under root is included.
// Paths outside root are matched as given.
func (p Patterns) Apply(batch watcher.Batch, root string) watcher.Batch {
	if p.Empty() {
		return batch
	}
	out := make(watcher.Batch, 0, len(batch))
	for _, e := range batch {
		rel, err := filepath.Rel(root, e.Path)
		if err != nil {
			rel = e.Path
		}
		if p.Match(rel) {
			out = append(out, e)
		}
	}
	return out
}
