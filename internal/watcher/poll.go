package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// fileMeta stores file metadata for poll-based change detection.
type fileMeta struct {
	ModTime time.Time
	Size    int64
	IsDir   bool
}

func (w *Watcher) runPoll() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.pollOnce()
		case <-w.closeCh:
			return
		}
	}
}

// pollOnce rescans the watched roots and queues events for differences
// from the previous scan.
func (w *Watcher) pollOnce() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	roots := make([]string, 0, len(w.watchedPaths))
	for p := range w.watchedPaths {
		roots = append(roots, p)
	}
	w.mu.Unlock()

	// The filesystem scan is slow; keep it outside the lock.
	current := make(map[string]fileMeta)
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			w.reportError(err)
			continue
		}
		entries, err := entriesForPath(root, info, w.isIgnored)
		if err != nil {
			w.reportError(err)
			continue
		}
		for p, meta := range entries {
			current[p] = meta
		}
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}

	var events []Event
	for path, meta := range current {
		prev, ok := w.snapshots[path]
		switch {
		case !ok:
			events = append(events, Event{Kind: Created, Path: path, IsDir: meta.IsDir})
		case !meta.IsDir && (!meta.ModTime.Equal(prev.ModTime) || meta.Size != prev.Size):
			events = append(events, Event{Kind: Modified, Path: path})
		}
		w.snapshots[path] = meta
	}
	// Only roots that were actually scanned can report removals.
	for path, prev := range w.snapshots {
		if _, ok := current[path]; ok {
			continue
		}
		if isPathUnderRoots(path, roots) {
			events = append(events, Event{Kind: Deleted, Path: path, IsDir: prev.IsDir})
			delete(w.snapshots, path)
		}
	}

	if len(events) == 0 {
		w.mu.Unlock()
		return
	}
	w.pending = append(w.pending, events...)
	w.mu.Unlock()

	w.debouncer.Trigger()
}

// isPathUnderRoots checks if path is one of roots or nested beneath one.
func isPathUnderRoots(path string, roots []string) bool {
	for _, root := range roots {
		if path == root || strings.HasPrefix(path, root+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

// entriesForPath returns metadata for root and everything beneath it,
// skipping ignored directories.
func entriesForPath(root string, info os.FileInfo, isIgnored func(string) bool) (map[string]fileMeta, error) {
	entries := map[string]fileMeta{
		root: {ModTime: info.ModTime(), Size: info.Size(), IsDir: info.IsDir()},
	}
	if !info.IsDir() {
		return entries, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Entries can vanish mid-walk; the next scan reports them.
			if path == root {
				return err
			}
			return nil
		}
		if path == root {
			return nil
		}
		if d.IsDir() && isIgnored(path) {
			return filepath.SkipDir
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		entries[path] = fileMeta{ModTime: fi.ModTime(), Size: fi.Size(), IsDir: fi.IsDir()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
