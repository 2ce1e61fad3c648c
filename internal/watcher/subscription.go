package watcher

import (
	"context"
	"fmt"
	"sync"
)

// Subscription is a blocking-read stream of debounced batches for one root.
//
// Batches that arrive while nobody is reading are merged into a single
// pending batch, so a slow reader sees everything that changed since its
// previous read in one call to Next.
type Subscription struct {
	w *Watcher

	mu      sync.Mutex
	pending Batch
	ready   chan struct{}
	done    chan struct{}
	once    sync.Once
}

// Subscribe starts watching root recursively and returns a Subscription.
func Subscribe(root string, opts ...Option) (*Subscription, error) {
	s := &Subscription{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}

	w, err := New(s.deliver, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(root); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", root, err)
	}
	s.w = w
	return s, nil
}

func (s *Subscription) deliver(events []Event) {
	s.mu.Lock()
	s.pending = s.pending.merge(events)
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Next blocks until a non-empty batch is available, ctx is done, or the
// subscription is closed. A done ctx wins over a pending batch, which stays
// queued for the next call.
func (s *Subscription) Next(ctx context.Context) (Batch, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.mu.Lock()
		if len(s.pending) > 0 {
			batch := s.pending
			s.pending = nil
			s.mu.Unlock()
			return batch, nil
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.done:
			return nil, ErrClosed
		case <-s.ready:
		}
	}
}

// Close stops the underlying watcher. Pending batches are discarded.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.w.Close()
	})
	return err
}

// Watcher returns the underlying watcher.
func (s *Subscription) Watcher() *Watcher {
	return s.w
}
