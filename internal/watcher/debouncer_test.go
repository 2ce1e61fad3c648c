package watcher

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestNewDebouncer(t *testing.T) {
	t.Run("default window", func(t *testing.T) {
		d := NewDebouncer(0, nil)
		if d.Window() != DefaultDebounce {
			t.Errorf("Window() = %v, want %v", d.Window(), DefaultDebounce)
		}
	})

	t.Run("custom window", func(t *testing.T) {
		d := NewDebouncer(500*time.Millisecond, nil)
		if d.Window() != 500*time.Millisecond {
			t.Errorf("Window() = %v, want 500ms", d.Window())
		}
	})
}

func TestDebouncerTrigger(t *testing.T) {
	t.Run("single trigger", func(t *testing.T) {
		var calls atomic.Int32
		d := NewDebouncer(30*time.Millisecond, func() { calls.Add(1) })

		d.Trigger()
		time.Sleep(100 * time.Millisecond)

		if got := calls.Load(); got != 1 {
			t.Errorf("callback called %d times, want 1", got)
		}
	})

	t.Run("rapid triggers coalesce", func(t *testing.T) {
		var calls atomic.Int32
		d := NewDebouncer(80*time.Millisecond, func() { calls.Add(1) })

		for i := 0; i < 5; i++ {
			d.Trigger()
			time.Sleep(10 * time.Millisecond)
		}
		time.Sleep(200 * time.Millisecond)

		if got := calls.Load(); got != 1 {
			t.Errorf("callback called %d times, want 1", got)
		}
	})

	t.Run("separate windows fire separately", func(t *testing.T) {
		var calls atomic.Int32
		d := NewDebouncer(30*time.Millisecond, func() { calls.Add(1) })

		d.Trigger()
		time.Sleep(100 * time.Millisecond)
		d.Trigger()
		time.Sleep(100 * time.Millisecond)

		if got := calls.Load(); got != 2 {
			t.Errorf("callback called %d times, want 2", got)
		}
	})
}

func TestDebouncerSteadyStreamStillFires(t *testing.T) {
	var calls atomic.Int32
	window := 60 * time.Millisecond
	d := NewDebouncer(window, func() { calls.Add(1) })
	defer d.Stop()

	// Triggers closer together than the window must not postpone delivery.
	deadline := time.Now().Add(10 * window)
	for time.Now().Before(deadline) {
		d.Trigger()
		time.Sleep(window / 2)
	}

	if got := calls.Load(); got < 5 {
		t.Errorf("callback called %d times over 10 windows of steady triggers, want at least 5", got)
	}
}

func TestDebouncerFiresOneWindowAfterFirstTrigger(t *testing.T) {
	fired := make(chan time.Time, 1)
	window := 80 * time.Millisecond
	d := NewDebouncer(window, func() { fired <- time.Now() })
	defer d.Stop()

	start := time.Now()
	d.Trigger()
	time.Sleep(50 * time.Millisecond)
	d.Trigger()

	select {
	case at := <-fired:
		if elapsed := at.Sub(start); elapsed > window+40*time.Millisecond {
			t.Errorf("fired %v after first trigger, want about %v", elapsed, window)
		}
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
}

func TestDebouncerStop(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(80*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	time.Sleep(20 * time.Millisecond)
	d.Stop()
	d.Trigger()
	time.Sleep(150 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("callback called %d times after Stop(), want 0", got)
	}
}

func TestDebouncerStopWithoutTrigger(t *testing.T) {
	d := NewDebouncer(10*time.Millisecond, nil)
	d.Stop()
}
