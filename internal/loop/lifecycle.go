package loop

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/statekit"
)

// Lifecycle states of a Loop.
const (
	StateStarting = "starting"
	StateRunning  = "running"
	StateWatching = "watching"
	StateStopped  = "stopped"
)

const (
	eventRun    = "run"
	eventFinish = "finish"
	eventStop   = "stop"
)

type lifecycleContext struct{}

// lifecycle tracks where a Loop is between startup and shutdown.
type lifecycle struct {
	mu          sync.Mutex
	interpreter *statekit.Interpreter[lifecycleContext]
}

func newLifecycle() (*lifecycle, error) {
	builder := statekit.NewMachine[lifecycleContext]("watch-loop").
		WithInitial(statekit.StateID(StateStarting)).
		WithContext(lifecycleContext{})

	builder.State(StateStarting).
		On(eventRun).Target(StateRunning).
		On(eventStop).Target(StateStopped).
		Done()

	builder.State(StateRunning).
		On(eventFinish).Target(StateWatching).
		On(eventStop).Target(StateStopped).
		Done()

	builder.State(StateWatching).
		On(eventRun).Target(StateRunning).
		On(eventStop).Target(StateStopped).
		Done()

	builder.State(StateStopped).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("building loop state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()
	return &lifecycle{interpreter: interpreter}, nil
}

// send fires event and reports whether the state changed.
func (lc *lifecycle) send(event string) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	before := lc.interpreter.State().Value
	lc.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	return lc.interpreter.State().Value != before
}

func (lc *lifecycle) current() string {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return string(lc.interpreter.State().Value)
}
