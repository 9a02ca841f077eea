package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/apptrack/apptrack/internal/bus"
)

// State is a sync scheduler runtime state.
type State string

const (
	// Idle: no timer armed, synchronization off.
	Idle State = "IDLE"
	// Scheduled: timer armed, waiting for the interval to elapse.
	Scheduled State = "SCHEDULED"
	// Firing: a pull is in progress.
	Firing State = "FIRING"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Idle:      {Scheduled},
	Scheduled: {Firing, Idle},
	Firing:    {Scheduled, Idle},
}

// Machine tracks and enforces scheduler state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a state machine starting in Idle.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Idle,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns an error if the
// transition is not allowed.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      bus.KindSyncStateChanged,
			Timestamp: time.Now(),
			Payload: Change{
				From: from,
				To:   to,
			},
		})
	}
	return nil
}

// Change is the payload for state change events.
type Change struct {
	From State
	To   State
}
