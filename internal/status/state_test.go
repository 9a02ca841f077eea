package status

import (
	"testing"

	"github.com/apptrack/apptrack/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Idle {
		t.Errorf("initial state = %s, want IDLE", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{Idle, Scheduled},
		{Scheduled, Firing},
		{Scheduled, Idle},
		{Firing, Scheduled},
		{Firing, Idle},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to); err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if m.Current() != tt.to {
				t.Errorf("state = %s, want %s", m.Current(), tt.to)
			}
		})
	}
}

func TestInvalidTransitions(t *testing.T) {
	m := NewMachine(nil)
	// A pull cannot start with no timer armed.
	if err := m.Transition(Firing); err == nil {
		t.Error("Transition(IDLE -> FIRING) should fail")
	}
	// Self-transitions are not allowed either.
	if err := m.Transition(Idle); err == nil {
		t.Error("Transition(IDLE -> IDLE) should fail")
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	sub := b.Subscribe("sync.", 10)
	defer sub.Cancel()

	m := NewMachine(b)
	if err := m.Transition(Scheduled); err != nil {
		t.Fatal(err)
	}

	evt := <-sub.C
	if evt.Kind != bus.KindSyncStateChanged {
		t.Errorf("event kind = %q, want %q", evt.Kind, bus.KindSyncStateChanged)
	}
	change, ok := evt.Payload.(Change)
	if !ok {
		t.Fatalf("payload type = %T, want Change", evt.Payload)
	}
	if change.From != Idle || change.To != Scheduled {
		t.Errorf("change = %v -> %v, want IDLE -> SCHEDULED", change.From, change.To)
	}
}

// walkTo drives the machine along valid transitions to reach the target.
func walkTo(t *testing.T, m *Machine, target State) {
	t.Helper()
	if m.Current() == target {
		return
	}
	var path []State
	switch target {
	case Scheduled:
		path = []State{Scheduled}
	case Firing:
		path = []State{Scheduled, Firing}
	}
	for _, s := range path {
		if err := m.Transition(s); err != nil {
			t.Fatalf("walkTo(%s): %v", target, err)
		}
	}
}
