package sync

import (
	"sync"
	"time"
)

// State tracks synchronization health: the enable flag, when the last
// successful sync finished, and the last error if any. It is written by
// the engine and scheduler and read by the UI layer for status display;
// the record store never touches it.
type State struct {
	mu       sync.Mutex
	enabled  bool
	lastSync time.Time
	lastErr  error
}

// View is a copyable point-in-time snapshot of State.
type View struct {
	Enabled   bool
	LastSync  time.Time
	LastError error
}

// NewState creates a State with sync disabled.
func NewState() *State {
	return &State{}
}

// SetEnabled flips the enable flag.
func (s *State) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// RecordSuccess notes a completed pull or push and clears the last error.
func (s *State) RecordSuccess(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSync = at
	s.lastErr = nil
}

// RecordError notes a failed pull or push.
func (s *State) RecordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// View returns the current state for display.
func (s *State) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{Enabled: s.enabled, LastSync: s.lastSync, LastError: s.lastErr}
}
