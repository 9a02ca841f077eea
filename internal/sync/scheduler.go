package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/apptrack/apptrack/internal/status"
	"go.uber.org/zap"
)

// DefaultInterval is how often an enabled scheduler pulls from remote.
const DefaultInterval = 60 * time.Second

// Scheduler drives periodic pulls while sync is enabled. It owns the
// status machine: Scheduled between cycles, Firing while a pull runs,
// Idle when disabled.
type Scheduler struct {
	engine   *Engine
	machine  *status.Machine
	logger   *zap.Logger
	interval time.Duration

	mu        gosync.Mutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	triggerCh chan struct{}
}

// NewScheduler creates a stopped scheduler. A zero interval means
// DefaultInterval.
func NewScheduler(engine *Engine, machine *status.Machine, logger *zap.Logger, interval time.Duration) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval == 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		engine:   engine,
		machine:  machine,
		logger:   logger,
		interval: interval,
	}
}

// Enable starts the periodic loop. The first pull happens immediately,
// off the tick cadence, so an enable reflects remote state right away.
// Enabling an already-enabled scheduler is a no-op.
func (s *Scheduler) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.triggerCh = make(chan struct{}, 1)
	s.engine.State().SetEnabled(true)
	if err := s.machine.Transition(status.Scheduled); err != nil {
		s.logger.Warn("status transition failed", zap.Error(err))
	}
	s.logger.Info("sync enabled", zap.Duration("interval", s.interval))
	go s.run(s.stopCh, s.doneCh, s.triggerCh)
}

// Disable stops the loop and waits for it to exit. Every pull, scheduled
// or triggered, runs on that loop, so once Disable returns no pull can
// start. An in-flight pull finishes; it is bounded by the engine's call
// timeout.
func (s *Scheduler) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	s.running = false
	s.engine.State().SetEnabled(false)
	if err := s.machine.Transition(status.Idle); err != nil {
		s.logger.Warn("status transition failed", zap.Error(err))
	}
	s.logger.Info("sync disabled")
}

// Trigger requests one pull outside the tick cadence. The request is
// handed to the run loop, queued behind any pull already in flight;
// repeat triggers while one is pending collapse into a single pull.
// Ignored when sync is disabled.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		s.logger.Debug("trigger ignored, sync disabled")
		return
	}
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

// Running reports whether the periodic loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(stopCh, doneCh, triggerCh chan struct{}) {
	defer close(doneCh)

	s.fire(stopCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.fire(stopCh)
		case <-triggerCh:
			s.fire(stopCh)
		case <-stopCh:
			return
		}
	}
}

func (s *Scheduler) fire(stopCh chan struct{}) {
	select {
	case <-stopCh:
		return
	default:
	}
	if err := s.machine.Transition(status.Firing); err != nil {
		s.logger.Debug("status transition failed", zap.Error(err))
	}
	if _, err := s.engine.Pull(context.Background()); err != nil {
		s.logger.Warn("scheduled pull failed", zap.Error(err))
	}
	if err := s.machine.Transition(status.Scheduled); err != nil {
		s.logger.Debug("status transition failed", zap.Error(err))
	}
}
