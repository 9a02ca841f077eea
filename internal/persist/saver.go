package persist

import (
	"sync"
	"time"

	"github.com/apptrack/apptrack/internal/bus"
	"github.com/apptrack/apptrack/internal/record"
	"go.uber.org/zap"
)

// Saver writes the table to disk off the mutating path. Requests
// coalesce: the worker always serializes the snapshot current at write
// time, so successive saves are strictly ordered and an older snapshot
// can never overwrite a newer one.
type Saver struct {
	path   string
	source func() record.Snapshot
	bus    *bus.Bus
	logger *zap.Logger

	saveMu sync.Mutex // serializes disk writes between worker and Flush

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewSaver creates a saver writing to path. source supplies the current
// table snapshot (typically Store.List).
func NewSaver(path string, source func() record.Snapshot, b *bus.Bus, logger *zap.Logger) *Saver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saver{
		path:   path,
		source: source,
		bus:    b,
		logger: logger,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the save worker.
func (s *Saver) Start() {
	go s.loop()
}

// Request asks for a save of the current table. Never blocks; back-to-back
// requests collapse into one write of the latest state.
func (s *Saver) Request() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Flush saves the current table synchronously. Used at shutdown.
func (s *Saver) Flush() error {
	return s.save()
}

// Stop stops the worker and performs a final flush of the current table.
func (s *Saver) Stop() {
	close(s.stop)
	<-s.done
	if err := s.save(); err != nil {
		s.logger.Error("final flush failed", zap.Error(err))
	}
}

func (s *Saver) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			if err := s.save(); err != nil {
				s.logger.Error("save failed", zap.String("path", s.path), zap.Error(err))
				if s.bus != nil {
					s.bus.Publish(bus.Event{
						Kind:      bus.KindSaveFailed,
						Timestamp: time.Now(),
						Payload:   err.Error(),
					})
				}
			}
		case <-s.stop:
			return
		}
	}
}

func (s *Saver) save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return Save(s.path, s.source())
}
