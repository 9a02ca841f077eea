package sync

import (
	"context"
	"sync"
	"time"

	"github.com/apptrack/apptrack/internal/bus"
	"github.com/apptrack/apptrack/internal/persist"
	"github.com/apptrack/apptrack/internal/record"
	"go.uber.org/zap"
)

// DefaultTimeout bounds each remote call so a stalled service cannot
// starve the scheduler.
const DefaultTimeout = 30 * time.Second

// RemoteTable is the remote spreadsheet surface the engine mirrors.
// Fetch reads the full table; Overwrite replaces it wholesale.
type RemoteTable interface {
	Fetch(ctx context.Context) (record.Snapshot, error)
	Overwrite(ctx context.Context, snap record.Snapshot) error
}

// Result is the payload of sync.completed events.
type Result struct {
	Op      string // "pull" or "push"
	Changed bool
}

// Failure is the payload of sync.failed events.
type Failure struct {
	Op  string
	Err string
}

// EngineConfig holds dependencies for the sync engine.
type EngineConfig struct {
	Store   *record.Store
	Remote  RemoteTable
	Saver   *persist.Saver // optional: local save after an adopted pull
	State   *State
	Bus     *bus.Bus
	Logger  *zap.Logger
	Timeout time.Duration // per remote call; DefaultTimeout when zero
}

// Engine reconciles the local record store with the remote table using
// whole-snapshot semantics: a pull that differs replaces the entire
// local table, a push overwrites the entire remote one. Remote failures
// are logged and recorded, never fatal; the next cycle retries.
type Engine struct {
	store   *record.Store
	remote  RemoteTable
	saver   *persist.Saver
	state   *State
	bus     *bus.Bus
	logger  *zap.Logger
	timeout time.Duration

	pullMu sync.Mutex // serializes pulls (scheduled and manual)

	pushWake chan struct{}
	stop     chan struct{}
	done     chan struct{}
}

// NewEngine creates a sync engine.
func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	state := cfg.State
	if state == nil {
		state = NewState()
	}
	return &Engine{
		store:    cfg.Store,
		remote:   cfg.Remote,
		saver:    cfg.Saver,
		state:    state,
		bus:      cfg.Bus,
		logger:   logger,
		timeout:  timeout,
		pushWake: make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// State returns the engine's sync state tracker.
func (e *Engine) State() *State {
	return e.state
}

// Start launches the push worker.
func (e *Engine) Start() {
	go e.pushLoop()
}

// Stop stops the push worker. An in-flight push completes.
func (e *Engine) Stop() {
	close(e.stop)
	<-e.done
}

// Pull fetches the remote table, compares it structurally to the current
// local snapshot, and adopts it wholesale when it differs. Returns
// whether the local table changed. Equal snapshots cause no store write
// and no records change notification.
func (e *Engine) Pull(ctx context.Context) (bool, error) {
	e.pullMu.Lock()
	defer e.pullMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	remote, err := e.remote.Fetch(ctx)
	if err != nil {
		e.fail("pull", err)
		return false, err
	}
	remote = record.Normalize(remote)

	if Resolve(e.store.List(), remote) == NoChange {
		e.state.RecordSuccess(time.Now())
		e.publish(bus.KindSyncCompleted, Result{Op: "pull", Changed: false})
		return false, nil
	}

	e.logger.Info("remote table changed, adopting", zap.Int("records", len(remote)))
	e.store.Replace(remote, record.OriginSync)
	if e.saver != nil {
		e.saver.Request()
	}
	e.state.RecordSuccess(time.Now())
	e.publish(bus.KindSyncCompleted, Result{Op: "pull", Changed: true})
	return true, nil
}

// Push uploads the snapshot, overwriting the whole remote table. No
// row-level diff is computed on either side: the most recent pull or
// push wins in full.
func (e *Engine) Push(ctx context.Context, snap record.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.remote.Overwrite(ctx, snap); err != nil {
		e.fail("push", err)
		return err
	}
	e.state.RecordSuccess(time.Now())
	e.publish(bus.KindSyncCompleted, Result{Op: "push", Changed: true})
	e.logger.Info("pushed table to remote", zap.Int("records", len(snap)))
	return nil
}

// RequestPush asks the worker to push the current table soon. Never
// blocks; bursts of local edits collapse into one push of the latest
// state. Ignored while sync is disabled.
func (e *Engine) RequestPush() {
	if !e.state.View().Enabled {
		return
	}
	select {
	case e.pushWake <- struct{}{}:
	default:
	}
}

func (e *Engine) pushLoop() {
	defer close(e.done)
	for {
		select {
		case <-e.pushWake:
			if !e.state.View().Enabled {
				continue
			}
			// Error already logged and recorded; next request retries.
			_ = e.Push(context.Background(), e.store.List())
		case <-e.stop:
			return
		}
	}
}

func (e *Engine) fail(op string, err error) {
	e.logger.Error("sync operation failed", zap.String("op", op), zap.Error(err))
	e.state.RecordError(err)
	e.publish(bus.KindSyncFailed, Failure{Op: op, Err: err.Error()})
}

func (e *Engine) publish(kind string, payload any) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
}
