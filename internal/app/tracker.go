// Package app wires the record store, persistence, and sync engine into
// one application and exposes the operations the UI layer calls.
package app

import (
	"errors"
	gosync "sync"

	"github.com/apptrack/apptrack/internal/bus"
	"github.com/apptrack/apptrack/internal/config"
	"github.com/apptrack/apptrack/internal/persist"
	"github.com/apptrack/apptrack/internal/record"
	intsync "github.com/apptrack/apptrack/internal/sync"
	"go.uber.org/zap"
)

// ErrSyncNotConfigured is returned by the sync operations until a
// service account file and spreadsheet id are present in the config.
var ErrSyncNotConfigured = errors.New("google sync not configured: set service_account_file and spreadsheet_id")

// TrackerConfig holds the collaborators of a Tracker. Engine and
// Scheduler are nil when remote sync is not configured; every sync
// operation then reports ErrSyncNotConfigured.
type TrackerConfig struct {
	Store      *record.Store
	Saver      *persist.Saver
	Engine     *intsync.Engine
	Scheduler  *intsync.Scheduler
	Bus        *bus.Bus
	Config     *config.Config
	ConfigPath string
	Logger     *zap.Logger
}

// Tracker is the application facade. Every mutation lands in the store
// first, then queues a local save and, when sync is enabled, a push of
// the resulting table.
type Tracker struct {
	store      *record.Store
	saver      *persist.Saver
	engine     *intsync.Engine
	scheduler  *intsync.Scheduler
	bus        *bus.Bus
	logger     *zap.Logger
	configPath string

	cfgMu gosync.Mutex
	cfg   *config.Config
}

// NewTracker creates the facade.
func NewTracker(tc TrackerConfig) *Tracker {
	logger := tc.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		store:      tc.Store,
		saver:      tc.Saver,
		engine:     tc.Engine,
		scheduler:  tc.Scheduler,
		bus:        tc.Bus,
		logger:     logger,
		configPath: tc.ConfigPath,
		cfg:        tc.Config,
	}
}

// List returns a copy of all records.
func (t *Tracker) List() record.Snapshot {
	return t.store.List()
}

// Search returns the records matching term in any field.
func (t *Tracker) Search(term string) record.Snapshot {
	return t.store.Search(term)
}

// Filter returns the records matching pred.
func (t *Tracker) Filter(pred func(record.Application) bool) record.Snapshot {
	return t.store.Filter(pred)
}

// Add appends a record and returns its id.
func (t *Tracker) Add(app record.Application) (int, error) {
	id, err := t.store.Add(app)
	if err != nil {
		return 0, err
	}
	t.changed()
	return id, nil
}

// Update sets one field of the record with the given id.
func (t *Tracker) Update(id int, field, value string) error {
	if err := t.store.Update(id, field, value); err != nil {
		return err
	}
	t.changed()
	return nil
}

// Delete removes the given records.
func (t *Tracker) Delete(ids []int) error {
	if err := t.store.Delete(ids); err != nil {
		return err
	}
	t.changed()
	return nil
}

// EnableSync turns periodic synchronization on, persists the flag, and
// starts with an immediate pull.
func (t *Tracker) EnableSync() error {
	if t.scheduler == nil {
		return ErrSyncNotConfigured
	}
	if err := t.setEnableFlag(true); err != nil {
		return err
	}
	t.scheduler.Enable()
	return nil
}

// DisableSync stops periodic synchronization and persists the flag. No
// pull starts after it returns.
func (t *Tracker) DisableSync() error {
	if t.scheduler == nil {
		return ErrSyncNotConfigured
	}
	t.scheduler.Disable()
	return t.setEnableFlag(false)
}

// TriggerSync requests one pull now.
func (t *Tracker) TriggerSync() error {
	if t.scheduler == nil {
		return ErrSyncNotConfigured
	}
	t.scheduler.Trigger()
	return nil
}

// SyncState reports synchronization health for display.
func (t *Tracker) SyncState() intsync.View {
	if t.engine == nil {
		return intsync.View{}
	}
	return t.engine.State().View()
}

// Config returns a copy of the current configuration.
func (t *Tracker) Config() config.Config {
	t.cfgMu.Lock()
	defer t.cfgMu.Unlock()
	return *t.cfg
}

// SetTheme persists the UI theme choice.
func (t *Tracker) SetTheme(theme string) error {
	t.cfgMu.Lock()
	defer t.cfgMu.Unlock()
	t.cfg.Theme = theme
	return config.Save(t.configPath, t.cfg)
}

// Subscribe registers for change notifications; see the bus package for
// namespaces.
func (t *Tracker) Subscribe(namespace string, bufSize int) *bus.Subscription {
	return t.bus.Subscribe(namespace, bufSize)
}

// Flush writes the table to disk now. Used on shutdown paths that cannot
// wait for the saver.
func (t *Tracker) Flush() error {
	return t.saver.Flush()
}

func (t *Tracker) changed() {
	t.saver.Request()
	if t.engine != nil {
		t.engine.RequestPush()
	}
}

func (t *Tracker) setEnableFlag(enabled bool) error {
	t.cfgMu.Lock()
	defer t.cfgMu.Unlock()
	t.cfg.EnableGoogleSync = enabled
	if err := config.Save(t.configPath, t.cfg); err != nil {
		t.logger.Error("persisting sync flag failed", zap.Error(err))
		return err
	}
	return nil
}
