package app

import (
	"context"

	"github.com/apptrack/apptrack/internal/bus"
	"github.com/apptrack/apptrack/internal/config"
	"github.com/apptrack/apptrack/internal/lock"
	"github.com/apptrack/apptrack/internal/logging"
	"github.com/apptrack/apptrack/internal/paths"
	"github.com/apptrack/apptrack/internal/persist"
	"github.com/apptrack/apptrack/internal/record"
	"github.com/apptrack/apptrack/internal/sheets"
	"github.com/apptrack/apptrack/internal/status"
	intsync "github.com/apptrack/apptrack/internal/sync"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved base directory passed to the fx module.
type Params struct {
	BaseDir string
}

// Module returns the fx module for the daemon, composing all providers
// and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("app",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideGuard,
			provideConfig,
			provideStore,
			provideSaver,
			provideRemote,
			provideSyncEngine,
			provideScheduler,
			provideTracker,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := paths.EnsureDirs(p.BaseDir); err != nil {
		return nil, err
	}
	return logging.New(paths.LogPath(p.BaseDir))
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideGuard(p Params, logger *zap.Logger) (*lock.Guard, error) {
	logger.Info("acquiring data directory lock", zap.String("dir", p.BaseDir))
	g, err := lock.Acquire(paths.LockPath(p.BaseDir))
	if err != nil {
		return nil, err
	}
	logger.Info("data directory lock acquired")
	return g, nil
}

func provideConfig(p Params, logger *zap.Logger) (*config.Config, error) {
	path := paths.ConfigPath(p.BaseDir)
	cfg, result, err := config.Load(path, config.Defaults(paths.DataFilePath(p.BaseDir)))
	if err != nil {
		return nil, err
	}
	switch {
	case result.CreatedDefault:
		logger.Info("wrote default config", zap.String("path", path))
	case result.RecoveredFromCorrupt:
		logger.Warn("config was corrupt, restored defaults",
			zap.String("path", path), zap.String("backup", result.BackupPath))
	}
	return cfg, nil
}

func provideStore(cfg *config.Config, b *bus.Bus, logger *zap.Logger) *record.Store {
	store := record.NewStore(b)
	snap := persist.Load(cfg.DataFilePath, logger)
	store.Seed(snap)
	logger.Info("store initialized", zap.String("path", cfg.DataFilePath), zap.Int("records", len(snap)))
	return store
}

func provideSaver(cfg *config.Config, store *record.Store, b *bus.Bus, logger *zap.Logger) *persist.Saver {
	return persist.NewSaver(cfg.DataFilePath, store.List, b, logger)
}

// provideRemote returns nil until the config names a service account key
// and spreadsheet; the tracker then reports sync as not configured.
func provideRemote(cfg *config.Config, logger *zap.Logger) (*sheets.Client, error) {
	if cfg.ServiceAccountFile == "" || cfg.SpreadsheetID == "" {
		logger.Info("google sync not configured")
		return nil, nil
	}
	client, err := sheets.NewClient(context.Background(), cfg.ServiceAccountFile, cfg.SpreadsheetID, logger)
	if err != nil {
		// Bad credentials should not keep local tracking from working.
		logger.Warn("google sync unavailable", zap.Error(err))
		return nil, nil
	}
	return client, nil
}

func provideSyncEngine(client *sheets.Client, store *record.Store, saver *persist.Saver, b *bus.Bus, logger *zap.Logger) *intsync.Engine {
	if client == nil {
		return nil
	}
	return intsync.NewEngine(intsync.EngineConfig{
		Store:  store,
		Remote: client,
		Saver:  saver,
		Bus:    b,
		Logger: logger,
	})
}

func provideScheduler(engine *intsync.Engine, machine *status.Machine, logger *zap.Logger) *intsync.Scheduler {
	if engine == nil {
		return nil
	}
	return intsync.NewScheduler(engine, machine, logger, intsync.DefaultInterval)
}

func provideTracker(
	p Params,
	store *record.Store,
	saver *persist.Saver,
	engine *intsync.Engine,
	scheduler *intsync.Scheduler,
	b *bus.Bus,
	cfg *config.Config,
	logger *zap.Logger,
) *Tracker {
	return NewTracker(TrackerConfig{
		Store:      store,
		Saver:      saver,
		Engine:     engine,
		Scheduler:  scheduler,
		Bus:        b,
		Config:     cfg,
		ConfigPath: paths.ConfigPath(p.BaseDir),
		Logger:     logger,
	})
}

func registerLifecycle(
	lc fx.Lifecycle,
	tracker *Tracker,
	saver *persist.Saver,
	engine *intsync.Engine,
	scheduler *intsync.Scheduler,
	guard *lock.Guard,
	cfg *config.Config,
	logger *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			saver.Start()
			if engine != nil {
				engine.Start()
			}
			if cfg.EnableGoogleSync {
				if err := tracker.EnableSync(); err != nil {
					logger.Warn("sync enabled in config but unavailable", zap.Error(err))
				}
			}
			logger.Info("daemon started")
			return nil
		},
		OnStop: func(_ context.Context) error {
			if scheduler != nil {
				scheduler.Disable()
			}
			if engine != nil {
				engine.Stop()
			}
			saver.Stop()
			if err := guard.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
