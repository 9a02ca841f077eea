package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// BackupSuffix is appended to a corrupt config file before defaults are
// substituted.
const BackupSuffix = ".bak"

// Config holds the engine's configuration. It is passed explicitly into
// constructors, never read from ambient global state.
type Config struct {
	EnableGoogleSync   bool   `toml:"enable_google_sync"`
	ServiceAccountFile string `toml:"service_account_file"`
	SpreadsheetID      string `toml:"spreadsheet_id"`
	DataFilePath       string `toml:"data_file_path"`

	// Theme is owned by the UI layer; the engine only round-trips it.
	Theme string `toml:"theme"`
}

// Defaults returns the configuration written when none exists yet.
// dataFilePath points at the default applications file.
func Defaults(dataFilePath string) *Config {
	return &Config{
		EnableGoogleSync: false,
		DataFilePath:     dataFilePath,
		Theme:            "Light",
	}
}

// LoadResult reports how the configuration was obtained, so the caller
// can surface a user-visible warning when recovery happened.
type LoadResult struct {
	// CreatedDefault is true when no config file existed and defaults
	// were written back.
	CreatedDefault bool
	// RecoveredFromCorrupt is true when the existing file failed to
	// parse and was replaced by defaults.
	RecoveredFromCorrupt bool
	// BackupPath holds the copy of the corrupt file, when one was made.
	BackupPath string
}

// Load reads config from path. A missing file produces defaults written
// back to disk; a corrupt file is backed up under BackupSuffix before
// defaults are substituted. Only I/O failures surface as errors.
func Load(path string, defaults *Config) (*Config, LoadResult, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err == nil {
		return &cfg, LoadResult{}, nil
	}

	if os.IsNotExist(err) {
		if err := Save(path, defaults); err != nil {
			return nil, LoadResult{}, fmt.Errorf("write default config: %w", err)
		}
		out := *defaults
		return &out, LoadResult{CreatedDefault: true}, nil
	}

	// Parse failure: keep the broken file around for inspection, then
	// fall back to defaults.
	backup := path + BackupSuffix
	if data, readErr := os.ReadFile(path); readErr == nil {
		_ = os.WriteFile(backup, data, 0600)
	} else {
		backup = ""
	}
	if err := Save(path, defaults); err != nil {
		return nil, LoadResult{}, fmt.Errorf("write recovery config: %w", err)
	}
	out := *defaults
	return &out, LoadResult{RecoveredFromCorrupt: true, BackupPath: backup}, nil
}

// Save writes config to path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
