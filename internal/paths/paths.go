package paths

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.apptrack.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".apptrack")
}

// ConfigDir returns the configuration directory.
func ConfigDir(base string) string {
	return filepath.Join(base, "config")
}

// ConfigPath returns the config.toml path.
func ConfigPath(base string) string {
	return filepath.Join(ConfigDir(base), "config.toml")
}

// DataDir returns the directory holding the applications file.
func DataDir(base string) string {
	return filepath.Join(base, "data")
}

// DataFilePath returns the default applications CSV path.
func DataFilePath(base string) string {
	return filepath.Join(DataDir(base), "Applications.csv")
}

// LogDir returns the log directory.
func LogDir(base string) string {
	return filepath.Join(base, "logs")
}

// LogPath returns the daemon log file path.
func LogPath(base string) string {
	return filepath.Join(LogDir(base), "apptrackd.log")
}

// LockPath returns the data-directory lock file path.
func LockPath(base string) string {
	return filepath.Join(base, "LOCK")
}

// EnsureDirs creates the base directory tree with owner-only permissions.
func EnsureDirs(base string) error {
	dirs := []string{
		base,
		ConfigDir(base),
		DataDir(base),
		LogDir(base),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
