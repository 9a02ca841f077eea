package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBaseDir(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := BaseDir()
	want := filepath.Join(home, ".apptrack")
	if got != want {
		t.Errorf("BaseDir() = %q, want %q", got, want)
	}
}

func TestDataFilePath(t *testing.T) {
	got := DataFilePath("/base")
	want := filepath.Join("/base", "data", "Applications.csv")
	if got != want {
		t.Errorf("DataFilePath(/base) = %q, want %q", got, want)
	}
}

func TestConfigPath(t *testing.T) {
	got := ConfigPath("/base")
	want := filepath.Join("/base", "config", "config.toml")
	if got != want {
		t.Errorf("ConfigPath(/base) = %q, want %q", got, want)
	}
}

func TestLockPath(t *testing.T) {
	got := LockPath("/base")
	want := filepath.Join("/base", "LOCK")
	if got != want {
		t.Errorf("LockPath(/base) = %q, want %q", got, want)
	}
}

func TestEnsureDirs(t *testing.T) {
	base := filepath.Join(t.TempDir(), "apptrack")
	if err := EnsureDirs(base); err != nil {
		t.Fatalf("EnsureDirs() error = %v", err)
	}

	for _, d := range []string{base, ConfigDir(base), DataDir(base), LogDir(base)} {
		info, err := os.Stat(d)
		if err != nil {
			t.Fatalf("dir %s not created: %v", d, err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", d)
		}
	}
}
