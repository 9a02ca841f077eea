package lock

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireWritesOwnerAndReleases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LOCK")

	g, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	if !strings.Contains(string(data), "pid=") {
		t.Errorf("lock file missing owner pid: %q", data)
	}

	if err := g.Release(); err != nil {
		t.Errorf("Release() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("lock file still present after Release")
	}
}

func TestSecondAcquireFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LOCK")

	g, err := Acquire(path)
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	defer func() { _ = g.Release() }()

	_, err = Acquire(path)
	if err == nil {
		t.Fatal("second Acquire() should fail")
	}
	var held *HeldError
	if !errors.As(err, &held) {
		t.Errorf("expected HeldError, got %T: %v", err, err)
	}
	if held.PID != os.Getpid() {
		t.Errorf("HeldError.PID = %d, want %d", held.PID, os.Getpid())
	}
}

func TestAcquireAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "LOCK")

	g, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := g.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	g2, err := Acquire(path)
	if err != nil {
		t.Fatalf("re-Acquire() error = %v", err)
	}
	_ = g2.Release()
}

func TestReleaseNilAndTwice(t *testing.T) {
	var g *Guard
	if err := g.Release(); err != nil {
		t.Errorf("nil Release() error = %v", err)
	}

	g, err := Acquire(filepath.Join(t.TempDir(), "LOCK"))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := g.Release(); err != nil {
		t.Errorf("first Release() error = %v", err)
	}
	if err := g.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
}
