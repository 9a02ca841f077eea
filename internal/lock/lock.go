// Package lock guards the data directory so only one daemon writes the
// applications file at a time.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// HeldError is returned when another process holds the data directory.
type HeldError struct {
	PID  int
	Path string
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("data directory locked by PID %d (%s)", e.PID, e.Path)
}

// Guard is an acquired data directory lock.
type Guard struct {
	file *os.File
	path string
}

// Acquire takes an exclusive flock on the lock file at path. The lock
// follows the file descriptor, so a crashed holder releases it
// automatically. Returns HeldError when another process already holds it.
func Acquire(path string) (*Guard, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		data, _ := os.ReadFile(path)
		pid := ownerPID(string(data))
		_ = f.Close()
		return nil, &HeldError{PID: pid, Path: path}
	}

	if err := writeOwner(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Guard{file: f, path: path}, nil
}

// Release drops the lock and removes the file. Safe on a nil receiver
// and safe to call twice.
func (g *Guard) Release() error {
	if g == nil || g.file == nil {
		return nil
	}
	_ = os.Remove(g.path)
	err := g.file.Close()
	g.file = nil
	return err
}

// writeOwner records who holds the lock, for the diagnostic in HeldError.
func writeOwner(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	_, err := fmt.Fprintf(f, "pid=%d\ntime=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	return err
}

func ownerPID(content string) int {
	for _, line := range strings.Split(content, "\n") {
		if after, ok := strings.CutPrefix(line, "pid="); ok {
			pid, _ := strconv.Atoi(after)
			return pid
		}
	}
	return 0
}
