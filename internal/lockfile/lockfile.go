// Package lockfile keeps two modinstall processes from driving the same
// data root at once.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Name is the lock file created inside the data root.
const Name = "modinstall.lock"

// HeldError reports a lock owned by a live process.
type HeldError struct {
	Path string
	PID  int
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("modinstall is already running (PID %d); close it or remove %s if it is stale", e.PID, e.Path)
}

// Lock is an acquired instance lock. Release it on exit.
type Lock struct {
	path string
	file *os.File
}

// Acquire takes the lock in dataRoot. A lock left behind by a process that
// no longer exists is removed and taken over.
func Acquire(dataRoot string) (*Lock, error) {
	path := filepath.Join(dataRoot, Name)
	l, err := create(path)
	if err == nil || !errors.Is(err, os.ErrExist) {
		return l, err
	}
	pid, err := Holder(path)
	if err != nil {
		return nil, fmt.Errorf("lock %s is unreadable, remove it if no other instance is running: %w", path, err)
	}
	if processExists(pid) {
		return nil, &HeldError{Path: path, PID: pid}
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale lock (PID %d): %w", pid, err)
	}
	return create(path)
}

func create(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("write lock: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("sync lock: %w", err)
	}
	return &Lock{path: path, file: f}, nil
}

// Holder returns the PID recorded in the lock file at path.
func Holder(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID %q", strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// Held returns the PID of a live process holding the lock in dataRoot, or
// 0 when the lock is free or stale.
func Held(dataRoot string) (int, error) {
	pid, err := Holder(filepath.Join(dataRoot, Name))
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !processExists(pid) {
		return 0, nil
	}
	return pid, nil
}

// signal 0 probes without delivering; EPERM still means the process exists.
func processExists(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = p.Signal(syscall.Signal(0))
	return err == nil || (!errors.Is(err, syscall.ESRCH) && !errors.Is(err, os.ErrProcessDone))
}

// Release closes and removes the lock file. It is safe to call twice.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock: %w", err)
	}
	return nil
}

func (l *Lock) Path() string { return l.path }
