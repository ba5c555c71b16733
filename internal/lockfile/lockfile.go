// Package lockfile guards the state directory against concurrent ChaseFlow
// processes. An flock-backed lock file records the owning PID; the kernel
// drops the lock when the owner exits, so a crash never leaves the directory
// permanently locked.
package lockfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// LockFileName is the lock file created inside the state directory.
const LockFileName = "chaseflow.lock"

// Lock is a held state-directory lock. Release it when the process is done
// with the directory.
type Lock struct {
	file *os.File
	path string
}

// AcquireLock takes an exclusive lock on the state directory, creating the
// directory if needed. When another process holds the lock the returned
// error is a *LockError describing the owner.
func AcquireLock(stateDir string) (*Lock, error) {
	path := filepath.Join(stateDir, LockFileName)
	slog.Debug("AcquireLock: acquiring state directory lock", "path", path)

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", stateDir, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		owner := describeOwner(path)
		slog.Error("AcquireLock: state directory already locked", "path", path, "owner", owner)
		return nil, &LockError{Path: path, Owner: owner, Cause: err}
	}

	// Truncate only after winning the flock, so a losing process cannot
	// wipe the owner record while the winner still runs.
	if err := file.Truncate(0); err != nil {
		releaseFile(file, path)
		return nil, fmt.Errorf("failed to truncate lock file %s: %w", path, err)
	}
	if _, err := fmt.Fprintf(file, "pid=%d started=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339)); err != nil {
		releaseFile(file, path)
		return nil, fmt.Errorf("failed to write lock owner to %s: %w", path, err)
	}
	if err := file.Sync(); err != nil {
		slog.Warn("AcquireLock: failed to sync lock file", "error", err, "path", path)
	}

	slog.Info("State directory lock acquired", "path", path, "pid", os.Getpid())
	return &Lock{file: file, path: path}, nil
}

// Release drops the lock and removes the lock file. Calling it on an
// already-released lock is a no-op.
func (l *Lock) Release() error {
	if l.file == nil {
		slog.Debug("Release: lock already released", "path", l.path)
		return nil
	}

	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		slog.Warn("Release: failed to drop flock", "error", err, "path", l.path)
	}
	if err := l.file.Close(); err != nil {
		slog.Warn("Release: failed to close lock file", "error", err, "path", l.path)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		slog.Warn("Release: failed to remove lock file", "error", err, "path", l.path)
	}
	l.file = nil

	slog.Info("State directory lock released", "path", l.path)
	return nil
}

// releaseFile undoes a half-finished acquisition.
func releaseFile(file *os.File, path string) {
	syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
	file.Close()
	os.Remove(path)
}

// LockError reports a lock held by another process.
type LockError struct {
	Path  string
	Owner string
	Cause error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("another ChaseFlow instance is already running against this state directory (lock %s held by %s); "+
		"if that process is gone the lock is stale and can be removed with: rm %s", e.Path, e.Owner, e.Path)
}

func (e *LockError) Unwrap() error {
	return e.Cause
}

// describeOwner summarizes who holds the lock file for error messages.
func describeOwner(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown owner"
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return "unknown owner"
	}

	pid := parsePID(content)
	if pid == 0 {
		return content
	}
	if processAlive(pid) {
		return fmt.Sprintf("PID %d (running)", pid)
	}
	return fmt.Sprintf("PID %d (not running, lock is stale)", pid)
}

// parsePID pulls the pid= field out of lock file content.
func parsePID(content string) int {
	for _, field := range strings.Fields(content) {
		if v, ok := strings.CutPrefix(field, "pid="); ok {
			if pid, err := strconv.Atoi(v); err == nil && pid > 0 {
				return pid
			}
		}
	}
	return 0
}

// processAlive reports whether a PID refers to a live process, using the
// Unix signal-0 probe.
func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
