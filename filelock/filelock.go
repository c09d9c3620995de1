// Package filelock provides exclusive-creation primitives built on O_EXCL.
//
// TryLock guards a path against a second exporter process, and CreateExclusive
// reserves a file name so that no two writers can claim it.
package filelock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrLockHeld is returned when attempting to acquire a lock that is already held.
var ErrLockHeld = errors.New("lock already held")

// ErrExists is returned by CreateExclusive when the file is already present.
var ErrExists = fmt.Errorf("file already exists: %w", os.ErrExist)

// LockInfo is written into the lock file so that a stale lock can be traced to its owner.
type LockInfo struct {
	PID       int    `json:"pid"`
	Timestamp string `json:"timestamp"`
	Hostname  string `json:"hostname,omitempty"`
	Owner     string `json:"owner,omitempty"`
}

// lockPath returns the absolute path of the lock file guarding path.
func lockPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return absPath + ".lock", nil
}

// TryLock attempts to acquire a lock for the given path by creating path + ".lock".
// owner is recorded in the lock file (e.g. a run identifier) and may be empty.
// Returns a function to release the lock, or ErrLockHeld if another holder exists.
func TryLock(path string, owner string) (func(), error) {
	lockFile, err := lockPath(path)
	if err != nil {
		return nil, err
	}

	f, err := CreateExclusive(lockFile, 0o600)
	if err != nil {
		if errors.Is(err, ErrExists) {
			return nil, ErrLockHeld
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}

	hostname, _ := os.Hostname()
	info := LockInfo{
		PID:       os.Getpid(),
		Timestamp: time.Now().Format(time.RFC3339),
		Hostname:  hostname,
		Owner:     owner,
	}
	encErr := json.NewEncoder(f).Encode(info)
	closeErr := f.Close()
	if err := errors.Join(encErr, closeErr); err != nil {
		os.Remove(lockFile)
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}

	unlock := func() {
		os.Remove(lockFile)
	}
	return unlock, nil
}

// ReadLockInfo returns the owner information stored in the lock file guarding path.
func ReadLockInfo(path string) (LockInfo, error) {
	lockFile, err := lockPath(path)
	if err != nil {
		return LockInfo{}, err
	}
	data, err := os.ReadFile(lockFile)
	if err != nil {
		return LockInfo{}, err
	}
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return LockInfo{}, fmt.Errorf("failed to parse lock file %s: %w", lockFile, err)
	}
	return info, nil
}

// CreateExclusive creates path for writing and fails with ErrExists if it is already present.
// The check and the creation are a single atomic operation.
func CreateExclusive(path string, perm os.FileMode) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrExists
		}
		return nil, err
	}
	return f, nil
}
