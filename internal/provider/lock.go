package provider

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/giantswarm/ravenembed/internal/fileutil"
)

// lockRetryInterval is the interval between consecutive attempts to acquire
// the server directory lock.
const lockRetryInterval = 50 * time.Millisecond

// LockPath returns the lock file guarding targetDir. It sits next to the
// directory so clearing the directory does not remove the lock.
func LockPath(targetDir string) string {
	return filepath.Clean(targetDir) + ".lock"
}

// Lock acquires an exclusive cross-process lock on targetDir. It respects
// context cancellation.
func Lock(ctx context.Context, targetDir string) (*flock.Flock, error) {
	lockPath := LockPath(targetDir)
	if err := fileutil.EnsureDirForFile(lockPath); err != nil {
		return nil, err
	}

	fl := flock.New(lockPath)
	locked, err := fl.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquiring file lock %s: %w", lockPath, err)
	}
	if !locked {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquiring file lock %s: %w", lockPath, ctx.Err())
		}
		return nil, fmt.Errorf("acquiring file lock %s: lock not acquired", lockPath)
	}
	return fl, nil
}

// Unlock releases the lock and closes its file descriptor. The lock file is
// left on disk; removing it could invalidate a lock another process acquired
// in the meantime. Errors are logged at debug level.
func Unlock(logger *slog.Logger, fl *flock.Flock) {
	if fl == nil {
		return
	}
	if err := fl.Close(); err != nil {
		logger.Debug("failed to release file lock", "path", fl.Path(), "err", err)
	}
}
