package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// LockFileName is created inside the recipe directory while a build runs.
const LockFileName = ".build.lock"

// lockPollInterval is how often a waiting process retries the build lock.
const lockPollInterval = 50 * time.Millisecond

// fileLock is an exclusive, cross-process lock on a file.
type fileLock struct {
	f     *os.File
	path  string
	owner string
}

// acquireLock blocks until the lock at path is held or ctx is done.
// The holder writes an owner token and pid into the file for diagnostics.
func acquireLock(ctx context.Context, path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open build lock %s", path)
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := tryLock(f)
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "lock %s", path)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, errors.Wrapf(ctx.Err(), "waiting for build lock %s", path)
		case <-ticker.C:
		}
	}

	l := &fileLock{f: f, path: path, owner: uuid.NewString()}
	if err := f.Truncate(0); err == nil {
		_, _ = fmt.Fprintf(f, "%s %d\n", l.owner, os.Getpid())
	}
	return l, nil
}

// release unlocks and closes the lock file. The file itself is left in place;
// removing it would let a waiter lock an inode nobody else can see.
func (l *fileLock) release() error {
	err := unlock(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	return err
}
