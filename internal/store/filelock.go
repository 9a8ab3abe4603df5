package store

import (
	"fmt"
	"os"
	"syscall"
)

// lockRecord acquires an exclusive advisory lock (LOCK_EX) for a record
// path, serialising the read-check-write cycle of checked writes within
// this host. It returns an unlock function that must be called to release
// the lock. Writers on other hosts are still only protected by the state
// token check.
func lockRecord(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path+".lock", os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring file lock: %w", err)
	}

	return func() error {
		defer f.Close()
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}
