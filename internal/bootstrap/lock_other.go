//go:build !unix && !windows

package bootstrap

import "os"

// tryLock always succeeds; only the in-process build-once guarantee holds here.
func tryLock(_ *os.File) (bool, error) {
	return true, nil
}

func unlock(_ *os.File) error {
	return nil
}
