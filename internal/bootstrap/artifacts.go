// Package bootstrap makes sure the precompiled operator libraries exist,
// building them with the external build recipe when they do not.
//
// Ensure is safe to call from many goroutines and many processes at once:
// calls in one process share a single build per recipe directory, and
// processes serialize on an exclusive lock file inside the recipe directory.
// After taking the lock the artifacts are checked again, so a build finished
// by another process is not repeated.
package bootstrap

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"
)

// Artifact is a file the build must produce, relative to the install directory.
type Artifact string

// Path resolves the artifact against dir.
func (a Artifact) Path(dir string) string {
	return filepath.Join(dir, filepath.FromSlash(string(a)))
}

// Status reports which artifacts exist.
type Status struct {
	Present []Artifact
	Missing []Artifact
}

// Complete reports whether every artifact exists.
func (s Status) Complete() bool {
	return len(s.Missing) == 0
}

// Check stats every artifact under dir. Anything that is not a regular file
// counts as missing.
func Check(dir string, artifacts []Artifact) Status {
	present, missing := lo.FilterReject(artifacts, func(a Artifact, _ int) bool {
		info, err := os.Stat(a.Path(dir))
		return err == nil && info.Mode().IsRegular()
	})
	return Status{Present: present, Missing: missing}
}
