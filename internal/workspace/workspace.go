// Package workspace manages the per-run scratch directory holding in-flight
// segment and intermediate files. A workspace is an explicitly passed,
// ownership-scoped value: the pipeline creates it at start, is the only
// writer, and decides on each exit path whether to remove it or leave it
// behind for inspection.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Workspace is one run's scratch directory.
type Workspace struct {
	root string
	lock *flock.Flock
}

// Create makes a uniquely named scratch directory under baseDir and takes a
// file lock inside it so no other process can claim the same workspace.
func Create(baseDir string) (*Workspace, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	root := filepath.Join(baseDir, "run-"+uuid.NewString())
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}

	lock := flock.New(filepath.Join(root, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		_ = os.RemoveAll(root)
		return nil, fmt.Errorf("lock scratch directory: %w", err)
	}
	if !locked {
		_ = os.RemoveAll(root)
		return nil, fmt.Errorf("scratch directory %s is already locked", root)
	}

	return &Workspace{root: root, lock: lock}, nil
}

// Root returns the workspace directory.
func (w *Workspace) Root() string {
	return w.root
}

// Path joins name onto the workspace root.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.root, name)
}

// Remove releases the lock and deletes the workspace with everything in it.
func (w *Workspace) Remove() error {
	if err := w.release(); err != nil {
		return err
	}
	if err := os.RemoveAll(w.root); err != nil {
		return fmt.Errorf("remove scratch directory: %w", err)
	}
	return nil
}

// Release unlocks the workspace but leaves its files on disk so a failed run
// can be inspected.
func (w *Workspace) Release() error {
	return w.release()
}

func (w *Workspace) release() error {
	if w.lock == nil {
		return nil
	}
	if err := w.lock.Unlock(); err != nil {
		return fmt.Errorf("unlock scratch directory: %w", err)
	}
	w.lock = nil
	return nil
}
