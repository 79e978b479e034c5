package app

import (
	"fmt"
	"path/filepath"

	"github.com/blackwell-systems/depsnap/internal/artifacts"
	"github.com/blackwell-systems/depsnap/internal/snapshot"
	"github.com/blackwell-systems/depsnap/internal/store"
)

// openStore opens the snapshot database and ensures the schema exists.
// Callers own the returned store and must Close it.
func openStore() (*store.Store, error) {
	path, err := getDBPath()
	if err != nil {
		return nil, err
	}

	st, err := store.New(path)
	if err != nil {
		return nil, err
	}

	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, err
	}

	return st, nil
}

// newManager wires a snapshot Manager from the configured database and
// storage paths.
func newManager() (*snapshot.Manager, *store.Store, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	dir, err := getStorageDir()
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	return snapshot.NewManager(st, artifacts.New(dir)), st, nil
}

// resolveProjectPath normalizes a user-supplied project path to an
// absolute path so history queries match across invocations.
func resolveProjectPath(arg string) (string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project path %s: %w", arg, err)
	}
	return abs, nil
}
