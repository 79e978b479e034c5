// Package artifacts persists compressed copies of captured files under a
// snapshot-id-scoped namespace. Artifacts are written atomically (temp
// file + rename) so a crash mid-write never leaves a half-written file
// visible, and decompression reproduces the original bytes exactly.
package artifacts

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// packageJSONArtifact is the stored name for a project's manifest copy.
const packageJSONArtifact = "package.json"

// Store writes and reads snapshot artifacts under a single root directory.
type Store struct {
	root string
}

// New creates an artifact store rooted at dir. The directory is created
// on first write, not here, so constructing a store is side-effect free.
func New(dir string) *Store {
	return &Store{root: dir}
}

// SnapshotDir returns the namespace directory for a snapshot id.
// Every artifact of that snapshot lives below this path.
func (s *Store) SnapshotDir(snapshotID string) string {
	return filepath.Join(s.root, snapshotID)
}

// StoreLockfile persists a gzip-compressed copy of the raw lockfile under
// the snapshot's namespace, keyed by its original filename. It returns
// the artifact path and the compressed size in bytes.
func (s *Store) StoreLockfile(snapshotID, filename string, data []byte) (string, int64, error) {
	return s.write(snapshotID, filename, data)
}

// StorePackageJSON persists a gzip-compressed copy of the project's
// package.json under the snapshot's namespace.
func (s *Store) StorePackageJSON(snapshotID string, data []byte) (string, int64, error) {
	return s.write(snapshotID, packageJSONArtifact, data)
}

// ReadArtifact reads and decompresses an artifact previously written by
// this store, returning the original bytes.
func ReadArtifact(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %s: %w", path, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read gzip header of %s: %w", path, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress artifact %s: %w", path, err)
	}

	return data, nil
}

func (s *Store) write(snapshotID, filename string, data []byte) (string, int64, error) {
	dir := s.SnapshotDir(snapshotID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return "", 0, fmt.Errorf("failed to compress %s: %w", filename, err)
	}
	if err := zw.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to finish compressing %s: %w", filename, err)
	}

	path := filepath.Join(dir, filename+".gz")

	// Write to a temp file in the same directory, then rename. Rename is
	// atomic on the same filesystem, so readers only ever see complete
	// artifacts.
	tmp, err := os.CreateTemp(dir, filename+".tmp-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp artifact for %s: %w", filename, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("failed to write artifact %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("failed to close artifact %s: %w", filename, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("failed to finalize artifact %s: %w", filename, err)
	}

	return path, int64(buf.Len()), nil
}
