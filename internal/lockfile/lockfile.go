// Package lockfile locates a JavaScript project's dependency lockfile and
// parses it into the unified dependency list the rest of depsnap works
// with. Each supported format has its own parser implementation; the
// Type enum selects which one runs so format quirks stay independently
// testable.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/depsnap/internal/store"
)

// ErrNoLockfile is returned when a project directory contains none of
// the supported lockfiles. The capitalized message is part of the
// recorded-error contract consumers match on.
var ErrNoLockfile = errors.New("No lockfile found")

// Type identifies a lockfile format.
type Type string

const (
	TypeNpm  Type = "npm"
	TypePnpm Type = "pnpm"
	TypeYarn Type = "yarn"
	TypeBun  Type = "bun"
)

// Filename returns the lockfile name used by this format.
func (t Type) Filename() string {
	switch t {
	case TypePnpm:
		return "pnpm-lock.yaml"
	case TypeNpm:
		return "package-lock.json"
	case TypeYarn:
		return "yarn.lock"
	case TypeBun:
		return "bun.lockb"
	}
	return ""
}

// locatePriority is the fixed detection order. When a project carries
// several lockfiles the first existing one wins, so every snapshot has
// exactly one lockfile type.
var locatePriority = []Type{TypePnpm, TypeNpm, TypeYarn, TypeBun}

// Locate finds the project's lockfile, checking the supported formats in
// priority order (pnpm > npm > yarn > bun). It returns the detected type
// and the lockfile's full path, or ErrNoLockfile when none exist.
func Locate(projectPath string) (Type, string, error) {
	for _, t := range locatePriority {
		path := filepath.Join(projectPath, t.Filename())
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return t, path, nil
		}
	}
	return "", "", fmt.Errorf("%w in %s", ErrNoLockfile, projectPath)
}

// Parser parses one lockfile format into the unified dependency list.
type Parser interface {
	Parse(data []byte) ([]*store.SnapshotDependency, error)
}

// ParserFor returns the parser implementation for a lockfile type.
func ParserFor(t Type) (Parser, error) {
	switch t {
	case TypeNpm:
		return &npmParser{}, nil
	case TypePnpm:
		return &pnpmParser{}, nil
	case TypeYarn:
		return &yarnParser{}, nil
	case TypeBun:
		return &bunParser{}, nil
	}
	return nil, fmt.Errorf("unsupported lockfile type %q", t)
}

// Parse dispatches raw lockfile bytes to the parser for the given type.
func Parse(t Type, data []byte) ([]*store.SnapshotDependency, error) {
	p, err := ParserFor(t)
	if err != nil {
		return nil, err
	}
	return p.Parse(data)
}
