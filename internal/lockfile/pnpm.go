package lockfile

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/depsnap/internal/store"
)

// pnpmParser handles pnpm-lock.yaml. The "packages" mapping is keyed by
// "/name@version" or "/@scope/name@version", optionally with trailing
// peer-dependency segments.
//
// Two documented accuracy gaps: IsDirect is always false because the
// importer graph is not parsed, and HasPostinstall is approximated by
// the presence of a hasBin or scripts key rather than an exact
// lifecycle-hook check (pnpm-lock does not carry npm's explicit
// hasInstallScript flag).
type pnpmParser struct{}

type pnpmLock struct {
	Packages map[string]pnpmLockEntry `yaml:"packages"`
}

type pnpmLockEntry struct {
	Dev        bool              `yaml:"dev"`
	HasBin     bool              `yaml:"hasBin"`
	Scripts    map[string]string `yaml:"scripts"`
	Resolution pnpmResolution    `yaml:"resolution"`
}

type pnpmResolution struct {
	Integrity string `yaml:"integrity"`
}

func (p *pnpmParser) Parse(data []byte) ([]*store.SnapshotDependency, error) {
	var lock pnpmLock
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("failed to parse pnpm-lock.yaml: %w", err)
	}

	var deps []*store.SnapshotDependency
	for key, entry := range lock.Packages {
		name, version, ok := splitPnpmKey(key)
		if !ok {
			continue
		}

		deps = append(deps, &store.SnapshotDependency{
			Name:           name,
			Version:        version,
			IsDev:          entry.Dev,
			HasPostinstall: entry.HasBin || entry.Scripts != nil,
			IntegrityHash:  entry.Resolution.Integrity,
		})
	}

	return deps, nil
}

// splitPnpmKey splits a packages key such as "/lodash@4.17.21" or
// "/@babel/core@7.23.0(supports-color@9.4.0)" into name and version.
// The split is on the last "@" with the guard that the split index is
// greater than zero, so the leading "@" of a scoped name never splits.
func splitPnpmKey(key string) (name, version string, ok bool) {
	key = strings.TrimPrefix(key, "/")

	// Drop peer-dependency suffixes appended after the version.
	if idx := strings.IndexByte(key, '('); idx >= 0 {
		key = key[:idx]
	}

	at := strings.LastIndex(key, "@")
	if at <= 0 || at == len(key)-1 {
		return "", "", false
	}

	return key[:at], key[at+1:], true
}
