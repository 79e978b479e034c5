package lockfile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/blackwell-systems/depsnap/internal/store"
)

// npmParser handles package-lock.json (lockfileVersion 3 layout, where
// the "packages" map is keyed by install path).
type npmParser struct{}

type npmLock struct {
	Packages map[string]npmLockEntry `json:"packages"`
}

type npmLockEntry struct {
	Version          string `json:"version"`
	Dev              bool   `json:"dev"`
	HasInstallScript bool   `json:"hasInstallScript"`
	Integrity        string `json:"integrity"`
	Resolved         string `json:"resolved"`
}

func (p *npmParser) Parse(data []byte) ([]*store.SnapshotDependency, error) {
	var lock npmLock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("failed to parse package-lock.json: %w", err)
	}

	var deps []*store.SnapshotDependency
	for key, entry := range lock.Packages {
		// The "" key is the root project itself, not a dependency.
		if key == "" {
			continue
		}

		name := strings.TrimPrefix(key, "node_modules/")

		version := entry.Version
		if version == "" {
			version = "unknown"
		}

		deps = append(deps, &store.SnapshotDependency{
			Name:    name,
			Version: version,
			// A nested /node_modules/ segment means the package was
			// hoisted under another dependency, i.e. transitive.
			IsDirect:       !strings.Contains(key, "/node_modules/"),
			IsDev:          entry.Dev,
			HasPostinstall: entry.HasInstallScript,
			IntegrityHash:  entry.Integrity,
			ResolvedURL:    entry.Resolved,
		})
	}

	return deps, nil
}
