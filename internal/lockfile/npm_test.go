package lockfile

import (
	"testing"

	"github.com/blackwell-systems/depsnap/internal/store"
)

const sampleNpmLock = `{
  "name": "demo",
  "lockfileVersion": 3,
  "packages": {
    "": {
      "name": "demo",
      "version": "1.0.0"
    },
    "node_modules/lodash": {
      "version": "4.17.21",
      "resolved": "https://registry.npmjs.org/lodash/-/lodash-4.17.21.tgz",
      "integrity": "sha512-v2kDE"
    },
    "node_modules/@babel/core": {
      "version": "7.23.0",
      "dev": true,
      "integrity": "sha512-babel"
    },
    "node_modules/esbuild": {
      "version": "0.19.5",
      "hasInstallScript": true
    },
    "node_modules/lodash/node_modules/semver": {
      "version": "7.5.4"
    },
    "node_modules/mystery": {
      "integrity": "sha512-noversion"
    }
  }
}`

func parseNpm(t *testing.T, data string) map[string]*store.SnapshotDependency {
	t.Helper()
	deps, err := Parse(TypeNpm, []byte(data))
	if err != nil {
		t.Fatalf("Parse(npm) failed: %v", err)
	}

	byName := make(map[string]*store.SnapshotDependency, len(deps))
	for _, dep := range deps {
		byName[dep.Name] = dep
	}
	return byName
}

func TestNpmParse(t *testing.T) {
	byName := parseNpm(t, sampleNpmLock)

	if len(byName) != 5 {
		t.Fatalf("expected 5 dependencies (root skipped), got %d", len(byName))
	}

	lodash := byName["lodash"]
	if lodash == nil {
		t.Fatal("lodash not parsed")
	}
	if lodash.Version != "4.17.21" {
		t.Errorf("lodash version = %s, want 4.17.21", lodash.Version)
	}
	if !lodash.IsDirect {
		t.Error("lodash should be direct (no nested node_modules segment)")
	}
	if lodash.IsDev {
		t.Error("lodash should not be dev")
	}
	if lodash.IntegrityHash != "sha512-v2kDE" {
		t.Errorf("lodash integrity = %s", lodash.IntegrityHash)
	}
	if lodash.ResolvedURL != "https://registry.npmjs.org/lodash/-/lodash-4.17.21.tgz" {
		t.Errorf("lodash resolved = %s", lodash.ResolvedURL)
	}

	babel := byName["@babel/core"]
	if babel == nil {
		t.Fatal("scoped package @babel/core not parsed")
	}
	if !babel.IsDev {
		t.Error("@babel/core should be dev")
	}

	esbuild := byName["esbuild"]
	if esbuild == nil || !esbuild.HasPostinstall {
		t.Error("esbuild should carry hasInstallScript")
	}

	// Nested entry: transitive, not direct.
	for name, dep := range byName {
		if name != "lodash" && name != "@babel/core" && name != "esbuild" && name != "mystery" {
			if dep.IsDirect {
				t.Errorf("nested dependency %s should not be direct", name)
			}
		}
	}

	if byName["mystery"].Version != "unknown" {
		t.Errorf("missing version should default to 'unknown', got %s", byName["mystery"].Version)
	}
}

func TestNpmParse_Malformed(t *testing.T) {
	if _, err := Parse(TypeNpm, []byte("not json at all")); err == nil {
		t.Error("malformed package-lock.json should fail parsing")
	}
}

func TestNpmParse_EmptyPackages(t *testing.T) {
	deps, err := Parse(TypeNpm, []byte(`{"packages": {}}`))
	if err != nil {
		t.Fatalf("Parse(npm) failed: %v", err)
	}
	if len(deps) != 0 {
		t.Errorf("expected no dependencies, got %d", len(deps))
	}
}
