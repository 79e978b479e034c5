package security

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// PostinstallEntry reports one package in node_modules that declares an
// install-time lifecycle script.
type PostinstallEntry struct {
	Package string // package name as installed (incl. @scope/ prefix)
	Hook    string // which lifecycle hook matched
	Script  string // the script body from package.json
}

// hookPriority is the order lifecycle hooks are checked in. A package
// contributes at most one entry: the first hook that matches wins even
// when several are defined.
var hookPriority = []string{"postinstall", "install", "preinstall"}

type nodeManifest struct {
	Scripts map[string]string `json:"scripts"`
}

// ScanPostinstallScripts inventories install-time lifecycle scripts
// under projectRoot/node_modules. Candidates are the immediate child
// directories plus one extra level under any @scope directory; each
// candidate's package.json is read and checked in parallel.
//
// node_modules is untrusted external input: unreadable or malformed
// package.json files, and packages without a matching hook, are
// silently skipped rather than failing the scan.
func ScanPostinstallScripts(ctx context.Context, projectRoot string) []PostinstallEntry {
	candidates := packageDirs(filepath.Join(projectRoot, "node_modules"))
	if len(candidates) == 0 {
		return nil
	}

	var mu sync.Mutex
	var entries []PostinstallEntry

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, candidate := range candidates {
		candidate := candidate
		g.Go(func() error {
			entry, ok := inspectPackage(candidate.dir, candidate.name)
			if !ok {
				return nil
			}
			mu.Lock()
			entries = append(entries, entry)
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; Wait only synchronizes.
	g.Wait()

	return entries
}

type packageDir struct {
	name string
	dir  string
}

// packageDirs lists candidate package directories: node_modules/* plus
// node_modules/@scope/*. Hidden bookkeeping dirs such as .bin and
// .pnpm are not packages.
func packageDirs(nodeModules string) []packageDir {
	children, err := os.ReadDir(nodeModules)
	if err != nil {
		// No node_modules means nothing to scan, not an error.
		return nil
	}

	var dirs []packageDir
	for _, child := range children {
		if !child.IsDir() || strings.HasPrefix(child.Name(), ".") {
			continue
		}

		if strings.HasPrefix(child.Name(), "@") {
			scopeDir := filepath.Join(nodeModules, child.Name())
			scoped, err := os.ReadDir(scopeDir)
			if err != nil {
				continue
			}
			for _, pkg := range scoped {
				if !pkg.IsDir() || strings.HasPrefix(pkg.Name(), ".") {
					continue
				}
				dirs = append(dirs, packageDir{
					name: child.Name() + "/" + pkg.Name(),
					dir:  filepath.Join(scopeDir, pkg.Name()),
				})
			}
			continue
		}

		dirs = append(dirs, packageDir{
			name: child.Name(),
			dir:  filepath.Join(nodeModules, child.Name()),
		})
	}

	return dirs
}

// inspectPackage reads one package.json and returns the first matching
// lifecycle hook, if any.
func inspectPackage(dir, name string) (PostinstallEntry, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return PostinstallEntry{}, false
	}

	var manifest nodeManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return PostinstallEntry{}, false
	}

	for _, hook := range hookPriority {
		if script, ok := manifest.Scripts[hook]; ok {
			return PostinstallEntry{Package: name, Hook: hook, Script: script}, true
		}
	}

	return PostinstallEntry{}, false
}
