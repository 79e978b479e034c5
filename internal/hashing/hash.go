// Package hashing provides the content hashes depsnap uses for change
// detection: raw artifact digests and the canonical dependency-tree hash.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/blackwell-systems/depsnap/internal/store"
)

// SumHex returns the SHA-256 digest of data as a lowercase hex string.
func SumHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DependencyTree returns the canonical hash of a dependency list.
// Every dependency is rendered as "name@version", the lines are sorted
// lexicographically and joined with newlines before hashing, so the
// result is independent of parse and iteration order. Two snapshots
// with equal tree hashes have identical dependency sets.
func DependencyTree(deps []*store.SnapshotDependency) string {
	lines := make([]string, len(deps))
	for i, dep := range deps {
		lines[i] = dep.Name + "@" + dep.Version
	}
	sort.Strings(lines)

	return SumHex([]byte(strings.Join(lines, "\n")))
}
