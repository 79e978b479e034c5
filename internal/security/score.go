// Package security runs heuristic supply-chain analysis over a captured
// dependency list: a numeric risk score, an inventory of install-time
// lifecycle scripts inside node_modules, and name-typosquatting
// detection against a curated list of popular packages.
package security

import (
	"github.com/blackwell-systems/depsnap/internal/store"
)

// Scoring constants. The score starts at 100 and deductions are capped
// so a single noisy signal can never zero out the result on its own.
const (
	// PostinstallPenalty is subtracted per dependency that declares an
	// install-time lifecycle script. Lifecycle scripts run arbitrary
	// code on install, the most common supply-chain attack vector.
	PostinstallPenalty = 2

	// MaxPostinstallPenalty caps the total lifecycle-script deduction.
	MaxPostinstallPenalty = 30

	// MaxIntegrityPenalty caps the deduction for dependencies pinned
	// without an integrity hash, scaled by the uncovered fraction.
	MaxIntegrityPenalty = 20
)

// ComputeScore calculates the security score for a dependency list.
// Starting from 100 it subtracts min(30, postinstall_count*2) and
// min(20, uncovered_fraction*20), clamped to [0, 100]. An empty list
// scores a full 100.
func ComputeScore(deps []*store.SnapshotDependency) int {
	if len(deps) == 0 {
		return 100
	}

	score := 100

	postinstalls := 0
	withoutIntegrity := 0
	for _, dep := range deps {
		if dep.HasPostinstall {
			postinstalls++
		}
		if dep.IntegrityHash == "" {
			withoutIntegrity++
		}
	}

	postinstallPenalty := postinstalls * PostinstallPenalty
	if postinstallPenalty > MaxPostinstallPenalty {
		postinstallPenalty = MaxPostinstallPenalty
	}
	score -= postinstallPenalty

	integrityPenalty := int(float64(withoutIntegrity) / float64(len(deps)) * MaxIntegrityPenalty)
	if integrityPenalty > MaxIntegrityPenalty {
		integrityPenalty = MaxIntegrityPenalty
	}
	score -= integrityPenalty

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return score
}

// CountPostinstalls returns how many dependencies declare an
// install-time lifecycle script.
func CountPostinstalls(deps []*store.SnapshotDependency) int {
	count := 0
	for _, dep := range deps {
		if dep.HasPostinstall {
			count++
		}
	}
	return count
}
