package security

import (
	"context"
	"runtime"
	"sync"

	"github.com/agnivade/levenshtein"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/depsnap/internal/store"
)

// TyposquattingAlert flags an installed package whose name is
// suspiciously close to a popular one.
type TyposquattingAlert struct {
	Package    string  // the installed name
	Similar    string  // the popular name it resembles
	Distance   int     // Levenshtein edit distance
	Confidence float64 // 1 - distance/max(len(package), len(similar))
}

// Typosquat thresholds. These are deliberately loose heuristics: false
// positives on short, legitimately similar names are accepted in
// exchange for catching one-character swaps of high-value targets.
const (
	// MaxTyposquatDistance is the largest edit distance still treated
	// as a plausible typo of a popular name.
	MaxTyposquatDistance = 2

	// MinTyposquatConfidence filters out short-name noise, where a
	// distance of 2 can be most of the name.
	MinTyposquatConfidence = 0.7
)

// popularPackages is the curated watch list, ordered most-downloaded
// first. Only the first qualifying match per dependency is reported, so
// the order doubles as the tie-break.
var popularPackages = []string{
	"lodash",
	"react",
	"react-dom",
	"axios",
	"express",
	"chalk",
	"commander",
	"debug",
	"moment",
	"webpack",
	"typescript",
	"jest",
	"eslint",
	"prettier",
	"vue",
	"next",
	"vite",
	"babel",
	"rollup",
	"mocha",
	"request",
	"underscore",
	"bluebird",
	"rxjs",
	"uuid",
}

// CheckTyposquatting compares every installed dependency name against
// the popular-package watch list in parallel. An alert is raised when
// the names differ, the edit distance is in (0, 2], and the length-
// scaled confidence is at least 0.7.
func CheckTyposquatting(ctx context.Context, deps []*store.SnapshotDependency) []TyposquattingAlert {
	if len(deps) == 0 {
		return nil
	}

	var mu sync.Mutex
	var alerts []TyposquattingAlert

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, dep := range deps {
		dep := dep
		g.Go(func() error {
			if alert, ok := matchPopular(dep.Name); ok {
				mu.Lock()
				alerts = append(alerts, alert)
				mu.Unlock()
			}
			return nil
		})
	}

	// Workers never return errors; Wait only synchronizes.
	g.Wait()

	return alerts
}

// matchPopular returns the first qualifying watch-list match for name.
func matchPopular(name string) (TyposquattingAlert, bool) {
	for _, popular := range popularPackages {
		if name == popular {
			// Exact match is the real package, never an alert.
			return TyposquattingAlert{}, false
		}

		distance := levenshtein.ComputeDistance(name, popular)
		if distance == 0 || distance > MaxTyposquatDistance {
			continue
		}

		longest := len(name)
		if len(popular) > longest {
			longest = len(popular)
		}
		confidence := 1.0 - float64(distance)/float64(longest)
		if confidence < MinTyposquatConfidence {
			continue
		}

		return TyposquattingAlert{
			Package:    name,
			Similar:    popular,
			Distance:   distance,
			Confidence: confidence,
		}, true
	}

	return TyposquattingAlert{}, false
}
