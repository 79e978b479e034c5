package security

import (
	"context"

	"github.com/blackwell-systems/depsnap/internal/store"
)

// Context aggregates the analyzer's findings for one capture. It is
// request-scoped and never persisted as its own entity.
type Context struct {
	PostinstallScripts    []PostinstallEntry
	TyposquattingSuspects []TyposquattingAlert

	// IntegrityIssues is reserved for cryptographic verification
	// findings and is currently always empty: only the presence of
	// integrity hashes is tracked today, not their validity.
	IntegrityIssues []string
}

// BuildContext runs both scans for a project and collects their
// findings. The scans are best-effort enrichment: individual unreadable
// packages are skipped inside the scans, and a missing node_modules
// simply yields an empty inventory.
func BuildContext(ctx context.Context, projectRoot string, deps []*store.SnapshotDependency) (*Context, error) {
	return &Context{
		PostinstallScripts:    ScanPostinstallScripts(ctx, projectRoot),
		TyposquattingSuspects: CheckTyposquatting(ctx, deps),
	}, nil
}
