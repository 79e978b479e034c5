package lockfile

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/depsnap/internal/store"
)

// bunParser covers bun.lockb. The binary format is not decoded: parsing
// returns an empty dependency list and warns on stderr, so a bun project
// still gets its artifacts archived and a completed snapshot instead of
// a failed capture.
type bunParser struct{}

func (p *bunParser) Parse(data []byte) ([]*store.SnapshotDependency, error) {
	fmt.Fprintln(os.Stderr, "depsnap: bun.lockb parsing is not implemented; capturing with an empty dependency list")
	return []*store.SnapshotDependency{}, nil
}
