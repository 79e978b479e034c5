package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/depsnap/internal/artifacts"
	"github.com/blackwell-systems/depsnap/internal/lockfile"
	"github.com/blackwell-systems/depsnap/internal/output"
	"github.com/blackwell-systems/depsnap/internal/security"
	"github.com/blackwell-systems/depsnap/internal/store"
)

var (
	showDeps     bool
	showRaw      bool
	showSecurity bool

	showCmd = &cobra.Command{
		Use:   "show <snapshot-id>",
		Short: "Show one snapshot's record",
		Long: `Show a snapshot's full record: status, dependency counts, security
score, content hashes and artifact storage location.

The snapshot ID may be abbreviated to any unique prefix, so the
8-character IDs printed by 'depsnap list' work directly.`,
		Example: `  # Show a snapshot by short ID
  depsnap show 4f1c2d3a

  # Include the dependency list
  depsnap show 4f1c2d3a --deps

  # Dump the archived lockfile as it was captured
  depsnap show 4f1c2d3a --raw

  # Re-run security analysis against the project on disk
  depsnap show 4f1c2d3a --security`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}
)

func init() {
	showCmd.Flags().BoolVar(&showDeps, "deps", false, "include the dependency list")
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "print the archived lockfile contents")
	showCmd.Flags().BoolVar(&showSecurity, "security", false, "re-run security analysis and print the report")
}

func runShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := resolveSnapshot(st, args[0])
	if err != nil {
		return err
	}

	fmt.Print(output.RenderSnapshotDetail(snap))

	if showDeps {
		deps, err := st.GetSnapshotDependencies(snap.ID)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Print(output.RenderDependencyTable(deps))
	}

	if showSecurity {
		deps, err := st.GetSnapshotDependencies(snap.ID)
		if err != nil {
			return err
		}
		secCtx, err := security.BuildContext(context.Background(), snap.ProjectPath, deps)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Print(output.RenderSecurityReport(secCtx))
	}

	if showRaw {
		if snap.StoragePath == "" || snap.LockfileType == "" {
			return fmt.Errorf("snapshot %s has no archived lockfile", snap.ID)
		}

		filename := lockfile.Type(snap.LockfileType).Filename()
		data, err := artifacts.ReadArtifact(filepath.Join(snap.StoragePath, filename+".gz"))
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Print(string(data))
	}

	return nil
}

// resolveSnapshot looks up a snapshot by full ID first, then by unique
// ID prefix so the short IDs from the list view are usable directly.
func resolveSnapshot(st *store.Store, id string) (*store.ExecutionSnapshot, error) {
	if snap, err := st.GetSnapshot(id); err == nil {
		return snap, nil
	}

	snapshots, err := st.ListSnapshots("")
	if err != nil {
		return nil, err
	}

	var matches []*store.ExecutionSnapshot
	for _, snap := range snapshots {
		if strings.HasPrefix(snap.ID, id) {
			matches = append(matches, snap)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("snapshot %s not found", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("snapshot ID %s is ambiguous (%d matches)", id, len(matches))
	}
}
