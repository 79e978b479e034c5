package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/depsnap/internal/output"
)

var listCmd = &cobra.Command{
	Use:   "list [project-path]",
	Short: "List snapshot history",
	Long: `List captured snapshots, newest first.

With a project path argument, only that project's history is shown;
without one, every snapshot in the database is listed. Failed captures
appear alongside completed ones.`,
	Example: `  # All snapshots
  depsnap list

  # History for one project
  depsnap list ./my-project`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	projectPath := ""
	if len(args) == 1 {
		resolved, err := resolveProjectPath(args[0])
		if err != nil {
			return err
		}
		projectPath = resolved
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	snapshots, err := st.ListSnapshots(projectPath)
	if err != nil {
		return err
	}

	fmt.Print(output.RenderSnapshotTable(snapshots))
	return nil
}
