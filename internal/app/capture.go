package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/depsnap/internal/output"
	"github.com/blackwell-systems/depsnap/internal/security"
)

var (
	captureSecurity bool
	captureQuiet    bool

	captureCmd = &cobra.Command{
		Use:   "capture <project-path>",
		Short: "Capture a dependency snapshot of a project",
		Long: `Capture a point-in-time snapshot of a project's dependency state.

The project's lockfile is located (pnpm-lock.yaml takes priority over
package-lock.json, then yarn.lock, then bun.lockb), parsed into a
dependency list, and archived as a compressed artifact together with
package.json when present. Content hashes of the lockfile, manifest
and canonical dependency tree are recorded for change detection, and
a security score is computed from install-script and integrity-hash
coverage.

A failed capture is recorded too: the snapshot history keeps every
attempt, successful or not.`,
		Example: `  # Capture the current directory
  depsnap capture .

  # Capture and print the full security report
  depsnap capture ./my-project --security

  # Capture quietly (exit status only)
  depsnap capture ./my-project --quiet`,
		Args: cobra.ExactArgs(1),
		RunE: runCapture,
	}
)

func init() {
	captureCmd.Flags().BoolVar(&captureSecurity, "security", false, "print the full security report after capturing")
	captureCmd.Flags().BoolVar(&captureQuiet, "quiet", false, "suppress output")
}

func runCapture(cmd *cobra.Command, args []string) error {
	projectPath, err := resolveProjectPath(args[0])
	if err != nil {
		return err
	}

	manager, st, err := newManager()
	if err != nil {
		return err
	}
	defer st.Close()

	var spinner *output.Spinner
	if !captureQuiet {
		spinner = output.NewSpinner(fmt.Sprintf("Capturing %s", projectPath))
		spinner.Start()
	}

	snap, err := manager.CaptureManual(context.Background(), projectPath)

	if spinner != nil {
		spinner.Stop()
	}

	if err != nil {
		if snap != nil && !captureQuiet {
			fmt.Printf("Capture failed (snapshot %s recorded):\n", snap.ID)
		}
		return err
	}

	if captureQuiet {
		return nil
	}

	fmt.Print(output.RenderSnapshotDetail(snap))

	if captureSecurity {
		deps, err := st.GetSnapshotDependencies(snap.ID)
		if err != nil {
			return err
		}
		secCtx, err := security.BuildContext(context.Background(), projectPath, deps)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Print(output.RenderSecurityReport(secCtx))
	}

	return nil
}
