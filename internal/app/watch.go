package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/depsnap/internal/config"
	"github.com/blackwell-systems/depsnap/internal/watcher"
)

var (
	watchDebounce time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch [project-path...]",
		Short: "Watch projects and capture on lockfile changes",
		Long: `Watch project directories and capture a snapshot automatically
whenever a lockfile changes.

Captures are debounced per project: package manager installs write the
lockfile in bursts, so the capture fires once the file has been quiet
for the debounce window rather than once per write.

Without arguments, the watched projects are read from the config file
(one absolute path per line):

  $XDG_CONFIG_HOME/depsnap/projects   (default ~/.config/depsnap/projects)

Runs in the foreground until interrupted.`,
		Example: `  # Watch two projects
  depsnap watch ./frontend ./backend

  # Watch the projects listed in the config file
  depsnap watch

  # Capture sooner after installs settle
  depsnap watch ./my-project --debounce 500ms`,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before a lockfile change triggers a capture")
}

func runWatch(cmd *cobra.Command, args []string) error {
	projects, err := watchProjects(args)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		return fmt.Errorf("no projects to watch: pass project paths or list them in the config file")
	}

	manager, st, err := newManager()
	if err != nil {
		return err
	}
	defer st.Close()

	w, err := watcher.New(manager)
	if err != nil {
		return err
	}
	w.SetDebounce(watchDebounce)

	for _, project := range projects {
		if err := w.AddProject(project); err != nil {
			return err
		}
		fmt.Printf("Watching %s\n", project)
	}

	if err := w.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nStopping watcher...")
	return w.Stop()
}

// watchProjects resolves the project set to watch: explicit arguments
// win; otherwise the config file supplies the list.
func watchProjects(args []string) ([]string, error) {
	if len(args) > 0 {
		projects := make([]string, 0, len(args))
		for _, arg := range args {
			resolved, err := resolveProjectPath(arg)
			if err != nil {
				return nil, err
			}
			projects = append(projects, resolved)
		}
		return projects, nil
	}

	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadProjects(dir)
	if err != nil {
		return nil, err
	}

	return cfg.Projects, nil
}
