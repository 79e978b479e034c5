package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	dbPath     string
	storageDir string

	// RootCmd is the root command for depsnap
	RootCmd = &cobra.Command{
		Use:   "depsnap",
		Short: "Dependency snapshots with supply-chain security analysis",
		Long: `depsnap captures point-in-time snapshots of a JavaScript project's
dependency state: it parses the lockfile (pnpm, npm, yarn or bun),
archives compressed copies of the raw files, computes content hashes
for change detection, and runs heuristic security analysis
(install-script inventory, typosquatting detection, integrity
coverage scoring).

Snapshots are append-only history: every capture creates a new
record, and failed captures stay inspectable.

Quick Start:
  1. depsnap capture ./my-project
  2. depsnap list ./my-project
  3. depsnap show <snapshot-id> --deps
  4. depsnap watch ./my-project   # auto-capture on lockfile changes`,
		Example: `  # Capture a snapshot of the current directory
  depsnap capture .

  # View capture history for a project
  depsnap list ./my-project

  # Inspect one snapshot's dependencies
  depsnap show 4f1c2d3a --deps

  # Watch projects and capture automatically
  depsnap watch ./frontend ./backend`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.depsnap/depsnap.db)")
	RootCmd.PersistentFlags().StringVar(&storageDir, "storage-dir", "", "artifact storage directory (default: ~/.depsnap/storage)")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	// Register subcommands
	RootCmd.AddCommand(captureCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(showCmd)
	RootCmd.AddCommand(watchCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// getDBPath returns the database path, using the flag value or default
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}

	dir := filepath.Join(home, ".depsnap")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create depsnap directory: %w", err)
	}

	return filepath.Join(dir, "depsnap.db"), nil
}

// getStorageDir returns the artifact storage root, using the flag value or default
func getStorageDir() (string, error) {
	if storageDir != "" {
		return storageDir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}

	return filepath.Join(home, ".depsnap", "storage"), nil
}
