// Package config provides configuration file parsing for depsnap.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the depsnap config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/depsnap if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "depsnap"), nil
}

// ProjectsConfig holds the project directories `depsnap watch` monitors
// when invoked without arguments.
type ProjectsConfig struct {
	Projects []string
}

// LoadProjects reads the projects file at {dir}/projects and returns the
// parsed config. One absolute project path per line; blank lines and
// #-comments are skipped, as are relative paths. If the file does not
// exist, an empty config is returned without an error.
func LoadProjects(dir string) (*ProjectsConfig, error) {
	cfg := &ProjectsConfig{}

	path := filepath.Join(dir, "projects")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	seen := make(map[string]bool)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip blank lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Only absolute paths are meaningful in a daemon context.
		if !filepath.IsAbs(line) {
			continue
		}

		clean := filepath.Clean(line)
		if seen[clean] {
			continue
		}
		seen[clean] = true

		cfg.Projects = append(cfg.Projects, clean)
	}

	if err := scanner.Err(); err != nil {
		return cfg, err
	}

	return cfg, nil
}
