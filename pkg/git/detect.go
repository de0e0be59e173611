// Package git provides utilities for detecting git repository information.
package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// RepoName returns the name of the git repository containing dir.
// It runs "git rev-parse --show-toplevel" and returns the base directory name.
// An empty dir means the current working directory. If dir is not inside a
// git repo, it falls back to the base name of the directory itself.
func RepoName(dir string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	args := []string{"rev-parse", "--show-toplevel"}
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}

	out, err := exec.CommandContext(ctx, "git", args...).Output()
	if err == nil {
		top := strings.TrimSpace(string(out))
		if top != "" {
			return filepath.Base(top)
		}
	}

	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return ""
		}
		return filepath.Base(wd)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Base(dir)
	}
	return filepath.Base(abs)
}
