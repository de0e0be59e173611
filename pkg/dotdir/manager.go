// Package dotdir manages the .crates/ and ~/.crates directories.
//
// The selection state records which repository the logged-in user has
// selected for indexing. It is persisted as a JSON file in the .crates/
// directory so it survives across CLI invocations.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the crates directory.
	dirName = ".crates"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .crates/ directory.
// Order of precedence is as follows:
//  1. Provided override (created if missing)
//  2. Local ./.crates/ dir
//  3. Home ~/.crates/ dir
//
// Returns an empty string when no override is given and neither a local
// nor a home directory exists; callers decide where to create one.
func (m *Manager) Target(overrideDir string) (string, error) {
	switch {
	case overrideDir != "":
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating crates directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		return filepath.Abs(filepath.Join(cwd, dirName))

	case m.homeDirExists():
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Abs(filepath.Join(home, dirName))

	default:
		return "", nil
	}
}

// resolve returns the .crates/ directory for state files, creating
// ~/.crates/ when no directory exists yet.
func (m *Manager) resolve(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating crates directory %s: %w", dir, err)
		}
	}

	return dir, nil
}

// localDirExists checks whether a .crates/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}

// homeDirExists checks whether a .crates/ directory exists in the user's
// home directory.
func (m *Manager) homeDirExists() bool {
	home, err := os.UserHomeDir()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(home, dirName))
	return err == nil && info.IsDir()
}
