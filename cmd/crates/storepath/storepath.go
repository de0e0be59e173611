// Package storepath resolves the vector store target for commands that open
// the store directly. Only the sqlite provider gets a filesystem default;
// every other provider requires an explicit target.
package storepath

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/papercomputeco/crates/pkg/dotdir"
)

const dbFile = "crates.db"

// StoreTarget returns the target to hand the vector store driver. An empty
// sqlite target resolves to crates.db inside the .crates/ directory; any
// other provider passes its target through unchanged.
func StoreTarget(provider, target, configDir string) (string, error) {
	if provider == "sqlite" && target == "" {
		return DefaultSQLitePath(configDir)
	}
	return target, nil
}

// DefaultSQLitePath returns the path to crates.db inside the resolved
// .crates/ directory. When no .crates/ directory exists yet one is created
// under the user's home, matching where the auth store keeps its files.
func DefaultSQLitePath(configDir string) (string, error) {
	ddm := dotdir.NewManager()

	dir, err := ddm.Target(configDir)
	if err != nil {
		return "", err
	}

	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home dir: %w", err)
		}
		dir = filepath.Join(home, ".crates")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating crates dir: %w", err)
		}
	}

	return filepath.Join(dir, dbFile), nil
}
