// Package initcmder provides the init command for initializing a local .crates
// directory in the current working directory.
package initcmder

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/crates/pkg/config"
)

const (
	dirName = ".crates"
)

const initLongDesc string = `Initialize a new .crates/ directory in the current working directory.

Creates a local .crates/ directory that takes precedence over the default
~/.crates/ directory for auth, selection state, configuration, and the
default sqlite vector store.

A config.toml with default values is written when none exists. The --preset
flag selects a vector store preset (sqlite, chroma, qdrant, pgvector) or
fetches a shared config.toml from an http(s) URL; either form overwrites
any existing config.toml.

This is useful for maintaining separate crates state per project or directory.

Examples:
  crates init
  crates init --preset qdrant
  crates init --preset https://example.com/team/config.toml`

const initShortDesc string = "Initialize a local .crates/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Vector store preset (sqlite, chroma, qdrant, pgvector) or a config.toml URL")

	return cmd
}

func runInit(preset string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Printf("Already initialized: %s\n", dir)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .crates directory: %w", err)
		}
		fmt.Printf("Initialized .crates directory: %s\n", dir)
	}

	return writeConfig(dir, preset)
}

// writeConfig writes config.toml into dir. Without a preset an existing
// config.toml is left alone; a preset always overwrites.
func writeConfig(dir, preset string) error {
	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var cfg *config.Config

	switch {
	case preset == "":
		if target := cfger.GetTarget(); target != "" {
			if _, err := os.Stat(target); err == nil {
				return nil
			}
		}
		cfg = config.NewDefaultConfig()

	case strings.HasPrefix(preset, "http://") || strings.HasPrefix(preset, "https://"):
		cfg, err = fetchRemoteConfig(preset)
		if err != nil {
			return err
		}

	default:
		cfg, err = config.PresetConfig(preset)
		if err != nil {
			return err
		}
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", cfger.GetTarget())
	return nil
}

// fetchRemoteConfig downloads and parses a config.toml from the given URL.
func fetchRemoteConfig(url string) (*config.Config, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	return config.ParseConfigTOML(data)
}
