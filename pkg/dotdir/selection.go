package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	selectionFile = "selection.json"
)

// SelectionState represents the persisted repository selection.
// It records which repository the user selected and when, so later
// index runs can pick it up without re-prompting.
type SelectionState struct {
	// Username is the account that made the selection.
	Username string `json:"username"`

	// Repo is the full repository name, e.g. "octocat/hello-world".
	Repo string `json:"repo"`

	// SelectedAt is when the selection was made.
	SelectedAt time.Time `json:"selected_at"`
}

// LoadSelectionState loads the selection from a target .crates/selection.json.
// Returns nil, nil if no selection exists.
// If overrideDir is non-empty, it is used instead of the default ~/.crates/ location.
func (m *Manager) LoadSelectionState(overrideDir string) (*SelectionState, error) {
	dir, err := m.resolve(overrideDir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, selectionFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading selection state: %w", err)
	}

	state := &SelectionState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing selection state: %w", err)
	}

	return state, nil
}

// SaveSelection persists the selection to a target .crates/selection.json.
func (m *Manager) SaveSelection(state *SelectionState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil selection state")
	}

	dir, err := m.resolve(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling selection state: %w", err)
	}

	path := filepath.Join(dir, selectionFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing selection state: %w", err)
	}

	return nil
}

// ClearSelection removes the selection state file.
// If overrideDir is non-empty, it is used instead of the default ~/.crates/ location.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearSelection(overrideDir string) error {
	dir, err := m.resolve(overrideDir)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, selectionFile)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing selection state: %w", err)
	}

	return nil
}
