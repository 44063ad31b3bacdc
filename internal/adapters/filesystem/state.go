package filesystem

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"spacesync/internal/application"
	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// StateFileName is the state record inside the state directory
const StateFileName = "state.json"

// StateStore implements ports.StateStore as a JSON file rewritten on every save
type StateStore struct {
	fs   afero.Fs
	path string
}

// Ensure StateStore implements StateStore
var _ ports.StateStore = (*StateStore)(nil)

// NewStateStore creates a state store for a working directory
func NewStateStore(fsys afero.Fs, workDir string) *StateStore {
	return &StateStore{
		fs:   fsys,
		path: filepath.Join(ExpandHome(workDir), domain.StateDirName, StateFileName),
	}
}

// Path returns the state file location
func (s *StateStore) Path() string {
	return s.path
}

// Exists reports whether the working directory has been initialized
func (s *StateStore) Exists() bool {
	ok, err := afero.Exists(s.fs, s.path)
	return err == nil && ok
}

// Load reads the state file
func (s *StateStore) Load() (*domain.SpaceState, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !s.Exists() {
			return nil, application.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var state domain.SpaceState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	state.Normalize()
	return &state, nil
}

// Save replaces the state file
func (s *StateStore) Save(state *domain.SpaceState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return writeFileAtomic(s.fs, s.path, append(data, '\n'))
}
