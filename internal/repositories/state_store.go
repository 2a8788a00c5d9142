package repositories

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"paygen/internal/errors"
	"paygen/internal/models"
)

var json = jsoniter.ConfigFastest

// StateStore persists the generation state document for one lineage. The
// document is the only durable copy of the simulation state; it is loaded
// once per run and rewritten only after a chunk has been fully flushed.
//
// Writes go through a temp file and rename, so a crash mid-write leaves the
// previous document intact. A crash between a chunk flush and the state
// write is detectable by comparing output file date ranges against
// last_generated_date; the stale chunk is simply overwritten on retry.
type StateStore struct {
	path string
}

func NewStateStore(dir, filename string) *StateStore {
	return &StateStore{path: filepath.Join(dir, filename)}
}

func (s *StateStore) Path() string { return s.path }

// Exists reports whether a state document is present.
func (s *StateStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads and validates the state document. A malformed or internally
// inconsistent document is a StateError; callers decide whether a missing
// document is one (it is not for initial runs).
func (s *StateStore) Load() (*models.GenerationState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.StateError{Reason: "state document not found at " + s.path, Err: err}
		}
		return nil, fmt.Errorf("read state document: %w", err)
	}
	if !json.Valid(data) {
		return nil, &errors.StateError{Reason: "state document is not valid JSON"}
	}

	state := models.NewGenerationState("")
	if err := json.Unmarshal(data, state); err != nil {
		return nil, &errors.StateError{Reason: "decode state document", Err: err}
	}
	if err := state.CheckConsistency(); err != nil {
		return nil, &errors.StateError{Reason: "state document is inconsistent", Err: err}
	}
	state.RebuildCache()
	return state, nil
}

// Save atomically rewrites the state document.
func (s *StateStore) Save(state *models.GenerationState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state document: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state document: %w", err)
	}
	return nil
}
