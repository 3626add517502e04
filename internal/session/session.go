// Package session persists the agent's full state as a single JSON record
// at a fixed path: one slot, fully overwritten on every save, no history.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"alex/internal/agent"
)

var (
	// ErrMissing is returned when a restore is requested and no record
	// exists at the expected location.
	ErrMissing = errors.New("no saved session")
	// ErrCorrupt is returned when the record exists but cannot be parsed.
	ErrCorrupt = errors.New("corrupt session record")
)

// Save writes the state to path, replacing any prior record. The write goes
// through a temp file, fsync and rename so a crash mid-save never leaves a
// truncated record behind.
func Save(path string, st agent.State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync session file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Restore reads the record at path back into an agent state. The caller
// re-resolves the platform identifier into a live adapter.
func Restore(path string) (agent.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return agent.State{}, fmt.Errorf("%w at %s", ErrMissing, path)
		}
		return agent.State{}, fmt.Errorf("read session file: %w", err)
	}

	var st agent.State
	if err := json.Unmarshal(data, &st); err != nil {
		return agent.State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return st, nil
}
