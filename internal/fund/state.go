package fund

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"FeeAllocator/internal/model"
)

// StateStore persists engine state between runs.
type StateStore interface {
	Load(ctx context.Context) (*model.EngineState, error)
	Save(ctx context.Context, state *model.EngineState) error
}

// FileStore keeps state in a JSON file.
type FileStore struct {
	Path string
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

// Load reads the state. Returns an empty state if the file doesn't exist.
func (f *FileStore) Load(_ context.Context) (*model.EngineState, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.EngineState{}, nil
		}
		return nil, err
	}
	var state model.EngineState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", f.Path, err)
	}
	return &state, nil
}

// Save writes the state via a temp file and rename.
func (f *FileStore) Save(_ context.Context, state *model.EngineState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}

// MemoryStore keeps state in process. Used when persistence is disabled.
type MemoryStore struct {
	state *model.EngineState
}

func (m *MemoryStore) Load(_ context.Context) (*model.EngineState, error) {
	if m.state == nil {
		return &model.EngineState{}, nil
	}
	cp := *m.state
	return &cp, nil
}

func (m *MemoryStore) Save(_ context.Context, state *model.EngineState) error {
	cp := *state
	m.state = &cp
	return nil
}
