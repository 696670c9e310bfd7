// Package fs persists portfolio snapshots as JSON files under a result
// directory, one subdirectory per owner. The layout is
// <base>/<owner>/<owner>_portfolio.json so a team's state survives
// process restarts without a database.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"intraday-sim-lab/internal/domain"
	"intraday-sim-lab/internal/storage"
)

// SnapshotStore is a file-backed implementation of storage.SnapshotStore.
type SnapshotStore struct {
	baseDir string
}

// NewSnapshotStore creates a snapshot store rooted at baseDir. The
// directory is created on first save.
func NewSnapshotStore(baseDir string) *SnapshotStore {
	return &SnapshotStore{baseDir: baseDir}
}

func (s *SnapshotStore) path(owner string) string {
	return filepath.Join(s.baseDir, owner, owner+"_portfolio.json")
}

// Save inserts or replaces the owner's snapshot. The write goes through
// a temp file and a rename so readers never observe a partial file.
func (s *SnapshotStore) Save(_ context.Context, snap *domain.PortfolioSnapshot) error {
	if snap == nil || snap.Owner == "" {
		return storage.ErrInvalidInput
	}

	dir := filepath.Join(s.baseDir, snap.Owner)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".portfolio-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path(snap.Owner)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load retrieves the owner's snapshot. Returns ErrNotFound if the owner
// has never saved one.
func (s *SnapshotStore) Load(_ context.Context, owner string) (*domain.PortfolioSnapshot, error) {
	if owner == "" {
		return nil, storage.ErrInvalidInput
	}

	data, err := os.ReadFile(s.path(owner))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap domain.PortfolioSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
