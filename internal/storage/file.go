package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/Veraticus/gaintrack/internal/common"
	"github.com/spf13/afero"
)

// FileStorage keeps the ledger snapshot in a single file. Writes go to a temporary
// file in the same directory which is then renamed over the target.
type FileStorage struct {
	fs   afero.Fs
	path string
}

// NewFileStorage returns a file backend on the OS filesystem.
func NewFileStorage(path string) (*FileStorage, error) {
	return NewFileStorageFs(afero.NewOsFs(), path)
}

// NewFileStorageFs returns a file backend on an arbitrary filesystem.
func NewFileStorageFs(fsys afero.Fs, path string) (*FileStorage, error) {
	if err := validateString(path, "path"); err != nil {
		return nil, err
	}
	if fsys == nil {
		return nil, fmt.Errorf("%w: filesystem", ErrNilParameter)
	}
	return &FileStorage{fs: fsys, path: path}, nil
}

// Path returns the snapshot file location.
func (s *FileStorage) Path() string {
	return s.path
}

// SaveSnapshot atomically replaces the snapshot file.
func (s *FileStorage) SaveSnapshot(ctx context.Context, payload []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if payload == nil {
		return fmt.Errorf("%w: payload", ErrNilParameter)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	slog.Debug("saved ledger snapshot", "backend", "file", "path", s.path, "bytes", len(payload))
	return nil
}

// LoadSnapshot reads the snapshot file, or returns common.ErrNotFound if it does not exist.
func (s *FileStorage) LoadSnapshot(ctx context.Context) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	payload, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return payload, nil
}

// Close is a no-op; it lets FileStorage stand in wherever a closable backend is expected.
func (s *FileStorage) Close() error {
	return nil
}
