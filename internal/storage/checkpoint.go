package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/gaintrack/internal/common"
	"github.com/spf13/afero"
)

// SnapshotBackend is a store checkpoints are taken from and restored into.
type SnapshotBackend interface {
	LoadSnapshot(ctx context.Context) ([]byte, error)
	SaveSnapshot(ctx context.Context, payload []byte) error
}

// CheckpointManager keeps named copies of the ledger snapshot next to the
// ledger itself.
type CheckpointManager struct {
	fs  afero.Fs
	now func() time.Time
	dir string
}

// CheckpointInfo describes a stored checkpoint.
type CheckpointInfo struct {
	CreatedAt   time.Time `json:"created_at"`
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Checksum    string    `json:"checksum"`
	Size        int64     `json:"size"`
	Gains       int       `json:"gains"`
	IsAuto      bool      `json:"is_auto"`
}

// Common errors.
var (
	ErrCheckpointNotFound  = errors.New("checkpoint not found")
	ErrCheckpointCorrupted = errors.New("checkpoint integrity check failed")
	ErrCheckpointExists    = errors.New("checkpoint already exists")
	ErrInvalidCheckpointID = errors.New("invalid checkpoint id")
	ErrNothingToCheckpoint = errors.New("ledger has never been saved")
)

const (
	payloadSuffix      = ".snapshot"
	metadataSuffix     = ".meta.json"
	maxAutoCheckpoints = 5
)

// CheckpointDir is where checkpoints for a ledger stored at ledgerPath live.
func CheckpointDir(ledgerPath string) string {
	return filepath.Join(filepath.Dir(ledgerPath), "checkpoints")
}

// NewCheckpointManager creates a manager rooted at dir on the OS filesystem.
func NewCheckpointManager(dir string) (*CheckpointManager, error) {
	return NewCheckpointManagerFs(afero.NewOsFs(), dir)
}

// NewCheckpointManagerFs creates a manager rooted at dir on fsys.
func NewCheckpointManagerFs(fsys afero.Fs, dir string) (*CheckpointManager, error) {
	if err := validateString(dir, "dir"); err != nil {
		return nil, err
	}
	if fsys == nil {
		return nil, fmt.Errorf("%w: filesystem", ErrNilParameter)
	}
	if err := fsys.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &CheckpointManager{
		fs:  fsys,
		dir: dir,
		now: time.Now,
	}, nil
}

// Dir returns the checkpoints directory.
func (cm *CheckpointManager) Dir() string {
	return cm.dir
}

// Create copies the backend's current snapshot into a new checkpoint. An empty
// tag gets a timestamped name. gains is recorded for listing only.
func (cm *CheckpointManager) Create(ctx context.Context, backend SnapshotBackend, tag, description string, gains int) (*CheckpointInfo, error) {
	if tag == "" {
		tag = "checkpoint-" + cm.now().Format("2006-01-02-150405")
	}
	return cm.create(ctx, backend, tag, description, gains, false)
}

func (cm *CheckpointManager) create(ctx context.Context, backend SnapshotBackend, tag, description string, gains int, auto bool) (*CheckpointInfo, error) {
	if err := validateCheckpointID(tag); err != nil {
		return nil, err
	}

	payloadPath := cm.payloadPath(tag)
	exists, err := afero.Exists(cm.fs, payloadPath)
	if err != nil {
		return nil, fmt.Errorf("failed to check checkpoint: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrCheckpointExists, tag)
	}

	payload, err := backend.LoadSnapshot(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return nil, ErrNothingToCheckpoint
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger snapshot: %w", err)
	}

	if err := afero.WriteFile(cm.fs, payloadPath, payload, 0600); err != nil {
		return nil, fmt.Errorf("failed to write checkpoint: %w", err)
	}

	info := CheckpointInfo{
		ID:          tag,
		CreatedAt:   cm.now(),
		Description: description,
		Checksum:    checksum(payload),
		Size:        int64(len(payload)),
		Gains:       gains,
		IsAuto:      auto,
	}
	if err := cm.saveMetadata(info); err != nil {
		if rmErr := cm.fs.Remove(payloadPath); rmErr != nil {
			slog.Error("failed to remove checkpoint file after metadata save failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save metadata: %w", err)
	}

	slog.Debug("created checkpoint", "id", tag, "bytes", info.Size, "auto", auto)
	return &info, nil
}

// List returns all checkpoints, newest first. Unreadable metadata is skipped.
func (cm *CheckpointManager) List(_ context.Context) ([]CheckpointInfo, error) {
	entries, err := afero.ReadDir(cm.fs, cm.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoints directory: %w", err)
	}

	checkpoints := make([]CheckpointInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), metadataSuffix) {
			continue
		}
		info, err := cm.loadMetadata(strings.TrimSuffix(entry.Name(), metadataSuffix))
		if err != nil {
			slog.Debug("skipping unreadable checkpoint metadata", "file", entry.Name(), "error", err)
			continue
		}
		checkpoints = append(checkpoints, *info)
	}

	sort.SliceStable(checkpoints, func(i, j int) bool {
		return checkpoints[i].CreatedAt.After(checkpoints[j].CreatedAt)
	})
	return checkpoints, nil
}

// Get returns the metadata of one checkpoint.
func (cm *CheckpointManager) Get(_ context.Context, id string) (*CheckpointInfo, error) {
	if err := validateCheckpointID(id); err != nil {
		return nil, err
	}
	return cm.loadMetadata(id)
}

// Payload returns the verified snapshot bytes of a checkpoint.
func (cm *CheckpointManager) Payload(_ context.Context, id string) ([]byte, error) {
	if err := validateCheckpointID(id); err != nil {
		return nil, err
	}

	info, err := cm.loadMetadata(id)
	if err != nil {
		return nil, err
	}

	payload, err := afero.ReadFile(cm.fs, cm.payloadPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrCheckpointNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if checksum(payload) != info.Checksum {
		return nil, fmt.Errorf("%w: %s", ErrCheckpointCorrupted, id)
	}
	return payload, nil
}

// Restore overwrites the backend's snapshot with the checkpoint's.
func (cm *CheckpointManager) Restore(ctx context.Context, id string, backend SnapshotBackend) error {
	payload, err := cm.Payload(ctx, id)
	if err != nil {
		return err
	}
	if err := backend.SaveSnapshot(ctx, payload); err != nil {
		return fmt.Errorf("failed to restore checkpoint: %w", err)
	}

	common.LogInfo("restored checkpoint", common.Fields{"id": id, "bytes": len(payload)})
	return nil
}

// Delete removes a checkpoint.
func (cm *CheckpointManager) Delete(_ context.Context, id string) error {
	if err := validateCheckpointID(id); err != nil {
		return err
	}

	payloadPath := cm.payloadPath(id)
	exists, err := afero.Exists(cm.fs, payloadPath)
	if err != nil {
		return fmt.Errorf("failed to access checkpoint: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrCheckpointNotFound, id)
	}

	if err := cm.fs.Remove(payloadPath); err != nil {
		return fmt.Errorf("failed to remove checkpoint file: %w", err)
	}
	if err := cm.fs.Remove(cm.metadataPath(id)); err != nil {
		slog.Debug("failed to remove metadata file", "error", err, "id", id)
	}
	return nil
}

// AutoCheckpoint takes a checkpoint named after prefix and prunes older
// automatic checkpoints beyond the most recent five. A ledger that was never
// saved is not an error.
func (cm *CheckpointManager) AutoCheckpoint(ctx context.Context, backend SnapshotBackend, prefix string, gains int) (*CheckpointInfo, error) {
	tag := fmt.Sprintf("auto-%s-%s", prefix, cm.now().Format("2006-01-02-150405"))
	description := "Automatic checkpoint before " + prefix

	info, err := cm.create(ctx, backend, tag, description, gains, true)
	if errors.Is(err, ErrNothingToCheckpoint) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create auto-checkpoint: %w", err)
	}

	if err := cm.cleanupOldAutoCheckpoints(ctx); err != nil {
		slog.Warn("failed to clean up old auto-checkpoints", "error", err)
	}
	return info, nil
}

func (cm *CheckpointManager) cleanupOldAutoCheckpoints(ctx context.Context) error {
	checkpoints, err := cm.List(ctx)
	if err != nil {
		return err
	}

	autoCount := 0
	for _, cp := range checkpoints {
		if !cp.IsAuto {
			continue
		}
		autoCount++
		if autoCount > maxAutoCheckpoints {
			if err := cm.Delete(ctx, cp.ID); err != nil {
				slog.Debug("failed to delete old auto-checkpoint", "error", err, "checkpoint", cp.ID)
			}
		}
	}
	return nil
}

func (cm *CheckpointManager) payloadPath(id string) string {
	return filepath.Join(cm.dir, id+payloadSuffix)
}

func (cm *CheckpointManager) metadataPath(id string) string {
	return filepath.Join(cm.dir, id+metadataSuffix)
}

func (cm *CheckpointManager) saveMetadata(info CheckpointInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return afero.WriteFile(cm.fs, cm.metadataPath(info.ID), data, 0600)
}

func (cm *CheckpointManager) loadMetadata(id string) (*CheckpointInfo, error) {
	data, err := afero.ReadFile(cm.fs, cm.metadataPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrCheckpointNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info CheckpointInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: metadata for %s: %w", ErrCheckpointCorrupted, id, err)
	}
	return &info, nil
}

func validateCheckpointID(id string) error {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidCheckpointID, id)
	}
	return nil
}

func checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
