package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/vaultedit/internal/apperr"
	"github.com/starford/vaultedit/internal/checksum"
	"github.com/starford/vaultedit/internal/index"
	"github.com/starford/vaultedit/internal/models"
	"github.com/starford/vaultedit/internal/storage"
)

// Bridge applies scanner output to the store. All store mutations made on
// behalf of the editor go through a Bridge.
type Bridge struct {
	store  index.Store
	files  storage.Provider
	scan   index.ScanFunc
	logger *slog.Logger
}

// NewBridge creates a bridge that scans with scan.
func NewBridge(store index.Store, files storage.Provider, scan index.ScanFunc, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{store: store, files: files, scan: scan, logger: logger}
}

// Store returns the underlying metadata store.
func (b *Bridge) Store() index.Store { return b.store }

// ScanFunc returns the function used to scan files.
func (b *Bridge) ScanFunc() index.ScanFunc { return b.scan }

// Sync scans path synchronously and applies the result. The file content is
// read once to compute its checksum.
func (b *Bridge) Sync(ctx context.Context, path string) error {
	data, err := b.files.Read(path)
	if err != nil {
		return fmt.Errorf("scanner: read %s: %w", path, err)
	}
	res, err := b.scan(ctx, path)
	if err != nil {
		b.logger.Warn("scanner: scan failed", slog.String("path", path), slog.String("error", err.Error()))
		return err
	}
	return b.Apply(path, checksum.Sum(data), res)
}

// Apply writes one scan result. The write is all-or-nothing; a write
// conflict with another editor process is retried once and then reported as
// a scan failure.
func (b *Bridge) Apply(path, sum string, res *models.ScanResult) error {
	_, err := b.store.ApplyScan(path, sum, res.Tags, res.Links)
	if errors.Is(err, apperr.ErrStoreConflict) {
		b.logger.Info("scanner: store busy, retrying", slog.String("path", path))
		_, err = b.store.ApplyScan(path, sum, res.Tags, res.Links)
	}
	if err != nil {
		b.logger.Warn("scanner: apply failed", slog.String("path", path), slog.String("error", err.Error()))
		if errors.Is(err, apperr.ErrStoreConflict) {
			return &apperr.ScanError{Path: path, Reason: "store write conflict", Err: err}
		}
		return fmt.Errorf("scanner: apply %s: %w", path, err)
	}
	b.logger.Debug("scanner: applied", slog.String("path", path),
		slog.Int("tags", len(res.Tags)), slog.Int("links", len(res.Links)))
	return nil
}

// Forget removes path from the store. Links pointing at it become dangling.
func (b *Bridge) Forget(path string) error {
	err := b.store.DeleteFile(path)
	if errors.Is(err, apperr.ErrStoreConflict) {
		err = b.store.DeleteFile(path)
	}
	if err != nil {
		return fmt.Errorf("scanner: forget %s: %w", path, err)
	}
	b.logger.Debug("scanner: forgot", slog.String("path", path))
	return nil
}

// Touch registers path in the store without scanning it, so links naming it
// resolve immediately.
func (b *Bridge) Touch(path string) error {
	if _, err := b.store.UpsertFile(path); err != nil {
		return fmt.Errorf("scanner: touch %s: %w", path, err)
	}
	return nil
}

// Reindex brings the whole vault up to date.
func (b *Bridge) Reindex(ctx context.Context, workers int) (index.SyncStats, error) {
	return index.Sync(ctx, b.store, b.files, b.scan, workers, b.logger)
}
