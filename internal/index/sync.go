package index

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/starford/vaultedit/internal/checksum"
	"github.com/starford/vaultedit/internal/models"
	"github.com/starford/vaultedit/internal/storage"
)

// ScanFunc extracts tags and links from one vault file. It must not touch
// the store; Sync applies its result.
type ScanFunc func(ctx context.Context, path string) (*models.ScanResult, error)

// SyncStats summarizes one Sync pass.
type SyncStats struct {
	Scanned int
	Skipped int
	Removed int
	Failed  int
}

type scanned struct {
	path     string
	checksum string
	res      *models.ScanResult
	err      error
}

// Sync walks the vault and brings the index up to date:
//   - new/changed files are scanned (up to workers at once) and applied one
//     at a time
//   - files removed from disk are deleted from the index
//
// Scan failures are logged and counted; the previous rows for that file
// stay as they were.
func Sync(ctx context.Context, db Store, store storage.Provider, scan ScanFunc, workers int, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats

	metas, err := store.List("")
	if err != nil {
		return stats, err
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		return stats, err
	}

	disk := make(map[string]struct{}, len(metas))
	var todo []scanned
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			stats.Failed++
			continue
		}
		cs := checksum.Sum(data)
		if checksums[m.Path] == cs {
			stats.Skipped++
			continue
		}
		todo = append(todo, scanned{path: m.Path, checksum: cs})
	}

	if workers <= 0 {
		workers = 4
	}
	results := make(chan scanned)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	go func() {
		defer close(results)
		for _, item := range todo {
			item := item
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				item.res, item.err = scan(gctx, item.path)
				select {
				case results <- item:
				case <-gctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	for item := range results {
		if item.err != nil {
			logger.Warn("sync: scan failed", slog.String("path", item.path), slog.String("error", item.err.Error()))
			stats.Failed++
			continue
		}
		if _, err := db.ApplyScan(item.path, item.checksum, item.res.Tags, item.res.Links); err != nil {
			logger.Warn("sync: apply failed", slog.String("path", item.path), slog.String("error", err.Error()))
			stats.Failed++
			continue
		}
		logger.Debug("sync: indexed", slog.String("path", item.path))
		stats.Scanned++
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	stale := make([]string, 0)
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			stale = append(stale, p)
		}
	}
	sort.Strings(stale)
	for _, p := range stale {
		if err := db.DeleteFile(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: removed stale", slog.String("path", p))
		stats.Removed++
	}

	return stats, nil
}
