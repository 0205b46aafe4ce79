package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/vaultedit/internal/apperr"
	"github.com/starford/vaultedit/internal/checksum"
	"github.com/starford/vaultedit/internal/index"
	"github.com/starford/vaultedit/internal/scanner"
)

// Open loads path into the buffer. A missing file opens as an empty buffer
// and is created on the first save. The previous buffer must be clean.
func (s *Session) Open(ctx context.Context, p string) error {
	p, err := s.normalizePath(p)
	if err != nil {
		return err
	}
	if s.path != "" && s.Dirty() {
		return fmt.Errorf("session: open %s: %w", p, apperr.ErrUnsavedChanges)
	}
	if err := s.load(ctx, p); err != nil {
		return err
	}
	s.pushHistory(p)
	return nil
}

// load replaces the buffer with the content of p without touching history.
func (s *Session) load(ctx context.Context, p string) error {
	data, err := s.files.Read(p)
	exists := err == nil
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("session: open %s: %w", p, err)
	}

	if s.path != "" && s.path != p {
		s.abandonScan(s.path)
	}
	buf := s.newBuffer(string(data))
	s.in.SetBuffer(buf)
	s.path = p
	s.savedSum = ""
	if exists {
		s.savedSum = checksum.Sum(data)
	}
	s.cleanVer = buf.Version()
	s.dirty = false
	s.popup = nil
	s.panel = nil

	if exists {
		s.setStatus(fmt.Sprintf("%q %dL", p, buf.LineCount()))
	} else {
		s.setStatus(fmt.Sprintf("%q [New]", p))
	}
	// Every opened path gets a row, so links naming it resolve even before
	// the first save or a successful scan.
	if err := s.bridge.Touch(p); err != nil {
		s.setError(err)
	}
	if exists {
		s.rescanIfStale(ctx, p, s.savedSum)
	}
	s.logger.Info("session: opened", slog.String("path", p), slog.Bool("exists", exists))
	return nil
}

// Dirty reports whether the buffer differs from the file on disk.
func (s *Session) Dirty() bool {
	buf := s.in.Buffer()
	v := buf.Version()
	if v == s.cleanVer {
		return false
	}
	if v != s.dirtyVer {
		s.dirtyVer = v
		text := buf.Text()
		if s.savedSum == "" {
			s.dirty = text != ""
		} else {
			s.dirty = checksum.SumString(text) != s.savedSum
		}
	}
	return s.dirty
}

// Save writes the buffer to disk and schedules a rescan.
func (s *Session) Save(ctx context.Context) error {
	buf := s.in.Buffer()
	data := []byte(buf.Text())
	if err := s.files.Write(s.path, data); err != nil {
		return fmt.Errorf("session: save %s: %w", s.path, err)
	}
	s.savedSum = checksum.Sum(data)
	s.cleanVer = buf.Version()
	s.dirty = false
	s.setStatus(fmt.Sprintf("%q %dL written", s.path, buf.LineCount()))
	s.logger.Info("session: saved", slog.String("path", s.path), slog.Int("bytes", len(data)))
	s.scan(ctx, s.path, s.savedSum)
	return nil
}

// Close ends the session. Without force it fails while the buffer has
// unsaved changes.
func (s *Session) Close(force bool) error {
	if !force && s.Dirty() {
		return fmt.Errorf("session: close %s: %w (add ! to override)", s.path, apperr.ErrUnsavedChanges)
	}
	s.abandonScan(s.path)
	s.quit = true
	s.logger.Info("session: closed", slog.String("path", s.path), slog.Bool("force", force))
	return nil
}

// edited invalidates any scan in flight for the open file: its result no
// longer matches what the user sees.
func (s *Session) edited() {
	if _, pending := s.submitted[s.path]; pending {
		s.abandonScan(s.path)
	}
}

func (s *Session) abandonScan(p string) {
	s.gen[p]++
	delete(s.submitted, p)
	if s.scheduler != nil {
		s.scheduler.Cancel(p)
	}
}

// rescanIfStale scans p when the index does not hold its current content.
func (s *Session) rescanIfStale(ctx context.Context, p, sum string) {
	stored, err := s.store.GetChecksum(p)
	if err != nil {
		s.logger.Warn("session: checksum lookup failed", slog.String("path", p), slog.String("error", err.Error()))
	}
	if stored == sum {
		return
	}
	s.scan(ctx, p, sum)
}

// scan runs or schedules a scan of p, whose content hashes to sum.
func (s *Session) scan(ctx context.Context, p, sum string) {
	if prev, ok := s.submitted[p]; ok && prev == sum {
		return
	}
	s.gen[p]++
	if s.scheduler == nil {
		if err := s.bridge.Sync(ctx, p); err != nil {
			s.setError(err)
		}
		return
	}
	s.submitted[p] = sum
	s.scheduler.Submit(scanner.Job{Path: p, Checksum: sum, Generation: s.gen[p]})
}

// ApplyScanResult stores a background scan result unless a newer scan was
// started or the file was edited or closed since.
func (s *Session) ApplyScanResult(r scanner.Result) {
	if r.Generation != s.gen[r.Path] {
		s.logger.Debug("session: stale scan dropped", slog.String("path", r.Path),
			slog.Uint64("generation", r.Generation), slog.Uint64("current", s.gen[r.Path]))
		return
	}
	delete(s.submitted, r.Path)
	if r.Err != nil {
		s.setError(r.Err)
		return
	}
	if err := s.bridge.Apply(r.Path, r.Checksum, r.Scan); err != nil {
		s.setError(err)
	}
}

// HandleVaultChange reacts to a file changed outside the editor. kind is
// one of the index.Event* constants.
func (s *Session) HandleVaultChange(ctx context.Context, kind, p string) {
	switch kind {
	case index.EventDeleted:
		s.abandonScan(p)
		if err := s.bridge.Forget(p); err != nil {
			s.setError(err)
		}
		if p == s.path {
			s.savedSum = ""
			s.cleanVer = 0
			s.dirtyVer = 0
			s.setStatus(fmt.Sprintf("%q deleted on disk", p))
		}
	case index.EventCreated, index.EventUpdated:
		data, err := s.files.Read(p)
		if err != nil {
			return
		}
		sum := checksum.Sum(data)
		if p == s.path && sum != s.savedSum {
			if s.Dirty() {
				s.setStatus(fmt.Sprintf("%q changed on disk", p))
			} else if err := s.load(ctx, p); err == nil {
				s.setStatus(fmt.Sprintf("%q reloaded", p))
				return
			}
		}
		s.rescanIfStale(ctx, p, sum)
	}
	if s.treeOpen {
		if err := s.tree.Refresh(); err != nil {
			s.setError(err)
		}
	}
}

// normalizePath turns user input into a clean vault-relative .md path.
func (s *Session) normalizePath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("session: empty path")
	}
	if filepath.IsAbs(p) {
		rel, err := s.files.Rel(p)
		if err != nil {
			return "", err
		}
		p = rel
	}
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if p == "." || strings.HasPrefix(p, "../") || p == ".." {
		return "", fmt.Errorf("session: %s is outside the vault", p)
	}
	if !strings.EqualFold(path.Ext(p), ".md") {
		p += ".md"
	}
	return p, nil
}
