package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/vaultedit/internal/apperr"
	"github.com/starford/vaultedit/internal/parser"
	"github.com/starford/vaultedit/internal/vault"
)

// followLink opens the wikilink under the cursor, or the first one on the
// line. Without a link, a tag on the line opens the files carrying it.
func (s *Session) followLink(ctx context.Context) {
	buf := s.in.Buffer()
	c := buf.Cursor()
	line := buf.Line(c.Line)

	if span, ok := parser.SpanAt(parser.LinkSpans(line), c.Col); ok {
		if err := s.navigate(ctx, s.resolveTarget(span.Text)); err != nil {
			s.setError(err)
		}
		return
	}
	if span, ok := parser.SpanAt(parser.TagSpans(line), c.Col); ok {
		s.openTagFiles(span.Text)
		return
	}
	s.setStatus("No link under cursor")
}

// resolveTarget maps a link target to a vault path: an indexed file with
// that name wins, otherwise the target names a file under the vault root.
func (s *Session) resolveTarget(target string) string {
	f, err := s.store.FileByName(target)
	if err == nil {
		return f.Path
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		s.logger.Warn("session: link lookup failed", slog.String("target", target), slog.String("error", err.Error()))
	}
	return strings.TrimPrefix(target, "/")
}

// navigate opens p and records it in the history.
func (s *Session) navigate(ctx context.Context, p string) error {
	np, err := s.normalizePath(p)
	if err != nil {
		return err
	}
	if np == s.path {
		return nil
	}
	return s.Open(ctx, np)
}

func (s *Session) pushHistory(p string) {
	if s.histPos >= 0 && s.history[s.histPos] == p {
		return
	}
	s.history = append(s.history[:s.histPos+1], p)
	s.histPos = len(s.history) - 1
}

func (s *Session) replaceHistory(old, p string) {
	for i, h := range s.history {
		if h == old {
			s.history[i] = p
		}
	}
}

// historyStep moves back (-1) or forward (+1) through opened files.
func (s *Session) historyStep(ctx context.Context, delta int) {
	next := s.histPos + delta
	if next < 0 || next >= len(s.history) {
		s.setStatus("No more history")
		return
	}
	if s.Dirty() {
		s.setError(fmt.Errorf("session: %w (:w first)", apperr.ErrUnsavedChanges))
		return
	}
	if err := s.load(ctx, s.history[next]); err != nil {
		s.setError(err)
		return
	}
	s.histPos = next
}

// History returns the navigation history and the current position.
func (s *Session) History() ([]string, int) { return s.history, s.histPos }

func (s *Session) openDaily(ctx context.Context, days int) {
	p := vault.DailyPath(s.dailyLayout, s.now(), days)
	if err := s.navigate(ctx, p); err != nil {
		s.setError(err)
		return
	}
	switch days {
	case 0:
		s.setStatus("Opened today's file")
	case -1:
		s.setStatus("Opened yesterday's file")
	case 1:
		s.setStatus("Opened tomorrow's file")
	}
}
