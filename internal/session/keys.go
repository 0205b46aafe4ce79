package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/vaultedit/internal/complete"
	"github.com/starford/vaultedit/internal/editor"
	"github.com/starford/vaultedit/internal/keymap"
)

// HandleKey processes one key event. Keys go to the completion popup
// first, then to the command line, an open panel, the file tree, and
// finally the modal interpreter.
func (s *Session) HandleKey(ctx context.Context, key string) {
	if s.quit {
		return
	}
	if s.popup != nil && s.handlePopupKey(key) {
		return
	}
	switch {
	case s.in.Mode() == editor.Command:
		s.dispatch(ctx, s.in.Handle(key))
	case s.panel != nil:
		s.handlePanelKey(ctx, key)
	case s.treeFocused():
		s.handleTreeKey(ctx, key)
	default:
		s.dispatch(ctx, s.in.Handle(key))
	}
}

// HandlePaste inserts bracketed-paste text as one edit.
func (s *Session) HandlePaste(ctx context.Context, text string) {
	if s.panel != nil && s.in.Mode() != editor.Command {
		s.panel.appendQuery(text)
		return
	}
	s.dispatch(ctx, s.in.Paste(text))
}

// Tick resolves key prefixes whose pending window has elapsed.
func (s *Session) Tick(ctx context.Context) {
	if s.treeFocused() {
		if cmd, ok := s.treeKeys.Expire(s.now()); ok {
			s.execTree(ctx, cmd)
		}
		return
	}
	s.dispatch(ctx, s.in.Tick())
}

func (s *Session) dispatch(ctx context.Context, out editor.Outcome) {
	if out.Edited {
		s.edited()
	}
	if s.in.Mode() == editor.Insert {
		s.updatePopup()
	} else {
		s.popup = nil
	}
	if out.Err != nil {
		s.setError(out.Err)
	}
	if out.Ex != nil {
		s.execEx(ctx, *out.Ex)
	}
	if out.Command != "" {
		s.execCommand(ctx, out.Command)
	}
}

func (s *Session) execCommand(ctx context.Context, cmd keymap.Command) {
	s.logger.Debug("session: command", slog.String("command", string(cmd)))
	switch cmd {
	case keymap.SaveFile:
		if err := s.Save(ctx); err != nil {
			s.setError(err)
		}
	case keymap.FollowLink:
		s.followLink(ctx)
	case keymap.HistoryBack:
		s.historyStep(ctx, -1)
	case keymap.HistoryForward:
		s.historyStep(ctx, 1)
	case keymap.TagPanel:
		s.openTagPanel()
	case keymap.BacklinkPanel:
		s.openBacklinkPanel()
	case keymap.SearchPanel:
		s.openSearchPanel()
	case keymap.DailyToday:
		s.openDaily(ctx, 0)
	case keymap.DailyYesterday:
		s.openDaily(ctx, -1)
	case keymap.DailyTomorrow:
		s.openDaily(ctx, 1)
	case keymap.FileTreePanel:
		s.openTree()
	case keymap.TemplateComplete:
		buf := s.in.Buffer()
		if c := buf.Cursor(); s.in.Mode() == editor.Normal && buf.LineLen(c.Line) > 0 {
			// The Normal-mode cursor sits on the last rune of the word.
			buf.MoveCursor(0, 1)
		}
		s.openPopup(complete.WordTrigger(buf, complete.SourceTemplate))
		if s.popup == nil {
			s.setStatus("no templates")
		}
	default:
		s.setError(fmt.Errorf("unknown command %q", cmd))
	}
}

func (s *Session) execEx(ctx context.Context, ex editor.Ex) {
	var err error
	switch ex.Kind {
	case editor.ExWrite:
		err = s.Save(ctx)
	case editor.ExQuit:
		err = s.Close(false)
	case editor.ExForceQuit:
		err = s.Close(true)
	case editor.ExWriteQuit:
		if err = s.Save(ctx); err == nil {
			err = s.Close(false)
		}
	case editor.ExEdit:
		err = s.navigate(ctx, ex.Arg)
	case editor.ExNew:
		err = s.newNote(ctx, ex.Arg)
	case editor.ExRename:
		err = s.rename(ctx, ex.Arg)
	}
	if err != nil {
		s.setError(err)
	}
}
