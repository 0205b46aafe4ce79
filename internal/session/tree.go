package session

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/starford/vaultedit/internal/checksum"
	"github.com/starford/vaultedit/internal/editor"
	"github.com/starford/vaultedit/internal/keymap"
	"github.com/starford/vaultedit/internal/vault"
)

func (s *Session) treeFocused() bool {
	return s.treeOpen && s.panel == nil && s.in.Mode() != editor.Command
}

func (s *Session) openTree() {
	s.treeOpen = true
	s.treeKeys.Reset()
	if err := s.tree.Reveal(s.path); err != nil {
		s.setError(err)
		return
	}
	s.setStatus("Entered File Tree mode")
}

func (s *Session) handleTreeKey(ctx context.Context, key string) {
	now := s.now()
	if cmd, ok := s.treeKeys.Expire(now); ok {
		s.execTree(ctx, cmd)
		if !s.treeFocused() {
			s.HandleKey(ctx, key)
			return
		}
	}
	res, cmd := s.treeKeys.Feed(key, now)
	if res == keymap.Matched {
		s.execTree(ctx, cmd)
	}
}

func (s *Session) execTree(ctx context.Context, cmd keymap.Command) {
	t := s.tree
	var err error
	switch cmd {
	case keymap.TreeUp:
		t.Move(-1)
	case keymap.TreeDown:
		t.Move(1)
	case keymap.TreeOpen:
		n, ok := t.Selected()
		switch {
		case !ok:
		case n.IsDir && n.Expanded:
			err = t.Collapse()
		case n.IsDir:
			err = t.Expand()
		default:
			if err = s.navigate(ctx, n.Path); err == nil {
				s.treeOpen = false
			}
		}
	case keymap.TreeExpand:
		err = t.Expand()
	case keymap.TreeCollapse:
		err = t.Collapse()
	case keymap.TreeCopy, keymap.TreeCut:
		if cmd == keymap.TreeCopy {
			err = t.Copy()
		} else {
			err = t.Cut()
		}
		if p, cut, ok := t.Clipboard(); ok && err == nil {
			verb := "Copied"
			if cut {
				verb = "Cut"
			}
			s.setStatus(fmt.Sprintf("%s %s", verb, p))
		}
	case keymap.TreePaste:
		var ch vault.Change
		if ch, err = t.Paste(); err == nil {
			s.applyChange(ctx, ch)
		}
	case keymap.TreeDelete:
		var ch vault.Change
		if ch, err = t.Delete(); err == nil {
			s.applyChange(ctx, ch)
		}
	case keymap.TreeRename:
		if n, ok := t.Selected(); ok && !n.IsDir {
			s.in.EnterCommandLine("rename " + strings.TrimSuffix(n.Name, path.Ext(n.Name)))
		}
	case keymap.TreeNew:
		s.in.EnterCommandLine("new ")
	case keymap.TreeSortTime:
		err = t.SortBy(vault.SortByTime)
	case keymap.TreeSortName:
		err = t.SortBy(vault.SortByName)
	case keymap.TreeNarrow:
		t.Narrow()
	case keymap.TreeWiden:
		t.Widen()
	case keymap.TreeFull:
		t.Full()
	case keymap.TreeClose:
		s.treeOpen = false
	}
	if err != nil {
		s.setError(err)
	}
}

// applyChange keeps the index and the open buffer in step with a file
// operation.
func (s *Session) applyChange(ctx context.Context, ch vault.Change) {
	for _, p := range ch.Removed {
		s.abandonScan(p)
		if err := s.bridge.Forget(p); err != nil {
			s.setError(err)
		}
	}
	if len(ch.Removed) == 1 && ch.Removed[0] == s.path {
		if len(ch.Added) == 1 {
			s.path = ch.Added[0]
			s.replaceHistory(ch.Removed[0], s.path)
		} else {
			// The open file is gone; whatever is in the buffer is unsaved.
			s.savedSum = ""
			s.cleanVer = 0
			s.dirtyVer = 0
		}
	}
	for _, p := range ch.Added {
		data, err := s.files.Read(p)
		if err != nil {
			s.setError(err)
			continue
		}
		s.rescanIfStale(ctx, p, checksum.Sum(data))
	}
}

// newNote creates an empty note. With the tree open it goes into the
// selected directory and the tree keeps focus; otherwise it is created next
// to the open file and opened.
func (s *Session) newNote(ctx context.Context, name string) error {
	if s.treeOpen {
		p, err := s.tree.NewFile(name)
		if err != nil {
			return err
		}
		if err := s.bridge.Touch(p); err != nil {
			return err
		}
		s.setStatus(fmt.Sprintf("Created %s", p))
		return nil
	}
	file, err := vault.NoteName(name, s.slugNames)
	if err != nil {
		return err
	}
	p := path.Join(parentOf(s.path), file)
	if err := s.files.Create(p); err != nil {
		return err
	}
	if err := s.bridge.Touch(p); err != nil {
		return err
	}
	return s.navigate(ctx, p)
}

// rename renames the file selected in the tree, or the open file.
func (s *Session) rename(ctx context.Context, name string) error {
	if s.treeOpen {
		ch, err := s.tree.Rename(name)
		if err != nil {
			return err
		}
		s.applyChange(ctx, ch)
		return nil
	}
	file, err := vault.NoteName(name, s.slugNames)
	if err != nil {
		return err
	}
	old := s.path
	p := path.Join(parentOf(old), file)
	if p == old {
		return nil
	}
	if _, err := s.files.Stat(old); err != nil {
		// Never saved: only the buffer's name and its index row change.
		if err := s.bridge.Forget(old); err != nil {
			return err
		}
		if err := s.bridge.Touch(p); err != nil {
			return err
		}
		s.path = p
		s.replaceHistory(old, p)
		return nil
	}
	if err := s.files.Move(old, p); err != nil {
		return err
	}
	s.applyChange(ctx, vault.Change{Removed: []string{old}, Added: []string{p}})
	s.setStatus(fmt.Sprintf("Renamed to %s", p))
	return nil
}

func parentOf(p string) string {
	d := path.Dir(p)
	if d == "." {
		return ""
	}
	return d
}
