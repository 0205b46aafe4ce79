package buffer

import "strings"

// Snapshot is an immutable capture of buffer content and cursor.
type Snapshot struct {
	lines  []string
	cursor Position
}

// Text returns the captured document.
func (s Snapshot) Text() string {
	return strings.Join(s.lines, "\n")
}

// Cursor returns the captured cursor.
func (s Snapshot) Cursor() Position { return s.cursor }

// Snapshot captures the current content and cursor. The returned value is
// safe to keep: later edits never alter it.
func (b *Buffer) Snapshot() Snapshot {
	return Snapshot{lines: b.lines, cursor: b.cursor}
}

// Restore replaces content and cursor with s as an undoable edit.
func (b *Buffer) Restore(s Snapshot) {
	b.record()
	b.lines = s.lines
	b.cursor = b.Clamp(s.cursor)
	b.clearSelection()
	b.changed()
}

// CanUndo reports whether Undo would change the buffer.
func (b *Buffer) CanUndo() bool { return len(b.undo) > 0 }

// CanRedo reports whether Redo would change the buffer.
func (b *Buffer) CanRedo() bool { return len(b.redo) > 0 }

// Undo restores the most recent snapshot and pushes the current state onto
// the redo stack. It reports false, and does nothing, when there is no
// history.
func (b *Buffer) Undo() bool {
	if len(b.undo) == 0 {
		return false
	}
	b.closeGroup()
	prev := b.undo[len(b.undo)-1]
	b.undo = b.undo[:len(b.undo)-1]
	b.redo = append(b.redo, b.Snapshot())
	b.apply(prev)
	return true
}

// Redo is the mirror of Undo.
func (b *Buffer) Redo() bool {
	if len(b.redo) == 0 {
		return false
	}
	b.closeGroup()
	next := b.redo[len(b.redo)-1]
	b.redo = b.redo[:len(b.redo)-1]
	b.undo = append(b.undo, b.Snapshot())
	b.apply(next)
	return true
}

// BeginGroup starts coalescing edits: all mutations until the matching
// EndGroup undo as a single step. Groups nest.
func (b *Buffer) BeginGroup() {
	if b.groupDepth == 0 {
		b.groupPushed = false
	}
	b.groupDepth++
}

// EndGroup closes one level of grouping.
func (b *Buffer) EndGroup() {
	if b.groupDepth == 0 {
		return
	}
	b.groupDepth--
	if b.groupDepth == 0 {
		b.groupPushed = false
	}
}

// InGroup reports whether a group is open.
func (b *Buffer) InGroup() bool { return b.groupDepth > 0 }

func (b *Buffer) closeGroup() {
	b.groupDepth = 0
	b.groupPushed = false
}

func (b *Buffer) apply(s Snapshot) {
	b.lines = s.lines
	b.cursor = b.Clamp(s.cursor)
	b.clearSelection()
	b.changed()
}

// record pushes the pre-mutation state onto the undo stack and clears redo.
// Inside a group only the first mutation records.
func (b *Buffer) record() {
	b.redo = nil
	if b.groupDepth > 0 {
		if b.groupPushed {
			return
		}
		b.groupPushed = true
	}
	b.undo = append(b.undo, b.Snapshot())
	if over := len(b.undo) - b.undoLimit; over > 0 {
		b.undo = append([]Snapshot(nil), b.undo[over:]...)
	}
}

func (b *Buffer) changed() {
	b.version++
}
