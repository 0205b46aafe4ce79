// Package buffer implements the in-memory text buffer of an editing session:
// document lines, cursor, selection, and a two-stack undo history.
//
// Lines are stored as immutable strings. Every mutation builds a fresh line
// slice, so snapshots taken for the undo history can share line storage
// with the live document without ever observing later edits.
package buffer

import (
	"strings"
	"unicode/utf8"
)

// Position addresses a rune column on a line. Both fields are zero based.
// Col may equal the line length, denoting end-of-line.
type Position struct {
	Line int
	Col  int
}

// Less reports whether p sorts before q in document order.
func (p Position) Less(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Col < q.Col
}

// Range is a half-open span [Start, End) in document order.
type Range struct {
	Start Position
	End   Position
}

// Empty reports whether the range covers no text.
func (r Range) Empty() bool {
	return r.Start == r.End
}

// Normalize returns r with Start <= End.
func (r Range) Normalize() Range {
	if r.End.Less(r.Start) {
		return Range{Start: r.End, End: r.Start}
	}
	return r
}

// DefaultUndoLimit bounds the undo stack when no explicit limit is given.
const DefaultUndoLimit = 1000

// Buffer owns document content, the cursor, an optional selection and the
// undo/redo stacks. It is not safe for concurrent use; a session drives it
// from a single event loop.
type Buffer struct {
	lines  []string
	cursor Position
	sel    *selection

	undo      []Snapshot
	redo      []Snapshot
	undoLimit int

	groupDepth  int
	groupPushed bool

	version uint64
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithUndoLimit caps the number of undo snapshots retained. Values <= 0
// keep the default.
func WithUndoLimit(n int) Option {
	return func(b *Buffer) {
		if n > 0 {
			b.undoLimit = n
		}
	}
}

// New creates a buffer holding text. A trailing newline produces a final
// empty line so that Text round-trips the input exactly.
func New(text string, opts ...Option) *Buffer {
	b := &Buffer{
		lines:     splitLines(text),
		undoLimit: DefaultUndoLimit,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

// Text returns the document joined with newlines.
func (b *Buffer) Text() string {
	return strings.Join(b.lines, "\n")
}

// Lines returns a copy of the document lines.
func (b *Buffer) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// LineCount returns the number of lines; never less than one.
func (b *Buffer) LineCount() int {
	return len(b.lines)
}

// Line returns line i, or "" when i is out of range.
func (b *Buffer) Line(i int) string {
	if i < 0 || i >= len(b.lines) {
		return ""
	}
	return b.lines[i]
}

// LineLen returns the rune length of line i.
func (b *Buffer) LineLen(i int) int {
	return utf8.RuneCountInString(b.Line(i))
}

// Cursor returns the current cursor position.
func (b *Buffer) Cursor() Position {
	return b.cursor
}

// Version increases on every content change, including undo and redo.
func (b *Buffer) Version() uint64 {
	return b.version
}

// Clamp maps p onto the nearest valid position.
func (b *Buffer) Clamp(p Position) Position {
	if p.Line < 0 {
		p.Line = 0
	}
	if p.Line >= len(b.lines) {
		p.Line = len(b.lines) - 1
	}
	if p.Col < 0 {
		p.Col = 0
	}
	if n := b.LineLen(p.Line); p.Col > n {
		p.Col = n
	}
	return p
}

// End returns the position just past the last rune of the document.
func (b *Buffer) End() Position {
	last := len(b.lines) - 1
	return Position{Line: last, Col: b.LineLen(last)}
}

// TextRange returns the text covered by r after clamping and normalizing.
func (b *Buffer) TextRange(r Range) string {
	r = b.clampRange(r)
	if r.Empty() {
		return ""
	}
	if r.Start.Line == r.End.Line {
		runes := []rune(b.lines[r.Start.Line])
		return string(runes[r.Start.Col:r.End.Col])
	}
	var sb strings.Builder
	first := []rune(b.lines[r.Start.Line])
	sb.WriteString(string(first[r.Start.Col:]))
	for i := r.Start.Line + 1; i < r.End.Line; i++ {
		sb.WriteByte('\n')
		sb.WriteString(b.lines[i])
	}
	last := []rune(b.lines[r.End.Line])
	sb.WriteByte('\n')
	sb.WriteString(string(last[:r.End.Col]))
	return sb.String()
}

func (b *Buffer) clampRange(r Range) Range {
	r = r.Normalize()
	return Range{Start: b.Clamp(r.Start), End: b.Clamp(r.End)}
}
