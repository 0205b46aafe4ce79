package buffer

import (
	"strings"
	"unicode/utf8"
)

// Insert places text at pos (clamped) and returns the position just after
// the inserted text. The cursor moves to that position. Inserting the empty
// string changes nothing and records no history.
func (b *Buffer) Insert(pos Position, text string) Position {
	pos = b.Clamp(pos)
	if text == "" {
		return pos
	}
	b.record()

	runes := []rune(b.lines[pos.Line])
	before := string(runes[:pos.Col])
	after := string(runes[pos.Col:])

	parts := splitLines(text)
	replacement := make([]string, len(parts))
	copy(replacement, parts)
	replacement[0] = before + replacement[0]
	last := len(replacement) - 1
	end := Position{Line: pos.Line + last, Col: utf8.RuneCountInString(parts[last])}
	if last == 0 {
		end.Col += pos.Col
	}
	replacement[last] += after

	b.lines = splice(b.lines, pos.Line, pos.Line+1, replacement)
	b.cursor = end
	b.clearSelection()
	b.changed()
	return end
}

// Delete removes the text covered by r (clamped and normalized) and returns
// it. The cursor moves to the start of the range. An empty range is a no-op.
func (b *Buffer) Delete(r Range) string {
	r = b.clampRange(r)
	if r.Empty() {
		return ""
	}
	removed := b.TextRange(r)
	b.record()

	first := []rune(b.lines[r.Start.Line])
	last := []rune(b.lines[r.End.Line])
	joined := string(first[:r.Start.Col]) + string(last[r.End.Col:])

	b.lines = splice(b.lines, r.Start.Line, r.End.Line+1, []string{joined})
	b.cursor = r.Start
	b.clearSelection()
	b.changed()
	return removed
}

// DeleteLines removes lines first..last inclusive and returns them. The
// document always keeps at least one (possibly empty) line. The cursor moves
// to the start of the line that now occupies index first.
func (b *Buffer) DeleteLines(first, last int) []string {
	if first > last {
		first, last = last, first
	}
	if first < 0 {
		first = 0
	}
	if last >= len(b.lines) {
		last = len(b.lines) - 1
	}
	if first > last {
		return nil
	}
	removed := make([]string, last-first+1)
	copy(removed, b.lines[first:last+1])
	b.record()

	var replacement []string
	if first == 0 && last == len(b.lines)-1 {
		replacement = []string{""}
	}
	b.lines = splice(b.lines, first, last+1, replacement)
	line := first
	if line >= len(b.lines) {
		line = len(b.lines) - 1
	}
	b.cursor = Position{Line: line}
	b.clearSelection()
	b.changed()
	return removed
}

// InsertLines inserts whole lines before index at. at == LineCount appends.
// The cursor moves to the start of the first inserted line.
func (b *Buffer) InsertLines(at int, lines []string) {
	if len(lines) == 0 {
		return
	}
	if at < 0 {
		at = 0
	}
	if at > len(b.lines) {
		at = len(b.lines)
	}
	b.record()
	ins := make([]string, len(lines))
	copy(ins, lines)
	b.lines = splice(b.lines, at, at, ins)
	b.cursor = Position{Line: at}
	b.clearSelection()
	b.changed()
}

// Replace swaps the text in r for text as one undoable step.
func (b *Buffer) Replace(r Range, text string) Position {
	b.BeginGroup()
	defer b.EndGroup()
	r = b.clampRange(r)
	b.Delete(r)
	if text == "" {
		return r.Start
	}
	return b.Insert(r.Start, text)
}

// splice returns a new slice equal to lines[:from] + repl + lines[to:].
// The input slice is never modified because undo snapshots may share it.
func splice(lines []string, from, to int, repl []string) []string {
	out := make([]string, 0, len(lines)-(to-from)+len(repl))
	out = append(out, lines[:from]...)
	out = append(out, repl...)
	out = append(out, lines[to:]...)
	if len(out) == 0 {
		out = append(out, "")
	}
	return out
}

// IndentOf returns the leading whitespace of line i.
func (b *Buffer) IndentOf(i int) string {
	line := b.Line(i)
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
