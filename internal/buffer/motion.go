package buffer

import "unicode"

// MoveCursor moves the cursor by dLine rows and dCol columns. A vertical
// move that would leave the document is ignored; columns are clamped to the
// target line. Motions never touch the undo history.
func (b *Buffer) MoveCursor(dLine, dCol int) Position {
	p := b.cursor
	if line := p.Line + dLine; line >= 0 && line < len(b.lines) {
		p.Line = line
	}
	p.Col += dCol
	b.cursor = b.Clamp(p)
	return b.cursor
}

// MoveTo places the cursor at p, clamped.
func (b *Buffer) MoveTo(p Position) Position {
	b.cursor = b.Clamp(p)
	return b.cursor
}

// LineStart moves to column zero of the current line.
func (b *Buffer) LineStart() Position {
	return b.MoveTo(Position{Line: b.cursor.Line})
}

// LineEnd moves to end-of-line.
func (b *Buffer) LineEnd() Position {
	return b.MoveTo(Position{Line: b.cursor.Line, Col: b.LineLen(b.cursor.Line)})
}

// FirstNonBlank moves to the first non-whitespace rune of the line.
func (b *Buffer) FirstNonBlank() Position {
	col := 0
	for _, r := range b.Line(b.cursor.Line) {
		if r != ' ' && r != '\t' {
			break
		}
		col++
	}
	return b.MoveTo(Position{Line: b.cursor.Line, Col: col})
}

// Top moves to the first line.
func (b *Buffer) Top() Position {
	return b.MoveTo(Position{})
}

// Bottom moves to the start of the last line.
func (b *Buffer) Bottom() Position {
	return b.MoveTo(Position{Line: len(b.lines) - 1})
}

type runeClass int

const (
	classSpace runeClass = iota
	classWord
	classPunct
)

func classify(r rune) runeClass {
	switch {
	case unicode.IsSpace(r):
		return classSpace
	case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
		return classWord
	default:
		return classPunct
	}
}

// WordForward moves to the start of the next word, crossing line breaks.
// Empty lines count as words.
func (b *Buffer) WordForward() Position {
	line, col := b.cursor.Line, b.cursor.Col
	runes := []rune(b.lines[line])
	if col < len(runes) {
		start := classify(runes[col])
		for col < len(runes) && classify(runes[col]) == start && start != classSpace {
			col++
		}
	}
	for {
		for col < len(runes) && classify(runes[col]) == classSpace {
			col++
		}
		if col < len(runes) {
			break
		}
		if line+1 >= len(b.lines) {
			col = len(runes)
			break
		}
		line++
		col = 0
		runes = []rune(b.lines[line])
		if len(runes) == 0 {
			break
		}
	}
	return b.MoveTo(Position{Line: line, Col: col})
}

// WordBackward moves to the start of the previous word, crossing line
// breaks.
func (b *Buffer) WordBackward() Position {
	line, col := b.cursor.Line, b.cursor.Col
	runes := []rune(b.lines[line])
	for {
		col--
		for col >= 0 && classify(runes[col]) == classSpace {
			col--
		}
		if col >= 0 {
			break
		}
		if line == 0 {
			return b.MoveTo(Position{})
		}
		line--
		runes = []rune(b.lines[line])
		col = len(runes)
		if col == 0 {
			return b.MoveTo(Position{Line: line})
		}
	}
	cls := classify(runes[col])
	for col > 0 && classify(runes[col-1]) == cls {
		col--
	}
	return b.MoveTo(Position{Line: line, Col: col})
}

// WordBefore returns the run of non-space runes ending at p, and the column
// where it starts.
func (b *Buffer) WordBefore(p Position) (string, int) {
	p = b.Clamp(p)
	runes := []rune(b.lines[p.Line])
	start := p.Col
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	return string(runes[start:p.Col]), start
}
