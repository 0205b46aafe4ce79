package editor

import "github.com/starford/vaultedit/internal/buffer"

// beginInsert enters Insert mode. Every edit until Esc is one undo step.
func (in *Interpreter) beginInsert() {
	in.mode = Insert
	in.buf.BeginGroup()
}

func (in *Interpreter) endInsert() {
	if in.mode != Insert {
		return
	}
	for in.buf.InGroup() {
		in.buf.EndGroup()
	}
}

func (in *Interpreter) handleInsert(key string) Outcome {
	b := in.buf
	c := b.Cursor()
	switch key {
	case "esc", "ctrl+c", "ctrl+[":
		in.endInsert()
		in.mode = Normal
		if c.Col > 0 {
			b.MoveCursor(0, -1)
		}
		in.normalizeCursor()
	case "enter":
		indent := b.IndentOf(c.Line)
		b.Insert(c, "\n"+indent)
	case "tab":
		b.Insert(c, "\t")
	case "backspace", "ctrl+h":
		switch {
		case c.Col > 0:
			b.Delete(buffer.Range{Start: buffer.Position{Line: c.Line, Col: c.Col - 1}, End: c})
		case c.Line > 0:
			prev := buffer.Position{Line: c.Line - 1, Col: b.LineLen(c.Line - 1)}
			b.Delete(buffer.Range{Start: prev, End: c})
		}
	case "delete":
		b.Delete(buffer.Range{Start: c, End: nextRune(b, c)})
	case "left":
		b.MoveCursor(0, -1)
	case "right":
		b.MoveCursor(0, 1)
	case "up":
		b.MoveCursor(-1, 0)
	case "down":
		b.MoveCursor(1, 0)
	case "home":
		b.LineStart()
	case "end":
		b.LineEnd()
	default:
		if isText(key) {
			b.Insert(c, key)
		}
	}
	return Outcome{}
}

func nextRune(b *buffer.Buffer, p buffer.Position) buffer.Position {
	if p.Col < b.LineLen(p.Line) {
		return buffer.Position{Line: p.Line, Col: p.Col + 1}
	}
	if p.Line+1 < b.LineCount() {
		return buffer.Position{Line: p.Line + 1}
	}
	return p
}
