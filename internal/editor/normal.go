package editor

import (
	"strings"

	"github.com/starford/vaultedit/internal/buffer"
	"github.com/starford/vaultedit/internal/keymap"
)

func (in *Interpreter) handleNormal(key string) Outcome {
	if in.awaitRegister {
		in.awaitRegister = false
		r := []rune(key)
		if len(r) == 1 && ValidRegister(r[0]) {
			in.register = r[0]
		}
		return Outcome{}
	}

	now := in.now()
	var out Outcome
	if cmd, ok := in.normal.Expire(now); ok {
		out = in.execNormal(cmd)
		if in.mode != Normal {
			// The expired command changed mode; the key belongs to it.
			return merge(out, in.Handle(key))
		}
	}
	res, cmd := in.normal.Feed(key, now)
	if res != keymap.Matched {
		return out
	}
	return merge(out, in.execNormal(cmd))
}

func merge(a, b Outcome) Outcome {
	if b.Command == "" {
		b.Command = a.Command
	}
	if b.Ex == nil {
		b.Ex = a.Ex
	}
	if b.Err == nil {
		b.Err = a.Err
	}
	return b
}

// execNormal runs a resolved Normal-mode command. Commands the interpreter
// does not own are returned for the session.
func (in *Interpreter) execNormal(cmd keymap.Command) Outcome {
	b := in.buf
	reg := in.register
	if cmd != keymap.SelectRegister {
		in.register = RegUnnamed
	}

	var err error
	switch cmd {
	case keymap.MoveLeft:
		b.MoveCursor(0, -1)
	case keymap.MoveRight:
		b.MoveCursor(0, 1)
	case keymap.MoveUp:
		b.MoveCursor(-1, 0)
	case keymap.MoveDown:
		b.MoveCursor(1, 0)
	case keymap.LineStart:
		b.LineStart()
	case keymap.LineEnd:
		b.LineEnd()
	case keymap.FirstNonBlank:
		b.FirstNonBlank()
	case keymap.GotoTop:
		b.Top()
	case keymap.GotoBottom:
		b.Bottom()
	case keymap.WordForward:
		b.WordForward()
	case keymap.WordBackward:
		b.WordBackward()

	case keymap.InsertBefore:
		in.beginInsert()
		return Outcome{}
	case keymap.InsertAfter:
		c := b.Cursor()
		if b.LineLen(c.Line) > 0 {
			b.MoveTo(buffer.Position{Line: c.Line, Col: c.Col + 1})
		}
		in.beginInsert()
		return Outcome{}
	case keymap.InsertLineEnd:
		b.LineEnd()
		in.beginInsert()
		return Outcome{}
	case keymap.InsertLineHead:
		b.FirstNonBlank()
		in.beginInsert()
		return Outcome{}
	case keymap.OpenBelow, keymap.OpenAbove:
		line := b.Cursor().Line
		indent := b.IndentOf(line)
		at := line
		if cmd == keymap.OpenBelow {
			at++
		}
		in.beginInsert()
		b.InsertLines(at, []string{indent})
		b.MoveTo(buffer.Position{Line: at, Col: len([]rune(indent))})
		return Outcome{}

	case keymap.EnterVisual:
		in.mode = Visual
		in.visual.Reset()
		b.SetSelection(b.Cursor(), b.Cursor())
		return Outcome{}
	case keymap.EnterCommand:
		in.EnterCommandLine("")
		return Outcome{}

	case keymap.Undo:
		b.Undo()
	case keymap.Redo:
		b.Redo()

	case keymap.DeleteChar:
		c := b.Cursor()
		if b.LineLen(c.Line) == 0 {
			break
		}
		text := b.Delete(buffer.Range{Start: c, End: buffer.Position{Line: c.Line, Col: c.Col + 1}})
		err = in.regs.Cut(reg, Payload{Text: text})
	case keymap.YankLine:
		line := b.Cursor().Line
		err = in.regs.Yank(reg, Payload{Text: b.Line(line), Linewise: true})
	case keymap.DeleteLine:
		line := b.Cursor().Line
		lines := b.DeleteLines(line, line)
		err = in.regs.Cut(reg, Payload{Text: strings.Join(lines, "\n"), Linewise: true})
		b.FirstNonBlank()
	case keymap.PasteAfter, keymap.PasteBefore:
		in.paste(reg, cmd == keymap.PasteAfter)
	case keymap.SelectRegister:
		in.awaitRegister = true
		return Outcome{}

	default:
		return Outcome{Command: cmd}
	}
	in.normalizeCursor()
	return Outcome{Err: err}
}

func (in *Interpreter) paste(reg rune, after bool) {
	p, ok := in.regs.Get(reg)
	if !ok || (p.Text == "" && !p.Linewise) {
		return
	}
	b := in.buf
	c := b.Cursor()
	if p.Linewise {
		at := c.Line
		if after {
			at++
		}
		b.InsertLines(at, p.Lines())
		b.FirstNonBlank()
		return
	}
	if after && b.LineLen(c.Line) > 0 {
		c.Col++
	}
	end := b.Insert(c, p.Text)
	b.MoveTo(buffer.Position{Line: end.Line, Col: end.Col - 1})
}

// normalizeCursor keeps the Normal-mode cursor on a character: end-of-line
// is only reachable in Insert mode.
func (in *Interpreter) normalizeCursor() {
	c := in.buf.Cursor()
	if n := in.buf.LineLen(c.Line); n > 0 && c.Col >= n {
		in.buf.MoveTo(buffer.Position{Line: c.Line, Col: n - 1})
	}
}
