package editor

import "github.com/starford/vaultedit/internal/keymap"

func (in *Interpreter) handleVisual(key string) Outcome {
	now := in.now()
	if cmd, ok := in.visual.Expire(now); ok {
		in.execVisual(cmd)
		if in.mode != Visual {
			return in.Handle(key)
		}
	}
	res, cmd := in.visual.Feed(key, now)
	if res != keymap.Matched {
		return Outcome{}
	}
	return in.execVisual(cmd)
}

func (in *Interpreter) execVisual(cmd keymap.Command) Outcome {
	b := in.buf
	switch cmd {
	case keymap.VisualCancel:
		in.leaveVisual()
		return Outcome{}
	case keymap.VisualYank, keymap.VisualCut:
		r, ok := b.SelectionInclusive()
		if !ok {
			in.leaveVisual()
			return Outcome{}
		}
		text := b.TextRange(r)
		var err error
		if cmd == keymap.VisualYank {
			err = in.regs.Yank(RegUnnamed, Payload{Text: text})
			b.MoveTo(r.Start)
		} else {
			err = in.regs.Cut(RegUnnamed, Payload{Text: text})
			b.Delete(r)
		}
		in.leaveVisual()
		return Outcome{Err: err}
	}

	// Everything else is a motion that extends the selection.
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
	case keymap.GotoTop:
		b.Top()
	case keymap.GotoBottom:
		b.Bottom()
	case keymap.WordForward:
		b.WordForward()
	case keymap.WordBackward:
		b.WordBackward()
	default:
		return Outcome{}
	}
	in.normalizeCursor()
	b.ExtendSelection()
	return Outcome{}
}

func (in *Interpreter) leaveVisual() {
	in.buf.ClearSelection()
	in.visual.Reset()
	in.mode = Normal
	in.normalizeCursor()
}
