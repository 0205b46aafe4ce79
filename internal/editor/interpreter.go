// Package editor is the modal input interpreter. It turns key names (as
// produced by the terminal shell, e.g. "j", "esc", "ctrl+r") into buffer
// edits, mode transitions and requests for the session.
//
// The interpreter never performs I/O. Saving, quitting and panel commands
// come back in an Outcome for the caller to execute.
package editor

import (
	"time"
	"unicode/utf8"

	"github.com/starford/vaultedit/internal/buffer"
	"github.com/starford/vaultedit/internal/keymap"
)

// Outcome describes what one key did.
type Outcome struct {
	// Command is a session-level command (panels, link follow, daily notes)
	// that the interpreter does not execute itself.
	Command keymap.Command
	// Ex is set when a command line was submitted.
	Ex *Ex
	// Err reports an invalid command line or a failed clipboard write. The
	// session shows it; editing continues.
	Err error
	// Edited is true when buffer content changed.
	Edited bool
	// ModeChanged is true when the key switched modes.
	ModeChanged bool
}

// Interpreter is the modal state machine over one buffer.
type Interpreter struct {
	buf  *buffer.Buffer
	mode Mode

	keys    *keymap.Set
	normal  *keymap.Matcher
	visual  *keymap.Matcher
	regs    *Registers
	now     func() time.Time
	cmdline []rune

	awaitRegister bool
	register      rune
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithClock overrides the time source used for sequence timeouts.
func WithClock(now func() time.Time) Option {
	return func(in *Interpreter) { in.now = now }
}

// WithRegisters shares a register file, e.g. across buffers of a session.
func WithRegisters(r *Registers) Option {
	return func(in *Interpreter) { in.regs = r }
}

// New creates an interpreter in Normal mode.
func New(buf *buffer.Buffer, keys *keymap.Set, timeout time.Duration, opts ...Option) *Interpreter {
	in := &Interpreter{
		buf:      buf,
		keys:     keys,
		normal:   keymap.NewMatcher(keys.Normal, timeout),
		visual:   keymap.NewMatcher(keys.Visual, timeout),
		now:      time.Now,
		register: RegUnnamed,
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.regs == nil {
		in.regs = NewRegisters(nil)
	}
	return in
}

// Mode returns the active mode.
func (in *Interpreter) Mode() Mode { return in.mode }

// Buffer returns the buffer being edited.
func (in *Interpreter) Buffer() *buffer.Buffer { return in.buf }

// Registers returns the register file.
func (in *Interpreter) Registers() *Registers { return in.regs }

// SetBuffer switches to another buffer and resets to Normal mode.
func (in *Interpreter) SetBuffer(buf *buffer.Buffer) {
	in.buf = buf
	in.reset()
}

// CommandLine returns the text typed in Command mode.
func (in *Interpreter) CommandLine() string { return string(in.cmdline) }

// PendingKeys returns the unresolved key prefix for display.
func (in *Interpreter) PendingKeys() string {
	switch {
	case in.awaitRegister:
		return `"`
	case in.mode == Visual:
		return in.visual.Pending()
	default:
		return in.normal.Pending()
	}
}

// Deadline returns when the pending key prefix times out.
func (in *Interpreter) Deadline() (time.Time, bool) {
	if in.mode == Visual {
		return in.visual.Deadline()
	}
	return in.normal.Deadline()
}

// EnterCommandLine switches to Command mode with text pre-filled.
func (in *Interpreter) EnterCommandLine(text string) {
	in.endInsert()
	in.buf.ClearSelection()
	in.mode = Command
	in.cmdline = []rune(text)
}

func (in *Interpreter) reset() {
	in.mode = Normal
	in.cmdline = nil
	in.awaitRegister = false
	in.register = RegUnnamed
	in.normal.Reset()
	in.visual.Reset()
	for in.buf.InGroup() {
		in.buf.EndGroup()
	}
}

// Tick resolves a pending key prefix whose window has elapsed.
func (in *Interpreter) Tick() Outcome {
	now := in.now()
	before := in.buf.Version()
	mode := in.mode
	var out Outcome
	switch in.mode {
	case Normal:
		if cmd, ok := in.normal.Expire(now); ok {
			out = in.execNormal(cmd)
		}
	case Visual:
		if cmd, ok := in.visual.Expire(now); ok {
			out = in.execVisual(cmd)
		}
	}
	return in.finish(out, before, mode)
}

// Handle interprets one key.
func (in *Interpreter) Handle(key string) Outcome {
	before := in.buf.Version()
	mode := in.mode
	var out Outcome
	switch in.mode {
	case Normal:
		out = in.handleNormal(key)
	case Insert:
		out = in.handleInsert(key)
	case Visual:
		out = in.handleVisual(key)
	case Command:
		out = in.handleCommand(key)
	}
	return in.finish(out, before, mode)
}

// Paste inserts text as a single undoable edit. In Normal mode the text goes
// after the cursor as if typed with "a".
func (in *Interpreter) Paste(text string) Outcome {
	before := in.buf.Version()
	mode := in.mode
	switch in.mode {
	case Insert:
		in.buf.BeginGroup()
		in.buf.Insert(in.buf.Cursor(), text)
		in.buf.EndGroup()
	case Normal:
		at := in.buf.Cursor()
		if in.buf.LineLen(at.Line) > 0 {
			at.Col++
		}
		in.buf.Insert(at, text)
		in.normalizeCursor()
	case Command:
		in.cmdline = append(in.cmdline, []rune(text)...)
	}
	return in.finish(Outcome{}, before, mode)
}

func (in *Interpreter) finish(out Outcome, before uint64, mode Mode) Outcome {
	out.Edited = in.buf.Version() != before
	out.ModeChanged = in.mode != mode
	return out
}

// isText reports whether key is a single printable rune.
func isText(key string) bool {
	if utf8.RuneCountInString(key) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(key)
	return r >= ' ' && r != 0x7f
}

func (in *Interpreter) handleCommand(key string) Outcome {
	switch key {
	case "esc", "ctrl+c":
		in.mode = Normal
		in.cmdline = nil
		return Outcome{}
	case "backspace", "ctrl+h":
		if len(in.cmdline) == 0 {
			in.mode = Normal
			return Outcome{}
		}
		in.cmdline = in.cmdline[:len(in.cmdline)-1]
		return Outcome{}
	case "enter":
		text := string(in.cmdline)
		in.cmdline = nil
		in.mode = Normal
		ex, line, err := ParseEx(text)
		if err != nil {
			return Outcome{Err: err}
		}
		if line > 0 {
			in.buf.MoveTo(buffer.Position{Line: line - 1})
			in.buf.FirstNonBlank()
			return Outcome{}
		}
		if ex.Kind == ExNone {
			return Outcome{}
		}
		return Outcome{Ex: &ex}
	}
	if isText(key) {
		in.cmdline = append(in.cmdline, []rune(key)...)
	}
	return Outcome{}
}
