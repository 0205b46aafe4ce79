package editor

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

// Payload is the content of a register.
type Payload struct {
	Text     string
	Linewise bool
}

// Lines splits a line-wise payload into its lines.
func (p Payload) Lines() []string {
	return strings.Split(p.Text, "\n")
}

// Clipboard is the system clipboard behind the "+" register.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error) { return clipboard.ReadAll() }

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// SystemClipboard returns the OS clipboard, or nil when the platform has no
// clipboard utility.
func SystemClipboard() Clipboard {
	if clipboard.Unsupported {
		return nil
	}
	return systemClipboard{}
}

// Register names.
const (
	RegUnnamed   = '"'
	RegYank      = '0'
	RegClipboard = '+'
)

// Registers holds yank and cut payloads. Writes always update the unnamed
// register; yanks also fill "0" and cuts shift "1".."9".
type Registers struct {
	slots map[rune]Payload
	clip  Clipboard
}

// NewRegisters creates an empty register file. clip may be nil.
func NewRegisters(clip Clipboard) *Registers {
	return &Registers{slots: make(map[rune]Payload), clip: clip}
}

// ValidRegister reports whether r names a register.
func ValidRegister(r rune) bool {
	switch {
	case r == RegUnnamed, r == RegClipboard:
		return true
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z':
		return true
	}
	return false
}

// Get returns the payload in name. Reading is non-destructive.
func (r *Registers) Get(name rune) (Payload, bool) {
	if name == RegClipboard && r.clip != nil {
		if text, err := r.clip.ReadAll(); err == nil {
			linewise := strings.HasSuffix(text, "\n")
			if linewise {
				text = strings.TrimSuffix(text, "\n")
			}
			return Payload{Text: text, Linewise: linewise}, true
		}
	}
	p, ok := r.slots[name]
	return p, ok
}

// Yank stores p as a copy. The error reports a failed clipboard write; the
// payload is stored either way.
func (r *Registers) Yank(name rune, p Payload) error {
	err := r.store(name, p)
	if name == RegUnnamed {
		r.slots[RegYank] = p
	}
	return err
}

// Cut stores p as deleted text.
func (r *Registers) Cut(name rune, p Payload) error {
	err := r.store(name, p)
	if name == RegUnnamed {
		for i := '9'; i > '1'; i-- {
			if prev, ok := r.slots[i-1]; ok {
				r.slots[i] = prev
			}
		}
		r.slots['1'] = p
	}
	return err
}

func (r *Registers) store(name rune, p Payload) error {
	if !ValidRegister(name) {
		name = RegUnnamed
	}
	r.slots[RegUnnamed] = p
	if name == RegUnnamed {
		return nil
	}
	r.slots[name] = p
	if name == RegClipboard && r.clip != nil {
		text := p.Text
		if p.Linewise {
			text += "\n"
		}
		if err := r.clip.WriteAll(text); err != nil {
			return fmt.Errorf("clipboard: %w", err)
		}
	}
	return nil
}
