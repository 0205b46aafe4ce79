package session

import (
	"github.com/starford/vaultedit/internal/complete"
	"github.com/starford/vaultedit/internal/editor"
	"github.com/starford/vaultedit/internal/models"
)

// Popup is the completion list shown next to the cursor.
type Popup struct {
	Trigger complete.Trigger
	Items   []models.Candidate
	Index   int
}

// Selected returns the highlighted candidate.
func (p *Popup) Selected() models.Candidate { return p.Items[p.Index] }

func (p *Popup) move(delta int) {
	n := len(p.Items)
	p.Index = ((p.Index+delta)%n + n) % n
}

// updatePopup recomputes completion for the token at the cursor.
func (s *Session) updatePopup() {
	tr, ok := complete.Detect(s.in.Buffer())
	if !ok {
		s.popup = nil
		return
	}
	s.openPopup(tr)
}

func (s *Session) openPopup(tr complete.Trigger) {
	items, err := s.engine.Candidates(tr)
	if err != nil {
		s.setError(err)
		s.popup = nil
		return
	}
	if len(items) == 0 {
		s.popup = nil
		return
	}
	s.popup = &Popup{Trigger: tr, Items: items}
}

// handlePopupKey returns false for keys the popup does not use; those go on
// to the normal key path.
func (s *Session) handlePopupKey(key string) bool {
	p := s.popup
	switch key {
	case "tab", "ctrl+n", "down":
		p.move(1)
	case "shift+tab", "ctrl+p", "up":
		p.move(-1)
	case "enter":
		buf := s.in.Buffer()
		if err := s.engine.Accept(buf, p.Trigger, p.Selected()); err != nil {
			s.setError(err)
		}
		if c := buf.Cursor(); s.in.Mode() != editor.Insert && c.Col > 0 && c.Col >= buf.LineLen(c.Line) {
			buf.MoveCursor(0, -1)
		}
		s.popup = nil
		s.edited()
	case "esc":
		s.popup = nil
	default:
		return false
	}
	return true
}
