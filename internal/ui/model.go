// Package ui is the terminal shell around a session. The bubbletea event
// loop is the single sequential loop that feeds the session: key presses,
// scan results and vault changes all arrive as messages.
package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/vaultedit/internal/scanner"
	"github.com/starford/vaultedit/internal/session"
)

// VaultEvent is a debounced change to a vault file.
type VaultEvent struct {
	Kind string
	Path string
}

type scanResultMsg struct{ scanner.Result }

type vaultEventMsg struct{ VaultEvent }

type tickMsg struct{}

// Model is the bubbletea model.
type Model struct {
	ctx     context.Context
	sess    *session.Session
	results <-chan scanner.Result
	events  <-chan VaultEvent
	styles  styles

	width  int
	height int
	top    int
}

// Option configures a Model.
type Option func(*Model)

// WithResults delivers background scan results to the session.
func WithResults(ch <-chan scanner.Result) Option {
	return func(m *Model) { m.results = ch }
}

// WithVaultEvents delivers watcher events to the session.
func WithVaultEvents(ch <-chan VaultEvent) Option {
	return func(m *Model) { m.events = ch }
}

// New creates a model driving sess.
func New(ctx context.Context, sess *session.Session, opts ...Option) Model {
	m := Model{ctx: ctx, sess: sess, styles: defaultStyles(), width: 80, height: 24}
	for _, o := range opts {
		o(&m)
	}
	return m
}

// Init starts listening for background messages.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForResult(m.results), waitForEvent(m.events))
}

func waitForResult(ch <-chan scanner.Result) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return scanResultMsg{r}
	}
}

func waitForEvent(ch <-chan VaultEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return vaultEventMsg{ev}
	}
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.Paste {
			m.sess.HandlePaste(m.ctx, string(msg.Runes))
		} else {
			for _, key := range keyNames(msg) {
				m.sess.HandleKey(m.ctx, key)
			}
		}
		if m.sess.Quit() {
			return m, tea.Quit
		}
		cmds = append(cmds, m.scheduleTick())

	case tickMsg:
		m.sess.Tick(m.ctx)
		if m.sess.Quit() {
			return m, tea.Quit
		}
		cmds = append(cmds, m.scheduleTick())

	case scanResultMsg:
		m.sess.ApplyScanResult(msg.Result)
		cmds = append(cmds, waitForResult(m.results))

	case vaultEventMsg:
		m.sess.HandleVaultChange(m.ctx, msg.Kind, msg.Path)
		cmds = append(cmds, waitForEvent(m.events))
	}

	m.top = scroll(m.top, m.sess.Buffer().Cursor().Line, m.editorRows())
	return m, tea.Batch(cmds...)
}

// scheduleTick wakes the loop when a pending key sequence times out.
func (m Model) scheduleTick() tea.Cmd {
	deadline, ok := m.sess.Deadline()
	if !ok {
		return nil
	}
	return tea.Tick(max(time.Until(deadline), time.Millisecond), func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// keyNames converts a key event to the names used by the keymap. A burst
// of runes delivered in one event is split into one key per rune.
func keyNames(msg tea.KeyMsg) []string {
	if msg.Type == tea.KeyRunes && len(msg.Runes) > 1 && !msg.Alt {
		keys := make([]string, len(msg.Runes))
		for i, r := range msg.Runes {
			keys[i] = string(r)
		}
		return keys
	}
	return []string{msg.String()}
}

// scroll returns the first visible line so that cursor stays in view.
func scroll(top, cursor, rows int) int {
	if rows <= 0 {
		return cursor
	}
	if cursor < top {
		return cursor
	}
	if cursor >= top+rows {
		return cursor - rows + 1
	}
	return top
}
