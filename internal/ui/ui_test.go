package ui

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/vaultedit/internal/apperr"
	"github.com/starford/vaultedit/internal/index"
	"github.com/starford/vaultedit/internal/scanner"
	"github.com/starford/vaultedit/internal/session"
	"github.com/starford/vaultedit/internal/testutil"
)

func newModel(t *testing.T, files map[string]string, open string) (Model, *index.DB) {
	t.Helper()
	dir, fs := testutil.TestVault(t)
	testutil.WriteFiles(t, fs, files)
	db := testutil.TestStore(t)
	bridge := scanner.NewBridge(db, fs, testutil.ParseScanner(dir), testutil.DiscardLogger())
	sess, err := session.New(fs, bridge, session.WithLogger(testutil.DiscardLogger()))
	if err != nil {
		t.Fatal(err)
	}
	if err := sess.Open(context.Background(), open); err != nil {
		t.Fatal(err)
	}
	return New(context.Background(), sess), db
}

func send(m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeyNames(t *testing.T) {
	tests := []struct {
		msg  tea.KeyMsg
		want []string
	}{
		{runes("g"), []string{"g"}},
		{runes("gg"), []string{"g", "g"}},
		{tea.KeyMsg{Type: tea.KeyEnter}, []string{"enter"}},
		{tea.KeyMsg{Type: tea.KeyEsc}, []string{"esc"}},
		{tea.KeyMsg{Type: tea.KeyCtrlR}, []string{"ctrl+r"}},
		{tea.KeyMsg{Type: tea.KeyTab}, []string{"tab"}},
		{tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, []string{" "}},
	}
	for _, tt := range tests {
		if got := keyNames(tt.msg); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("keyNames(%v) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}

func TestScroll(t *testing.T) {
	tests := []struct{ top, cursor, rows, want int }{
		{0, 0, 10, 0},
		{0, 9, 10, 0},
		{0, 10, 10, 1},
		{5, 2, 10, 2},
		{3, 30, 10, 21},
	}
	for _, tt := range tests {
		if got := scroll(tt.top, tt.cursor, tt.rows); got != tt.want {
			t.Errorf("scroll(%d, %d, %d) = %d, want %d", tt.top, tt.cursor, tt.rows, got, tt.want)
		}
	}
}

func TestHscroll(t *testing.T) {
	line := []rune("abcdefghij")
	if got := hscroll(line, 3, 5); got != 0 {
		t.Errorf("start = %d", got)
	}
	if got := hscroll(line, 9, 5); got != 5 {
		t.Errorf("start = %d", got)
	}
	wide := []rune("日本語テキスト")
	if got := hscroll(wide, 4, 6); got != 2 {
		t.Errorf("wide start = %d", got)
	}
}

func TestKeysAndPasteReachSession(t *testing.T) {
	m, _ := newModel(t, map[string]string{"a.md": "one"}, "a.md")
	m, _ = send(m, runes("A"), runes(" two"), tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.sess.Buffer().Text(); got != "one two" {
		t.Fatalf("text = %q", got)
	}

	m, _ = send(m, runes("o"), tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x\ny"), Paste: true}, tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.sess.Buffer().Text(); got != "one two\nx\ny" {
		t.Fatalf("text = %q", got)
	}
	if !m.sess.Dirty() {
		t.Fatal("buffer should be dirty")
	}
}

func TestQuitEndsProgram(t *testing.T) {
	m, _ := newModel(t, map[string]string{"a.md": "one"}, "a.md")
	_, cmd := send(m, runes(":"), runes("q"), tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("no command after :q")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected quit")
	}
}

func TestPendingSequenceSchedulesTick(t *testing.T) {
	m, _ := newModel(t, map[string]string{"a.md": "one"}, "a.md")
	if cmd := m.scheduleTick(); cmd != nil {
		t.Fatal("tick scheduled without pending keys")
	}
	m, _ = send(m, runes(`\`))
	if cmd := m.scheduleTick(); cmd == nil {
		t.Fatal("no tick for pending leader")
	}
}

func TestVaultEventForgetsDeletedFile(t *testing.T) {
	m, db := newModel(t, map[string]string{"a.md": "#x", "b.md": "[[a]]"}, "a.md")
	if _, err := db.FileByPath("a.md"); err != nil {
		t.Fatal(err)
	}
	send(m, vaultEventMsg{VaultEvent{Kind: index.EventDeleted, Path: "a.md"}})
	if _, err := db.FileByPath("a.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestViewShowsBufferAndStatus(t *testing.T) {
	m, _ := newModel(t, map[string]string{"a.md": "hello world"}, "a.md")
	m, _ = send(m, tea.WindowSizeMsg{Width: 60, Height: 10})
	out := m.View()
	for _, want := range []string{"NORMAL", "a.md", "ello world", "1:1"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "\n") + 1; n != 10 {
		t.Errorf("view has %d rows", n)
	}

	m, _ = send(m, runes(":"), runes("frob"), tea.KeyMsg{Type: tea.KeyEnter})
	if out := m.View(); !strings.Contains(out, "frob") {
		t.Errorf("view missing error:\n%s", out)
	}
}
