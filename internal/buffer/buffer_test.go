package buffer

import (
	"math/rand"
	"testing"
)

func TestNewTextRoundTrip(t *testing.T) {
	for _, in := range []string{"", "a", "a\n", "# Title\n#work [[Plan]]\n", "x\r\ny", "\n\n"} {
		if got := New(in).Text(); got != in {
			t.Errorf("round trip %q: got %q", in, got)
		}
	}
}

func TestInsertSingleLine(t *testing.T) {
	b := New("hello world")
	end := b.Insert(Position{Line: 0, Col: 5}, ",")
	if b.Text() != "hello, world" {
		t.Fatalf("text = %q", b.Text())
	}
	if end != (Position{Line: 0, Col: 6}) {
		t.Errorf("end = %+v", end)
	}
	if b.Cursor() != end {
		t.Errorf("cursor = %+v, want %+v", b.Cursor(), end)
	}
}

func TestInsertMultiLine(t *testing.T) {
	b := New("ab")
	end := b.Insert(Position{Line: 0, Col: 1}, "x\ny\nz")
	if b.Text() != "ax\ny\nzb" {
		t.Fatalf("text = %q", b.Text())
	}
	if end != (Position{Line: 2, Col: 1}) {
		t.Errorf("end = %+v", end)
	}
}

func TestInsertClampsPosition(t *testing.T) {
	b := New("abc\nde")
	b.Insert(Position{Line: 10, Col: 10}, "!")
	if b.Text() != "abc\nde!" {
		t.Fatalf("text = %q", b.Text())
	}
	b.Insert(Position{Line: -3, Col: -1}, "^")
	if b.Text() != "^abc\nde!" {
		t.Fatalf("text = %q", b.Text())
	}
}

func TestInsertUnicode(t *testing.T) {
	b := New("héllo")
	b.Insert(Position{Line: 0, Col: 2}, "✓")
	if b.Text() != "hé✓llo" {
		t.Fatalf("text = %q", b.Text())
	}
	if b.LineLen(0) != 6 {
		t.Errorf("line len = %d", b.LineLen(0))
	}
}

func TestDeleteAcrossLines(t *testing.T) {
	b := New("one\ntwo\nthree")
	got := b.Delete(Range{Start: Position{Line: 2, Col: 2}, End: Position{Line: 0, Col: 1}})
	if got != "ne\ntwo\nth" {
		t.Fatalf("removed = %q", got)
	}
	if b.Text() != "oree" {
		t.Fatalf("text = %q", b.Text())
	}
	if b.Cursor() != (Position{Line: 0, Col: 1}) {
		t.Errorf("cursor = %+v", b.Cursor())
	}
}

func TestDeleteEmptyRangeIsNoop(t *testing.T) {
	b := New("abc")
	p := Position{Line: 0, Col: 1}
	if got := b.Delete(Range{Start: p, End: p}); got != "" {
		t.Fatalf("removed = %q", got)
	}
	if b.CanUndo() {
		t.Error("empty delete recorded history")
	}
}

func TestDeleteLines(t *testing.T) {
	b := New("a\nb\nc")
	got := b.DeleteLines(1, 1)
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("removed = %v", got)
	}
	if b.Text() != "a\nc" {
		t.Fatalf("text = %q", b.Text())
	}

	b.DeleteLines(0, 5)
	if b.Text() != "" || b.LineCount() != 1 {
		t.Fatalf("text = %q lines = %d", b.Text(), b.LineCount())
	}
}

func TestDeleteLastLineMovesCursorUp(t *testing.T) {
	b := New("a\nb")
	b.DeleteLines(1, 1)
	if b.Cursor() != (Position{Line: 0}) {
		t.Fatalf("cursor = %+v", b.Cursor())
	}
}

func TestInsertLines(t *testing.T) {
	b := New("a\nc")
	b.InsertLines(1, []string{"b"})
	if b.Text() != "a\nb\nc" {
		t.Fatalf("text = %q", b.Text())
	}
	b.InsertLines(99, []string{"d"})
	if b.Text() != "a\nb\nc\nd" {
		t.Fatalf("text = %q", b.Text())
	}
}

func TestUndoRedo(t *testing.T) {
	b := New("abc")
	b.Insert(Position{Col: 3}, "d")
	b.Delete(Range{Start: Position{}, End: Position{Col: 1}})
	if b.Text() != "bcd" {
		t.Fatalf("text = %q", b.Text())
	}
	if !b.Undo() || b.Text() != "abcd" {
		t.Fatalf("after undo: %q", b.Text())
	}
	if !b.Undo() || b.Text() != "abc" {
		t.Fatalf("after second undo: %q", b.Text())
	}
	if b.Undo() {
		t.Fatal("undo on empty stack reported change")
	}
	if !b.Redo() || b.Text() != "abcd" {
		t.Fatalf("after redo: %q", b.Text())
	}
	if !b.Redo() || b.Text() != "bcd" {
		t.Fatalf("after second redo: %q", b.Text())
	}
	if b.Redo() {
		t.Fatal("redo on empty stack reported change")
	}
}

func TestEditClearsRedo(t *testing.T) {
	b := New("abc")
	b.Insert(Position{Col: 0}, "x")
	b.Undo()
	b.Insert(Position{Col: 0}, "y")
	if b.CanRedo() {
		t.Fatal("redo stack survived a new edit")
	}
}

func TestCursorMotionDoesNotRecord(t *testing.T) {
	b := New("abc\ndef")
	b.MoveCursor(1, 2)
	b.MoveTo(Position{Line: 0, Col: 1})
	b.WordForward()
	if b.CanUndo() {
		t.Fatal("cursor motion pushed undo history")
	}
}

func TestGroupUndoesAsOneStep(t *testing.T) {
	b := New("")
	b.BeginGroup()
	b.Insert(b.Cursor(), "a")
	b.Insert(b.Cursor(), "b")
	b.BeginGroup()
	b.Insert(b.Cursor(), "c")
	b.EndGroup()
	b.EndGroup()
	if b.Text() != "abc" {
		t.Fatalf("text = %q", b.Text())
	}
	b.Undo()
	if b.Text() != "" {
		t.Fatalf("after undo: %q", b.Text())
	}
	if b.CanUndo() {
		t.Fatal("group produced more than one undo entry")
	}
}

func TestReplaceIsOneStep(t *testing.T) {
	b := New("#wo")
	b.Replace(Range{Start: Position{Col: 1}, End: Position{Col: 3}}, "work ")
	if b.Text() != "#work " {
		t.Fatalf("text = %q", b.Text())
	}
	b.Undo()
	if b.Text() != "#wo" {
		t.Fatalf("after undo: %q", b.Text())
	}
}

func TestUndoLimit(t *testing.T) {
	b := New("", WithUndoLimit(2))
	for i := 0; i < 5; i++ {
		b.Insert(b.End(), "x")
	}
	n := 0
	for b.Undo() {
		n++
	}
	if n != 2 {
		t.Fatalf("undo steps = %d, want 2", n)
	}
	if b.Text() != "xxx" {
		t.Fatalf("text = %q", b.Text())
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	b := New("abc\ndef")
	s := b.Snapshot()
	b.Insert(Position{Line: 1, Col: 0}, "zz")
	b.DeleteLines(0, 0)
	if s.Text() != "abc\ndef" {
		t.Fatalf("snapshot changed: %q", s.Text())
	}
	b.Restore(s)
	if b.Text() != "abc\ndef" {
		t.Fatalf("restore: %q", b.Text())
	}
	b.Undo()
	if b.Text() != "zzdef" {
		t.Fatalf("undo restore: %q", b.Text())
	}
}

// Undoing N random edits restores the original text byte for byte, and
// redoing them reproduces the edited text.
func TestUndoRestoresOriginalProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := []string{"a", "é", "\n", "#tag ", "[[x]]", "  "}
	for round := 0; round < 50; round++ {
		orig := "start\nmiddle line\nend"
		b := New(orig)
		n := 1 + rng.Intn(20)
		for i := 0; i < n; i++ {
			p := Position{Line: rng.Intn(b.LineCount() + 1), Col: rng.Intn(12)}
			if rng.Intn(2) == 0 {
				b.Insert(p, alphabet[rng.Intn(len(alphabet))])
			} else {
				q := Position{Line: rng.Intn(b.LineCount() + 1), Col: rng.Intn(12)}
				if b.Delete(Range{Start: p, End: q}) == "" {
					b.Insert(p, "k")
				}
			}
		}
		edited := b.Text()
		for i := 0; i < n; i++ {
			if !b.Undo() {
				t.Fatalf("round %d: undo %d failed", round, i)
			}
		}
		if b.Text() != orig {
			t.Fatalf("round %d: got %q, want %q", round, b.Text(), orig)
		}
		for b.Redo() {
		}
		if b.Text() != edited {
			t.Fatalf("round %d: redo got %q, want %q", round, b.Text(), edited)
		}
	}
}

func TestCursorBoundsProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	b := New("short\n\na much longer line here\nx")
	for i := 0; i < 2000; i++ {
		b.MoveCursor(rng.Intn(9)-4, rng.Intn(41)-20)
		c := b.Cursor()
		if c.Line < 0 || c.Line >= b.LineCount() {
			t.Fatalf("line out of range: %+v", c)
		}
		if c.Col < 0 || c.Col > b.LineLen(c.Line) {
			t.Fatalf("col out of range: %+v (len %d)", c, b.LineLen(c.Line))
		}
	}
}

func TestMovePastLastLineIsNoop(t *testing.T) {
	b := New("ab\ncd")
	b.MoveTo(Position{Line: 1, Col: 1})
	b.MoveCursor(1, 0)
	if b.Cursor() != (Position{Line: 1, Col: 1}) {
		t.Fatalf("cursor = %+v", b.Cursor())
	}
	b.MoveCursor(0, 50)
	if b.Cursor() != (Position{Line: 1, Col: 2}) {
		t.Fatalf("cursor = %+v", b.Cursor())
	}
}

func TestWordMotions(t *testing.T) {
	b := New("foo bar.baz\n\nqux")
	want := []Position{{0, 4}, {0, 7}, {0, 8}, {1, 0}, {2, 0}, {2, 3}}
	for i, w := range want {
		if got := b.WordForward(); got != w {
			t.Fatalf("forward %d: got %+v, want %+v", i, got, w)
		}
	}
	back := []Position{{2, 0}, {1, 0}, {0, 8}, {0, 7}, {0, 4}, {0, 0}, {0, 0}}
	for i, w := range back {
		if got := b.WordBackward(); got != w {
			t.Fatalf("backward %d: got %+v, want %+v", i, got, w)
		}
	}
}

func TestSelectionNormalized(t *testing.T) {
	b := New("hello\nworld")
	b.SetSelection(Position{Line: 1, Col: 2}, Position{Line: 0, Col: 1})
	r, ok := b.Selection()
	if !ok {
		t.Fatal("no selection")
	}
	if r.Start != (Position{Line: 0, Col: 1}) || r.End != (Position{Line: 1, Col: 2}) {
		t.Fatalf("range = %+v", r)
	}
	inc, _ := b.SelectionInclusive()
	if b.TextRange(inc) != "ello\nwor" {
		t.Fatalf("inclusive text = %q", b.TextRange(inc))
	}
	b.ClearSelection()
	if b.HasSelection() {
		t.Fatal("selection not cleared")
	}
}

func TestWordBefore(t *testing.T) {
	b := New("see #wor here")
	w, start := b.WordBefore(Position{Col: 8})
	if w != "#wor" || start != 4 {
		t.Fatalf("got %q at %d", w, start)
	}
}
