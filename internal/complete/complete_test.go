package complete

import (
	"errors"
	"reflect"
	"testing"

	"github.com/starford/vaultedit/internal/buffer"
	"github.com/starford/vaultedit/internal/models"
	"github.com/starford/vaultedit/internal/testutil"
)

func bufferAt(text string, line, col int) *buffer.Buffer {
	b := buffer.New(text)
	b.MoveTo(buffer.Position{Line: line, Col: col})
	return b
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		col    int
		ok     bool
		source Source
		prefix string
		start  int
	}{
		{"tag", "#wo", 3, true, SourceTag, "wo", 1},
		{"bare hash", "see #", 5, true, SourceTag, "", 5},
		{"nested tag", "x #a/b", 6, true, SourceTag, "a/b", 3},
		{"heading", "# Title", 7, false, "", "", 0},
		{"mid word hash", "a#b", 3, false, "", "", 0},
		{"link", "go [[Pla", 8, true, SourceFile, "Pla", 5},
		{"link with space", "[[Work Lo", 9, true, SourceFile, "Work Lo", 2},
		{"closed link", "[[Plan]] ", 9, false, "", "", 0},
		{"alias", "[[Plan|p", 8, false, "", "", 0},
		{"snippet", "@sig", 4, true, SourceSnippet, "sig", 0},
		{"email", "me@host", 7, false, "", "", 0},
		{"plain", "hello", 5, false, "", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, ok := Detect(bufferAt(tt.text, 0, tt.col))
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v (%+v)", ok, tt.ok, tr)
			}
			if !ok {
				return
			}
			if tr.Source != tt.source || tr.Prefix != tt.prefix || tr.Range.Start.Col != tt.start {
				t.Fatalf("trigger = %+v", tr)
			}
		})
	}
}

func TestRank(t *testing.T) {
	pool := []models.Candidate{
		{Text: "homework", Uses: 9},
		{Text: "Work", Uses: 1},
		{Text: "workshop", Uses: 3},
		{Text: "worker", Uses: 3},
		{Text: "network", Uses: 1},
		{Text: "zzz", Uses: 100},
	}
	got := Rank("wor", pool, 0)
	var names []string
	for _, c := range got {
		names = append(names, c.Text)
	}
	want := []string{"worker", "workshop", "Work", "homework", "network"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("rank = %v, want %v", names, want)
	}
	if got := Rank("wor", pool, 2); len(got) != 2 {
		t.Fatalf("limit ignored: %d", len(got))
	}
	if got := Rank("", pool, 0); len(got) != len(pool) || got[0].Text != "zzz" {
		t.Fatalf("empty prefix = %+v", got)
	}
}

func TestScenarioTagCompletion(t *testing.T) {
	db := testutil.TestStore(t)
	if _, err := db.ApplyScan("notes.md", "c", []string{"work"}, []string{"Plan"}); err != nil {
		t.Fatal(err)
	}
	e := New(db)
	b := buffer.New("# Title\n#work [[Plan]]\n#w")
	b.MoveTo(buffer.Position{Line: 2, Col: 2})

	tr, ok := Detect(b)
	if !ok || tr.Source != SourceTag {
		t.Fatalf("trigger = %+v ok=%v", tr, ok)
	}
	cands, err := e.Candidates(tr)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 1 || cands[0].Text != "work" {
		t.Fatalf("candidates = %+v", cands)
	}
	if err := e.Accept(b, tr, cands[0]); err != nil {
		t.Fatal(err)
	}
	if got := b.Line(2); got != "#work" {
		t.Fatalf("line = %q", got)
	}
	b.Undo()
	if got := b.Line(2); got != "#w" {
		t.Fatalf("after undo = %q", got)
	}
}

func TestFileCompletionClosesLink(t *testing.T) {
	db := testutil.TestStore(t)
	if _, err := db.ApplyScan("notes.md", "c", nil, []string{"Plan"}); err != nil {
		t.Fatal(err)
	}
	e := New(db)

	b := bufferAt("see [[Pl", 0, 8)
	tr, _ := Detect(b)
	cands, err := e.Candidates(tr)
	if err != nil || len(cands) == 0 || cands[0].Text != "Plan" {
		t.Fatalf("candidates = %+v err = %v", cands, err)
	}
	_ = e.Accept(b, tr, cands[0])
	if b.Text() != "see [[Plan]]" || b.Cursor().Col != 12 {
		t.Fatalf("text = %q cursor = %+v", b.Text(), b.Cursor())
	}

	// An existing closing bracket pair is reused.
	b = bufferAt("[[Pl]] tail", 0, 4)
	tr, _ = Detect(b)
	_ = e.Accept(b, tr, models.Candidate{Text: "Plan"})
	if b.Text() != "[[Plan]] tail" {
		t.Fatalf("text = %q", b.Text())
	}
}

func TestSnippetCompletion(t *testing.T) {
	e := New(nil, WithSnippets([]Snippet{
		{Name: "sig", Body: "-- \nSigned"},
		{Name: "date", Body: "2024-01-01"},
	}))
	b := bufferAt("thanks @si", 0, 10)
	tr, ok := Detect(b)
	if !ok {
		t.Fatal("no trigger")
	}
	cands, _ := e.Candidates(tr)
	if len(cands) != 1 || cands[0].Text != "sig" || cands[0].Detail != "-- " {
		t.Fatalf("candidates = %+v", cands)
	}
	_ = e.Accept(b, tr, cands[0])
	if b.Text() != "thanks -- \nSigned" {
		t.Fatalf("text = %q", b.Text())
	}
}

type fakeTemplates map[string]string

func (f fakeTemplates) TemplateNames() ([]string, error) {
	var out []string
	for k := range f {
		out = append(out, k)
	}
	return out, nil
}

func (f fakeTemplates) TemplateBody(name string) (string, error) {
	body, ok := f[name]
	if !ok {
		return "", errors.New("missing")
	}
	return body, nil
}

func TestTemplateCompletionAndUsage(t *testing.T) {
	e := New(nil, WithTemplates(fakeTemplates{
		"meeting": "## Meeting\n- ",
		"memo":    "## Memo",
	}))
	b := bufferAt("me", 0, 2)
	tr := WordTrigger(b, SourceTemplate)
	cands, _ := e.Candidates(tr)
	if len(cands) != 2 || cands[0].Text != "meeting" {
		t.Fatalf("candidates = %+v", cands)
	}
	if err := e.Accept(b, tr, models.Candidate{Text: "memo"}); err != nil {
		t.Fatal(err)
	}
	if b.Text() != "## Memo" {
		t.Fatalf("text = %q", b.Text())
	}

	// Accepted candidates rank higher afterwards.
	cands, _ = e.Candidates(Trigger{Source: SourceTemplate, Prefix: "me"})
	if cands[0].Text != "memo" {
		t.Fatalf("usage ignored: %+v", cands)
	}

	if err := e.Accept(b, tr, models.Candidate{Text: "nope"}); err == nil {
		t.Fatal("missing template accepted")
	}
}
