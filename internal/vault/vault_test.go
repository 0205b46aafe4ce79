package vault

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/starford/vaultedit/internal/apperr"
	"github.com/starford/vaultedit/internal/testutil"
)

func paths(t *Tree) []string {
	var out []string
	for _, n := range t.Rows() {
		out = append(out, n.Path)
	}
	return out
}

func TestTreeExpandCollapse(t *testing.T) {
	_, files := testutil.TestVault(t)
	testutil.WriteFiles(t, files, map[string]string{
		"b.md":          "",
		"A.md":          "",
		"dir/inner.md":  "",
		"dir/sub/x.md":  "",
		".hidden/no.md": "",
	})
	tree := NewTree(files)
	if err := tree.Refresh(); err != nil {
		t.Fatal(err)
	}
	if got := paths(tree); !reflect.DeepEqual(got, []string{"dir", "A.md", "b.md"}) {
		t.Fatalf("rows = %v", got)
	}
	if err := tree.Expand(); err != nil {
		t.Fatal(err)
	}
	want := []string{"dir", "dir/sub", "dir/inner.md", "A.md", "b.md"}
	if got := paths(tree); !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %v", got)
	}
	if n, _ := tree.Selected(); n.Path != "dir" || !n.Expanded {
		t.Fatalf("selected = %+v", n)
	}

	tree.Move(2)
	if n, _ := tree.Selected(); n.Path != "dir/inner.md" || n.Depth != 1 {
		t.Fatalf("selected = %+v", n)
	}
	// Collapse on a file jumps to its directory.
	_ = tree.Collapse()
	if n, _ := tree.Selected(); n.Path != "dir" {
		t.Fatalf("selected = %+v", n)
	}
	_ = tree.Collapse()
	if got := paths(tree); len(got) != 3 {
		t.Fatalf("rows = %v", got)
	}
	tree.Move(100)
	if n, _ := tree.Selected(); n.Path != "b.md" {
		t.Fatalf("move not clamped: %+v", n)
	}
}

func TestTreeSort(t *testing.T) {
	dir, files := testutil.TestVault(t)
	testutil.WriteFiles(t, files, map[string]string{"a.md": "", "b.md": "", "c.md": ""})
	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"b.md", "c.md", "a.md"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(filepath.Join(dir, name), ts, ts); err != nil {
			t.Fatal(err)
		}
	}
	tree := NewTree(files)
	_ = tree.Refresh()

	_ = tree.SortBy(SortByTime)
	if got := paths(tree); !reflect.DeepEqual(got, []string{"a.md", "c.md", "b.md"}) {
		t.Fatalf("newest first = %v", got)
	}
	_ = tree.SortBy(SortByTime)
	if got := paths(tree); !reflect.DeepEqual(got, []string{"b.md", "c.md", "a.md"}) {
		t.Fatalf("oldest first = %v", got)
	}
	_ = tree.SortBy(SortByName)
	if got := paths(tree); !reflect.DeepEqual(got, []string{"a.md", "b.md", "c.md"}) {
		t.Fatalf("by name = %v", got)
	}
	_ = tree.SortBy(SortByName)
	if got := paths(tree); !reflect.DeepEqual(got, []string{"c.md", "b.md", "a.md"}) {
		t.Fatalf("by name desc = %v", got)
	}
}

func TestTreeCopyCutPaste(t *testing.T) {
	_, files := testutil.TestVault(t)
	testutil.WriteFiles(t, files, map[string]string{"note.md": "body", "dir/keep.md": ""})
	tree := NewTree(files)
	_ = tree.Refresh()

	tree.Select("note.md")
	_ = tree.Copy()
	ch, err := tree.Paste()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ch.Added, []string{"note 1.md"}) || ch.Removed != nil {
		t.Fatalf("copy change = %+v", ch)
	}

	tree.Select("note.md")
	_ = tree.Cut()
	tree.Select("dir")
	ch, err = tree.Paste()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ch, Change{Removed: []string{"note.md"}, Added: []string{"dir/note.md"}}) {
		t.Fatalf("cut change = %+v", ch)
	}
	if data, _ := files.Read("dir/note.md"); string(data) != "body" {
		t.Fatalf("moved content = %q", data)
	}
	if n, _ := tree.Selected(); n.Path != "dir/note.md" {
		t.Fatalf("selected = %+v", n)
	}
	if _, _, ok := tree.Clipboard(); ok {
		t.Fatal("clipboard kept after cut-paste")
	}

	tree.Select("dir")
	if err := tree.Copy(); err == nil {
		t.Fatal("copied a directory")
	}
}

func TestTreeNewRenameDelete(t *testing.T) {
	_, files := testutil.TestVault(t)
	testutil.WriteFiles(t, files, map[string]string{"dir/a.md": ""})
	tree := NewTree(files)
	_ = tree.Refresh()
	tree.Select("dir")

	p, err := tree.NewFile("Work Log")
	if err != nil || p != "dir/Work Log.md" {
		t.Fatalf("new = %q, %v", p, err)
	}
	if _, err := tree.NewFile("Work Log.md"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("duplicate new err = %v", err)
	}
	ch, err := tree.Rename("Journal")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ch, Change{Removed: []string{"dir/Work Log.md"}, Added: []string{"dir/Journal.md"}}) {
		t.Fatalf("rename = %+v", ch)
	}
	ch, err = tree.Delete()
	if err != nil || !reflect.DeepEqual(ch.Removed, []string{"dir/Journal.md"}) {
		t.Fatalf("delete = %+v, %v", ch, err)
	}
	if _, err := files.Stat("dir/Journal.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("file still there: %v", err)
	}
}

func TestNoteName(t *testing.T) {
	tests := []struct {
		in    string
		slugs bool
		want  string
		ok    bool
	}{
		{"Plan", false, "Plan.md", true},
		{" Plan.md ", false, "Plan.md", true},
		{"Work Log", true, "work-log.md", true},
		{"a/b", false, "", false},
		{"", false, "", false},
		{"..", false, "", false},
	}
	for _, tt := range tests {
		got, err := NoteName(tt.in, tt.slugs)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("NoteName(%q, %v) = %q, %v", tt.in, tt.slugs, got, err)
		}
	}
}

func TestTreeWidth(t *testing.T) {
	tree := NewTree(nil)
	tree.Narrow()
	tree.Narrow()
	if tree.Width() != minWidth {
		t.Fatalf("width = %d", tree.Width())
	}
	tree.Full()
	if tree.Width() != 100 {
		t.Fatalf("full width = %d", tree.Width())
	}
	tree.Widen()
	if tree.Width() != 30 {
		t.Fatalf("width = %d", tree.Width())
	}
}

func TestDailyPath(t *testing.T) {
	day := time.Date(2024, 2, 29, 15, 0, 0, 0, time.Local)
	if got := DailyPath("", day, 0); got != "Every day info/2024-02-29.md" {
		t.Fatalf("today = %q", got)
	}
	if got := DailyPath("", day, 1); got != "Every day info/2024-03-01.md" {
		t.Fatalf("tomorrow = %q", got)
	}
	if got := DailyPath("journal/2006/01-02", day, -1); got != "journal/2024/02-28.md" {
		t.Fatalf("custom = %q", got)
	}
}

func TestTemplateStore(t *testing.T) {
	_, files := testutil.TestVault(t)
	s := NewTemplateStore(files, "")
	if names, err := s.TemplateNames(); err != nil || len(names) != 0 {
		t.Fatalf("missing dir = %v, %v", names, err)
	}
	testutil.WriteFiles(t, files, map[string]string{
		"templates/meeting.md":     "## Meeting",
		"templates/work/review.md": "## Review",
		"other.md":                 "",
	})
	names, err := s.TemplateNames()
	if err != nil || !reflect.DeepEqual(names, []string{"meeting", "work/review"}) {
		t.Fatalf("names = %v, %v", names, err)
	}
	body, err := s.TemplateBody("work/review")
	if err != nil || body != "## Review" {
		t.Fatalf("body = %q, %v", body, err)
	}
	if !s.IsTemplate("templates/meeting.md") || s.IsTemplate("other.md") {
		t.Fatal("IsTemplate")
	}
}
