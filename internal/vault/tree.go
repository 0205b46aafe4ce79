// Package vault models the vault as the editor shows it: the file tree
// panel, dated notes and note templates.
package vault

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/gosimple/slug"

	"github.com/starford/vaultedit/internal/apperr"
	"github.com/starford/vaultedit/internal/models"
	"github.com/starford/vaultedit/internal/storage"
)

// SortKey orders siblings in the tree.
type SortKey int

const (
	SortByName SortKey = iota
	SortByTime
)

// Panel width steps, in percent of the screen.
const (
	minWidth     = 20
	defaultWidth = 30
	widthStep    = 10
)

// Node is one visible row of the tree.
type Node struct {
	models.FileMeta
	Depth    int
	Expanded bool
}

// Change lists vault paths a tree operation removed and added, so the
// caller can keep the index in step.
type Change struct {
	Removed []string
	Added   []string
}

type clip struct {
	path string
	cut  bool
}

// Tree is the file tree panel state.
type Tree struct {
	files    storage.Provider
	expanded map[string]bool
	key      SortKey
	desc     bool
	rows     []Node
	cursor   int
	clip     *clip
	width    int
	full     bool
	slugs    bool
}

// TreeOption configures a Tree.
type TreeOption func(*Tree)

// WithSlugNames makes NewFile and Rename turn names into URL-style slugs.
func WithSlugNames(on bool) TreeOption {
	return func(t *Tree) { t.slugs = on }
}

// NewTree builds a tree over files sorted by name.
func NewTree(files storage.Provider, opts ...TreeOption) *Tree {
	t := &Tree{
		files:    files,
		expanded: map[string]bool{"": true},
		width:    defaultWidth,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Refresh rebuilds the visible rows from disk, keeping the cursor on the
// same path when it still exists.
func (t *Tree) Refresh() error {
	var selected string
	if n, ok := t.Selected(); ok {
		selected = n.Path
	}
	rows, err := t.build("", 0)
	if err != nil {
		return err
	}
	t.rows = rows
	t.cursor = 0
	for i, n := range rows {
		if n.Path == selected {
			t.cursor = i
			break
		}
	}
	return nil
}

func (t *Tree) build(dir string, depth int) ([]Node, error) {
	entries, err := t.files.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("vault: read %q: %w", dir, err)
	}
	t.sort(entries)
	var out []Node
	for _, e := range entries {
		n := Node{FileMeta: e, Depth: depth}
		if e.IsDir && t.expanded[e.Path] {
			n.Expanded = true
			out = append(out, n)
			children, err := t.build(e.Path, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// sort keeps directories first, then orders by the active key.
func (t *Tree) sort(entries []models.FileMeta) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		var less bool
		switch t.key {
		case SortByTime:
			if a.ModTime.Equal(b.ModTime) {
				less = strings.ToLower(a.Name) < strings.ToLower(b.Name)
			} else {
				less = a.ModTime.Before(b.ModTime)
			}
		default:
			less = strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
		if t.desc {
			return !less
		}
		return less
	})
}

// Rows returns the visible rows.
func (t *Tree) Rows() []Node { return t.rows }

// Cursor returns the selected row index.
func (t *Tree) Cursor() int { return t.cursor }

// Selected returns the row under the cursor.
func (t *Tree) Selected() (Node, bool) {
	if t.cursor < 0 || t.cursor >= len(t.rows) {
		return Node{}, false
	}
	return t.rows[t.cursor], true
}

// Move shifts the cursor, clamped to the rows.
func (t *Tree) Move(delta int) {
	t.cursor += delta
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

// Select moves the cursor to path if it is visible.
func (t *Tree) Select(p string) bool {
	for i, n := range t.rows {
		if n.Path == p {
			t.cursor = i
			return true
		}
	}
	return false
}

// Reveal expands every parent of p and selects it.
func (t *Tree) Reveal(p string) error {
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		t.expanded[dir] = true
	}
	if err := t.Refresh(); err != nil {
		return err
	}
	t.Select(p)
	return nil
}

// Expand opens the selected directory.
func (t *Tree) Expand() error {
	n, ok := t.Selected()
	if !ok || !n.IsDir || t.expanded[n.Path] {
		return nil
	}
	t.expanded[n.Path] = true
	return t.Refresh()
}

// Collapse closes the selected directory, or moves to the parent of the
// selected file.
func (t *Tree) Collapse() error {
	n, ok := t.Selected()
	if !ok {
		return nil
	}
	if n.IsDir && t.expanded[n.Path] {
		delete(t.expanded, n.Path)
		return t.Refresh()
	}
	if parent := path.Dir(n.Path); parent != "." {
		t.Select(parent)
	}
	return nil
}

// SortBy switches to key; choosing the active key again reverses the order.
func (t *Tree) SortBy(key SortKey) error {
	if t.key == key {
		t.desc = !t.desc
	} else {
		t.key = key
		// Newest first is the useful default for time.
		t.desc = key == SortByTime
	}
	return t.Refresh()
}

// Sort returns the active order.
func (t *Tree) Sort() (SortKey, bool) { return t.key, t.desc }

// Width returns the panel width in percent.
func (t *Tree) Width() int {
	if t.full {
		return 100
	}
	return t.width
}

// Narrow and Widen step the panel width; Full toggles full width.
func (t *Tree) Narrow() {
	t.full = false
	t.width = max(minWidth, t.width-widthStep)
}

func (t *Tree) Widen() {
	t.full = false
	t.width = min(100, t.width+widthStep)
}

func (t *Tree) Full() { t.full = !t.full }

// Copy and Cut put the selected file on the tree clipboard.
func (t *Tree) Copy() error { return t.setClip(false) }

func (t *Tree) Cut() error { return t.setClip(true) }

func (t *Tree) setClip(cut bool) error {
	n, ok := t.Selected()
	if !ok {
		return nil
	}
	if n.IsDir {
		return fmt.Errorf("vault: %s is a directory", n.Path)
	}
	t.clip = &clip{path: n.Path, cut: cut}
	return nil
}

// Clipboard returns the path on the clipboard and whether it was cut.
func (t *Tree) Clipboard() (string, bool, bool) {
	if t.clip == nil {
		return "", false, false
	}
	return t.clip.path, t.clip.cut, true
}

// targetDir is the selected directory, or the directory of the selected
// file.
func (t *Tree) targetDir() string {
	n, ok := t.Selected()
	if !ok {
		return ""
	}
	if n.IsDir {
		return n.Path
	}
	return parentDir(n.Path)
}

// Paste copies or moves the clipboard file into the target directory. A
// name clash gets a numeric suffix.
func (t *Tree) Paste() (Change, error) {
	if t.clip == nil {
		return Change{}, nil
	}
	src := t.clip.path
	dir := t.targetDir()
	if t.clip.cut && parentDir(src) == dir {
		t.clip = nil
		return Change{}, nil
	}
	dst, err := t.uniquePath(dir, path.Base(src))
	if err != nil {
		return Change{}, err
	}

	var ch Change
	if t.clip.cut {
		if err := t.files.Move(src, dst); err != nil {
			return Change{}, fmt.Errorf("vault: paste: %w", err)
		}
		ch.Removed = []string{src}
		t.clip = nil
	} else {
		if err := t.files.Copy(src, dst); err != nil {
			return Change{}, fmt.Errorf("vault: paste: %w", err)
		}
	}
	ch.Added = []string{dst}
	if err := t.Reveal(dst); err != nil {
		return ch, err
	}
	return ch, nil
}

// Delete removes the selected file.
func (t *Tree) Delete() (Change, error) {
	n, ok := t.Selected()
	if !ok {
		return Change{}, nil
	}
	if n.IsDir {
		return Change{}, fmt.Errorf("vault: %s is a directory", n.Path)
	}
	if err := t.files.Delete(n.Path); err != nil {
		return Change{}, fmt.Errorf("vault: delete: %w", err)
	}
	if t.clip != nil && t.clip.path == n.Path {
		t.clip = nil
	}
	return Change{Removed: []string{n.Path}}, t.Refresh()
}

// NewFile creates an empty note named name in the target directory.
func (t *Tree) NewFile(name string) (string, error) {
	p, err := t.notePath(t.targetDir(), name)
	if err != nil {
		return "", err
	}
	if _, err := t.files.Stat(p); err == nil {
		return "", fmt.Errorf("vault: new %s: %w", p, apperr.ErrAlreadyExists)
	}
	if err := t.files.Write(p, nil); err != nil {
		return "", fmt.Errorf("vault: new: %w", err)
	}
	return p, t.Reveal(p)
}

// Rename gives the selected file a new name in the same directory.
func (t *Tree) Rename(name string) (Change, error) {
	n, ok := t.Selected()
	if !ok {
		return Change{}, nil
	}
	if n.IsDir {
		return Change{}, fmt.Errorf("vault: %s is a directory", n.Path)
	}
	p, err := t.notePath(parentDir(n.Path), name)
	if err != nil {
		return Change{}, err
	}
	if p == n.Path {
		return Change{}, nil
	}
	if err := t.files.Move(n.Path, p); err != nil {
		return Change{}, fmt.Errorf("vault: rename: %w", err)
	}
	return Change{Removed: []string{n.Path}, Added: []string{p}}, t.Reveal(p)
}

// NoteName turns a user-typed name into a file name ending in .md.
func NoteName(name string, slugs bool) (string, error) {
	name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), ".md"))
	if slugs {
		name = slug.Make(name)
	}
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("vault: invalid note name %q", name)
	}
	return name + ".md", nil
}

func (t *Tree) notePath(dir, name string) (string, error) {
	file, err := NoteName(name, t.slugs)
	if err != nil {
		return "", err
	}
	return path.Join(dir, file), nil
}

func (t *Tree) uniquePath(dir, base string) (string, error) {
	stem := strings.TrimSuffix(base, path.Ext(base))
	ext := path.Ext(base)
	for i := 0; i < 1000; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s %d%s", stem, i, ext)
		}
		p := path.Join(dir, name)
		_, err := t.files.Stat(p)
		if errors.Is(err, apperr.ErrNotFound) {
			return p, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("vault: no free name for %s in %q", base, dir)
}

func parentDir(p string) string {
	d := path.Dir(p)
	if d == "." {
		return ""
	}
	return d
}
