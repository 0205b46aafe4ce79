package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/starford/vaultedit/internal/apperr"
)

// PanelKind identifies a list panel.
type PanelKind int

const (
	PanelTags PanelKind = iota
	PanelTagFiles
	PanelBacklinks
	PanelSearch
)

// Item is one panel row. Selecting an item with a Tag opens the files
// carrying it; otherwise Path is opened.
type Item struct {
	Label  string
	Detail string
	Path   string
	Tag    string
}

type itemSource []Item

func (s itemSource) String(i int) string { return s[i].Label }
func (s itemSource) Len() int            { return len(s) }

// Panel is a filterable list over tags or files. In browse state j/k move
// and / starts filtering; in filter state typed text edits the query.
type Panel struct {
	Kind      PanelKind
	Title     string
	all       []Item
	shown     []Item
	matches   []fuzzy.Match
	query     []rune
	cursor    int
	filtering bool
}

func newPanel(kind PanelKind, title string, items []Item, filtering bool) *Panel {
	p := &Panel{Kind: kind, Title: title, all: items, filtering: filtering}
	p.refilter()
	return p
}

// Items returns the rows matching the query, best match first.
func (p *Panel) Items() []Item { return p.shown }

// MatchedIndexes returns the matched byte offsets in the label of row i,
// for highlighting.
func (p *Panel) MatchedIndexes(i int) []int {
	if p.matches == nil || i >= len(p.matches) {
		return nil
	}
	return p.matches[i].MatchedIndexes
}

// Cursor returns the selected row.
func (p *Panel) Cursor() int { return p.cursor }

// Query returns the filter text.
func (p *Panel) Query() string { return string(p.query) }

// Filtering reports whether typed keys edit the query.
func (p *Panel) Filtering() bool { return p.filtering }

// Selected returns the row under the cursor.
func (p *Panel) Selected() (Item, bool) {
	if p.cursor < 0 || p.cursor >= len(p.shown) {
		return Item{}, false
	}
	return p.shown[p.cursor], true
}

func (p *Panel) move(delta int) {
	p.cursor += delta
	if p.cursor >= len(p.shown) {
		p.cursor = len(p.shown) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

func (p *Panel) appendQuery(text string) {
	p.filtering = true
	p.query = append(p.query, []rune(text)...)
	p.refilter()
}

func (p *Panel) backspace() {
	if len(p.query) == 0 {
		return
	}
	p.query = p.query[:len(p.query)-1]
	p.refilter()
}

func (p *Panel) refilter() {
	p.cursor = 0
	if len(p.query) == 0 {
		p.shown = p.all
		p.matches = nil
		return
	}
	p.matches = fuzzy.FindFrom(string(p.query), itemSource(p.all))
	p.shown = make([]Item, len(p.matches))
	for i, m := range p.matches {
		p.shown[i] = p.all[m.Index]
	}
}

func (s *Session) handlePanelKey(ctx context.Context, key string) {
	p := s.panel
	switch key {
	case "esc", "ctrl+c":
		if p.filtering && len(p.query) > 0 && p.Kind != PanelSearch {
			p.filtering = false
			return
		}
		s.panel = nil
		return
	case "enter":
		s.selectPanelItem(ctx)
		return
	case "down", "ctrl+n":
		p.move(1)
		return
	case "up", "ctrl+p":
		p.move(-1)
		return
	}

	if p.filtering {
		switch key {
		case "backspace", "ctrl+h":
			p.backspace()
		default:
			if utf8.RuneCountInString(key) == 1 {
				p.appendQuery(key)
			}
		}
		return
	}

	switch key {
	case "j":
		p.move(1)
	case "k":
		p.move(-1)
	case "g":
		p.cursor = 0
	case "G":
		p.move(len(p.shown))
	case "/":
		p.filtering = true
	case "q":
		s.panel = nil
	}
}

func (s *Session) selectPanelItem(ctx context.Context) {
	item, ok := s.panel.Selected()
	if !ok {
		return
	}
	if item.Tag != "" {
		s.openTagFiles(item.Tag)
		return
	}
	if err := s.navigate(ctx, item.Path); err != nil {
		s.setError(err)
		return
	}
	s.panel = nil
}

func (s *Session) openTagPanel() {
	tags, err := s.store.AllTags()
	if err != nil {
		s.setError(err)
		return
	}
	items := make([]Item, len(tags))
	for i, t := range tags {
		items[i] = Item{Label: "#" + t.Text, Detail: strconv.Itoa(t.Uses), Tag: t.Text}
	}
	s.panel = newPanel(PanelTags, "Tags", items, false)
	s.setStatus("Started tags search")
}

func (s *Session) openTagFiles(tag string) {
	files, err := s.store.FilesWithTag(tag)
	if err != nil {
		s.setError(err)
		return
	}
	items := make([]Item, len(files))
	for i, f := range files {
		items[i] = Item{Label: f.DisplayName, Detail: f.Path, Path: f.Path}
	}
	s.panel = newPanel(PanelTagFiles, "#"+tag, items, false)
}

func (s *Session) openBacklinkPanel() {
	files, err := s.store.BacklinksToPath(s.path)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		s.setError(err)
		return
	}
	items := make([]Item, len(files))
	for i, f := range files {
		items[i] = Item{Label: f.DisplayName, Detail: f.Path, Path: f.Path}
	}
	s.panel = newPanel(PanelBacklinks, fmt.Sprintf("Backlinks to %s", s.path), items, false)
	s.setStatus("Started backlinks search")
}

func (s *Session) openSearchPanel() {
	metas, err := s.files.List("")
	if err != nil {
		s.setError(err)
		return
	}
	items := make([]Item, len(metas))
	for i, m := range metas {
		items[i] = Item{Label: m.Path, Path: m.Path}
	}
	s.panel = newPanel(PanelSearch, "Files", items, true)
	s.setStatus("Started files search")
}
