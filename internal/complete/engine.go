package complete

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/vaultedit/internal/buffer"
	"github.com/starford/vaultedit/internal/index"
	"github.com/starford/vaultedit/internal/models"
)

// DefaultMaxCandidates caps the list returned by Candidates.
const DefaultMaxCandidates = 10

// CandidateSource is the index side of completion.
type CandidateSource interface {
	QueryAutocompleteCandidates(kind index.Kind, prefix string, limit int) ([]models.Candidate, error)
}

// Snippet is an '@' completion that expands to Body.
type Snippet struct {
	Name string `yaml:"name"`
	Body string `yaml:"body"`
}

// Templates lists and loads note templates.
type Templates interface {
	TemplateNames() ([]string, error)
	TemplateBody(name string) (string, error)
}

// Engine produces and applies completions.
type Engine struct {
	source    CandidateSource
	snippets  []Snippet
	templates Templates
	max       int
	// usage counts accepted completions this session, per source.
	usage map[Source]map[string]int
}

// Option configures an Engine.
type Option func(*Engine)

// WithSnippets sets the '@' snippet list.
func WithSnippets(s []Snippet) Option {
	return func(e *Engine) { e.snippets = append([]Snippet(nil), s...) }
}

// WithTemplates sets the template source.
func WithTemplates(t Templates) Option {
	return func(e *Engine) { e.templates = t }
}

// WithMaxCandidates caps the number of candidates returned.
func WithMaxCandidates(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.max = n
		}
	}
}

// New creates an engine over the index.
func New(source CandidateSource, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		max:    DefaultMaxCandidates,
		usage:  make(map[Source]map[string]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Candidates returns ranked suggestions for tr.
func (e *Engine) Candidates(tr Trigger) ([]models.Candidate, error) {
	var (
		pool []models.Candidate
		err  error
	)
	switch tr.Source {
	case SourceTag:
		pool, err = e.source.QueryAutocompleteCandidates(index.KindTag, tr.Prefix, 0)
	case SourceFile:
		pool, err = e.source.QueryAutocompleteCandidates(index.KindFile, tr.Prefix, 0)
	case SourceSnippet:
		for _, s := range e.snippets {
			pool = append(pool, models.Candidate{Text: s.Name, Detail: firstLine(s.Body)})
		}
	case SourceTemplate:
		if e.templates == nil {
			return nil, nil
		}
		var names []string
		names, err = e.templates.TemplateNames()
		for _, n := range names {
			pool = append(pool, models.Candidate{Text: n})
		}
	default:
		return nil, fmt.Errorf("complete: unknown source %q", tr.Source)
	}
	if err != nil {
		return nil, fmt.Errorf("complete: %s candidates: %w", tr.Source, err)
	}
	for i := range pool {
		pool[i].Uses += e.usage[tr.Source][pool[i].Text]
	}
	return Rank(tr.Prefix, pool, e.max), nil
}

// Accept replaces the trigger's token with c as one undoable edit and moves
// the cursor past the inserted text.
func (e *Engine) Accept(b *buffer.Buffer, tr Trigger, c models.Candidate) error {
	text := c.Text
	switch tr.Source {
	case SourceFile:
		rest := []rune(b.Line(tr.Range.End.Line))[tr.Range.End.Col:]
		if strings.HasPrefix(string(rest), "]]") {
			tr.Range.End.Col += 2
		}
		text += "]]"
	case SourceSnippet:
		for _, s := range e.snippets {
			if s.Name == c.Text {
				text = s.Body
				break
			}
		}
	case SourceTemplate:
		if e.templates == nil {
			return fmt.Errorf("complete: no templates configured")
		}
		body, err := e.templates.TemplateBody(c.Text)
		if err != nil {
			return fmt.Errorf("complete: template %s: %w", c.Text, err)
		}
		text = body
	}
	end := b.Replace(tr.Range, text)
	b.MoveTo(end)

	if e.usage[tr.Source] == nil {
		e.usage[tr.Source] = make(map[string]int)
	}
	e.usage[tr.Source][c.Text]++
	return nil
}

// Rank orders candidates matching prefix: names starting with prefix first,
// then names containing it, both case-insensitively. Each group is sorted
// by descending Uses, then alphabetically. limit <= 0 means no cap.
func Rank(prefix string, pool []models.Candidate, limit int) []models.Candidate {
	p := strings.ToLower(prefix)
	type ranked struct {
		c     models.Candidate
		group int
	}
	seen := make(map[string]int, len(pool))
	var list []ranked
	for _, c := range pool {
		name := strings.ToLower(c.Text)
		group := -1
		switch {
		case strings.HasPrefix(name, p):
			group = 0
		case strings.Contains(name, p):
			group = 1
		}
		if group < 0 {
			continue
		}
		if i, dup := seen[c.Text]; dup {
			if c.Uses > list[i].c.Uses {
				list[i].c.Uses = c.Uses
			}
			continue
		}
		seen[c.Text] = len(list)
		list = append(list, ranked{c: c, group: group})
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.group != b.group {
			return a.group < b.group
		}
		if a.c.Uses != b.c.Uses {
			return a.c.Uses > b.c.Uses
		}
		return strings.ToLower(a.c.Text) < strings.ToLower(b.c.Text)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]models.Candidate, len(list))
	for i, r := range list {
		out[i] = r.c
	}
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
