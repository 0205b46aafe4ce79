// Package complete is the autocomplete engine: it recognizes the token being
// typed, collects candidates from the index, snippets and templates, ranks
// them and writes the chosen one back into the buffer.
package complete

import (
	"strings"
	"unicode"

	"github.com/starford/vaultedit/internal/buffer"
)

// Source selects where candidates come from.
type Source string

const (
	SourceTag      Source = "tag"
	SourceFile     Source = "file"
	SourceSnippet  Source = "snippet"
	SourceTemplate Source = "template"
)

// Trigger is a completable token ending at the cursor. Range covers the
// text an accepted candidate replaces; Prefix is the part typed so far.
type Trigger struct {
	Source Source
	Prefix string
	Range  buffer.Range
}

// Detect inspects the text before the cursor:
//
//	#wo      tag
//	[[Pla    file (unclosed link)
//	@sig     snippet
//
// '#' and '@' only trigger at the start of a word.
func Detect(b *buffer.Buffer) (Trigger, bool) {
	c := b.Cursor()
	runes := []rune(b.Line(c.Line))
	before := runes[:c.Col]

	if tr, ok := detectLink(before, c); ok {
		return tr, true
	}

	start := c.Col
	for start > 0 && isTokenRune(before[start-1]) {
		start--
	}
	if start == 0 {
		return Trigger{}, false
	}
	var src Source
	switch before[start-1] {
	case '#':
		src = SourceTag
	case '@':
		src = SourceSnippet
	default:
		return Trigger{}, false
	}
	if start >= 2 && !unicode.IsSpace(before[start-2]) {
		return Trigger{}, false
	}
	tr := Trigger{
		Source: src,
		Prefix: string(before[start:]),
		Range: buffer.Range{
			Start: buffer.Position{Line: c.Line, Col: start},
			End:   c,
		},
	}
	if src == SourceSnippet {
		// Snippets replace their trigger character too.
		tr.Range.Start.Col--
	}
	return tr, true
}

// WordTrigger is an explicit trigger for the word before the cursor, used by
// key-bound completions such as templates.
func WordTrigger(b *buffer.Buffer, src Source) Trigger {
	c := b.Cursor()
	word, start := b.WordBefore(c)
	return Trigger{
		Source: src,
		Prefix: word,
		Range:  buffer.Range{Start: buffer.Position{Line: c.Line, Col: start}, End: c},
	}
}

func detectLink(before []rune, c buffer.Position) (Trigger, bool) {
	s := string(before)
	open := strings.LastIndex(s, "[[")
	if open < 0 {
		return Trigger{}, false
	}
	partial := s[open+2:]
	if strings.ContainsAny(partial, "[]|#") {
		return Trigger{}, false
	}
	col := len([]rune(s[:open+2]))
	return Trigger{
		Source: SourceFile,
		Prefix: partial,
		Range: buffer.Range{
			Start: buffer.Position{Line: c.Line, Col: col},
			End:   c,
		},
	}, true
}

func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '/'
}
