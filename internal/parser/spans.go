package parser

import "unicode/utf8"

// Span is one link or tag occurrence inside a line. Start and End are rune
// columns; End is exclusive.
type Span struct {
	Start int
	End   int
	Text  string
}

// LinkSpans returns the wikilinks on line. Text is the link target.
func LinkSpans(line string) []Span {
	var out []Span
	for _, m := range wikilinkRe.FindAllStringSubmatchIndex(line, -1) {
		target := LinkTarget(line[m[2]:m[3]])
		if target == "" {
			continue
		}
		out = append(out, Span{Start: runeCol(line, m[0]), End: runeCol(line, m[1]), Text: target})
	}
	return out
}

// TagSpans returns the inline tags on line. Text is the tag without '#'.
func TagSpans(line string) []Span {
	var out []Span
	for _, m := range tagRe.FindAllStringSubmatchIndex(line, -1) {
		// m[2]-1 is the '#'.
		out = append(out, Span{Start: runeCol(line, m[2]-1), End: runeCol(line, m[3]), Text: line[m[2]:m[3]]})
	}
	return out
}

// SpanAt picks the span containing col, or the first span on the line.
func SpanAt(spans []Span, col int) (Span, bool) {
	if len(spans) == 0 {
		return Span{}, false
	}
	for _, s := range spans {
		if col >= s.Start && col < s.End {
			return s, true
		}
	}
	return spans[0], true
}

func runeCol(s string, byteOff int) int {
	return utf8.RuneCountInString(s[:byteOff])
}
