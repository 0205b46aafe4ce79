package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/starford/vaultedit/internal/buffer"
	"github.com/starford/vaultedit/internal/editor"
	"github.com/starford/vaultedit/internal/session"
	"github.com/starford/vaultedit/internal/vault"
)

const maxListRows = 10

type styles struct {
	cursor    lipgloss.Style
	selection lipgloss.Style
	status    lipgloss.Style
	mode      lipgloss.Style
	errMsg    lipgloss.Style
	title     lipgloss.Style
	current   lipgloss.Style
	match     lipgloss.Style
	dim       lipgloss.Style
	dir       lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		cursor:    lipgloss.NewStyle().Reverse(true),
		selection: lipgloss.NewStyle().Background(lipgloss.Color("238")),
		status:    lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("252")),
		mode:      lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Bold(true).Padding(0, 1),
		errMsg:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")),
		current:   lipgloss.NewStyle().Reverse(true),
		match:     lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Underline(true),
		dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		dir:       lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
	}
}

// View renders the screen.
func (m Model) View() string {
	var main string
	tree, treeOpen := m.sess.Tree()
	switch {
	case treeOpen && tree.Width() >= 100:
		main = m.renderTree(tree, m.width, m.editorRows())
	case treeOpen:
		tw := m.width * tree.Width() / 100
		left := lipgloss.NewStyle().Width(tw).Render(m.renderTree(tree, tw-1, m.editorRows()))
		main = lipgloss.JoinHorizontal(lipgloss.Top, left, " ", m.renderBuffer(m.width-tw-1, m.editorRows()))
	default:
		main = m.renderBuffer(m.width, m.editorRows())
	}

	parts := []string{main}
	if bottom := m.renderBottom(); bottom != "" {
		parts = append(parts, bottom)
	}
	parts = append(parts, m.renderStatus(), m.renderMessage())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// editorRows is the height left for the buffer.
func (m Model) editorRows() int {
	return max(1, m.height-2-m.bottomRows())
}

func (m Model) bottomRows() int {
	if p := m.sess.Panel(); p != nil {
		return min(len(p.Items()), maxListRows) + 1
	}
	if pop := m.sess.Popup(); pop != nil {
		return min(len(pop.Items), maxListRows)
	}
	return 0
}

func (m Model) renderBuffer(width, rows int) string {
	b := m.sess.Buffer()
	cur := b.Cursor()
	sel, hasSel := b.SelectionInclusive()
	showCursor := m.sess.Panel() == nil && m.sess.Mode() != editor.Command

	lines := make([]string, 0, rows)
	for i := m.top; i < m.top+rows; i++ {
		if i >= b.LineCount() {
			lines = append(lines, m.styles.dim.Render("~"))
			continue
		}
		col := -1
		if showCursor && i == cur.Line {
			col = cur.Col
		}
		lines = append(lines, m.renderLine(b.Line(i), i, col, sel, hasSel, width))
	}
	return strings.Join(lines, "\n")
}

// renderLine draws one buffer line, scrolled horizontally so that the cursor
// column stays visible. col < 0 means no cursor on this line.
func (m Model) renderLine(line string, lineNo, col int, sel buffer.Range, hasSel bool, width int) string {
	runes := []rune(line)
	start := 0
	if col >= 0 {
		start = hscroll(runes, col, width)
	}
	var sb strings.Builder
	used := 0
	for i := start; i <= len(runes); i++ {
		if i == len(runes) {
			if i == col {
				sb.WriteString(m.styles.cursor.Render(" "))
			}
			break
		}
		w := runewidth.RuneWidth(runes[i])
		if used+w > width {
			break
		}
		used += w
		cell := string(runes[i])
		switch {
		case i == col:
			cell = m.styles.cursor.Render(cell)
		case hasSel && inRange(sel, lineNo, i):
			cell = m.styles.selection.Render(cell)
		}
		sb.WriteString(cell)
	}
	return sb.String()
}

// hscroll returns the first rune to draw so that col fits in width cells.
func hscroll(runes []rune, col, width int) int {
	if width <= 0 {
		return col
	}
	start := 0
	cells := runewidth.StringWidth(string(runes[:min(col, len(runes))])) + 1
	for cells > width && start < col {
		cells -= runewidth.RuneWidth(runes[start])
		start++
	}
	return start
}

func inRange(r buffer.Range, line, col int) bool {
	p := buffer.Position{Line: line, Col: col}
	return !p.Less(r.Start) && p.Less(r.End)
}

func (m Model) renderTree(t *vault.Tree, width, rows int) string {
	nodes := t.Rows()
	first := max(0, min(t.Cursor()-rows/2, len(nodes)-rows))
	lines := make([]string, 0, rows)
	for i := first; i < len(nodes) && len(lines) < rows; i++ {
		n := nodes[i]
		marker := "  "
		if n.IsDir {
			marker = "▸ "
			if n.Expanded {
				marker = "▾ "
			}
		}
		text := runewidth.Truncate(strings.Repeat("  ", n.Depth)+marker+n.Name, width, "…")
		switch {
		case i == t.Cursor():
			text = m.styles.current.Render(text)
		case n.IsDir:
			text = m.styles.dir.Render(text)
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderBottom() string {
	if p := m.sess.Panel(); p != nil {
		return m.renderPanel(p)
	}
	if pop := m.sess.Popup(); pop != nil {
		return m.renderPopup(pop)
	}
	return ""
}

func (m Model) renderPanel(p *session.Panel) string {
	header := m.styles.title.Render(p.Title)
	if p.Filtering() || p.Query() != "" {
		header += " /" + p.Query()
	}
	items := p.Items()
	lines := []string{header}
	first := max(0, min(p.Cursor()-maxListRows/2, len(items)-maxListRows))
	for i := first; i < len(items) && i < first+maxListRows; i++ {
		text := m.highlight(items[i].Label, p.MatchedIndexes(i))
		if items[i].Detail != "" {
			text += " " + m.styles.dim.Render(items[i].Detail)
		}
		if i == p.Cursor() {
			text = m.styles.current.Render("> ") + text
		} else {
			text = "  " + text
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

// highlight marks the runes at the given byte offsets.
func (m Model) highlight(label string, matched []int) string {
	if len(matched) == 0 {
		return label
	}
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}
	var sb strings.Builder
	for i, r := range label {
		if hit[i] {
			sb.WriteString(m.styles.match.Render(string(r)))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func (m Model) renderPopup(p *session.Popup) string {
	lines := make([]string, 0, min(len(p.Items), maxListRows))
	for i, c := range p.Items {
		if i >= maxListRows {
			break
		}
		text := c.Text
		if c.Detail != "" {
			text += " " + m.styles.dim.Render(c.Detail)
		}
		if i == p.Index {
			text = m.styles.current.Render(c.Text)
		}
		lines = append(lines, "  "+text)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStatus() string {
	name := m.sess.Path()
	if name == "" {
		name = "[No Name]"
	}
	if m.sess.Dirty() {
		name += " [+]"
	}
	if tree, open := m.sess.Tree(); open {
		name += "  " + sortLabel(tree)
	}
	cur := m.sess.Buffer().Cursor()
	right := fmt.Sprintf("%s  %d:%d ", m.sess.PendingKeys(), cur.Line+1, cur.Col+1)
	left := m.styles.mode.Render(m.sess.Mode().String()) + " " + name
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return m.styles.status.Render(left + strings.Repeat(" ", gap) + right)
}

func sortLabel(t *vault.Tree) string {
	key, desc := t.Sort()
	label := "name"
	if key == vault.SortByTime {
		label = "time"
	}
	if desc {
		return "[" + label + " ↓]"
	}
	return "[" + label + " ↑]"
}

func (m Model) renderMessage() string {
	if m.sess.Mode() == editor.Command {
		return ":" + m.sess.CommandLine() + m.styles.cursor.Render(" ")
	}
	msg, isErr := m.sess.Status()
	if isErr {
		return m.styles.errMsg.Render(msg)
	}
	return msg
}
