package keymap

import (
	"fmt"
	"strings"
)

// Normal-mode commands handled by the interpreter.
const (
	MoveLeft       Command = "move-left"
	MoveRight      Command = "move-right"
	MoveUp         Command = "move-up"
	MoveDown       Command = "move-down"
	LineStart      Command = "line-start"
	LineEnd        Command = "line-end"
	FirstNonBlank  Command = "first-non-blank"
	GotoTop        Command = "goto-top"
	GotoBottom     Command = "goto-bottom"
	WordForward    Command = "word-forward"
	WordBackward   Command = "word-backward"
	InsertBefore   Command = "insert"
	InsertAfter    Command = "append"
	InsertLineEnd  Command = "append-line-end"
	InsertLineHead Command = "insert-line-start"
	OpenBelow      Command = "open-below"
	OpenAbove      Command = "open-above"
	EnterVisual    Command = "visual"
	EnterCommand   Command = "command-line"
	Undo           Command = "undo"
	Redo           Command = "redo"
	DeleteChar     Command = "delete-char"
	YankLine       Command = "yank-line"
	DeleteLine     Command = "delete-line"
	PasteAfter     Command = "paste-after"
	PasteBefore    Command = "paste-before"
	SelectRegister Command = "select-register"
)

// Visual-mode commands.
const (
	VisualYank   Command = "visual-yank"
	VisualCut    Command = "visual-cut"
	VisualCancel Command = "visual-cancel"
)

// Session commands are passed through the interpreter to the session.
const (
	FollowLink       Command = "follow-link"
	HistoryBack      Command = "history-back"
	HistoryForward   Command = "history-forward"
	TagPanel         Command = "tag-panel"
	BacklinkPanel    Command = "backlink-panel"
	SearchPanel      Command = "search-panel"
	DailyToday       Command = "daily-today"
	DailyYesterday   Command = "daily-yesterday"
	DailyTomorrow    Command = "daily-tomorrow"
	FileTreePanel    Command = "file-tree"
	TemplateComplete Command = "template-complete"
	SaveFile         Command = "save"
)

// File-tree commands.
const (
	TreeUp       Command = "tree-up"
	TreeDown     Command = "tree-down"
	TreeOpen     Command = "tree-open"
	TreeCollapse Command = "tree-collapse"
	TreeExpand   Command = "tree-expand"
	TreeCopy     Command = "tree-copy"
	TreeCut      Command = "tree-cut"
	TreePaste    Command = "tree-paste"
	TreeDelete   Command = "tree-delete"
	TreeRename   Command = "tree-rename"
	TreeNew      Command = "tree-new"
	TreeSortTime Command = "tree-sort-time"
	TreeSortName Command = "tree-sort-name"
	TreeNarrow   Command = "tree-narrow"
	TreeWiden    Command = "tree-widen"
	TreeFull     Command = "tree-full"
	TreeClose    Command = "tree-close"
)

// DefaultLeader prefixes the panel and note bindings.
const DefaultLeader = `\`

// Context selects which keymap a binding belongs to.
type Context string

const (
	ContextNormal Context = "normal"
	ContextVisual Context = "visual"
	ContextTree   Context = "tree"
)

// Set holds the keymaps of every input context.
type Set struct {
	Normal *Keymap
	Visual *Keymap
	Tree   *Keymap
}

// DefaultBindings returns the built-in bindings. "<leader>" in a sequence
// is replaced by leader.
func DefaultBindings(leader string) map[Context][]Binding {
	normal := []Binding{
		{"h", MoveLeft}, {"<left>", MoveLeft},
		{"l", MoveRight}, {"<right>", MoveRight},
		{"k", MoveUp}, {"<up>", MoveUp},
		{"j", MoveDown}, {"<down>", MoveDown},
		{"0", LineStart}, {"<home>", LineStart},
		{"$", LineEnd}, {"<end>", LineEnd},
		{"^", FirstNonBlank},
		{"gg", GotoTop}, {"G", GotoBottom},
		{"w", WordForward}, {"b", WordBackward},
		{"i", InsertBefore}, {"a", InsertAfter},
		{"A", InsertLineEnd}, {"I", InsertLineHead},
		{"o", OpenBelow}, {"O", OpenAbove},
		{"v", EnterVisual}, {":", EnterCommand},
		{"u", Undo}, {"<ctrl+r>", Redo},
		{"x", DeleteChar}, {"yy", YankLine}, {"dd", DeleteLine},
		{"p", PasteAfter}, {"P", PasteBefore},
		{`"`, SelectRegister},
		{"<enter>", FollowLink},
		{"<ctrl+o>", HistoryBack}, {"<tab>", HistoryForward},
		{"<ctrl+s>", SaveFile},
		{"<leader>ob", BacklinkPanel},
		{"<leader>ot", TagPanel},
		{"<leader>f", SearchPanel},
		{"<leader>oot", DailyToday},
		{"<leader>ooy", DailyYesterday},
		{"<leader>ooT", DailyTomorrow},
		{"<leader>t", FileTreePanel},
		{"<leader>ip", TemplateComplete},
	}
	visual := []Binding{
		{"h", MoveLeft}, {"<left>", MoveLeft},
		{"l", MoveRight}, {"<right>", MoveRight},
		{"k", MoveUp}, {"<up>", MoveUp},
		{"j", MoveDown}, {"<down>", MoveDown},
		{"0", LineStart}, {"$", LineEnd},
		{"gg", GotoTop}, {"G", GotoBottom},
		{"w", WordForward}, {"b", WordBackward},
		{"y", VisualYank}, {"x", VisualCut}, {"d", VisualCut},
		{"<esc>", VisualCancel}, {"v", VisualCancel},
	}
	tree := []Binding{
		{"j", TreeDown}, {"<down>", TreeDown},
		{"k", TreeUp}, {"<up>", TreeUp},
		{"<enter>", TreeOpen}, {"l", TreeExpand}, {"h", TreeCollapse},
		{"y", TreeCopy}, {"x", TreeCut}, {"p", TreePaste},
		{"d", TreeDelete}, {"r", TreeRename}, {"n", TreeNew},
		{"oc", TreeSortTime}, {"on", TreeSortName},
		{"<lt>", TreeNarrow}, {">", TreeWiden}, {"f", TreeFull},
		{"<esc>", TreeClose}, {"q", TreeClose},
	}
	out := map[Context][]Binding{
		ContextNormal: normal,
		ContextVisual: visual,
		ContextTree:   tree,
	}
	for ctx, bs := range out {
		for i := range bs {
			bs[i].Keys = strings.ReplaceAll(bs[i].Keys, "<leader>", escapeLeader(leader))
		}
		out[ctx] = bs
	}
	return out
}

func escapeLeader(leader string) string {
	switch leader {
	case "":
		return escapeLeader(DefaultLeader)
	case "<":
		return "<lt>"
	case " ":
		return "<space>"
	}
	return leader
}

// Build compiles the defaults plus overrides. Override keys are
// "context:sequence" or a bare sequence for the normal context; an empty
// command unbinds.
func Build(leader string, overrides map[string]string) (*Set, error) {
	defs := DefaultBindings(leader)
	for key, cmd := range overrides {
		ctx, seq := ContextNormal, key
		if c, s, ok := strings.Cut(key, ":"); ok && c != "" && s != "" {
			switch Context(c) {
			case ContextNormal, ContextVisual, ContextTree:
				ctx, seq = Context(c), s
			}
		}
		seq = strings.ReplaceAll(seq, "<leader>", escapeLeader(leader))
		defs[ctx] = append(defs[ctx], Binding{Keys: seq, Command: Command(cmd)})
	}
	set := &Set{}
	var err error
	if set.Normal, err = New(defs[ContextNormal]...); err != nil {
		return nil, fmt.Errorf("keymap: normal: %w", err)
	}
	if set.Visual, err = New(defs[ContextVisual]...); err != nil {
		return nil, fmt.Errorf("keymap: visual: %w", err)
	}
	if set.Tree, err = New(defs[ContextTree]...); err != nil {
		return nil, fmt.Errorf("keymap: tree: %w", err)
	}
	return set, nil
}
