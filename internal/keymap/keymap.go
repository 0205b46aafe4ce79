// Package keymap resolves multi-key sequences to abstract commands.
//
// Bindings are data: a Keymap is a trie over key names built from
// (sequence, command) pairs. A Matcher walks the trie one key at a time and
// holds the pending prefix for a bounded time, so ambiguous prefixes such as
// a leader followed by "o" can wait for a longer binding.
package keymap

import (
	"fmt"
	"sort"
	"strings"
)

// Command names an action. The interpreter and session decide what it does.
type Command string

// Binding maps a key sequence to a command.
type Binding struct {
	Keys    string
	Command Command
}

type node struct {
	command  Command
	children map[string]*node
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

// Keymap is a trie of bindings for one input context.
type Keymap struct {
	root *node
}

// New builds a keymap from bindings. Later bindings override earlier ones
// with the same sequence.
func New(bindings ...Binding) (*Keymap, error) {
	km := &Keymap{root: newNode()}
	for _, b := range bindings {
		if err := km.Bind(b.Keys, b.Command); err != nil {
			return nil, err
		}
	}
	return km, nil
}

// MustNew is New for static binding tables.
func MustNew(bindings ...Binding) *Keymap {
	km, err := New(bindings...)
	if err != nil {
		panic(err)
	}
	return km
}

// Bind registers seq. An empty command removes the binding.
func (km *Keymap) Bind(seq string, cmd Command) error {
	keys, err := ParseSequence(seq)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("keymap: empty sequence")
	}
	n := km.root
	for _, k := range keys {
		child, ok := n.children[k]
		if !ok {
			child = newNode()
			n.children[k] = child
		}
		n = child
	}
	n.command = cmd
	return nil
}

// Lookup returns the command bound to exactly seq.
func (km *Keymap) Lookup(seq string) (Command, bool) {
	keys, err := ParseSequence(seq)
	if err != nil {
		return "", false
	}
	n := km.root
	for _, k := range keys {
		n = n.children[k]
		if n == nil {
			return "", false
		}
	}
	return n.command, n.command != ""
}

// Bindings lists every bound sequence in key order, formatted so that
// ParseSequence reads them back.
func (km *Keymap) Bindings() []Binding {
	var out []Binding
	var walk func(n *node, prefix []string)
	walk = func(n *node, prefix []string) {
		if n.command != "" {
			out = append(out, Binding{Keys: FormatSequence(prefix), Command: n.command})
		}
		keys := make([]string, 0, len(n.children))
		for k := range n.children {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(n.children[k], append(append([]string(nil), prefix...), k))
		}
	}
	walk(km.root, nil)
	return out
}

// ParseSequence splits a binding string into key names. Plain runes are one
// key each; named keys are written in angle brackets ("<ctrl+r>", "<esc>",
// "<space>", "<lt>" for a literal "<").
func ParseSequence(seq string) ([]string, error) {
	var keys []string
	runes := []rune(seq)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '<' {
			keys = append(keys, string(r))
			continue
		}
		end := -1
		for j := i + 1; j < len(runes); j++ {
			if runes[j] == '>' {
				end = j
				break
			}
		}
		if end <= i+1 {
			return nil, fmt.Errorf("keymap: unterminated key name in %q", seq)
		}
		keys = append(keys, namedKey(string(runes[i+1:end])))
		i = end
	}
	return keys, nil
}

func namedKey(name string) string {
	switch strings.ToLower(name) {
	case "space":
		return " "
	case "lt":
		return "<"
	case "gt":
		return ">"
	case "cr", "return":
		return "enter"
	default:
		return strings.ToLower(name)
	}
}

// FormatSequence is the inverse of ParseSequence.
func FormatSequence(keys []string) string {
	var sb strings.Builder
	for _, k := range keys {
		switch {
		case k == " ":
			sb.WriteString("<space>")
		case k == "<":
			sb.WriteString("<lt>")
		case len([]rune(k)) == 1:
			sb.WriteString(k)
		default:
			sb.WriteString("<" + k + ">")
		}
	}
	return sb.String()
}
