package editor

import (
	"fmt"
	"strconv"
	"strings"
)

// ExKind is a command-line request the session must carry out.
type ExKind int

const (
	ExNone ExKind = iota
	ExWrite
	ExQuit
	ExForceQuit
	ExWriteQuit
	ExNew
	ExRename
	ExEdit
)

func (k ExKind) String() string {
	switch k {
	case ExWrite:
		return "write"
	case ExQuit:
		return "quit"
	case ExForceQuit:
		return "quit!"
	case ExWriteQuit:
		return "write-quit"
	case ExNew:
		return "new"
	case ExRename:
		return "rename"
	case ExEdit:
		return "edit"
	default:
		return "none"
	}
}

// Ex is a parsed command line.
type Ex struct {
	Kind ExKind
	Arg  string
}

// errNotCommand reports an unknown command line.
type errNotCommand string

func (e errNotCommand) Error() string {
	return fmt.Sprintf("not an editor command: %s", string(e))
}

// ParseEx parses the text typed after ":". A bare line number is returned
// as line >= 1 with a zero Ex.
func ParseEx(text string) (ex Ex, line int, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Ex{}, 0, nil
	}
	if n, convErr := strconv.Atoi(text); convErr == nil && n > 0 {
		return Ex{}, n, nil
	}
	name, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "w", "write":
		return Ex{Kind: ExWrite}, 0, nil
	case "q", "quit":
		return Ex{Kind: ExQuit}, 0, nil
	case "q!", "quit!":
		return Ex{Kind: ExForceQuit}, 0, nil
	case "wq", "x":
		return Ex{Kind: ExWriteQuit}, 0, nil
	case "new", "rename", "e", "edit":
		if arg == "" {
			return Ex{}, 0, fmt.Errorf("%s: argument required", name)
		}
		kind := map[string]ExKind{"new": ExNew, "rename": ExRename, "e": ExEdit, "edit": ExEdit}[name]
		return Ex{Kind: kind, Arg: arg}, 0, nil
	}
	return Ex{}, 0, errNotCommand(text)
}
