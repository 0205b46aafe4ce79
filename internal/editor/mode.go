package editor

// Mode governs how keys are interpreted.
type Mode int

const (
	Normal Mode = iota
	Insert
	Visual
	Command
)

func (m Mode) String() string {
	switch m {
	case Insert:
		return "INSERT"
	case Visual:
		return "VISUAL"
	case Command:
		return "COMMAND"
	default:
		return "NORMAL"
	}
}
