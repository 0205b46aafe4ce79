package keymap

import (
	"strings"
	"time"
)

// Result is the outcome of feeding one key to a Matcher.
type Result int

const (
	// Unmatched: the key does not extend any binding. Any pending prefix
	// was discarded.
	Unmatched Result = iota
	// Pending: the key extends a binding prefix; more keys are expected.
	Pending
	// Matched: a command resolved.
	Matched
)

func (r Result) String() string {
	switch r {
	case Pending:
		return "pending"
	case Matched:
		return "matched"
	default:
		return "unmatched"
	}
}

// DefaultTimeout is the pending window used when none is configured.
const DefaultTimeout = time.Second

// Matcher accumulates keys against a Keymap. It is a pure state machine:
// time is passed in by the caller.
type Matcher struct {
	km       *Keymap
	timeout  time.Duration
	cur      *node
	pending  []string
	deadline time.Time
}

// NewMatcher returns a matcher over km. A non-positive timeout selects
// DefaultTimeout.
func NewMatcher(km *Keymap, timeout time.Duration) *Matcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Matcher{km: km, timeout: timeout}
}

// Feed advances the matcher by key at time now.
//
// A binding resolves as soon as it matches exactly and no longer binding
// shares its prefix. When a longer binding exists the matcher stays
// pending; Expire later resolves the shorter one. A key that does not
// continue the pending prefix aborts the whole sequence.
func (m *Matcher) Feed(key string, now time.Time) (Result, Command) {
	from := m.cur
	if from == nil {
		from = m.km.root
	}
	next, ok := from.children[key]
	if !ok {
		m.Reset()
		return Unmatched, ""
	}
	if len(next.children) == 0 {
		m.Reset()
		if next.command == "" {
			return Unmatched, ""
		}
		return Matched, next.command
	}
	m.cur = next
	m.pending = append(m.pending, key)
	m.deadline = now.Add(m.timeout)
	return Pending, ""
}

// Expire resolves a pending prefix whose window elapsed. If the prefix is
// itself bound, its command is returned. Pending state is cleared either
// way. Before the deadline Expire does nothing.
func (m *Matcher) Expire(now time.Time) (Command, bool) {
	if m.cur == nil || now.Before(m.deadline) {
		return "", false
	}
	cmd := m.cur.command
	m.Reset()
	return cmd, cmd != ""
}

// Deadline returns when the pending prefix expires; ok is false when
// nothing is pending.
func (m *Matcher) Deadline() (time.Time, bool) {
	if m.cur == nil {
		return time.Time{}, false
	}
	return m.deadline, true
}

// IsPending reports whether a prefix is waiting for more keys.
func (m *Matcher) IsPending() bool {
	return m.cur != nil
}

// Pending returns the keys of the pending prefix as display text.
func (m *Matcher) Pending() string {
	return strings.Join(m.pending, "")
}

// Reset drops any pending prefix.
func (m *Matcher) Reset() {
	m.cur = nil
	m.pending = nil
	m.deadline = time.Time{}
}
