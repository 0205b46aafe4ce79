package keymap

import (
	"reflect"
	"testing"
	"time"
)

func TestParseSequence(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"gg", []string{"g", "g"}},
		{`\oot`, []string{`\`, "o", "o", "t"}},
		{"<ctrl+r>", []string{"ctrl+r"}},
		{"<Esc>", []string{"esc"}},
		{"<space>w", []string{" ", "w"}},
		{"<lt>", []string{"<"}},
		{"é", []string{"é"}},
	}
	for _, tt := range tests {
		got, err := ParseSequence(tt.in)
		if err != nil {
			t.Fatalf("ParseSequence(%q): %v", tt.in, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseSequence(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if back, _ := ParseSequence(FormatSequence(got)); !reflect.DeepEqual(back, got) {
			t.Errorf("FormatSequence(%q) did not round trip", got)
		}
	}
	if _, err := ParseSequence("<ctrl+r"); err == nil {
		t.Error("expected error for unterminated key name")
	}
}

func feedAll(m *Matcher, now time.Time, keys ...string) (Result, Command) {
	var (
		res Result
		cmd Command
	)
	for _, k := range keys {
		res, cmd = m.Feed(k, now)
	}
	return res, cmd
}

func TestMatcherResolvesUniqueSequence(t *testing.T) {
	m := NewMatcher(MustNew(DefaultBindings(DefaultLeader)[ContextNormal]...), time.Second)
	now := time.Now()

	if res, _ := m.Feed(`\`, now); res != Pending {
		t.Fatalf("leader: %v", res)
	}
	if res, _ := m.Feed("o", now); res != Pending {
		t.Fatalf("leader o: %v", res)
	}
	res, cmd := m.Feed("b", now)
	if res != Matched || cmd != BacklinkPanel {
		t.Fatalf("got %v %q", res, cmd)
	}
	if m.IsPending() {
		t.Fatal("pending state kept after match")
	}
}

func TestMatcherAbortsOnUnknownContinuation(t *testing.T) {
	m := NewMatcher(MustNew(DefaultBindings(DefaultLeader)[ContextNormal]...), time.Second)
	now := time.Now()
	if res, _ := feedAll(m, now, `\`, "o", "z"); res != Unmatched {
		t.Fatalf("got %v", res)
	}
	if m.IsPending() || m.Pending() != "" {
		t.Fatal("pending state not cleared")
	}
	// The next key starts fresh.
	if res, cmd := m.Feed("u", now); res != Matched || cmd != Undo {
		t.Fatalf("got %v %q", res, cmd)
	}
}

func TestMatcherShorterBindingWaitsForTimeout(t *testing.T) {
	km := MustNew(
		Binding{Keys: "ab", Command: "short"},
		Binding{Keys: "abc", Command: "long"},
	)
	m := NewMatcher(km, 500*time.Millisecond)
	start := time.Now()

	if res, _ := feedAll(m, start, "a", "b"); res != Pending {
		t.Fatalf("got %v", res)
	}
	if _, ok := m.Expire(start.Add(100 * time.Millisecond)); ok {
		t.Fatal("expired before the deadline")
	}
	cmd, ok := m.Expire(start.Add(time.Second))
	if !ok || cmd != "short" {
		t.Fatalf("expire = %q %v", cmd, ok)
	}

	if res, cmd := feedAll(m, start, "a", "b", "c"); res != Matched || cmd != "long" {
		t.Fatalf("got %v %q", res, cmd)
	}
}

func TestMatcherExpireUnboundPrefix(t *testing.T) {
	m := NewMatcher(MustNew(Binding{Keys: "gg", Command: GotoTop}), time.Second)
	now := time.Now()
	m.Feed("g", now)
	if _, ok := m.Expire(now.Add(2 * time.Second)); ok {
		t.Fatal("unbound prefix resolved")
	}
	if m.IsPending() {
		t.Fatal("pending state not cleared on expiry")
	}
}

func TestMatcherDeadline(t *testing.T) {
	m := NewMatcher(MustNew(Binding{Keys: "gg", Command: GotoTop}), time.Second)
	if _, ok := m.Deadline(); ok {
		t.Fatal("deadline without pending keys")
	}
	now := time.Now()
	m.Feed("g", now)
	d, ok := m.Deadline()
	if !ok || !d.Equal(now.Add(time.Second)) {
		t.Fatalf("deadline = %v %v", d, ok)
	}
	if m.Pending() != "g" {
		t.Fatalf("pending = %q", m.Pending())
	}
}

func TestBuildOverrides(t *testing.T) {
	set, err := Build(",", map[string]string{
		"<leader>x":  string(SearchPanel),
		"u":          "",
		"tree:<c-x>": "", // unknown names are still accepted as keys
		"visual:Y":   string(VisualYank),
	})
	if err != nil {
		t.Fatal(err)
	}
	if cmd, ok := set.Normal.Lookup(",x"); !ok || cmd != SearchPanel {
		t.Fatalf(",x = %q %v", cmd, ok)
	}
	if cmd, ok := set.Normal.Lookup(",ob"); !ok || cmd != BacklinkPanel {
		t.Fatalf(",ob = %q %v", cmd, ok)
	}
	if _, ok := set.Normal.Lookup(`\ob`); ok {
		t.Fatal("default leader still bound")
	}
	if _, ok := set.Normal.Lookup("u"); ok {
		t.Fatal("u not unbound")
	}
	if cmd, _ := set.Visual.Lookup("Y"); cmd != VisualYank {
		t.Fatalf("visual Y = %q", cmd)
	}
}

func TestBindingsListing(t *testing.T) {
	km := MustNew(Binding{Keys: "<ctrl+r>", Command: Redo}, Binding{Keys: "gg", Command: GotoTop})
	got := km.Bindings()
	want := []Binding{{Keys: "<ctrl+r>", Command: Redo}, {Keys: "gg", Command: GotoTop}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v", got)
	}
}
