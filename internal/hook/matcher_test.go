// ABOUTME: Tests for matcher semantics: wildcard, type isolation, substring, glob
// ABOUTME: Exercises the permissive any-signal-matches behavior

package hook

import "testing"

func mkHook(event EventType, pattern string) *Hook {
	return &Hook{ID: "t", Name: "t", Event: event, Pattern: pattern}
}

func mkEvent(typ EventType, tool string, paths ...string) *Event {
	return &Event{Type: typ, ToolName: tool, FilePaths: paths}
}

func TestMatches_WildcardPatternMatchesEverything(t *testing.T) {
	t.Parallel()

	h := mkHook(PreToolUse, "*")
	cases := []*Event{
		mkEvent(PreToolUse, "Bash"),
		mkEvent(PreToolUse, ""),
		mkEvent(PreToolUse, "Write", "/tmp/x.go"),
	}
	for _, ev := range cases {
		if !Matches(h, ev) {
			t.Errorf("wildcard pattern should match tool=%q paths=%v", ev.ToolName, ev.FilePaths)
		}
	}
}

func TestMatches_TypeIsolation(t *testing.T) {
	t.Parallel()

	h := mkHook(PostToolUse, "*")
	if Matches(h, mkEvent(PreToolUse, "Bash")) {
		t.Error("PostToolUse hook must not match PreToolUse event")
	}
}

func TestMatches_WildcardEventType(t *testing.T) {
	t.Parallel()

	h := mkHook(EventWildcard, "*")
	for _, typ := range []EventType{PreToolUse, PostToolUse, Notification, Stop} {
		if !Matches(h, mkEvent(typ, "x")) {
			t.Errorf("wildcard event hook should match %s", typ)
		}
	}
}

func TestMatches_ToolNameSubstringCaseInsensitive(t *testing.T) {
	t.Parallel()

	h := mkHook(PreToolUse, "bash")
	if !Matches(h, mkEvent(PreToolUse, "Bash")) {
		t.Error("pattern should match tool name case-insensitively")
	}
	if Matches(h, mkEvent(PreToolUse, "Write")) {
		t.Error("pattern should not match unrelated tool")
	}
}

func TestMatches_PathSubstring(t *testing.T) {
	t.Parallel()

	h := mkHook(PostToolUse, "src/")
	if !Matches(h, mkEvent(PostToolUse, "Write", "/home/u/src/main.go")) {
		t.Error("pattern should match as path substring")
	}
}

func TestMatches_GlobAgainstPath(t *testing.T) {
	t.Parallel()

	h := mkHook(PostToolUse, "*.go")
	if !Matches(h, mkEvent(PostToolUse, "Write", "/home/u/main.go")) {
		t.Error("*.go should glob-match a .go path")
	}
	if Matches(h, mkEvent(PostToolUse, "Write", "/home/u/main.rs")) {
		t.Error("*.go should not match a .rs path")
	}
}

func TestGlobMatch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		pattern, s string
		want       bool
	}{
		{"*", "anything", true},
		{"*.go", "main.go", true},
		{"*.go", "main.go.bak", false},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"src/*/x", "src/pkg/x", true},
		{"", "", true},
		{"", "x", false},
	}
	for _, tc := range cases {
		if got := globMatch(tc.pattern, tc.s); got != tc.want {
			t.Errorf("globMatch(%q, %q) = %v, want %v", tc.pattern, tc.s, got, tc.want)
		}
	}
}

func TestSelect_PreservesOrder(t *testing.T) {
	t.Parallel()

	h1 := &Hook{ID: "a", Name: "a", Event: PreToolUse, Pattern: "*"}
	h2 := &Hook{ID: "b", Name: "b", Event: PostToolUse, Pattern: "*"}
	h3 := &Hook{ID: "c", Name: "c", Event: EventWildcard, Pattern: "*"}

	matched := Select([]*Hook{h1, h2, h3}, mkEvent(PreToolUse, "Bash"))
	if len(matched) != 2 {
		t.Fatalf("matched %d hooks, want 2", len(matched))
	}
	if matched[0].ID != "a" || matched[1].ID != "c" {
		t.Errorf("order = [%s %s], want [a c]", matched[0].ID, matched[1].ID)
	}
}
