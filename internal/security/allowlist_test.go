package security

import "testing"

func TestAllowlist_Permitted(t *testing.T) {
	a := NewAllowlist([]string{"make", "git log", " ", ""})

	cases := []struct {
		command string
		want    bool
	}{
		{"make", true},
		{"make buildworld -j8", true},
		{"git log --oneline", true},
		{"git push", false}, // only "git log" is listed, not bare git
		{"rm -rf /", false},
		{"makefoo", false}, // prefix must end at a word boundary
		{"", false},
	}
	for _, tc := range cases {
		got, _ := a.Permitted(tc.command)
		if got != tc.want {
			t.Errorf("Permitted(%q) = %v, want %v", tc.command, got, tc.want)
		}
	}
}

func TestAllowlist_ParseFailureFailsClosed(t *testing.T) {
	a := NewAllowlist([]string{"make"})
	if ok, reason := a.Permitted(`make "unterminated`); ok {
		t.Error("unbalanced quotes were permitted")
	} else if reason == "" {
		t.Error("refusal carried no reason")
	}
	if ok, _ := a.Permitted(`make trailing\`); ok {
		t.Error("dangling escape was permitted")
	}
}

func TestAllowlist_Empty(t *testing.T) {
	a := NewAllowlist(nil)
	if !a.Empty() {
		t.Error("nil entries should report empty")
	}
	if ok, _ := a.Permitted("make"); ok {
		t.Error("empty allowlist permitted a command")
	}
}
