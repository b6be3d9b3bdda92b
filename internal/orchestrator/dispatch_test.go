package orchestrator

import (
	"strings"
	"testing"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/config"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/directive"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/logging"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/security"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/tools"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, string) {
	t.Helper()
	root := t.TempDir()
	ws, err := security.NewWorkspace(root)
	if err != nil {
		t.Fatal(err)
	}
	tb := tools.NewToolbox(ws, security.NewAllowlist(nil), tools.Limits{})
	cfg := config.Default()
	cfg.Runtime.WorkspaceRoot = ws.Root()
	cfg.Validation.Command = ""
	return New(cfg, nil, tb, nil, nil, logging.Discard(), nil, Callbacks{}), ws.Root()
}

func TestDispatch_LabelsFollowOutcome(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	label, res := o.dispatch(directive.Directive{Kind: directive.KindListDir, Argument: "."})
	if !res.OK || label != "LIST_DIR_RESULT" {
		t.Errorf("success label = %q (ok=%v)", label, res.OK)
	}

	label, res = o.dispatch(directive.Directive{Kind: directive.KindReadFile, Argument: "missing.c"})
	if res.OK || label != "READ_FILE_ERROR" {
		t.Errorf("failure label = %q (ok=%v)", label, res.OK)
	}
}

func TestDispatch_UnknownDirectiveListsValidNames(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	label, res := o.dispatch(directive.Directive{Kind: directive.KindUnknown, Name: "FROBNICATE"})
	if res.OK {
		t.Fatal("unknown directive reported success")
	}
	if label != "UNKNOWN_ACTION_ERROR" {
		t.Errorf("label = %q", label)
	}
	if !strings.Contains(res.Message, "FROBNICATE") {
		t.Error("message does not echo the unknown name")
	}
	if !strings.Contains(res.Message, "READ_FILE") || !strings.Contains(res.Message, "HALT") {
		t.Error("message does not list the valid directives")
	}
}

func TestDispatch_MalformedLineRangeIsToolError(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	label, res := o.dispatch(directive.Directive{Kind: directive.KindReadLines, Argument: "f.c ten 20"})
	if res.OK || label != "READ_LINES_ERROR" {
		t.Errorf("label = %q (ok=%v)", label, res.OK)
	}
}

func TestParseListArgument(t *testing.T) {
	cases := []struct {
		in      string
		path    string
		showAll bool
	}{
		{"", "", false},
		{"src", "src", false},
		{"src --all", "src", true},
		{"--all", "", true},
		{"dir with space --all", "dir with space", true},
	}
	for _, tc := range cases {
		path, showAll := parseListArgument(tc.in)
		if path != tc.path || showAll != tc.showAll {
			t.Errorf("parseListArgument(%q) = %q,%v", tc.in, path, showAll)
		}
	}
}

func TestSplitPatternPath(t *testing.T) {
	cases := []struct {
		in            string
		pattern, path string
	}{
		{"", "", ""},
		{"TODO", "TODO", ""},
		{"TODO src/kern", "TODO", "src/kern"},
		{"TODO src/a b", "TODO", "src/a b"},
	}
	for _, tc := range cases {
		pattern, path := splitPatternPath(tc.in)
		if pattern != tc.pattern || path != tc.path {
			t.Errorf("splitPatternPath(%q) = %q,%q", tc.in, pattern, path)
		}
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("  one\ntwo\n"); got != "one" {
		t.Errorf("firstLine = %q", got)
	}
	long := strings.Repeat("x", 500)
	if got := firstLine(long); len(got) != 200 {
		t.Errorf("long line not capped: %d", len(got))
	}
}
