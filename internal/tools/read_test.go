package tools

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/security"
)

func TestReadFile_SmallFileIsComplete(t *testing.T) {
	tb, root := newTestToolbox(t)
	writeFixture(t, root, "small.c", "line one\nline two\n")

	res := tb.ReadFile("small.c")
	if !res.OK || res.Truncated {
		t.Fatalf("res = %+v", res)
	}
	if !strings.Contains(res.Message, "line two") {
		t.Errorf("content missing: %s", res.Message)
	}
}

func TestReadFile_TruncationIsDiscoverable(t *testing.T) {
	root := t.TempDir()
	ws, err := security.NewWorkspace(root)
	if err != nil {
		t.Fatal(err)
	}
	tb := NewToolbox(ws, security.NewAllowlist(nil), Limits{ReadMaxChars: 200})

	var b strings.Builder
	for i := 1; i <= 100; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	writeFixture(t, root, "big.c", b.String())

	res := tb.ReadFile("big.c")
	if !res.OK {
		t.Fatalf("ReadFile: %s", res.Message)
	}
	if !res.Truncated {
		t.Fatal("oversized file was not truncated")
	}
	if !strings.Contains(res.Message, "FILE TRUNCATED") {
		t.Error("truncation is not announced")
	}
	if !strings.Contains(res.Message, "READ_LINES") || !strings.Contains(res.Message, "SCAN_FILE") {
		t.Error("truncation message does not point at the paging directives")
	}
	if !strings.Contains(res.Message, "more lines not shown") {
		t.Error("remaining line count is missing")
	}
}

func TestReadLines_RangeSemantics(t *testing.T) {
	tb, root := newTestToolbox(t)
	writeFixture(t, root, "f.c", "a\nb\nc\nd\ne\n")

	res := tb.ReadLines("f.c", 2, 4)
	if !res.OK {
		t.Fatalf("ReadLines: %s", res.Message)
	}
	for _, want := range []string{"2: b", "3: c", "4: d"} {
		if !strings.Contains(res.Message, want) {
			t.Errorf("missing %q in %s", want, res.Message)
		}
	}
	if strings.Contains(res.Message, "1: a") || strings.Contains(res.Message, "5: e") {
		t.Error("lines outside the range leaked")
	}
}

func TestReadLines_BoundsHandling(t *testing.T) {
	tb, root := newTestToolbox(t)
	writeFixture(t, root, "f.c", "a\nb\nc\n")

	if res := tb.ReadLines("f.c", 0, 2); res.OK {
		t.Error("start 0 accepted")
	}
	if res := tb.ReadLines("f.c", 3, 2); res.OK {
		t.Error("end before start accepted")
	}
	if res := tb.ReadLines("f.c", 9, 12); res.OK {
		t.Error("start past EOF accepted")
	}
	// End past EOF clamps instead of failing.
	res := tb.ReadLines("f.c", 2, 99)
	if !res.OK {
		t.Fatalf("clamped read failed: %s", res.Message)
	}
	if !strings.Contains(res.Message, "lines 2-3 of 3") {
		t.Errorf("clamp not reported: %s", res.Message)
	}
}

func TestParseLineRange(t *testing.T) {
	cases := []struct {
		arg        string
		path       string
		start, end int
		wantErr    bool
	}{
		{"f.c 10 20", "f.c", 10, 20, false},
		{"f.c 10-20", "f.c", 10, 20, false},
		{"f.c", "", 0, 0, true},
		{"f.c ten 20", "", 0, 0, true},
		{"f.c 10 20 30", "", 0, 0, true},
	}
	for _, tc := range cases {
		path, start, end, err := ParseLineRange(tc.arg)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseLineRange(%q) succeeded, want error", tc.arg)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLineRange(%q): %v", tc.arg, err)
			continue
		}
		if path != tc.path || start != tc.start || end != tc.end {
			t.Errorf("ParseLineRange(%q) = %q,%d,%d", tc.arg, path, start, end)
		}
	}
}
