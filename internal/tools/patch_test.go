package tools

import (
	"strings"
	"testing"
)

func TestApplyPatch_RejectsEmpty(t *testing.T) {
	tb, _ := newTestToolbox(t)
	if res := tb.ApplyPatch("   \n"); res.OK {
		t.Error("empty patch accepted")
	}
}

func TestApplyPatch_HeaderOnlyIsRejectedBeforeSubprocess(t *testing.T) {
	tb, _ := newTestToolbox(t)

	// Headers and a hunk marker, but no added or removed lines.
	patch := "--- a/f.c\n+++ b/f.c\n@@ -1,3 +1,3 @@\n context only\n"
	res := tb.ApplyPatch(patch)
	if res.OK {
		t.Fatal("hunkless patch accepted")
	}
	if !strings.Contains(res.Message, "Incomplete patch detected") {
		t.Errorf("diagnostic missing: %s", res.Message)
	}
	if !strings.Contains(res.Message, "Hunk headers") {
		t.Error("diagnostic does not explain the required structure")
	}
}

func TestApplyPatch_HeadersAfterPreambleStillRejected(t *testing.T) {
	tb, _ := newTestToolbox(t)

	// File headers past the first line must not count as change lines.
	patch := strings.Join([]string{
		"diff --git a/f.c b/f.c",
		"--- a/f.c",
		"+++ b/f.c",
		"@@ -1,3 +1,3 @@",
		" context only",
		"",
	}, "\n")
	res := tb.ApplyPatch(patch)
	if res.OK {
		t.Fatal("hunkless patch accepted")
	}
	if !strings.Contains(res.Message, "Incomplete patch detected") {
		t.Errorf("diagnostic missing: %s", res.Message)
	}
}

func TestApplyPatch_HeadersWithoutHunksRejected(t *testing.T) {
	tb, _ := newTestToolbox(t)
	res := tb.ApplyPatch("--- a/f.c\n+++ b/f.c\n")
	if res.OK {
		t.Fatal("header-only patch accepted")
	}
	if !strings.Contains(res.Message, "Incomplete patch detected") {
		t.Errorf("diagnostic missing: %s", res.Message)
	}
}

func TestApplyPatch_AppliesValidUnifiedDiff(t *testing.T) {
	tb, root := newTestToolbox(t)
	writeFixture(t, root, "f.c", "one\ntwo\nthree\n")

	patch := strings.Join([]string{
		"--- a/f.c",
		"+++ b/f.c",
		"@@ -1,3 +1,3 @@",
		" one",
		"-two",
		"+TWO",
		" three",
		"",
	}, "\n")

	res := tb.ApplyPatch(patch)
	if !res.OK {
		t.Fatalf("ApplyPatch: %s", res.Message)
	}
	got := readBack(t, root, "f.c")
	if got != "one\nTWO\nthree\n" {
		t.Errorf("file = %q", got)
	}
}

func TestApplyPatch_FallsBackToStripLevelZero(t *testing.T) {
	tb, root := newTestToolbox(t)
	writeFixture(t, root, "f.c", "one\ntwo\n")

	// Paths without the a/ b/ prefixes only apply at -p0.
	patch := strings.Join([]string{
		"--- f.c",
		"+++ f.c",
		"@@ -1,2 +1,2 @@",
		"-one",
		"+ONE",
		" two",
		"",
	}, "\n")

	res := tb.ApplyPatch(patch)
	if !res.OK {
		t.Fatalf("ApplyPatch: %s", res.Message)
	}
	if readBack(t, root, "f.c") != "ONE\ntwo\n" {
		t.Error("patch did not apply at strip level 0")
	}
}

func TestStripPatchFences(t *testing.T) {
	wrapped := "```diff\n--- a/f.c\n+++ b/f.c\n```\n"
	got := stripPatchFences(wrapped)
	if strings.Contains(got, "```") {
		t.Errorf("fences survived: %q", got)
	}
	plain := "--- a/f.c\n+++ b/f.c\n"
	if stripPatchFences(plain) != plain {
		t.Error("unfenced patch was modified")
	}
}
