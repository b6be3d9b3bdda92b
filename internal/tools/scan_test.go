package tools

import (
	"strings"
	"testing"
)

const scanFixture = `#include <stdio.h>
#define MAX_PROCS 128

/* --- process table --- */

struct proc {
	int pid;
};

typedef struct proc proc_t;

static int count_procs(void);

int
main(int argc, char **argv)
{
	return 0;
}

static int count_procs(void)
{
	return 0;
}
`

func TestScanFile_OutlineLabels(t *testing.T) {
	tb, root := newTestToolbox(t)
	writeFixture(t, root, "proc.c", scanFixture)

	res := tb.ScanFile("proc.c")
	if !res.OK {
		t.Fatalf("ScanFile: %s", res.Message)
	}
	for _, want := range []string{
		"[include] #include <stdio.h>",
		"[macro] #define MAX_PROCS 128",
		"[section] /* --- process table --- */",
		"[struct] struct proc {",
		"[typedef] typedef struct proc proc_t;",
		"[prototype] static int count_procs(void);",
		"[func] main(int argc, char **argv)",
		"[func] static int count_procs(void)",
	} {
		if !strings.Contains(res.Message, want) {
			t.Errorf("outline missing %q", want)
		}
	}
	if strings.Contains(res.Message, "return 0;") {
		t.Error("function bodies leaked into the outline")
	}
}

func TestScanFile_NonCLikeFile(t *testing.T) {
	tb, root := newTestToolbox(t)
	writeFixture(t, root, "notes.txt", "just\nsome\nprose\n")

	res := tb.ScanFile("notes.txt")
	if !res.OK {
		t.Fatalf("ScanFile: %s", res.Message)
	}
	if !strings.Contains(res.Message, "no structural lines recognized") {
		t.Errorf("unexpected outline: %s", res.Message)
	}
}

func TestListDir_SortedWithDirSuffix(t *testing.T) {
	tb, root := newTestToolbox(t)
	writeFixture(t, root, "zz.c", "")
	writeFixture(t, root, "sub/inner.c", "")

	res := tb.ListDir("", false)
	if !res.OK {
		t.Fatalf("ListDir: %s", res.Message)
	}
	subIdx := strings.Index(res.Message, "sub/")
	zzIdx := strings.Index(res.Message, "zz.c")
	if subIdx < 0 || zzIdx < 0 {
		t.Fatalf("entries missing: %s", res.Message)
	}
	if subIdx > zzIdx {
		t.Error("entries are not sorted")
	}
}

func TestListDir_RejectsFileAndMissingPath(t *testing.T) {
	tb, root := newTestToolbox(t)
	writeFixture(t, root, "f.c", "")
	if res := tb.ListDir("f.c", false); res.OK {
		t.Error("listing a file succeeded")
	}
	if res := tb.ListDir("nope", false); res.OK {
		t.Error("listing a missing dir succeeded")
	}
}
