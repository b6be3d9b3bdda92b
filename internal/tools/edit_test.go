package tools

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/directive"
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/security"
)

func newTestToolbox(t *testing.T) (*Toolbox, string) {
	t.Helper()
	root := t.TempDir()
	ws, err := security.NewWorkspace(root)
	if err != nil {
		t.Fatal(err)
	}
	return NewToolbox(ws, security.NewAllowlist(nil), Limits{}), ws.Root()
}

func writeFixture(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readBack(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestEditFile_UniqueMatchReplacesOnce(t *testing.T) {
	tb, root := newTestToolbox(t)
	writeFixture(t, root, "main.c", "int a;\nint b;\nint c;\n")

	res := tb.EditFile("main.c", "int b;", "long b;")
	if !res.OK {
		t.Fatalf("EditFile failed: %s", res.Message)
	}
	data, _ := os.ReadFile(filepath.Join(root, "main.c"))
	if string(data) != "int a;\nlong b;\nint c;\n" {
		t.Errorf("file content = %q", data)
	}
}

func TestEditFile_MissingOldTextEchoesPayload(t *testing.T) {
	tb, root := newTestToolbox(t)
	writeFixture(t, root, "main.c", "int a;\n")

	res := tb.EditFile("main.c", "int missing;", "x")
	if res.OK {
		t.Fatal("edit of absent text succeeded")
	}
	if !strings.Contains(res.Message, "int missing;") {
		t.Error("failure does not echo the OLD text back")
	}
	if !strings.Contains(res.Message, "<<<") || !strings.Contains(res.Message, ">>>") {
		t.Error("echoed OLD text is not delimited")
	}
}

func TestEditFile_AmbiguousOldTextReportsCount(t *testing.T) {
	tb, root := newTestToolbox(t)
	writeFixture(t, root, "main.c", "foo();\nbar();\nfoo();\n")

	res := tb.EditFile("main.c", "foo();", "baz();")
	if res.OK {
		t.Fatal("ambiguous edit succeeded")
	}
	if !strings.Contains(res.Message, "appears 2 times") {
		t.Errorf("failure does not report the occurrence count: %s", res.Message)
	}
	// The file must be untouched.
	data, _ := os.ReadFile(filepath.Join(root, "main.c"))
	if string(data) != "foo();\nbar();\nfoo();\n" {
		t.Error("ambiguous edit modified the file")
	}
}

func TestEditFile_RejectsDirectoryAndMissingFile(t *testing.T) {
	tb, root := newTestToolbox(t)
	if err := os.Mkdir(filepath.Join(root, "dir"), 0o755); err != nil {
		t.Fatal(err)
	}
	if res := tb.EditFile("dir", "a", "b"); res.OK {
		t.Error("editing a directory succeeded")
	}
	if res := tb.EditFile("nope.c", "a", "b"); res.OK {
		t.Error("editing a missing file succeeded")
	}
}

func TestEditMultiple_StopsAtFirstFailure(t *testing.T) {
	tb, root := newTestToolbox(t)
	writeFixture(t, root, "a.c", "alpha\n")
	writeFixture(t, root, "b.c", "beta\n")

	res := tb.EditMultiple([]directive.FileEdit{
		{File: "a.c", Old: "alpha", New: "ALPHA"},
		{File: "b.c", Old: "wrong", New: "x"},
		{File: "a.c", Old: "ALPHA", New: "never"},
	})
	if res.OK {
		t.Fatal("batch with a failing entry succeeded")
	}
	if !strings.Contains(res.Message, "edit 2 of 3") || !strings.Contains(res.Message, "1 applied") {
		t.Errorf("failure does not locate the bad entry: %s", res.Message)
	}
	// First edit applied, third never attempted.
	a, _ := os.ReadFile(filepath.Join(root, "a.c"))
	if string(a) != "ALPHA\n" {
		t.Errorf("a.c = %q", a)
	}
}

func TestWriteFile_CreatesParentDirectories(t *testing.T) {
	tb, root := newTestToolbox(t)

	res := tb.WriteFile("new/deep/file.c", "content\n")
	if !res.OK {
		t.Fatalf("WriteFile: %s", res.Message)
	}
	data, err := os.ReadFile(filepath.Join(root, "new", "deep", "file.c"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "content\n" {
		t.Errorf("content = %q", data)
	}
}

func TestWriteFile_RejectsEscape(t *testing.T) {
	tb, _ := newTestToolbox(t)
	if res := tb.WriteFile("../outside.c", "x"); res.OK {
		t.Error("write outside the workspace succeeded")
	}
}
