package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolve_AcceptsPathsInsideRoot(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "bin", "pkill")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "pkill.c"), []byte("int main;"), 0o644); err != nil {
		t.Fatal(err)
	}

	ws, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}

	got, err := ws.Resolve("bin/pkill/pkill.c")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.HasPrefix(got, ws.Root()) {
		t.Errorf("resolved path %q is not under root %q", got, ws.Root())
	}
}

func TestResolve_AcceptsNotYetExistingPaths(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	got, err := ws.Resolve("new/dir/file.c")
	if err != nil {
		t.Fatalf("Resolve of non-existent path: %v", err)
	}
	if !strings.HasPrefix(got, ws.Root()) {
		t.Errorf("resolved %q escapes root", got)
	}
}

func TestResolve_RejectsUnsafePaths(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"absolute", "/etc/passwd"},
		{"null byte", "bin/\x00evil"},
		{"home expansion", "~/secrets"},
		{"bare parent", ".."},
		{"leading parent", "../outside"},
		{"embedded parent", "bin/../../outside"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ws.Resolve(tc.path); err == nil {
				t.Errorf("Resolve(%q) succeeded, want rejection", tc.path)
			}
		})
	}
}

func TestResolve_InteriorDotDotThatStaysInside(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "a", "b"), 0o755); err != nil {
		t.Fatal(err)
	}
	ws, err := NewWorkspace(root)
	if err != nil {
		t.Fatal(err)
	}
	// a/b/../b cleans to a/b which is still inside the root.
	if _, err := ws.Resolve("a/b/../b"); err != nil {
		t.Errorf("Resolve of interior ..: %v", err)
	}
}

func TestResolve_SymlinkEscapeRejected(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(root, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	ws, err := NewWorkspace(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ws.Resolve("escape/file.c"); err == nil {
		t.Error("Resolve through an outward symlink succeeded, want rejection")
	}
}
