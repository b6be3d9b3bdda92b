package tools

import (
	"strings"
	"testing"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/security"
)

func newShellToolbox(t *testing.T, allowed []string, limits Limits) (*Toolbox, string) {
	t.Helper()
	root := t.TempDir()
	ws, err := security.NewWorkspace(root)
	if err != nil {
		t.Fatal(err)
	}
	return NewToolbox(ws, security.NewAllowlist(allowed), limits), ws.Root()
}

func TestRunCommand_EmptyAllowlistRefuses(t *testing.T) {
	tb, _ := newShellToolbox(t, nil, Limits{})
	res := tb.RunCommand("echo hi")
	if res.OK {
		t.Fatal("command ran with an empty allowlist")
	}
	if !strings.Contains(res.Message, "empty allowlist") {
		t.Errorf("refusal reason missing: %s", res.Message)
	}
}

func TestRunCommand_RefusalListsAllowedCommands(t *testing.T) {
	tb, _ := newShellToolbox(t, []string{"ls", "cat"}, Limits{})
	res := tb.RunCommand("rm -rf .")
	if res.OK {
		t.Fatal("disallowed command ran")
	}
	if !strings.Contains(res.Message, "ls, cat") {
		t.Errorf("refusal does not list allowed commands: %s", res.Message)
	}
}

func TestRunCommand_AllowedCommandRuns(t *testing.T) {
	tb, _ := newShellToolbox(t, []string{"echo"}, Limits{})
	res := tb.RunCommand("echo hello")
	if !res.OK {
		t.Fatalf("RunCommand: %s", res.Message)
	}
	if !strings.Contains(res.Message, "hello") {
		t.Errorf("output missing: %s", res.Message)
	}
}

func TestRunCommand_NonzeroExitReported(t *testing.T) {
	tb, _ := newShellToolbox(t, []string{"sh"}, Limits{})
	res := tb.RunCommand("sh -c 'exit 3'")
	if res.OK {
		t.Fatal("failing command reported success")
	}
	if !strings.Contains(res.Message, "code 3") {
		t.Errorf("exit code missing: %s", res.Message)
	}
}

func TestRunCommand_Timeout(t *testing.T) {
	tb, _ := newShellToolbox(t, []string{"sleep"}, Limits{CommandTimeoutMS: 50})
	res := tb.RunCommand("sleep 5")
	if res.OK {
		t.Fatal("timed-out command reported success")
	}
	if !res.TimedOut {
		t.Error("TimedOut flag not set")
	}
	if !strings.Contains(res.Message, "timed out") {
		t.Errorf("timeout not reported: %s", res.Message)
	}
}

func TestRunApproved_BypassesAllowlist(t *testing.T) {
	tb, _ := newShellToolbox(t, nil, Limits{})
	res := tb.RunApproved("echo approved")
	if !res.OK {
		t.Fatalf("RunApproved: %s", res.Message)
	}
}

func TestCappedBuffer(t *testing.T) {
	b := newCappedBuffer(10)
	n, err := b.Write([]byte("0123456789ABCDEF"))
	if err != nil || n != 16 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	out := b.String()
	if !strings.Contains(out, "0123456789") {
		t.Errorf("capped prefix missing: %q", out)
	}
	if !strings.Contains(out, "[output truncated]") {
		t.Errorf("truncation marker missing: %q", out)
	}
	if strings.Contains(out, "ABCDEF") {
		t.Errorf("bytes past the cap leaked: %q", out)
	}
}
