package orchestrator

import (
	"strings"
	"testing"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/directive"
)

func TestBuildSystemPrompt_CoversEveryDirective(t *testing.T) {
	prompt := BuildSystemPrompt([]string{"make", "grep"}, true)
	for _, name := range directive.ValidNames() {
		if !strings.Contains(prompt, name) {
			t.Errorf("system prompt does not mention %s", name)
		}
	}
}

func TestBuildSystemPrompt_AllowlistModes(t *testing.T) {
	withCmds := BuildSystemPrompt([]string{"make", "grep"}, false)
	if !strings.Contains(withCmds, "make, grep") {
		t.Error("allowlist entries not listed")
	}

	noCmds := BuildSystemPrompt(nil, false)
	if !strings.Contains(noCmds, "RUN_COMMAND is disabled") {
		t.Error("empty allowlist not announced")
	}
}

func TestBuildSystemPrompt_ValidationNote(t *testing.T) {
	on := BuildSystemPrompt(nil, true)
	if !strings.Contains(on, "committed and validated") {
		t.Error("validation note missing when enabled")
	}
	off := BuildSystemPrompt(nil, false)
	if strings.Contains(off, "committed and validated") {
		t.Error("validation note present when disabled")
	}
}

func TestBuildBootstrapTurn_FencesTheDocument(t *testing.T) {
	turn := BuildBootstrapTurn("# Mission\nFix the build.")
	if !strings.Contains(turn, "```markdown\n# Mission\nFix the build.\n```") {
		t.Errorf("bootstrap turn = %q", turn)
	}
}
