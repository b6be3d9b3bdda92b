package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const incompletePatchHelp = `Incomplete patch detected.
Your patch only contains headers but no actual changes.

A valid unified diff must include:
1. File headers (--- a/path/to/file and +++ b/path/to/file)
2. Hunk headers (@@ -start,count +start,count @@)
3. Context lines (unchanged, starting with space)
4. Removed lines (starting with -)
5. Added lines (starting with +)`

// ApplyPatch 通过 patch(1) 应用 unified diff：剥掉 markdown 围栏，先在不
// 起子进程的前提下拒绝只有头部的残缺补丁，然后依次尝试 -p1 与 -p0，
// 返回首个成功或两次尝试的合并失败日志。
// ApplyPatch applies a unified diff via patch(1): markdown fences are
// stripped, header-only patches are rejected with an explanatory template
// before any subprocess is invoked, then -p1 and -p0 are attempted in
// sequence, returning the first success or a combined failure log.
func (t *Toolbox) ApplyPatch(patchText string) Result {
	if strings.TrimSpace(patchText) == "" {
		return fail("empty patch text")
	}
	cleaned := stripPatchFences(patchText)
	if strings.TrimSpace(cleaned) == "" {
		return fail("empty patch after cleaning")
	}

	lines := strings.Split(strings.TrimSpace(cleaned), "\n")
	hasHunks := false
	hasChanges := false
	for _, line := range lines {
		if strings.HasPrefix(line, "@@ ") {
			hasHunks = true
		}
		// File headers ("--- a/...", "+++ b/...") are not change lines.
		if strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ ") {
			continue
		}
		if strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") {
			hasChanges = true
		}
	}
	if !hasHunks || !hasChanges {
		return fail("%s\n\nYour patch was only:\n```\n%s\n```", incompletePatchHelp, cleaned)
	}

	var attempts []string
	for _, level := range []string{"-p1", "-p0"} {
		out, code, err := t.runPatch(cleaned, level)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("--- patch %s ---\n%v", level, err))
			continue
		}
		if code == 0 {
			return ok("patch applied (patch %s):\n```text\n%s\n```", level, strings.TrimSpace(out))
		}
		attempts = append(attempts, fmt.Sprintf("--- patch %s (rc=%d) ---\n%s", level, code, strings.TrimSpace(out)))
	}
	return fail("patch failed at both strip levels:\n```text\n%s\n```", strings.Join(attempts, "\n"))
}

func (t *Toolbox) runPatch(patchText, level string) (string, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(t.limits.CommandTimeoutMS)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(ctx, "patch", level, "-u", "-N")
	cmd.Dir = t.ws.Root()
	cmd.Stdin = strings.NewReader(patchText)
	out := newCappedBuffer(t.limits.OutputLimitBytes)
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	if err != nil {
		if ee, isExit := err.(*exec.ExitError); isExit {
			return out.String(), ee.ExitCode(), nil
		}
		return "", -1, err
	}
	return out.String(), 0, nil
}

// stripPatchFences keeps only the content between the first and last fence
// lines when the model wrapped the diff in a markdown code block.
func stripPatchFences(patchText string) string {
	lines := strings.Split(patchText, "\n")
	var fences []int
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			fences = append(fences, i)
		}
	}
	if len(fences) >= 2 {
		inner := lines[fences[0]+1 : fences[len(fences)-1]]
		return strings.TrimSpace(strings.Join(inner, "\n")) + "\n"
	}
	return patchText
}
