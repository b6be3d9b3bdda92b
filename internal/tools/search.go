package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// 搜索族工具委托给外部检索程序（grep/find），范围限定在沙箱内路径，
// 结果按行数封顶并显式标注 "showing N of M"。
// The search family delegates to external utilities (grep/find) scoped to a
// sandboxed path, with result line counts capped and an explicit
// "showing N of M" suffix.

// SearchText runs a recursive pattern search under the given path.
func (t *Toolbox) SearchText(pattern, path string) Result {
	if strings.TrimSpace(pattern) == "" {
		return fail("search pattern is empty; expected: SEARCH <pattern> [path]")
	}
	root, err := t.resolveSearchRoot(path)
	if err != nil {
		return fail("%v", err)
	}
	out, code, err := t.runSearcher("grep", "-rn", "--binary-files=without-match", "-e", pattern, root)
	if err != nil {
		return fail("run grep: %v", err)
	}
	if code == 1 {
		return ok("no matches for %q", pattern)
	}
	if code > 1 {
		return fail("grep failed:\n%s", out)
	}
	return t.cappedMatches(out, fmt.Sprintf("matches for %q", pattern))
}

// FindFiles runs a name-pattern file search under the given path.
func (t *Toolbox) FindFiles(pattern, path string) Result {
	if strings.TrimSpace(pattern) == "" {
		return fail("file pattern is empty; expected: FIND_FILES <name-glob> [path]")
	}
	root, err := t.resolveSearchRoot(path)
	if err != nil {
		return fail("%v", err)
	}
	out, code, err := t.runSearcher("find", root, "-name", pattern, "-not", "-path", "*/.git/*")
	if err != nil {
		return fail("run find: %v", err)
	}
	if code != 0 {
		return fail("find failed:\n%s", out)
	}
	if strings.TrimSpace(out) == "" {
		return ok("no files matching %q", pattern)
	}
	return t.cappedMatches(out, fmt.Sprintf("files matching %q", pattern))
}

// FindDefinition searches for likely definition sites of a symbol: the
// symbol at the start of a line or preceded by a type-ish prefix and
// followed by '(' or '='.
func (t *Toolbox) FindDefinition(symbol string) Result {
	if strings.TrimSpace(symbol) == "" {
		return fail("symbol is empty; expected: FIND_DEFINITION <symbol>")
	}
	pattern := fmt.Sprintf(`^[A-Za-z_].*[* 	]%s[ 	]*(\(|=)|^%s[ 	]*\(`, symbol, symbol)
	out, code, err := t.runSearcher("grep", "-rnE", "--binary-files=without-match", "-e", pattern, t.ws.Root())
	if err != nil {
		return fail("run grep: %v", err)
	}
	if code == 1 || strings.TrimSpace(out) == "" {
		return ok("no definition candidates for %q", symbol)
	}
	if code > 1 {
		return fail("grep failed:\n%s", out)
	}
	return t.cappedMatches(out, fmt.Sprintf("definition candidates for %q", symbol))
}

// FindReferences searches for every occurrence of a symbol as a whole word.
func (t *Toolbox) FindReferences(symbol string) Result {
	if strings.TrimSpace(symbol) == "" {
		return fail("symbol is empty; expected: FIND_REFERENCES <symbol>")
	}
	out, code, err := t.runSearcher("grep", "-rnw", "--binary-files=without-match", "-e", symbol, t.ws.Root())
	if err != nil {
		return fail("run grep: %v", err)
	}
	if code == 1 {
		return ok("no references to %q", symbol)
	}
	if code > 1 {
		return fail("grep failed:\n%s", out)
	}
	return t.cappedMatches(out, fmt.Sprintf("references to %q", symbol))
}

func (t *Toolbox) resolveSearchRoot(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return t.ws.Root(), nil
	}
	return t.ws.Resolve(path)
}

func (t *Toolbox) runSearcher(name string, args ...string) (string, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(t.limits.CommandTimeoutMS)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = t.ws.Root()
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	if err != nil {
		if ee, okExit := err.(*exec.ExitError); okExit {
			return buf.String(), ee.ExitCode(), nil
		}
		return "", -1, err
	}
	return buf.String(), 0, nil
}

func (t *Toolbox) cappedMatches(out, what string) Result {
	// Paths come back absolute; report them repo-relative like the model
	// supplied them.
	out = strings.ReplaceAll(out, t.ws.Root()+"/", "")
	total := strings.Count(strings.TrimRight(out, "\n"), "\n") + 1
	capped, truncated := truncateLines(out, t.limits.SearchMaxLines, "")
	msg := fmt.Sprintf("%s:\n```text\n%s\n```", what, strings.TrimRight(capped, "\n"))
	if truncated {
		msg = fmt.Sprintf("%s (showing %d of %d lines):\n```text\n%s\n```",
			what, t.limits.SearchMaxLines, total, strings.TrimRight(capped, "\n"))
	}
	return Result{OK: true, Message: msg, Truncated: truncated}
}
