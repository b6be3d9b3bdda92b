package tools

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"time"
)

var (
	syntaxCompilerOnce sync.Once
	syntaxCompiler     string
)

// findCompiler picks the first available C compiler, detected once.
func findCompiler() string {
	syntaxCompilerOnce.Do(func() {
		for _, cc := range []string{"cc", "clang", "gcc"} {
			if _, err := exec.LookPath(cc); err == nil {
				syntaxCompiler = cc
				return
			}
		}
	})
	return syntaxCompiler
}

// CheckSyntax 以 -fsyntax-only 调用可用的编译器，只报告干净通过或
// 封顶后的诊断输出，不产生目标文件。
// CheckSyntax invokes an available compiler in syntax-only mode, reporting
// either a clean pass or the size-capped diagnostics. No object file is
// produced.
func (t *Toolbox) CheckSyntax(path string) Result {
	cc := findCompiler()
	if cc == "" {
		return fail("no C compiler found (tried cc, clang, gcc)")
	}
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return fail("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(t.limits.SyntaxTimeoutMS)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(ctx, cc, "-fsyntax-only", resolved)
	cmd.Dir = t.ws.Root()
	out := newCappedBuffer(t.limits.OutputLimitBytes)
	cmd.Stdout = out
	cmd.Stderr = out

	runErr := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fail("%s -fsyntax-only timed out on %s", cc, path)
	}
	diag := strings.ReplaceAll(out.String(), t.ws.Root()+"/", "")
	diag, _ = truncateBytes(diag, t.limits.DiffMaxBytes)
	if runErr != nil {
		return fail("%s reports syntax errors in %s:\n```text\n%s\n```", cc, path, strings.TrimSpace(diag))
	}
	if strings.TrimSpace(diag) != "" {
		return ok("%s: syntax OK with warnings for %s:\n```text\n%s\n```", cc, path, strings.TrimSpace(diag))
	}
	return ok("%s: syntax OK for %s", cc, path)
}
