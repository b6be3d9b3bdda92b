package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// RunCommand 仅当命令的首个词命中运维方白名单时才执行；固定超时，
// 输出按字节封顶。
// RunCommand executes only when the command's leading token matches the
// operator-supplied allowlist. It runs under a fixed wall-clock timeout and
// its combined output is size-capped.
func (t *Toolbox) RunCommand(command string) Result {
	if strings.TrimSpace(command) == "" {
		return fail("command is empty; expected: RUN_COMMAND <shell command>")
	}
	if t.allowlist == nil || t.allowlist.Empty() {
		return fail("no commands are allowed in this run (empty allowlist)")
	}
	if permitted, reason := t.allowlist.Permitted(command); !permitted {
		return fail("%s\nAllowed commands: %s", reason, strings.Join(t.allowlist.Entries(), ", "))
	}
	return t.execShell(command, t.limits.CommandTimeoutMS)
}

// CommandPermitted reports whether the allowlist would accept the command,
// without running it. Used by the interactive approval path.
func (t *Toolbox) CommandPermitted(command string) (bool, string) {
	if t.allowlist == nil || t.allowlist.Empty() {
		return false, "no commands are allowed in this run (empty allowlist)"
	}
	return t.allowlist.Permitted(command)
}

// RunApproved executes a command the operator approved interactively,
// bypassing the allowlist but keeping the timeout and output caps.
func (t *Toolbox) RunApproved(command string) Result {
	if strings.TrimSpace(command) == "" {
		return fail("command is empty")
	}
	return t.execShell(command, t.limits.CommandTimeoutMS)
}

// RunValidation executes the operator-configured validation command. It is
// operator-trusted and therefore not subject to the model's allowlist, but
// it still runs inside the workspace under its own timeout.
func (t *Toolbox) RunValidation(command string, timeoutMS int) Result {
	if strings.TrimSpace(command) == "" {
		return fail("validation command is empty")
	}
	if timeoutMS <= 0 {
		timeoutMS = t.limits.CommandTimeoutMS
	}
	return t.execShell(command, timeoutMS)
}

func (t *Toolbox) execShell(command string, timeoutMS int) Result {
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(timeoutMS)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Dir = t.ws.Root()

	stdout := newCappedBuffer(t.limits.OutputLimitBytes)
	stderr := newCappedBuffer(t.limits.OutputLimitBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	err := cmd.Run()
	dur := time.Since(start)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Result{
			TimedOut: true,
			Message: fmt.Sprintf("command timed out after %s:\n%s",
				dur.Round(time.Millisecond), combineOutput(stdout, stderr)),
		}
	}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return fail("command exited with code %d:\n%s", ee.ExitCode(), combineOutput(stdout, stderr))
		}
		return fail("run command: %v", err)
	}
	return ok("command succeeded in %s:\n%s", dur.Round(time.Millisecond), combineOutput(stdout, stderr))
}

func combineOutput(stdout, stderr *cappedBuffer) string {
	var b strings.Builder
	if s := strings.TrimSpace(stdout.String()); s != "" {
		b.WriteString("```text\n" + s + "\n```")
	}
	if s := strings.TrimSpace(stderr.String()); s != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("stderr:\n```text\n" + s + "\n```")
	}
	if b.Len() == 0 {
		return "(no output)"
	}
	return b.String()
}

// cappedBuffer 吞掉超出上限的写入并标记截断，避免失控子进程撑爆内存。
// cappedBuffer swallows writes past its cap and marks truncation so a
// runaway subprocess cannot blow up memory.
type cappedBuffer struct {
	max       int
	buf       bytes.Buffer
	truncated bool
}

func newCappedBuffer(max int) *cappedBuffer {
	if max <= 0 {
		max = 1 << 20
	}
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.truncated {
		return len(p), nil
	}
	remain := b.max - b.buf.Len()
	if remain <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > remain {
		_, _ = b.buf.Write(p[:remain])
		b.truncated = true
		return len(p), nil
	}
	_, err := b.buf.Write(p)
	return len(p), err
}

func (b *cappedBuffer) String() string {
	if !b.truncated {
		return b.buf.String()
	}
	var out bytes.Buffer
	_, _ = io.Copy(&out, bytes.NewReader(b.buf.Bytes()))
	out.WriteString("\n[output truncated]")
	return out.String()
}
