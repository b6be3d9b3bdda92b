package tools

import (
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/security"
)

// GitManager 对固定参数的 git 调用做薄封装，并缓存可用性探测结果。
// GitManager wraps fixed-argument git invocations and caches the
// availability probe. It is also the VCS facade used by the validation cycle.
type GitManager struct {
	ws        *security.Workspace
	once      sync.Once
	available bool
	isRepo    bool
}

func NewGitManager(ws *security.Workspace) *GitManager {
	return &GitManager{ws: ws}
}

// Check returns git availability and repository status, probed once.
func (m *GitManager) Check() (available bool, isRepo bool) {
	m.once.Do(func() {
		if err := exec.Command("git", "--version").Run(); err != nil {
			return
		}
		m.available = true
		m.isRepo = exec.Command("git", "-C", m.ws.Root(), "rev-parse", "--git-dir").Run() == nil
	})
	return m.available, m.isRepo
}

func (m *GitManager) run(timeout time.Duration, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", m.ws.Root()}, args...)...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

const gitTimeout = 60 * time.Second

// CheckIgnore reports whether an entry inside dir is version-control-ignored.
// Exit code 0 means ignored; anything else (including git missing) means not.
func (m *GitManager) CheckIgnore(dir, name string) bool {
	if available, _ := m.Check(); !available {
		return false
	}
	cmd := exec.Command("git", "check-ignore", "-q", name)
	cmd.Dir = dir
	return cmd.Run() == nil
}

func (m *GitManager) guard() (Result, bool) {
	available, isRepo := m.Check()
	if !available {
		return fail("git is not installed on this host"), false
	}
	if !isRepo {
		return fail("workspace is not a git repository"), false
	}
	return Result{}, true
}

// Status returns short-form working tree status.
func (t *Toolbox) GitStatus() Result {
	if res, okGit := t.git.guard(); !okGit {
		return res
	}
	out, err := t.git.run(gitTimeout, "status", "--short")
	if err != nil {
		return fail("git status failed:\n%s", out)
	}
	if strings.TrimSpace(out) == "" {
		return ok("working tree clean")
	}
	return ok("```text\n%s\n```", strings.TrimRight(out, "\n"))
}

// GitDiff shows working-tree changes, optionally scoped to one path.
func (t *Toolbox) GitDiff(path string) Result {
	if res, okGit := t.git.guard(); !okGit {
		return res
	}
	args := []string{"diff"}
	if strings.TrimSpace(path) != "" {
		resolved, err := t.ws.Resolve(path)
		if err != nil {
			return fail("%v", err)
		}
		args = append(args, "--", resolved)
	}
	out, err := t.git.run(gitTimeout, args...)
	if err != nil {
		return fail("git diff failed:\n%s", out)
	}
	if strings.TrimSpace(out) == "" {
		return ok("no changes")
	}
	capped, truncated := truncateBytes(out, t.limits.DiffMaxBytes)
	return Result{OK: true, Truncated: truncated,
		Message: "```diff\n" + strings.TrimRight(capped, "\n") + "\n```"}
}

// GitCommit stages all changes first, then commits with the given message.
func (t *Toolbox) GitCommit(message string) Result {
	if res, okGit := t.git.guard(); !okGit {
		return res
	}
	if strings.TrimSpace(message) == "" {
		return fail("commit message is empty; expected: GIT_COMMIT <message>")
	}
	if out, err := t.git.run(gitTimeout, "add", "-A"); err != nil {
		return fail("git add failed:\n%s", out)
	}
	out, err := t.git.run(gitTimeout, "commit", "-m", message)
	if err != nil {
		if strings.Contains(out, "nothing to commit") {
			return ok("nothing to commit; working tree clean")
		}
		return fail("git commit failed:\n%s", out)
	}
	return ok("```text\n%s\n```", strings.TrimRight(out, "\n"))
}

// RevertAll discards every uncommitted change in the working tree.
func (t *Toolbox) RevertAll() Result {
	if res, okGit := t.git.guard(); !okGit {
		return res
	}
	if out, err := t.git.run(gitTimeout, "checkout", "HEAD", "--", "."); err != nil {
		return fail("git checkout failed:\n%s", out)
	}
	return ok("all uncommitted changes reverted")
}

// RevertOne restores a single file to its committed state.
func (t *Toolbox) RevertOne(path string) Result {
	if res, okGit := t.git.guard(); !okGit {
		return res
	}
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return fail("%v", err)
	}
	if out, err := t.git.run(gitTimeout, "checkout", "HEAD", "--", resolved); err != nil {
		return fail("git checkout failed for %s:\n%s", path, out)
	}
	return ok("restored %s to its committed state", path)
}

// CommitAll stages everything and commits; used by the validation cycle.
// The second return distinguishes "nothing to commit" from real failures.
func (m *GitManager) CommitAll(message string) (string, bool, error) {
	if out, err := m.run(gitTimeout, "add", "-A"); err != nil {
		return out, false, err
	}
	out, err := m.run(gitTimeout, "commit", "-m", message)
	if err != nil && strings.Contains(out, "nothing to commit") {
		return out, true, nil
	}
	return out, false, err
}

// Push pushes the current branch; failures are the caller's to downgrade.
func (m *GitManager) Push() (string, error) {
	return m.run(gitTimeout, "push")
}
