package tools

import (
	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/security"
)

// Limits 工具层的有界输出与超时约束 / Output ceilings and timeouts for the tool layer.
type Limits struct {
	ReadMaxChars     int // READ_FILE character ceiling
	SearchMaxLines   int // search/find result line cap
	OutputLimitBytes int // subprocess output cap
	CommandTimeoutMS int // RUN_COMMAND wall clock
	SyntaxTimeoutMS  int // CHECK_SYNTAX wall clock (short: syntax only)
	DiffMaxBytes     int // git diff / validation output cap
}

func (l Limits) withDefaults() Limits {
	if l.ReadMaxChars <= 0 {
		l.ReadMaxChars = 50000
	}
	if l.SearchMaxLines <= 0 {
		l.SearchMaxLines = 200
	}
	if l.OutputLimitBytes <= 0 {
		l.OutputLimitBytes = 64 * 1024
	}
	if l.CommandTimeoutMS <= 0 {
		l.CommandTimeoutMS = 120000
	}
	if l.SyntaxTimeoutMS <= 0 {
		l.SyntaxTimeoutMS = 30000
	}
	if l.DiffMaxBytes <= 0 {
		l.DiffMaxBytes = 8192
	}
	return l
}

// Toolbox 把沙箱、命令白名单和限额绑在一起；所有操作接收已沙箱化的
// 相对路径并在仓库根目录内执行。
// Toolbox binds the sandbox, the command allowlist and the limits together;
// every operation takes a model-supplied relative path, resolves it through
// the sandbox, and acts inside the repository root only.
type Toolbox struct {
	ws        *security.Workspace
	allowlist *security.Allowlist
	limits    Limits
	git       *GitManager
}

func NewToolbox(ws *security.Workspace, allowlist *security.Allowlist, limits Limits) *Toolbox {
	return &Toolbox{
		ws:        ws,
		allowlist: allowlist,
		limits:    limits.withDefaults(),
		git:       NewGitManager(ws),
	}
}

// Git exposes the VCS facade for the validation cycle.
func (t *Toolbox) Git() *GitManager {
	return t.git
}
