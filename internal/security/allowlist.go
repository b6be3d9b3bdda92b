package security

import (
	"errors"
	"fmt"
	"strings"
)

// Allowlist 决定 RUN_COMMAND 是否可以执行：命令的首个词必须与某条
// 运维方提供的条目完全相等，或以 "条目 + 空格" 为前缀。
// Allowlist decides whether a RUN_COMMAND may execute: the command's leading
// token must equal an operator-supplied entry exactly, or the whole command
// must start with "entry + space".
type Allowlist struct {
	entries []string
}

func NewAllowlist(entries []string) *Allowlist {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e != "" {
			out = append(out, e)
		}
	}
	return &Allowlist{entries: out}
}

func (a *Allowlist) Empty() bool {
	return len(a.entries) == 0
}

func (a *Allowlist) Entries() []string {
	return append([]string(nil), a.entries...)
}

// Permitted reports whether the command may run and, when it may not, the
// reason fed back to the model.
func (a *Allowlist) Permitted(command string) (bool, string) {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return false, "command is empty"
	}
	words, err := parseShellWords(trimmed)
	if err != nil || len(words) == 0 {
		// 解析失败按拒绝处理 / parse failure fails closed
		return false, "command could not be parsed (unbalanced quotes or dangling escape)"
	}
	head := words[0]
	for _, entry := range a.entries {
		if head == entry {
			return true, ""
		}
		if strings.HasPrefix(trimmed, entry+" ") {
			return true, ""
		}
	}
	return false, fmt.Sprintf("command %q is not on the allowed command list", head)
}

func parseShellWords(input string) ([]string, error) {
	var (
		out         []string
		cur         strings.Builder
		inSingle    bool
		inDouble    bool
		escaped     bool
		justFlushed bool
	)

	flush := func() {
		if cur.Len() > 0 || justFlushed {
			out = append(out, cur.String())
			cur.Reset()
			justFlushed = false
		}
	}

	for _, r := range input {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && !inSingle:
			escaped = true
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			justFlushed = true
		case r == '"' && !inSingle:
			inDouble = !inDouble
			justFlushed = true
		case isSpace(r) && !inSingle && !inDouble:
			flush()
		default:
			cur.WriteRune(r)
			justFlushed = false
		}
	}

	if escaped {
		return nil, errors.New("dangling escape")
	}
	if inSingle || inDouble {
		return nil, fmt.Errorf("unmatched quote")
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out, nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}
