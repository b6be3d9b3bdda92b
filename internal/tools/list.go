package tools

import (
	"os"
	"sort"
	"strings"
)

// ListDir 列出目录项，默认通过 git check-ignore 过滤被忽略的条目；
// showIgnored 为 true 时关闭过滤。
// ListDir returns sorted entry names. Version-control-ignored entries are
// filtered out by default through the git ignore-check facility; showIgnored
// disables the filtering.
func (t *Toolbox) ListDir(path string, showIgnored bool) Result {
	if strings.TrimSpace(path) == "" {
		path = "."
	}
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return fail("%v", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return fail("path does not exist: %s", path)
	}
	if !info.IsDir() {
		return fail("path is not a directory: %s", path)
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return fail("list directory %s: %v", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !showIgnored && t.git.CheckIgnore(resolved, name) {
			continue
		}
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		return ok("(empty or all entries ignored)")
	}
	return ok("```text\n%s\n```", strings.Join(names, "\n"))
}
