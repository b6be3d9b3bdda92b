package tools

import (
	"os"
	"strings"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/directive"
)

// EditFile 基于唯一子串的精确替换。旧文本必须在文件中恰好出现一次才会
// 执行替换：这一唯一性约束是本编辑模式比盲目套 unified diff 更安全的
// 核心正确性保证。
// EditFile performs exact-substring replacement. The old text must occur in
// the file exactly once before any replacement happens: that uniqueness
// constraint is the core correctness guarantee that makes this edit mode
// safer than blind unified-diff application.
func (t *Toolbox) EditFile(path, oldText, newText string) Result {
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return fail("%v", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return fail("file does not exist: %s", path)
	}
	if info.IsDir() {
		return fail("path is not a file: %s", path)
	}

	content, err := readTextFile(resolved)
	if err != nil {
		return fail("read %s: %v", path, err)
	}

	count := strings.Count(content, oldText)
	switch {
	case count == 0:
		// Echo the literal old text back so the model can diff its memory
		// against the file.
		return fail("could not find the OLD text in %s\n\nMake sure you copied the exact text from the file.\nThe OLD text must match exactly, including all whitespace.\n\nYou provided:\n<<<\n%s\n>>>", path, oldText)
	case count > 1:
		return fail("the OLD text appears %d times in %s\n\nThe OLD text must be unique in the file.\nPlease include more surrounding context to make it unique.\n\nYou provided:\n<<<\n%s\n>>>", count, path, oldText)
	}

	updated := strings.Replace(content, oldText, newText, 1)
	if err := os.WriteFile(resolved, []byte(updated), 0o644); err != nil {
		return fail("write %s: %v", path, err)
	}
	return ok("successfully edited %s", path)
}

// EditMultiple 逐项应用 (file, old, new) 三元组；任何一项失败即停止并
// 报告已应用与未应用的数量，后续项不再尝试。
// EditMultiple applies (file, old, new) triples in order. The first failing
// entry stops the batch and the result reports how many were applied; later
// entries are not attempted.
func (t *Toolbox) EditMultiple(edits []directive.FileEdit) Result {
	if len(edits) == 0 {
		return fail("edit list is empty; expected a JSON array of {file, old, new} objects")
	}
	applied := 0
	for i, e := range edits {
		if strings.TrimSpace(e.File) == "" {
			return fail("edit %d of %d: missing \"file\" field (%d applied before this)", i+1, len(edits), applied)
		}
		res := t.EditFile(e.File, e.Old, e.New)
		if !res.OK {
			return fail("edit %d of %d (%s) failed after %d applied:\n%s", i+1, len(edits), e.File, applied, res.Message)
		}
		applied++
	}
	files := make([]string, 0, len(edits))
	for _, e := range edits {
		files = append(files, e.File)
	}
	return ok("applied %d edits: %s", applied, strings.Join(files, ", "))
}

// WriteFile 整文件写入，必要时创建父目录 / whole-file write, creating parents.
func (t *Toolbox) WriteFile(path, content string) Result {
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return fail("%v", err)
	}
	parentRel := parentOf(path)
	parent, err := t.ws.Resolve(parentRel)
	if err != nil {
		return fail("resolve parent directory: %v", err)
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fail("create parent directories for %s: %v", path, err)
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return fail("write %s: %v", path, err)
	}
	return ok("successfully wrote %s (%d bytes)", path, len(content))
}

func parentOf(path string) string {
	idx := strings.LastIndexByte(strings.TrimRight(path, "/"), '/')
	if idx <= 0 {
		return "."
	}
	return path[:idx]
}
