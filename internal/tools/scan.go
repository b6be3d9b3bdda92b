package tools

import (
	"fmt"
	"strings"
)

// ScanFile 按行形状启发式提取文件结构（函数、结构体、typedef、宏、原型、
// 注释标题），给出不含函数体的压缩地图。
// ScanFile extracts a heuristic outline of a file by line shape: function
// definitions, structs, typedefs, macros, prototypes and comment headers.
// The result is a compressed map of the file without its bodies.
func (t *Toolbox) ScanFile(path string) Result {
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return fail("%v", err)
	}
	text, err := readTextFile(resolved)
	if err != nil {
		return fail("read %s: %v", path, err)
	}

	lines := strings.Split(text, "\n")
	var b strings.Builder
	matched := 0
	for i, line := range lines {
		label := classifyStructuralLine(line, lines, i)
		if label == "" {
			continue
		}
		fmt.Fprintf(&b, "%5d: [%s] %s\n", i+1, label, strings.TrimRight(line, " \t"))
		matched++
	}
	if matched == 0 {
		return ok("no structural lines recognized in %s (%d lines); the file may not be C-like source", path, len(lines))
	}
	out, _ := truncateLines(b.String(), t.limits.SearchMaxLines,
		"use READ_LINES around an interesting line number for detail")
	return ok("structural outline of %s (%d lines, %d structural):\n```text\n%s```", path, len(lines), matched, strings.TrimRight(out, "\n")+"\n")
}

// classifyStructuralLine decides by shape alone. It never parses C properly
// and does not need to; the outline only has to orient the model.
func classifyStructuralLine(line string, lines []string, idx int) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(trimmed, "#define"):
		return "macro"
	case strings.HasPrefix(trimmed, "#include"):
		return "include"
	case strings.HasPrefix(trimmed, "struct ") && (strings.HasSuffix(trimmed, "{") || strings.HasSuffix(trimmed, ";")):
		return "struct"
	case strings.HasPrefix(trimmed, "union ") && strings.HasSuffix(trimmed, "{"):
		return "union"
	case strings.HasPrefix(trimmed, "enum ") && strings.HasSuffix(trimmed, "{"):
		return "enum"
	case strings.HasPrefix(trimmed, "typedef "):
		return "typedef"
	case strings.HasPrefix(trimmed, "/*") && (strings.Contains(trimmed, "---") || strings.Contains(trimmed, "===") || strings.Contains(trimmed, "***")):
		return "section"
	}
	// Function definition: an unindented line with an identifier followed by
	// '(' and either an opening brace here or on the next line.
	if line == "" || line[0] == ' ' || line[0] == '\t' {
		return ""
	}
	open := strings.IndexByte(trimmed, '(')
	if open <= 0 || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") {
		return ""
	}
	if strings.HasSuffix(trimmed, ";") {
		return "prototype"
	}
	if strings.HasSuffix(trimmed, "{") {
		return "func"
	}
	if strings.HasSuffix(trimmed, ")") {
		// K&R style: brace on its own on one of the following lines.
		for j := idx + 1; j < len(lines) && j <= idx+2; j++ {
			next := strings.TrimSpace(lines[j])
			if next == "{" {
				return "func"
			}
			if next != "" {
				break
			}
		}
	}
	return ""
}
