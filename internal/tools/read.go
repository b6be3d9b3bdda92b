package tools

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ReadFile 返回文件内容，超过字符上限时按行截断并报告隐藏了多少。
// ReadFile returns file content up to the character ceiling. On truncation it
// reports lines shown vs total plus the remaining count, and points the model
// at READ_LINES / SCAN_FILE for paging.
func (t *Toolbox) ReadFile(path string) Result {
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return fail("%v", err)
	}
	text, err := readTextFile(resolved)
	if err != nil {
		return fail("read %s: %v", path, err)
	}

	maxChars := t.limits.ReadMaxChars
	if len(text) <= maxChars {
		return ok("```text\n%s\n```", strings.TrimRight(text, "\n"))
	}

	lines := strings.SplitAfter(text, "\n")
	var b strings.Builder
	shown := 0
	for _, line := range lines {
		if b.Len()+len(line) > maxChars {
			break
		}
		b.WriteString(line)
		shown++
	}
	total := len(lines)
	if strings.HasSuffix(text, "\n") {
		total--
	}
	remaining := total - shown
	return Result{
		OK:        true,
		Truncated: true,
		Message: fmt.Sprintf(
			"```text\n%s\n[... FILE TRUNCATED: showing %d/%d lines (%d/%d chars) ...]\n[... %d more lines not shown; use READ_LINES for a specific range or SCAN_FILE for an outline ...]\n```",
			strings.TrimRight(b.String(), "\n"), shown, total, b.Len(), len(text), remaining),
	}
}

// ReadLines 1 起始的闭区间行读取；起点越界报错，终点越界收敛到文件末尾。
// ReadLines reads a 1-indexed inclusive line range. An out-of-range start is
// rejected; an out-of-range end is clamped. Each output line is prefixed with
// its absolute line number.
func (t *Toolbox) ReadLines(path string, start, end int) Result {
	if start < 1 {
		return fail("start line must be >= 1, got %d", start)
	}
	if end < start {
		return fail("end line %d is before start line %d", end, start)
	}
	resolved, err := t.ws.Resolve(path)
	if err != nil {
		return fail("%v", err)
	}
	text, err := readTextFile(resolved)
	if err != nil {
		return fail("read %s: %v", path, err)
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if start > len(lines) {
		return fail("start line %d is past end of file (%d lines)", start, len(lines))
	}
	if end > len(lines) {
		end = len(lines)
	}

	var b strings.Builder
	width := len(strconv.Itoa(end))
	for i := start; i <= end; i++ {
		fmt.Fprintf(&b, "%*d: %s\n", width, i, lines[i-1])
	}
	return ok("lines %d-%d of %d:\n```text\n%s```", start, end, len(lines), b.String())
}

// readTextFile reads as UTF-8 text with invalid byte sequences replaced,
// never failing on decode.
func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError)), nil
}

// ParseLineRange parses "path start end" or "path start-end" arguments.
func ParseLineRange(argument string) (path string, start, end int, err error) {
	fields := strings.Fields(argument)
	if len(fields) == 2 {
		if s, e, ok := strings.Cut(fields[1], "-"); ok {
			fields = []string{fields[0], s, e}
		}
	}
	if len(fields) != 3 {
		return "", 0, 0, fmt.Errorf("expected: <path> <start> <end> (1-indexed, inclusive)")
	}
	start, err = strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, 0, fmt.Errorf("start line %q is not a number", fields[1])
	}
	end, err = strconv.Atoi(fields[2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("end line %q is not a number", fields[2])
	}
	return fields[0], start, end, nil
}
