package tools

import (
	"fmt"
	"strings"
)

// Result 每个工具返回的有界文本结果：成功/失败标记加人类可读消息。
// 工具层的失败全部降级为 error Result 反馈给模型，绝不向上抛异常。
// Result is the bounded textual outcome of one tool operation: a success or
// failure tag plus a human-readable message. Every tool failure degrades to
// an error Result fed back to the model; nothing escapes as a host error.
type Result struct {
	OK        bool
	Message   string
	Truncated bool
	TimedOut  bool
}

func ok(format string, args ...any) Result {
	return Result{OK: true, Message: fmt.Sprintf(format, args...)}
}

func fail(format string, args ...any) Result {
	return Result{OK: false, Message: fmt.Sprintf(format, args...)}
}

// truncateLines bounds a multi-line payload to maxLines, appending a
// deterministic "showing N of M" marker so the model knows more exists.
func truncateLines(text string, maxLines int, hint string) (string, bool) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if maxLines <= 0 || len(lines) <= maxLines {
		return text, false
	}
	kept := lines[:maxLines]
	marker := fmt.Sprintf("[... showing %d of %d lines ...]", maxLines, len(lines))
	if hint != "" {
		marker += "\n" + hint
	}
	return strings.Join(kept, "\n") + "\n" + marker, true
}

// truncateBytes bounds a payload by size, cutting at a line boundary where
// possible. Same input always yields the same truncation.
func truncateBytes(text string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return text, false
	}
	cut := text[:maxBytes]
	if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "\n[... output truncated ...]", true
}
