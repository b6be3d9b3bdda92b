package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// Setup 构建运行期 logger：stderr 上给人看的文本行，外加一份写进
// 运行日志文件的 JSON 流。返回 logger 与文件关闭函数。
// Setup builds the runtime logger: human-readable text lines on stderr plus
// a JSON stream into the run log file. Returns the logger and a close func
// for the file.
func Setup(baseDir string, verbose bool) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}

	closeFn := func() error { return nil }
	if baseDir != "" {
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		path := filepath.Join(baseDir, "agent.log.jsonl")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open run log: %w", err)
		}
		handlers = append(handlers,
			slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closeFn = f.Close
	}

	logger := slog.New(slogmulti.Fanout(handlers...))
	return logger, closeFn, nil
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
