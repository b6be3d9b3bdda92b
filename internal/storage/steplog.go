package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Manager 管理磁盘上的运行产物：每步一份原始回复日志，外加 sqlite
// 归档的库文件位置。
// Manager owns on-disk run artifacts: one raw-reply log per step, plus the
// location of the sqlite archive file.
type Manager struct {
	baseDir string
	logsDir string
}

func NewManager(baseDir string) (*Manager, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		return nil, fmt.Errorf("storage base dir is empty")
	}
	m := &Manager{
		baseDir: baseDir,
		logsDir: filepath.Join(baseDir, "logs"),
	}
	for _, dir := range []string{m.baseDir, m.logsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return m, nil
}

func (m *Manager) BaseDir() string { return m.baseDir }
func (m *Manager) LogsDir() string { return m.logsDir }

// DatabasePath is where the sqlite run archive lives.
func (m *Manager) DatabasePath() string {
	return filepath.Join(m.baseDir, "runs.db")
}

// WriteStepLog 把模型的原始回复按步落盘，文件名带步号与 UTC 时间戳，
// 便于事后逐步重放一次运行。
// WriteStepLog persists the model's raw reply for one step. The filename
// carries the step number and a UTC timestamp so a run can be replayed
// step by step afterwards.
func (m *Manager) WriteStepLog(step int, reply string) (string, error) {
	stamp := time.Now().UTC().Format("20060102T150405Z")
	name := fmt.Sprintf("agent_step_%d_%s.txt", step, stamp)
	path := filepath.Join(m.logsDir, name)
	if err := os.WriteFile(path, []byte(reply), 0o644); err != nil {
		return "", fmt.Errorf("write step log: %w", err)
	}
	return path, nil
}

// ListStepLogs returns step log paths sorted by name (step order within a
// run, since the timestamp is the tiebreaker).
func (m *Manager) ListStepLogs() ([]string, error) {
	entries, err := os.ReadDir(m.logsDir)
	if err != nil {
		return nil, fmt.Errorf("read logs dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "agent_step_") {
			continue
		}
		paths = append(paths, filepath.Join(m.logsDir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
