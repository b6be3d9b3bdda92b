package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore 基于 SQLite (WAL 模式) 的运行归档
// SQLiteStore archives runs and their steps using SQLite with WAL mode
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// RunMeta describes one agent run.
type RunMeta struct {
	ID            int64
	WorkspaceRoot string
	Model         string
	Outcome       string
	StartedAt     string
	FinishedAt    string
}

// StepRecord is one control-loop step inside a run.
type StepRecord struct {
	RunID     int64
	Step      int
	Directive string
	OK        bool
	Summary   string
	LogPath   string
}

// NewSQLiteStore 创建并初始化 SQLite 数据库
// NewSQLiteStore creates and initializes a SQLite database
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// 启用 WAL 模式和优化 PRAGMA / Enable WAL and performance PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		workspace_root TEXT NOT NULL DEFAULT '',
		model          TEXT NOT NULL DEFAULT '',
		outcome        TEXT NOT NULL DEFAULT 'running',
		started_at     TEXT NOT NULL,
		finished_at    TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS steps (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id    INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		step      INTEGER NOT NULL,
		directive TEXT NOT NULL DEFAULT '',
		ok        INTEGER NOT NULL DEFAULT 0,
		summary   TEXT NOT NULL DEFAULT '',
		log_path  TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		UNIQUE(run_id, step)
	);

	CREATE INDEX IF NOT EXISTS idx_steps_run ON steps(run_id, step);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close 关闭数据库连接 / Close the database connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun records a new run and returns its id.
func (s *SQLiteStore) BeginRun(workspaceRoot, model string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO runs (workspace_root, model, outcome, started_at)
		VALUES (?, ?, 'running', ?)`,
		workspaceRoot, model, nowUTC())
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// FinishRun stamps the outcome and finish time.
func (s *SQLiteStore) FinishRun(runID int64, outcome string) error {
	_, err := s.db.Exec(`
		UPDATE runs SET outcome=?, finished_at=? WHERE id=?`,
		outcome, nowUTC(), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecordStep archives one control-loop step.
func (s *SQLiteStore) RecordStep(rec StepRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO steps (run_id, step, directive, ok, summary, log_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Step, rec.Directive, boolToInt(rec.OK),
		rec.Summary, rec.LogPath, nowUTC())
	if err != nil {
		return fmt.Errorf("insert step: %w", err)
	}
	return nil
}

// LoadRun returns one run's metadata.
func (s *SQLiteStore) LoadRun(runID int64) (RunMeta, error) {
	row := s.db.QueryRow(`
		SELECT id, workspace_root, model, outcome, started_at, finished_at
		FROM runs WHERE id=?`, runID)

	var meta RunMeta
	err := row.Scan(&meta.ID, &meta.WorkspaceRoot, &meta.Model,
		&meta.Outcome, &meta.StartedAt, &meta.FinishedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return RunMeta{}, fmt.Errorf("run not found: %d", runID)
		}
		return RunMeta{}, fmt.Errorf("load run: %w", err)
	}
	return meta, nil
}

// LoadSteps returns all archived steps of a run in order.
func (s *SQLiteStore) LoadSteps(runID int64) ([]StepRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, step, directive, ok, summary, log_path
		FROM steps WHERE run_id=? ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var records []StepRecord
	for rows.Next() {
		var rec StepRecord
		var okInt int
		if err := rows.Scan(&rec.RunID, &rec.Step, &rec.Directive,
			&okInt, &rec.Summary, &rec.LogPath); err != nil {
			continue
		}
		rec.OK = okInt != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
