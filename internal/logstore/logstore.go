// ABOUTME: Durable ring of hook execution outcomes backed by SQLite
// ABOUTME: Best-effort appends with capacity pruning; queries by recency, hook id, free text

package logstore

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	_ "modernc.org/sqlite"

	"github.com/agentdeck/agentdeck/internal/hook"
	"github.com/agentdeck/agentdeck/internal/log"
)

// DefaultCap is the number of entries retained before pruning.
const DefaultCap = 1000

// Entry is one persisted execution outcome.
type Entry struct {
	HookID      string `json:"hookId"`
	HookName    string `json:"hookName"`
	Success     bool   `json:"success"`
	Result      string `json:"result,omitempty"`
	Error       string `json:"error,omitempty"`
	TimestampMs int64  `json:"timestampMs"`
	DurationMs  int64  `json:"durationMs"`
}

// Store persists execution outcomes. Appends are best-effort: a logging
// failure must never break event processing.
type Store struct {
	db  *sql.DB
	cap int
}

const schema = `
CREATE TABLE IF NOT EXISTS hook_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	hook_id     TEXT NOT NULL,
	hook_name   TEXT NOT NULL,
	success     INTEGER NOT NULL,
	result      TEXT,
	error       TEXT,
	ts_ms       INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_hook_log_hook ON hook_log(hook_id);
CREATE INDEX IF NOT EXISTS idx_hook_log_ts ON hook_log(ts_ms);
`

// Open creates or opens the log database at path. Use ":memory:" for an
// ephemeral store.
func Open(path string, capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCap
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open log db %s: %w", path, err)
	}
	// The drain worker and ingress may append concurrently; a single
	// connection serializes access through database/sql.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init log schema: %w", err)
	}

	return &Store{db: db, cap: capacity}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records an execution result. Failures are logged and swallowed.
func (s *Store) Append(res hook.ExecutionResult) {
	_, err := s.db.Exec(`
		INSERT INTO hook_log (hook_id, hook_name, success, result, error, ts_ms, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.HookID, res.HookName, boolInt(res.Success),
		res.Value, res.Err, res.TimestampMs, res.DurationMs,
	)
	if err != nil {
		log.Warn("hook log append failed: %v", err)
		return
	}

	// Keep the ring bounded. Best-effort like the insert.
	_, err = s.db.Exec(`
		DELETE FROM hook_log WHERE id <= (
			SELECT id FROM hook_log ORDER BY id DESC LIMIT 1 OFFSET ?
		)`, s.cap)
	if err != nil {
		log.Warn("hook log prune failed: %v", err)
	}
}

// Recent returns the n most recent entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	return s.query(`
		SELECT hook_id, hook_name, success, result, error, ts_ms, duration_ms
		FROM hook_log ORDER BY id DESC LIMIT ?`, n)
}

// ByHook returns the n most recent entries for one hook id, newest first.
func (s *Store) ByHook(hookID string, n int) ([]Entry, error) {
	return s.query(`
		SELECT hook_id, hook_name, success, result, error, ts_ms, duration_ms
		FROM hook_log WHERE hook_id = ? ORDER BY id DESC LIMIT ?`, hookID, n)
}

// Search returns entries whose message content matches text, best match
// first. A coarse LIKE narrows candidates in SQL; fuzzy ranking orders
// them.
func (s *Store) Search(text string, n int) ([]Entry, error) {
	if strings.TrimSpace(text) == "" {
		return s.Recent(n)
	}

	like := "%" + text + "%"
	candidates, err := s.query(`
		SELECT hook_id, hook_name, success, result, error, ts_ms, duration_ms
		FROM hook_log
		WHERE hook_name LIKE ? OR result LIKE ? OR error LIKE ?
		ORDER BY id DESC LIMIT ?`, like, like, like, 10*n)
	if err != nil {
		return nil, err
	}

	messages := make([]string, len(candidates))
	for i, e := range candidates {
		messages[i] = e.HookName + " " + e.Result + " " + e.Error
	}

	matches := fuzzy.Find(text, messages)
	sort.Stable(matches)

	out := make([]Entry, 0, n)
	for _, m := range matches {
		out = append(out, candidates[m.Index])
		if len(out) == n {
			break
		}
	}
	return out, nil
}

// Count returns the number of retained entries.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM hook_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count log entries: %w", err)
	}
	return n, nil
}

func (s *Store) query(q string, args ...any) ([]Entry, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query hook log: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var success int
		if err := rows.Scan(&e.HookID, &e.HookName, &success, &e.Result, &e.Error, &e.TimestampMs, &e.DurationMs); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		e.Success = success != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
