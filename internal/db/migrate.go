package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		type         TEXT NOT NULL DEFAULT 'task',
		priority     TEXT NOT NULL DEFAULT 'medium'
		             CHECK(priority IN ('low','medium','high','urgent')),
		status       TEXT NOT NULL DEFAULT 'todo'
		             CHECK(status IN ('todo','in_progress','done','cancelled')),
		project_id   TEXT NOT NULL DEFAULT '',
		completed_at TEXT,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed_at)`,

	// time_logs is append-only. session_id is unique so a retried stop can
	// never record the same session twice.
	`CREATE TABLE IF NOT EXISTS time_logs (
		id               TEXT PRIMARY KEY,
		session_id       TEXT NOT NULL UNIQUE,
		task_id          TEXT NOT NULL,
		user_id          TEXT NOT NULL,
		start_time       TEXT NOT NULL,
		end_time         TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL CHECK(duration_seconds >= 0),
		description      TEXT NOT NULL DEFAULT '',
		is_billable      INTEGER NOT NULL DEFAULT 1,
		created_at       TEXT NOT NULL,
		CHECK(end_time > start_time)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_time_logs_user_start ON time_logs(user_id, start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_time_logs_task_start ON time_logs(task_id, start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_time_logs_start ON time_logs(start_time)`,

	// active_sessions holds at most one row per user.
	`CREATE TABLE IF NOT EXISTS active_sessions (
		id                  TEXT PRIMARY KEY,
		user_id             TEXT NOT NULL UNIQUE,
		task_id             TEXT NOT NULL,
		state               TEXT NOT NULL
		                    CHECK(state IN ('RUNNING','PAUSED','CLOSED')),
		segment_start       TEXT,
		accumulated_seconds INTEGER NOT NULL DEFAULT 0,
		description         TEXT NOT NULL DEFAULT '',
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,

	// A CLOSED row is a stop whose time log is not stored yet. These columns
	// carry the log so another process can finish the stop.
	`ALTER TABLE active_sessions ADD COLUMN log_id TEXT`,
	`ALTER TABLE active_sessions ADD COLUMN closed_at TEXT`,
	`ALTER TABLE active_sessions ADD COLUMN is_billable INTEGER`,
}
