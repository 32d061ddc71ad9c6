package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/timekeep/internal/db"
	"github.com/alexanderramin/timekeep/internal/domain"
)

const timeLogColumns = `id, session_id, task_id, user_id, start_time, end_time,
		duration_seconds, description, is_billable, created_at`

// SQLiteTimeLogRepo implements TimeLogRepo using a SQLite database.
type SQLiteTimeLogRepo struct {
	db db.DBTX
}

// NewSQLiteTimeLogRepo creates a new SQLiteTimeLogRepo. Pass a *sql.Tx to
// scope the repository to a transaction.
func NewSQLiteTimeLogRepo(db db.DBTX) *SQLiteTimeLogRepo {
	return &SQLiteTimeLogRepo{db: db}
}

// Create appends a TimeLog. Re-inserting a log that is already stored under
// the same session and ID is a no-op, so an unacknowledged write can be
// retried safely. A different log for an already-logged session is rejected
// with ErrDuplicate.
func (r *SQLiteTimeLogRepo) Create(ctx context.Context, l *domain.TimeLog) error {
	query := `INSERT INTO time_logs (` + timeLogColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query,
		l.ID,
		l.SessionID,
		l.TaskID,
		l.UserID,
		formatTime(l.StartTime),
		formatTime(l.EndTime),
		l.DurationSeconds,
		l.Description,
		boolToInt(l.IsBillable),
		formatTime(l.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("inserting time log %s: %w", l.ID, ErrDuplicate)
		}
		return fmt.Errorf("inserting time log: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting time log: %w", err)
	}
	if n == 1 {
		return nil
	}

	existing, err := r.GetBySession(ctx, l.SessionID)
	if err != nil {
		return fmt.Errorf("checking existing time log: %w", err)
	}
	if existing.ID != l.ID {
		return fmt.Errorf("session %s already logged as %s: %w", l.SessionID, existing.ID, ErrDuplicate)
	}
	return nil
}

func (r *SQLiteTimeLogRepo) GetByID(ctx context.Context, id string) (*domain.TimeLog, error) {
	query := `SELECT ` + timeLogColumns + ` FROM time_logs WHERE id = ?`
	return r.scanTimeLog(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteTimeLogRepo) GetBySession(ctx context.Context, sessionID string) (*domain.TimeLog, error) {
	query := `SELECT ` + timeLogColumns + ` FROM time_logs WHERE session_id = ?`
	return r.scanTimeLog(r.db.QueryRowContext(ctx, query, sessionID))
}

func (r *SQLiteTimeLogRepo) List(ctx context.Context, f TimeLogFilter) ([]*domain.TimeLog, error) {
	var logs []*domain.TimeLog
	err := r.Stream(ctx, f, func(l *domain.TimeLog) error {
		logs = append(logs, l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// Stream calls fn for every matching log in start_time order without
// buffering the result set. fn must not use the same database handle: the
// cursor holds a connection until Stream returns.
func (r *SQLiteTimeLogRepo) Stream(ctx context.Context, f TimeLogFilter, fn func(*domain.TimeLog) error) error {
	where, args := timeLogWhere(f)
	query := `SELECT ` + timeLogColumns + ` FROM time_logs` + where + ` ORDER BY start_time, id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying time logs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		l, err := r.scanTimeLogRow(rows)
		if err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating time logs: %w", err)
	}
	return nil
}

// timeLogWhere builds the WHERE clause for a TimeLogFilter.
func timeLogWhere(f TimeLogFilter) (string, []any) {
	var conds []string
	var args []any
	if !f.Start.IsZero() {
		conds = append(conds, "start_time >= ?")
		args = append(args, formatTime(f.Start))
	}
	if !f.End.IsZero() {
		conds = append(conds, "start_time < ?")
		args = append(args, formatTime(f.End))
	}
	if f.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.TaskID != "" {
		conds = append(conds, "task_id = ?")
		args = append(args, f.TaskID)
	}
	if f.TaskIDs != nil {
		if len(f.TaskIDs) == 0 {
			// An explicit empty task set matches nothing.
			conds = append(conds, "0")
		} else {
			conds = append(conds, "task_id IN ("+placeholders(len(f.TaskIDs))+")")
			for _, id := range f.TaskIDs {
				args = append(args, id)
			}
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteTimeLogRepo) scanTimeLog(row *sql.Row) (*domain.TimeLog, error) {
	l, err := r.scanTimeLogRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("time log: %w", ErrNotFound)
		}
		return nil, err
	}
	return l, nil
}

func (r *SQLiteTimeLogRepo) scanTimeLogRow(row rowScanner) (*domain.TimeLog, error) {
	var l domain.TimeLog
	var startStr, endStr, createdStr string
	var billable int

	err := row.Scan(
		&l.ID, &l.SessionID, &l.TaskID, &l.UserID, &startStr, &endStr,
		&l.DurationSeconds, &l.Description, &billable, &createdStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning time log: %w", err)
	}
	l.IsBillable = intToBool(billable)

	if l.StartTime, err = parseTime(startStr); err != nil {
		return nil, fmt.Errorf("parsing start_time: %w", err)
	}
	if l.EndTime, err = parseTime(endStr); err != nil {
		return nil, fmt.Errorf("parsing end_time: %w", err)
	}
	if l.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &l, nil
}
