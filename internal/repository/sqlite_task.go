package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timekeep/internal/db"
	"github.com/alexanderramin/timekeep/internal/domain"
)

const taskColumns = `id, title, type, priority, status, project_id, completed_at, created_at, updated_at`

// SQLiteTaskRepo implements TaskRepo using a SQLite database. It backs the
// default task directory.
type SQLiteTaskRepo struct {
	db db.DBTX
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo.
func NewSQLiteTaskRepo(db db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: db}
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.Title,
		t.Type,
		string(t.Priority),
		string(t.Status),
		t.ProjectID,
		nullableTimeToString(t.CompletedAt),
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("inserting task %s: %w", t.ID, ErrDuplicate)
		}
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	t, err := r.scanTaskRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return t, nil
}

// GetMany returns the known tasks among ids, keyed by ID. Unknown IDs are
// simply absent from the map.
func (r *SQLiteTaskRepo) GetMany(ctx context.Context, ids []string) (map[string]*domain.Task, error) {
	out := make(map[string]*domain.Task, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id IN (` + placeholders(len(ids)) + `)`
	tasks, err := r.queryTasks(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		out[t.ID] = t
	}
	return out, nil
}

func (r *SQLiteTaskRepo) List(ctx context.Context, f TaskFilter) ([]*domain.Task, error) {
	var conds []string
	var args []any
	if f.ProjectID != "" {
		conds = append(conds, "project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY project_id, title, id`
	return r.queryTasks(ctx, query, args...)
}

// ListCompletedBetween returns tasks that reached "done" inside [start, end).
func (r *SQLiteTaskRepo) ListCompletedBetween(ctx context.Context, start, end time.Time) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE status = 'done' AND completed_at >= ? AND completed_at < ?
		ORDER BY completed_at, id`
	return r.queryTasks(ctx, query, formatTime(start), formatTime(end))
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `UPDATE tasks SET title = ?, type = ?, priority = ?, status = ?, project_id = ?,
		completed_at = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		t.Title,
		t.Type,
		string(t.Priority),
		string(t.Status),
		t.ProjectID,
		nullableTimeToString(t.CompletedAt),
		formatTime(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("task %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteTaskRepo) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := r.scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

func (r *SQLiteTaskRepo) scanTaskRow(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var priority, status, createdStr, updatedStr string
	var completedAt sql.NullString

	err := row.Scan(&t.ID, &t.Title, &t.Type, &priority, &status, &t.ProjectID,
		&completedAt, &createdStr, &updatedStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	t.Priority = domain.TaskPriority(priority)
	t.Status = domain.TaskStatus(status)
	t.CompletedAt = parseNullableTime(completedAt)
	if t.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if t.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &t, nil
}
