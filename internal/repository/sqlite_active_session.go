package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/timekeep/internal/db"
	"github.com/alexanderramin/timekeep/internal/domain"
)

const activeSessionColumns = `id, user_id, task_id, state, segment_start,
		accumulated_seconds, description, created_at, updated_at,
		log_id, closed_at, is_billable`

// SQLiteActiveSessionRepo is the durable mirror of the timer registry.
// The UNIQUE user_id column makes the one-session-per-user rule hold for
// every process sharing the database.
type SQLiteActiveSessionRepo struct {
	db db.DBTX
}

// NewSQLiteActiveSessionRepo creates a new SQLiteActiveSessionRepo.
func NewSQLiteActiveSessionRepo(db db.DBTX) *SQLiteActiveSessionRepo {
	return &SQLiteActiveSessionRepo{db: db}
}

// Create inserts a session row. Returns ErrDuplicate when the user already
// has a row.
func (r *SQLiteActiveSessionRepo) Create(ctx context.Context, s *domain.TimerSession) error {
	query := `INSERT INTO active_sessions (` + activeSessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	logID, closedAt, billable := pendingLogValues(s)
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.TaskID,
		string(s.State),
		nullableTimeToString(s.SegmentStart),
		s.AccumulatedSeconds,
		s.Description,
		formatTime(s.CreatedAt),
		formatTime(s.UpdatedAt),
		logID, closedAt, billable,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("inserting active session for %s: %w", s.UserID, ErrDuplicate)
		}
		return fmt.Errorf("inserting active session: %w", err)
	}
	return nil
}

func (r *SQLiteActiveSessionRepo) GetByID(ctx context.Context, id string) (*domain.TimerSession, error) {
	query := `SELECT ` + activeSessionColumns + ` FROM active_sessions WHERE id = ?`
	return r.scanSession(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteActiveSessionRepo) GetByUser(ctx context.Context, userID string) (*domain.TimerSession, error) {
	query := `SELECT ` + activeSessionColumns + ` FROM active_sessions WHERE user_id = ?`
	return r.scanSession(r.db.QueryRowContext(ctx, query, userID))
}

func (r *SQLiteActiveSessionRepo) List(ctx context.Context) ([]*domain.TimerSession, error) {
	query := `SELECT ` + activeSessionColumns + ` FROM active_sessions ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.TimerSession
	for rows.Next() {
		s, err := r.scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating active sessions: %w", err)
	}
	return sessions, nil
}

// Update replaces the mutable fields of a session row. Updating a closed
// session stores its pending log with it.
func (r *SQLiteActiveSessionRepo) Update(ctx context.Context, s *domain.TimerSession) error {
	query := `UPDATE active_sessions
		SET state = ?, segment_start = ?, accumulated_seconds = ?, description = ?, updated_at = ?,
		    log_id = ?, closed_at = ?, is_billable = ?
		WHERE id = ?`
	logID, closedAt, billable := pendingLogValues(s)
	res, err := r.db.ExecContext(ctx, query,
		string(s.State),
		nullableTimeToString(s.SegmentStart),
		s.AccumulatedSeconds,
		s.Description,
		formatTime(s.UpdatedAt),
		logID, closedAt, billable,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating active session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating active session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("active session %s: %w", s.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteActiveSessionRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM active_sessions WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deleting active session: %w", err)
	}
	return nil
}

func (r *SQLiteActiveSessionRepo) scanSession(row *sql.Row) (*domain.TimerSession, error) {
	s, err := r.scanSessionRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("active session: %w", ErrNotFound)
		}
		return nil, err
	}
	return s, nil
}

func (r *SQLiteActiveSessionRepo) scanSessionRow(row rowScanner) (*domain.TimerSession, error) {
	var s domain.TimerSession
	var state, createdStr, updatedStr string
	var segmentStart, logID, closedAt sql.NullString
	var billable sql.NullInt64

	err := row.Scan(
		&s.ID, &s.UserID, &s.TaskID, &state, &segmentStart,
		&s.AccumulatedSeconds, &s.Description, &createdStr, &updatedStr,
		&logID, &closedAt, &billable,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning active session: %w", err)
	}

	s.State = domain.SessionState(state)
	s.SegmentStart = parseNullableTime(segmentStart)
	if s.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if s.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	if s.State == domain.SessionClosed && logID.Valid {
		end, err := parseTime(closedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing closed_at of session %s: %w", s.ID, err)
		}
		if err := s.RestorePendingLog(logID.String, end, intToBool(int(billable.Int64))); err != nil {
			return nil, fmt.Errorf("restoring pending log of session %s: %w", s.ID, err)
		}
	}
	return &s, nil
}

// pendingLogValues returns the log_id, closed_at and is_billable column
// values, all NULL unless the session carries a pending log.
func pendingLogValues(s *domain.TimerSession) (logID, closedAt, billable any) {
	if s.PendingLog == nil {
		return nil, nil, nil
	}
	return s.PendingLog.ID, formatTime(s.PendingLog.EndTime), boolToInt(s.PendingLog.IsBillable)
}
