package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calm-red-fox/siteops/internal/models"
)

type sqliteTimeSessionRepo struct {
	db *sql.DB
}

const timeSessionColumns = `id, project_id, user_id, start_time, end_time, hourly_rate_eur_snapshot, note, completed, created_at, updated_at`

// activeSessionCond selects sessions that are still open.
const activeSessionCond = `end_time IS NULL AND completed = 0`

// Start inserts a new session after verifying, inside one transaction,
// that the user has no open session left.
func (r *sqliteTimeSessionRepo) Start(ctx context.Context, session *models.TimeSession) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin start session: %w", err)
	}
	defer tx.Rollback()

	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM time_sessions WHERE user_id = ? AND `+activeSessionCond,
		session.UserID,
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("check active session: %w", err)
	}
	if active > 0 {
		return models.ErrAlreadyActive
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO time_sessions (`+timeSessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		session.ID, session.ProjectID, session.UserID,
		session.StartTime, nullTimePtr(session.EndTime),
		session.HourlyRateEURSnapshot, nullString(session.Note),
		boolToInt(session.Completed), session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert time session: %w", err)
	}

	return tx.Commit()
}

func scanTimeSession(row interface{ Scan(...any) error }) (*models.TimeSession, error) {
	session := &models.TimeSession{}
	var endTime sql.NullTime
	var note sql.NullString
	var completed int
	err := row.Scan(
		&session.ID, &session.ProjectID, &session.UserID,
		&session.StartTime, &endTime, &session.HourlyRateEURSnapshot,
		&note, &completed, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.EndTime = timePtr(endTime)
	session.Note = note.String
	session.Completed = completed != 0
	return session, nil
}

func (r *sqliteTimeSessionRepo) GetByID(ctx context.Context, id string) (*models.TimeSession, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+timeSessionColumns+` FROM time_sessions WHERE id = ?`, id)
	session, err := scanTimeSession(row)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get time session by id: %w", err)
	}
	return session, nil
}

func (r *sqliteTimeSessionRepo) list(ctx context.Context, query string, args ...any) ([]*models.TimeSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list time sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.TimeSession
	for rows.Next() {
		session, err := scanTimeSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (r *sqliteTimeSessionRepo) ListByUser(ctx context.Context, userID string) ([]*models.TimeSession, error) {
	return r.list(ctx,
		`SELECT `+timeSessionColumns+` FROM time_sessions WHERE user_id = ? ORDER BY start_time DESC, id DESC`,
		userID,
	)
}

func (r *sqliteTimeSessionRepo) GetActiveForUser(ctx context.Context, userID string) (*models.TimeSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+timeSessionColumns+` FROM time_sessions WHERE user_id = ? AND `+activeSessionCond,
		userID,
	)
	session, err := scanTimeSession(row)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}
	return session, nil
}

func (r *sqliteTimeSessionRepo) ListCompletedSince(ctx context.Context, userID string, since time.Time) ([]*models.TimeSession, error) {
	return r.list(ctx,
		`SELECT `+timeSessionColumns+` FROM time_sessions
		WHERE user_id = ? AND completed = 1 AND end_time >= ?
		ORDER BY end_time DESC`,
		userID, since,
	)
}

// Stop closes an open session. Closing is terminal; an already closed
// session yields models.ErrAlreadyClosed so the caller can report the
// informational no-op.
func (r *sqliteTimeSessionRepo) Stop(ctx context.Context, id string, endTime time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stop session: %w", err)
	}
	defer tx.Rollback()

	var endSet sql.NullTime
	var completed int
	err = tx.QueryRowContext(ctx, `SELECT end_time, completed FROM time_sessions WHERE id = ?`, id).
		Scan(&endSet, &completed)
	if err == sql.ErrNoRows {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load time session: %w", err)
	}
	if endSet.Valid || completed != 0 {
		return models.ErrAlreadyClosed
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE time_sessions SET end_time = ?, completed = 1, updated_at = ? WHERE id = ?`,
		endTime, endTime, id,
	)
	if err != nil {
		return fmt.Errorf("close time session: %w", err)
	}

	return tx.Commit()
}

// AddAllocation appends an allocation after validating, in the same
// transaction, that at least one quantity is present and that the work
// item belongs to the session's project.
func (r *sqliteTimeSessionRepo) AddAllocation(ctx context.Context, alloc *models.TimeSessionAllocation) error {
	if !alloc.HasQuantity() {
		return models.ErrMissingQuantity
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add allocation: %w", err)
	}
	defer tx.Rollback()

	var sessionProject string
	err = tx.QueryRowContext(ctx, `SELECT project_id FROM time_sessions WHERE id = ?`, alloc.TimeSessionID).
		Scan(&sessionProject)
	if err == sql.ErrNoRows {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load time session: %w", err)
	}

	var itemProject string
	err = tx.QueryRowContext(ctx, `SELECT project_id FROM work_items WHERE id = ?`, alloc.WorkItemID).
		Scan(&itemProject)
	if err == sql.ErrNoRows {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load work item: %w", err)
	}

	if itemProject != sessionProject {
		return models.ErrProjectMismatch
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO time_session_allocations (id, time_session_id, work_item_id, minutes_allocated, percent_allocated, note)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		alloc.ID, alloc.TimeSessionID, alloc.WorkItemID,
		nullIntPtr(alloc.MinutesAllocated), nullFloatPtr(alloc.PercentAllocated),
		nullString(alloc.Note),
	)
	if err != nil {
		return fmt.Errorf("insert allocation: %w", err)
	}

	return tx.Commit()
}

const allocationColumns = `id, time_session_id, work_item_id, minutes_allocated, percent_allocated, note`

func scanAllocation(row interface{ Scan(...any) error }) (*models.TimeSessionAllocation, error) {
	alloc := &models.TimeSessionAllocation{}
	var minutes sql.NullInt64
	var percent sql.NullFloat64
	var note sql.NullString
	err := row.Scan(
		&alloc.ID, &alloc.TimeSessionID, &alloc.WorkItemID,
		&minutes, &percent, &note,
	)
	if err != nil {
		return nil, err
	}
	alloc.MinutesAllocated = intPtr(minutes)
	alloc.PercentAllocated = floatPtr(percent)
	alloc.Note = note.String
	return alloc, nil
}

func (r *sqliteTimeSessionRepo) GetAllocation(ctx context.Context, id string) (*models.TimeSessionAllocation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+allocationColumns+` FROM time_session_allocations WHERE id = ?`, id)
	alloc, err := scanAllocation(row)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get allocation by id: %w", err)
	}
	return alloc, nil
}

func (r *sqliteTimeSessionRepo) ListAllocations(ctx context.Context, sessionID string) ([]*models.TimeSessionAllocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+allocationColumns+` FROM time_session_allocations WHERE time_session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var allocs []*models.TimeSessionAllocation
	for rows.Next() {
		alloc, err := scanAllocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		allocs = append(allocs, alloc)
	}
	return allocs, rows.Err()
}

func (r *sqliteTimeSessionRepo) DeleteAllocation(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_session_allocations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}
