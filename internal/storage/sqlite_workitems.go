package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calm-red-fox/siteops/internal/models"
)

type sqliteWorkItemRepo struct {
	db *sql.DB
}

const workItemColumns = `id, project_id, name, parent_id, weight, progress, status, sort_order, created_at, updated_at`

func (r *sqliteWorkItemRepo) Create(ctx context.Context, item *models.WorkItem) error {
	query := `
		INSERT INTO work_items (` + workItemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.ProjectID, item.Name, nullStringPtr(item.ParentID),
		item.Weight, item.Progress, item.Status, item.SortOrder,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert work item: %w", err)
	}
	return nil
}

func scanWorkItem(row interface{ Scan(...any) error }) (*models.WorkItem, error) {
	item := &models.WorkItem{}
	var parentID sql.NullString
	var status string
	err := row.Scan(
		&item.ID, &item.ProjectID, &item.Name, &parentID,
		&item.Weight, &item.Progress, &status, &item.SortOrder,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.ParentID = stringPtr(parentID)
	item.Status = models.WorkItemStatus(status)
	return item, nil
}

func (r *sqliteWorkItemRepo) GetByID(ctx context.Context, id string) (*models.WorkItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+workItemColumns+` FROM work_items WHERE id = ?`, id)
	item, err := scanWorkItem(row)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get work item by id: %w", err)
	}
	return item, nil
}

func (r *sqliteWorkItemRepo) Update(ctx context.Context, item *models.WorkItem) error {
	query := `
		UPDATE work_items
		SET name = ?, parent_id = ?, weight = ?, progress = ?, status = ?, sort_order = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		item.Name, nullStringPtr(item.ParentID), item.Weight,
		models.ClampProgress(item.Progress), item.Status, item.SortOrder,
		item.UpdatedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("update work item: %w", err)
	}
	return nil
}

func (r *sqliteWorkItemRepo) ListByProject(ctx context.Context, projectID string) ([]*models.WorkItem, error) {
	query := `
		SELECT ` + workItemColumns + `
		FROM work_items WHERE project_id = ?
		ORDER BY sort_order, id
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	defer rows.Close()

	var items []*models.WorkItem
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Delete removes a work item unless children still reference it. The child
// check and the delete run in one transaction so a concurrent child insert
// cannot slip between them.
func (r *sqliteWorkItemRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete work item: %w", err)
	}
	defer tx.Rollback()

	var children int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM work_items WHERE parent_id = ?`, id).Scan(&children)
	if err != nil {
		return fmt.Errorf("count children: %w", err)
	}
	if children > 0 {
		return models.ErrHasChildren
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM work_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete work item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete work item: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}

	return tx.Commit()
}

func (r *sqliteWorkItemRepo) SetStatus(ctx context.Context, id string, status models.WorkItemStatus) error {
	if !models.ValidWorkItemStatus(status) {
		return models.ErrInvalidStatus
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE work_items SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("set work item status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set work item status: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *sqliteWorkItemRepo) SetProgress(ctx context.Context, id string, progress int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE work_items SET progress = ?, updated_at = ? WHERE id = ?`,
		models.ClampProgress(progress), time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("set work item progress: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set work item progress: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}
