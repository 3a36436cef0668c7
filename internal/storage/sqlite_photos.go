package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/calm-red-fox/siteops/internal/models"
)

type sqliteWorkPhotoRepo struct {
	db *sql.DB
}

func (r *sqliteWorkPhotoRepo) Create(ctx context.Context, photo *models.WorkPhoto) error {
	query := `
		INSERT INTO work_photos (id, project_id, user_id, time_session_id, work_item_id, url, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		photo.ID, photo.ProjectID, photo.UserID,
		nullStringPtr(photo.TimeSessionID), nullStringPtr(photo.WorkItemID),
		photo.URL, nullString(photo.Description), photo.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert work photo: %w", err)
	}
	return nil
}

func (r *sqliteWorkPhotoRepo) ListByProject(ctx context.Context, projectID string) ([]*models.WorkPhoto, error) {
	query := `
		SELECT id, project_id, user_id, time_session_id, work_item_id, url, description, created_at
		FROM work_photos WHERE project_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list work photos: %w", err)
	}
	defer rows.Close()

	var photos []*models.WorkPhoto
	for rows.Next() {
		photo := &models.WorkPhoto{}
		var sessionID, workItemID, description sql.NullString
		if err := rows.Scan(
			&photo.ID, &photo.ProjectID, &photo.UserID,
			&sessionID, &workItemID, &photo.URL, &description, &photo.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan work photo: %w", err)
		}
		photo.TimeSessionID = stringPtr(sessionID)
		photo.WorkItemID = stringPtr(workItemID)
		photo.Description = description.String
		photos = append(photos, photo)
	}
	return photos, rows.Err()
}

func (r *sqliteWorkPhotoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM work_photos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete work photo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete work photo: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}
