package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calm-red-fox/siteops/internal/models"
)

type sqliteDocsRepo struct {
	db *sql.DB
}

func (r *sqliteDocsRepo) CreateFolder(ctx context.Context, folder *models.UserFolder) error {
	query := `
		INSERT INTO user_folders (id, owner_id, name, parent_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		folder.ID, folder.OwnerID, folder.Name,
		nullStringPtr(folder.ParentID), folder.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert folder: %w", err)
	}
	return nil
}

func scanFolder(row interface{ Scan(...any) error }) (*models.UserFolder, error) {
	folder := &models.UserFolder{}
	var parentID sql.NullString
	err := row.Scan(&folder.ID, &folder.OwnerID, &folder.Name, &parentID, &folder.CreatedAt)
	if err != nil {
		return nil, err
	}
	folder.ParentID = stringPtr(parentID)
	return folder, nil
}

func (r *sqliteDocsRepo) GetFolder(ctx context.Context, id string) (*models.UserFolder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, parent_id, created_at FROM user_folders WHERE id = ?`, id)
	folder, err := scanFolder(row)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get folder by id: %w", err)
	}
	return folder, nil
}

func (r *sqliteDocsRepo) listFolders(ctx context.Context, query string, args ...any) ([]*models.UserFolder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []*models.UserFolder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, folder)
	}
	return folders, rows.Err()
}

func (r *sqliteDocsRepo) ListRootFolders(ctx context.Context, ownerID string) ([]*models.UserFolder, error) {
	return r.listFolders(ctx,
		`SELECT id, owner_id, name, parent_id, created_at
		FROM user_folders WHERE owner_id = ? AND parent_id IS NULL ORDER BY name`,
		ownerID,
	)
}

func (r *sqliteDocsRepo) ListChildFolders(ctx context.Context, folderID string) ([]*models.UserFolder, error) {
	return r.listFolders(ctx,
		`SELECT id, owner_id, name, parent_id, created_at
		FROM user_folders WHERE parent_id = ? ORDER BY name`,
		folderID,
	)
}

const userFileColumns = `id, owner_id, folder_id, title, file_url, category, requires_ack, read_at, ack_at, created_at`

func (r *sqliteDocsRepo) CreateFile(ctx context.Context, file *models.UserFile) error {
	query := `
		INSERT INTO user_files (` + userFileColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		file.ID, file.OwnerID, file.FolderID, file.Title, file.FileURL,
		file.Category, boolToInt(file.RequiresAck),
		nullTimePtr(file.ReadAt), nullTimePtr(file.AckAt), file.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

func scanFile(row interface{ Scan(...any) error }) (*models.UserFile, error) {
	file := &models.UserFile{}
	var category string
	var requiresAck int
	var readAt, ackAt sql.NullTime
	err := row.Scan(
		&file.ID, &file.OwnerID, &file.FolderID, &file.Title, &file.FileURL,
		&category, &requiresAck, &readAt, &ackAt, &file.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	file.Category = models.FileCategory(category)
	file.RequiresAck = requiresAck != 0
	file.ReadAt = timePtr(readAt)
	file.AckAt = timePtr(ackAt)
	return file, nil
}

func (r *sqliteDocsRepo) GetFile(ctx context.Context, id string) (*models.UserFile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userFileColumns+` FROM user_files WHERE id = ?`, id)
	file, err := scanFile(row)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file by id: %w", err)
	}
	return file, nil
}

func (r *sqliteDocsRepo) ListFilesByFolder(ctx context.Context, folderID string) ([]*models.UserFile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userFileColumns+` FROM user_files WHERE folder_id = ? ORDER BY created_at DESC, id DESC`,
		folderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []*models.UserFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// MarkRead stamps read_at once; the WHERE clause makes repeat calls no-ops.
func (r *sqliteDocsRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_files SET read_at = ? WHERE id = ? AND read_at IS NULL`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("mark file read: %w", err)
	}
	return nil
}

// Acknowledge stamps ack_at once for files that require it; anything else
// is a silent no-op.
func (r *sqliteDocsRepo) Acknowledge(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_files SET ack_at = ? WHERE id = ? AND requires_ack = 1 AND ack_at IS NULL`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("acknowledge file: %w", err)
	}
	return nil
}

func (r *sqliteDocsRepo) CreateBroadcast(ctx context.Context, doc *models.BroadcastDoc) error {
	query := `
		INSERT INTO broadcast_docs (id, title, body, file_url, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.Title, nullString(doc.Body), nullString(doc.FileURL),
		nullStringPtr(doc.CreatedBy), doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert broadcast doc: %w", err)
	}
	return nil
}

func (r *sqliteDocsRepo) ListBroadcasts(ctx context.Context) ([]*models.BroadcastDoc, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, body, file_url, created_by, created_at
		FROM broadcast_docs ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list broadcast docs: %w", err)
	}
	defer rows.Close()

	var docs []*models.BroadcastDoc
	for rows.Next() {
		doc := &models.BroadcastDoc{}
		var body, fileURL, createdBy sql.NullString
		if err := rows.Scan(&doc.ID, &doc.Title, &body, &fileURL, &createdBy, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan broadcast doc: %w", err)
		}
		doc.Body = body.String
		doc.FileURL = fileURL.String
		doc.CreatedBy = stringPtr(createdBy)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
