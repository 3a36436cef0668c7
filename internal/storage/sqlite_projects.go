package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/calm-red-fox/siteops/internal/models"
)

type sqliteProjectRepo struct {
	db *sql.DB
}

const projectColumns = `id, name, client_name, start_date, end_date, budget_eur, cover_url, description, status, created_at, updated_at`

func (r *sqliteProjectRepo) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		project.ID, project.Name, nullString(project.ClientName),
		nullTimePtr(project.StartDate), nullTimePtr(project.EndDate),
		project.BudgetEUR, nullString(project.CoverURL), nullString(project.Description),
		project.Status, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	project := &models.Project{}
	var clientName, coverURL, description sql.NullString
	var startDate, endDate sql.NullTime
	var status string
	err := row.Scan(
		&project.ID, &project.Name, &clientName, &startDate, &endDate,
		&project.BudgetEUR, &coverURL, &description, &status,
		&project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	project.ClientName = clientName.String
	project.CoverURL = coverURL.String
	project.Description = description.String
	project.StartDate = timePtr(startDate)
	project.EndDate = timePtr(endDate)
	project.Status = models.ProjectStatus(status)
	return project, nil
}

func (r *sqliteProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	project, err := scanProject(row)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by id: %w", err)
	}
	return project, nil
}

func (r *sqliteProjectRepo) GetByName(ctx context.Context, name string) (*models.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE name = ?`, name)
	project, err := scanProject(row)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by name: %w", err)
	}
	return project, nil
}

func (r *sqliteProjectRepo) Update(ctx context.Context, project *models.Project) error {
	query := `
		UPDATE projects
		SET name = ?, client_name = ?, start_date = ?, end_date = ?, budget_eur = ?,
			cover_url = ?, description = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		project.Name, nullString(project.ClientName),
		nullTimePtr(project.StartDate), nullTimePtr(project.EndDate), project.BudgetEUR,
		nullString(project.CoverURL), nullString(project.Description),
		project.Status, project.UpdatedAt, project.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

func (r *sqliteProjectRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

func (r *sqliteProjectRepo) list(ctx context.Context, query string, args ...any) ([]*models.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *sqliteProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	return r.list(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, id DESC`)
}

func (r *sqliteProjectRepo) ListRecent(ctx context.Context, limit int) ([]*models.Project, error) {
	return r.list(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

func (r *sqliteProjectRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return count, nil
}
