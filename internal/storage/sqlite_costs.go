package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calm-red-fox/siteops/internal/models"
)

type sqliteCostRepo struct {
	db *sql.DB
}

const costColumns = `id, project_id, user_id, work_item_id, doc_type, amount_eur, with_vat, status, doc_url, note, approved_by, approved_at, created_at`

// Create inserts a cost document. An attached work item must belong to the
// chosen project; the check runs in the insert's transaction.
func (r *sqliteCostRepo) Create(ctx context.Context, doc *models.CostDocument) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create cost document: %w", err)
	}
	defer tx.Rollback()

	if doc.WorkItemID != nil {
		var itemProject string
		err = tx.QueryRowContext(ctx, `SELECT project_id FROM work_items WHERE id = ?`, *doc.WorkItemID).
			Scan(&itemProject)
		if err == sql.ErrNoRows {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load work item: %w", err)
		}
		if itemProject != doc.ProjectID {
			return models.ErrProjectMismatch
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cost_documents (`+costColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		doc.ID, doc.ProjectID, doc.UserID, nullStringPtr(doc.WorkItemID),
		doc.DocType, doc.AmountEUR, boolToInt(doc.WithVAT), doc.Status,
		nullString(doc.DocURL), nullString(doc.Note),
		nullStringPtr(doc.ApprovedBy), nullTimePtr(doc.ApprovedAt), doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cost document: %w", err)
	}

	return tx.Commit()
}

func scanCost(row interface{ Scan(...any) error }) (*models.CostDocument, error) {
	doc := &models.CostDocument{}
	var workItemID, docURL, note, approvedBy sql.NullString
	var approvedAt sql.NullTime
	var docType, status string
	var withVAT int
	err := row.Scan(
		&doc.ID, &doc.ProjectID, &doc.UserID, &workItemID,
		&docType, &doc.AmountEUR, &withVAT, &status,
		&docURL, &note, &approvedBy, &approvedAt, &doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.WorkItemID = stringPtr(workItemID)
	doc.DocType = models.CostDocType(docType)
	doc.WithVAT = withVAT != 0
	doc.Status = models.CostStatus(status)
	doc.DocURL = docURL.String
	doc.Note = note.String
	doc.ApprovedBy = stringPtr(approvedBy)
	doc.ApprovedAt = timePtr(approvedAt)
	return doc, nil
}

func (r *sqliteCostRepo) GetByID(ctx context.Context, id string) (*models.CostDocument, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+costColumns+` FROM cost_documents WHERE id = ?`, id)
	doc, err := scanCost(row)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cost document by id: %w", err)
	}
	return doc, nil
}

func (r *sqliteCostRepo) List(ctx context.Context, status models.CostStatus) ([]*models.CostDocument, error) {
	query := `SELECT ` + costColumns + ` FROM cost_documents`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cost documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.CostDocument
	for rows.Next() {
		doc, err := scanCost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cost document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Transition moves a pending document to approved or rejected, stamping
// the approver. A document already in the target status is left untouched.
func (r *sqliteCostRepo) Transition(ctx context.Context, id string, to models.CostStatus, approverID string, at time.Time) error {
	if !models.ValidCostStatus(to) {
		return models.ErrInvalidStatus
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cost transition: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM cost_documents WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load cost document: %w", err)
	}

	// Re-entering the current status is a no-op.
	if models.CostStatus(current) == to {
		return nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE cost_documents SET status = ?, approved_by = ?, approved_at = ? WHERE id = ?`,
		to, approverID, at, id,
	)
	if err != nil {
		return fmt.Errorf("update cost document: %w", err)
	}

	return tx.Commit()
}

func (r *sqliteCostRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cost_documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete cost document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete cost document: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}
