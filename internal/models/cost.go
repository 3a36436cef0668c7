package models

import (
	"time"
)

// CostDocType classifies an expense document.
type CostDocType string

const (
	CostDocInvoice      CostDocType = "invoice"
	CostDocReceipt      CostDocType = "receipt"
	CostDocDeliveryNote CostDocType = "delivery_note"
	CostDocOther        CostDocType = "other"
)

// ValidCostDocType reports whether t is one of the enumerated types.
func ValidCostDocType(t CostDocType) bool {
	switch t {
	case CostDocInvoice, CostDocReceipt, CostDocDeliveryNote, CostDocOther:
		return true
	}
	return false
}

// CostStatus represents the approval workflow state of a cost document.
type CostStatus string

const (
	CostPending  CostStatus = "pending"
	CostApproved CostStatus = "approved"
	CostRejected CostStatus = "rejected"
)

// ValidCostStatus reports whether s is one of the enumerated states.
func ValidCostStatus(s CostStatus) bool {
	switch s {
	case CostPending, CostApproved, CostRejected:
		return true
	}
	return false
}

// CostDocument is an expense registered against a project, optionally
// pinned to a work item of the same project. Transitions out of pending
// are performed by staff and stamp the approver.
type CostDocument struct {
	ID         string      `json:"id"`
	ProjectID  string      `json:"project_id"`
	UserID     string      `json:"user_id"`
	WorkItemID *string     `json:"work_item_id,omitempty"`
	DocType    CostDocType `json:"doc_type"`
	AmountEUR  float64     `json:"amount_eur"`
	WithVAT    bool        `json:"with_vat"`
	Status     CostStatus  `json:"status"`
	DocURL     string      `json:"doc_url,omitempty"`
	Note       string      `json:"note,omitempty"`
	ApprovedBy *string     `json:"approved_by,omitempty"`
	ApprovedAt *time.Time  `json:"approved_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewCostDocument creates a pending expense for the given project and user.
func NewCostDocument(projectID, userID string, docType CostDocType, amountEUR float64) *CostDocument {
	return &CostDocument{
		ProjectID: projectID,
		UserID:    userID,
		DocType:   docType,
		AmountEUR: amountEUR,
		WithVAT:   true,
		Status:    CostPending,
		CreatedAt: time.Now(),
	}
}

// CanDelete reports whether the given user may remove this document:
// staff, or its own creator.
func (d *CostDocument) CanDelete(u *User) bool {
	return u.IsStaff() || d.UserID == u.ID
}
