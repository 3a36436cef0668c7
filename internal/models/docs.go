package models

import (
	"time"
)

// FileCategory classifies an HR document.
type FileCategory string

const (
	FilePayslip  FileCategory = "payslip"
	FileContract FileCategory = "contract"
	FileCircular FileCategory = "circular"
	FileOther    FileCategory = "other"
)

// ValidFileCategory reports whether c is one of the enumerated categories.
func ValidFileCategory(c FileCategory) bool {
	switch c {
	case FilePayslip, FileContract, FileCircular, FileOther:
		return true
	}
	return false
}

// UserFolder is a node of a user's personal document tree. Folder names
// are unique per (owner, parent).
type UserFolder struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFile is a document stored in a user's folder. ReadAt is stamped on
// first view; AckAt on first acknowledgment when RequiresAck is set.
type UserFile struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id"`
	FolderID    string       `json:"folder_id"`
	Title       string       `json:"title"`
	FileURL     string       `json:"file_url"`
	Category    FileCategory `json:"category"`
	RequiresAck bool         `json:"requires_ack"`
	ReadAt      *time.Time   `json:"read_at,omitempty"`
	AckAt       *time.Time   `json:"ack_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NeedsAck reports whether an acknowledgment is still outstanding.
func (f *UserFile) NeedsAck() bool {
	return f.RequiresAck && f.AckAt == nil
}

// BroadcastDoc is an organization-wide announcement document.
type BroadcastDoc struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	FileURL   string    `json:"file_url,omitempty"`
	CreatedBy *string   `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
