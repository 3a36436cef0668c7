package models

import (
	"time"
)

// WorkPhoto is a site photo registered against a project, optionally
// linked to the time session and work item it documents. Both links are
// cleared when their target is deleted.
type WorkPhoto struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	UserID        string    `json:"user_id"`
	TimeSessionID *string   `json:"time_session_id,omitempty"`
	WorkItemID    *string   `json:"work_item_id,omitempty"`
	URL           string    `json:"url"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
