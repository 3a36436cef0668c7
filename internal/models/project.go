package models

import (
	"time"
)

// ProjectStatus represents the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive ProjectStatus = "active"
	ProjectPaused ProjectStatus = "paused"
	ProjectClosed ProjectStatus = "closed"
)

// ValidProjectStatus reports whether s is one of the enumerated states.
func ValidProjectStatus(s ProjectStatus) bool {
	switch s {
	case ProjectActive, ProjectPaused, ProjectClosed:
		return true
	}
	return false
}

// Project is the root scope for work items, time sessions, expenses and
// vehicle usage.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	ClientName  string        `json:"client_name,omitempty"`
	StartDate   *time.Time    `json:"start_date,omitempty"`
	EndDate     *time.Time    `json:"end_date,omitempty"`
	BudgetEUR   float64       `json:"budget_eur"`
	CoverURL    string        `json:"cover_url,omitempty"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewProject creates a new active Project with initialized timestamps.
func NewProject(name, clientName string) *Project {
	now := time.Now()
	return &Project{
		Name:       name,
		ClientName: clientName,
		Status:     ProjectActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
