package models

import (
	"time"
)

// TimeSession records one worker's span of tracked time on a project.
// A session is active while no end time is recorded and it is not marked
// completed; closing is terminal.
type TimeSession struct {
	ID                    string     `json:"id"`
	ProjectID             string     `json:"project_id"`
	UserID                string     `json:"user_id"`
	StartTime             time.Time  `json:"start_time"`
	EndTime               *time.Time `json:"end_time,omitempty"`
	HourlyRateEURSnapshot float64    `json:"hourly_rate_eur_snapshot"`
	Note                  string     `json:"note,omitempty"`
	Completed             bool       `json:"completed"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// NewTimeSession creates an active session starting now.
func NewTimeSession(projectID, userID, note string) *TimeSession {
	now := time.Now()
	return &TimeSession{
		ProjectID: projectID,
		UserID:    userID,
		StartTime: now,
		Note:      note,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive reports whether the session is still open.
func (s *TimeSession) IsActive() bool {
	return s.EndTime == nil && !s.Completed
}

// DurationMinutes returns the whole minutes elapsed between start and end,
// using the current time while the session is open. Live value, never
// persisted.
func (s *TimeSession) DurationMinutes() int {
	return s.DurationMinutesAt(time.Now())
}

// DurationMinutesAt is DurationMinutes evaluated against an explicit clock.
func (s *TimeSession) DurationMinutesAt(now time.Time) int {
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	return int(end.Sub(s.StartTime).Seconds()) / 60
}

// TimeSessionAllocation attributes a portion of a session, by minutes or
// percentage, to one work item. A session may carry any number of
// allocations; nothing caps the percentage sum.
type TimeSessionAllocation struct {
	ID               string   `json:"id"`
	TimeSessionID    string   `json:"time_session_id"`
	WorkItemID       string   `json:"work_item_id"`
	MinutesAllocated *int     `json:"minutes_allocated,omitempty"`
	PercentAllocated *float64 `json:"percent_allocated,omitempty"`
	Note             string   `json:"note,omitempty"`
}

// HasQuantity reports whether at least one of minutes or percent is set.
func (a *TimeSessionAllocation) HasQuantity() bool {
	return a.MinutesAllocated != nil || a.PercentAllocated != nil
}
