package models

import (
	"testing"
	"time"
)

func TestTimeSession_IsActive(t *testing.T) {
	now := time.Now()
	ended := now.Add(time.Hour)

	tests := []struct {
		name      string
		endTime   *time.Time
		completed bool
		want      bool
	}{
		{"open", nil, false, true},
		{"closed", &ended, true, false},
		{"completed without end time", nil, true, false},
		{"end time without completed", &ended, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &TimeSession{StartTime: now, EndTime: tt.endTime, Completed: tt.completed}
			if got := s.IsActive(); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeSession_DurationMinutes(t *testing.T) {
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"whole hours", start.Add(2 * time.Hour), 120},
		{"floors partial minute", start.Add(90*time.Second + 59*time.Second), 2},
		{"under a minute", start.Add(45 * time.Second), 0},
		{"zero", start, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end := tt.end
			s := &TimeSession{StartTime: start, EndTime: &end, Completed: true}
			if got := s.DurationMinutes(); got != tt.want {
				t.Errorf("DurationMinutes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTimeSession_DurationMinutesAt_LiveSession(t *testing.T) {
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	s := &TimeSession{StartTime: start}

	if got := s.DurationMinutesAt(start.Add(30 * time.Minute)); got != 30 {
		t.Errorf("expected 30 minutes, got %d", got)
	}
	// Live value grows monotonically with the clock.
	if got := s.DurationMinutesAt(start.Add(31 * time.Minute)); got != 31 {
		t.Errorf("expected 31 minutes, got %d", got)
	}
}

func TestTimeSessionAllocation_HasQuantity(t *testing.T) {
	minutes := 30
	percent := 50.0

	tests := []struct {
		name    string
		minutes *int
		percent *float64
		want    bool
	}{
		{"both absent", nil, nil, false},
		{"minutes only", &minutes, nil, true},
		{"percent only", nil, &percent, true},
		{"both present", &minutes, &percent, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &TimeSessionAllocation{MinutesAllocated: tt.minutes, PercentAllocated: tt.percent}
			if got := a.HasQuantity(); got != tt.want {
				t.Errorf("HasQuantity() = %v, want %v", got, tt.want)
			}
		})
	}
}
