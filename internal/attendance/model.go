package attendance

import (
	"time"

	"github.com/google/uuid"
)

// Status of an attendance session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Session is one clock-in/clock-out work period.
type Session struct {
	ID            uuid.UUID  `json:"id"`
	UserID        string     `json:"user_id"`
	ClockInAt     time.Time  `json:"clock_in_at"`
	ClockInImage  string     `json:"clock_in_image"`
	ClockOutAt    *time.Time `json:"clock_out_at,omitempty"`
	ClockOutImage *string    `json:"clock_out_image,omitempty"`
	Status        Status     `json:"status"`
}

// Duration is the length of the session, measured up to now while it is active.
func (s *Session) Duration(now time.Time) time.Duration {
	end := now
	if s.ClockOutAt != nil {
		end = *s.ClockOutAt
	}
	if end.Before(s.ClockInAt) {
		return 0
	}
	return end.Sub(s.ClockInAt)
}
