package calendar

import (
	"time"

	"github.com/google/uuid"
)

// Event is a single calendar entry owned by one user.
type Event struct {
	UID       uuid.UUID
	Title     string
	StartTime time.Time
	EndTime   time.Time
	UserId    string
	// MeetingId groups the entries written by one booking. Empty for entries created outside the scheduler.
	MeetingId string
}

// Overlaps reports whether the event intersects [start, end). Touching boundaries do not overlap.
func (e Event) Overlaps(start, end time.Time) bool {
	return e.StartTime.Before(end) && e.EndTime.After(start)
}

// Within reports whether the event lies entirely inside [from, to].
func (e Event) Within(from, to time.Time) bool {
	return !e.StartTime.Before(from) && !e.EndTime.After(to)
}
