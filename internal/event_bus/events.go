package event_bus

import "time"

const MeetingBookedType EventType = "meeting.booked"

// MeetingBooked is published once the booking transaction has committed.
type MeetingBooked struct {
	MeetingId      string
	Title          string
	ParticipantIds []string
	StartTime      time.Time
	EndTime        time.Time
}
