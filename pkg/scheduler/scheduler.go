// Package scheduler finds the best common slot for a set of participants and books it.
package scheduler

import (
	"fmt"
	"time"
)

const (
	// StepMinutes is the distance between consecutive candidate start times.
	StepMinutes = 15
	// MeetingTitle is the title of every booked calendar entry.
	MeetingTitle = "New Meeting"
)

// TimeWindow is the half-open search interval [Start, End).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

func (w TimeWindow) validate(durationMinutes int) error {
	if durationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %d minutes", ErrInvalidInput, durationMinutes)
	}
	if !w.Start.Before(w.End) {
		return fmt.Errorf("%w: window start %s is not before end %s", ErrInvalidInput, formatTime(w.Start), formatTime(w.End))
	}
	// compared in whole minutes, a huge duration would overflow time.Duration
	if int64(durationMinutes) > int64(w.End.Sub(w.Start)/time.Minute) {
		return fmt.Errorf("%w: window is shorter than %d minutes", ErrInvalidInput, durationMinutes)
	}
	return nil
}

// Slot is a candidate or chosen meeting interval.
type Slot struct {
	Start time.Time
	End   time.Time
}

func newSlot(start time.Time, durationMinutes int) Slot {
	return Slot{Start: start, End: start.Add(minutes(durationMinutes))}
}

func (s Slot) String() string {
	return formatTime(s.Start) + "/" + formatTime(s.End)
}

type Meeting struct {
	Id             string
	Title          string
	ParticipantIds []string
	StartTime      time.Time
	EndTime        time.Time
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

// minutesBetween returns whole minutes from a to b, truncated toward zero.
func minutesBetween(a, b time.Time) int {
	return int(b.Sub(a) / time.Minute)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
