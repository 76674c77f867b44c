package scheduler

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid scheduling request")
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrNoSlotFound        = errors.New("no available slot found")
	ErrSlotTaken          = errors.New("slot is no longer available")
	ErrStore              = errors.New("calendar store failure")
)
