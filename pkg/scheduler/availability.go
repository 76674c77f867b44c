package scheduler

import (
	"context"
	"fmt"

	"github.com/klokku/meeting-scheduler/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

type AvailabilityChecker struct {
	repo calendar.Repository
}

func NewAvailabilityChecker(repo calendar.Repository) *AvailabilityChecker {
	return &AvailabilityChecker{repo: repo}
}

// IsAvailable reports whether no participant has an entry overlapping slot.
// Participants are checked in order and the check stops at the first busy one.
func (a *AvailabilityChecker) IsAvailable(ctx context.Context, participants []string, slot Slot) (bool, error) {
	return isAvailable(ctx, a.repo, participants, slot)
}

func isAvailable(ctx context.Context, repo calendar.Repository, participants []string, slot Slot) (bool, error) {
	for _, participant := range participants {
		conflicts, err := repo.FindOverlapping(ctx, participant, slot.Start, slot.End)
		if err != nil {
			return false, fmt.Errorf("%w: could not check availability of %s: %w", ErrStore, participant, err)
		}
		if len(conflicts) > 0 {
			log.Tracef("Slot %s conflicts with %d entries of %s", slot, len(conflicts), participant)
			return false, nil
		}
	}
	return true, nil
}
