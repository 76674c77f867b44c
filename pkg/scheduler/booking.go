package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/klokku/meeting-scheduler/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

type Booker struct {
	repo    calendar.Repository
	recheck bool
}

// NewBooker creates a Booker. With recheck set, participants are locked and their availability
// is verified again inside the booking transaction.
func NewBooker(repo calendar.Repository, recheck bool) *Booker {
	return &Booker{repo: repo, recheck: recheck}
}

// Book writes one entry per participant in a single transaction. Either all entries are stored or none.
func (b *Booker) Book(ctx context.Context, participants []string, slot Slot) (Meeting, error) {
	meeting := Meeting{
		Id:             "meeting-" + uuid.NewString(),
		Title:          MeetingTitle,
		ParticipantIds: slices.Clone(participants),
		StartTime:      slot.Start.UTC(),
		EndTime:        slot.End.UTC(),
	}

	err := b.repo.WithTransaction(ctx, func(repo calendar.Repository) error {
		if b.recheck {
			if err := lockAndRecheck(ctx, repo, participants, slot); err != nil {
				return err
			}
		}
		for _, participant := range participants {
			_, err := repo.StoreEvent(ctx, calendar.Event{
				Title:     meeting.Title,
				StartTime: meeting.StartTime,
				EndTime:   meeting.EndTime,
				UserId:    participant,
				MeetingId: meeting.Id,
			})
			if err != nil {
				return fmt.Errorf("%w: could not store entry for %s: %w", ErrStore, participant, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Warnf("Booking of %s for %v rolled back: %v", slot, participants, err)
		if !errors.Is(err, ErrStore) && !errors.Is(err, ErrSlotTaken) {
			err = fmt.Errorf("%w: %w", ErrStore, err)
		}
		return Meeting{}, err
	}

	log.Infof("Booked meeting %s at %s for %d participants", meeting.Id, slot, len(participants))
	return meeting, nil
}

// lockAndRecheck locks participants in sorted order so concurrent bookings cannot deadlock,
// then fails with ErrSlotTaken when any of them got a conflicting entry since the search.
func lockAndRecheck(ctx context.Context, repo calendar.Repository, participants []string, slot Slot) error {
	for _, participant := range slices.Sorted(slices.Values(participants)) {
		if err := repo.LockUser(ctx, participant); err != nil {
			return fmt.Errorf("%w: %w", ErrStore, err)
		}
	}
	available, err := isAvailable(ctx, repo, participants, slot)
	if err != nil {
		return err
	}
	if !available {
		return fmt.Errorf("%w: %s", ErrSlotTaken, slot)
	}
	return nil
}
