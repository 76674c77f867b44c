package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/klokku/meeting-scheduler/pkg/calendar"
)

const (
	earlinessBase = 100000

	workingHoursBonus = 500
	workingDayStart   = 9
	workingDayEnd     = 17

	backToBackBonus  = 100
	shortGapPenalty  = -50
	shortGapMinutes  = 30
	ampleGapBonus    = 50
	ampleGapMinutes  = 60
	bufferBonus      = 25
	bufferMinMinutes = 15
)

// Scorer rates feasible slots. Scores are only comparable within one search.
type Scorer struct {
	repo calendar.Repository
}

func NewScorer(repo calendar.Repository) *Scorer {
	return &Scorer{repo: repo}
}

// Score is the sum of the earliness, working-hours, gap and buffer terms for slot.
// Gap and buffer terms are summed over every participant and both sides of the slot.
func (s *Scorer) Score(ctx context.Context, participants []string, slot Slot, windowStart time.Time) (int, error) {
	score := earlinessScore(slot, windowStart) + workingHoursScore(slot)

	for _, participant := range participants {
		prevEnd, hasPrev, err := s.repo.FindLatestEndAtOrBefore(ctx, participant, slot.Start)
		if err != nil {
			return 0, fmt.Errorf("%w: could not find entry before %s for %s: %w", ErrStore, formatTime(slot.Start), participant, err)
		}
		nextStart, hasNext, err := s.repo.FindEarliestStartAtOrAfter(ctx, participant, slot.End)
		if err != nil {
			return 0, fmt.Errorf("%w: could not find entry after %s for %s: %w", ErrStore, formatTime(slot.End), participant, err)
		}

		if hasPrev {
			score += neighborScore(minutesBetween(prevEnd, slot.Start))
		}
		if hasNext {
			score += neighborScore(minutesBetween(slot.End, nextStart))
		}
	}
	return score, nil
}

func earlinessScore(slot Slot, windowStart time.Time) int {
	return earlinessBase - minutesBetween(windowStart, slot.Start)
}

// workingHoursScore only rewards slots ending on a full hour no later than 17:00 UTC.
func workingHoursScore(slot Slot) int {
	start := slot.Start.UTC()
	end := slot.End.UTC()
	if start.Hour() >= workingDayStart && end.Hour() <= workingDayEnd && end.Minute() <= 0 {
		return workingHoursBonus
	}
	return 0
}

// neighborScore rates the gap in minutes to one neighboring entry. The gap and buffer terms stack.
func neighborScore(gap int) int {
	score := 0
	switch {
	case gap == 0:
		score += backToBackBonus
	case gap < shortGapMinutes:
		score += shortGapPenalty
	case gap >= ampleGapMinutes:
		score += ampleGapBonus
	}
	if gap >= bufferMinMinutes {
		score += bufferBonus
	}
	return score
}
