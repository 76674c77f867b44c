package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klokku/meeting-scheduler/internal/metrics"
	log "github.com/sirupsen/logrus"
)

type Engine struct {
	availability *AvailabilityChecker
	scorer       *Scorer
	metrics      *metrics.Metrics
}

func NewEngine(availability *AvailabilityChecker, scorer *Scorer, m *metrics.Metrics) *Engine {
	return &Engine{
		availability: availability,
		scorer:       scorer,
		metrics:      m,
	}
}

// FindBestSlot walks the window in StepMinutes steps and returns the feasible slot with the highest score.
// On equal scores the earliest slot wins.
func (e *Engine) FindBestSlot(ctx context.Context, participants []string, window TimeWindow, durationMinutes int) (Slot, error) {
	if err := window.validate(durationMinutes); err != nil {
		return Slot{}, err
	}

	started := time.Now()
	best, err := e.search(ctx, participants, window, durationMinutes)
	e.metrics.ObserveSearch(searchOutcome(err), time.Since(started))
	return best, err
}

func (e *Engine) search(ctx context.Context, participants []string, window TimeWindow, durationMinutes int) (Slot, error) {
	var best bestCandidate
	evaluated := 0

	step := minutes(StepMinutes)
	duration := minutes(durationMinutes)
	for start := window.Start; !start.Add(duration).After(window.End); start = start.Add(step) {
		slot := newSlot(start, durationMinutes)
		evaluated++

		available, err := e.availability.IsAvailable(ctx, participants, slot)
		if err != nil {
			return Slot{}, err
		}
		e.metrics.CandidateEvaluated(available)
		if !available {
			continue
		}

		score, err := e.scorer.Score(ctx, participants, slot, window.Start)
		if err != nil {
			return Slot{}, err
		}
		log.Tracef("Candidate %s scored %d", slot, score)

		best.offer(slot, score)
	}

	if !best.found {
		return Slot{}, fmt.Errorf("%w: %d candidates between %s and %s", ErrNoSlotFound, evaluated, formatTime(window.Start), formatTime(window.End))
	}
	log.Debugf("Best slot %s with score %d out of %d candidates", best.slot, best.score, evaluated)
	return best.slot, nil
}

// bestCandidate keeps the first slot reaching the highest score. Slots must be offered in start order.
type bestCandidate struct {
	slot  Slot
	score int
	found bool
}

func (b *bestCandidate) offer(slot Slot, score int) {
	if !b.found || score > b.score {
		b.slot = slot
		b.score = score
		b.found = true
	}
}

func searchOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeFound
	case errors.Is(err, ErrNoSlotFound):
		return metrics.OutcomeNoSlot
	default:
		return metrics.OutcomeError
	}
}
