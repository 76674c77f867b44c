package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/klokku/meeting-scheduler/internal/event_bus"
	"github.com/klokku/meeting-scheduler/internal/metrics"
	"github.com/klokku/meeting-scheduler/internal/worker"
	"github.com/klokku/meeting-scheduler/pkg/user"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

type ScheduleRequest struct {
	ParticipantIds  []string
	DurationMinutes int
	Window          TimeWindow
}

type Service struct {
	users   user.Service
	engine  *Engine
	booker  *Booker
	bus     *event_bus.EventBus
	metrics *metrics.Metrics
}

func NewService(users user.Service, engine *Engine, booker *Booker, bus *event_bus.EventBus, m *metrics.Metrics) *Service {
	return &Service{
		users:   users,
		engine:  engine,
		booker:  booker,
		bus:     bus,
		metrics: m,
	}
}

// Schedule finds the best slot for all participants and books it.
// Invalid input and unknown participants are rejected before any search work.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (Meeting, error) {
	meeting, err := s.schedule(ctx, req)
	s.metrics.ScheduleOutcome(scheduleOutcome(err))
	return meeting, err
}

// ScheduleAsync runs Schedule on the pool. Abandoning the returned future does not interrupt the booking.
func (s *Service) ScheduleAsync(ctx context.Context, pool *worker.Pool, req ScheduleRequest) *worker.Future[Meeting] {
	return worker.Submit(pool, ctx, func(ctx context.Context) (Meeting, error) {
		return s.Schedule(ctx, req)
	})
}

func (s *Service) schedule(ctx context.Context, req ScheduleRequest) (Meeting, error) {
	participants, err := normalizeParticipants(req.ParticipantIds)
	if err != nil {
		return Meeting{}, err
	}
	if err := req.Window.validate(req.DurationMinutes); err != nil {
		return Meeting{}, err
	}

	missing, err := s.users.FindMissing(ctx, participants)
	if err != nil {
		return Meeting{}, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if len(missing) > 0 {
		return Meeting{}, fmt.Errorf("%w: %s", ErrUnknownParticipant, strings.Join(missing, ", "))
	}

	slot, err := s.engine.FindBestSlot(ctx, participants, req.Window, req.DurationMinutes)
	if err != nil {
		return Meeting{}, err
	}

	meeting, err := s.booker.Book(ctx, participants, slot)
	if err != nil {
		return Meeting{}, err
	}

	// the booking is committed at this point, subscriber failures are only logged
	err = s.bus.Publish(event_bus.NewEvent(ctx, event_bus.MeetingBookedType, event_bus.MeetingBooked{
		MeetingId:      meeting.Id,
		Title:          meeting.Title,
		ParticipantIds: meeting.ParticipantIds,
		StartTime:      meeting.StartTime,
		EndTime:        meeting.EndTime,
	}))
	if err != nil {
		log.Errorf("failed to publish booking of meeting %s: %v", meeting.Id, err)
	}
	return meeting, nil
}

// normalizeParticipants trims ids and drops duplicates, keeping first-occurrence order.
func normalizeParticipants(ids []string) ([]string, error) {
	trimmed := lo.Map(ids, func(id string, _ int) string {
		return strings.TrimSpace(id)
	})
	if lo.Contains(trimmed, "") {
		return nil, fmt.Errorf("%w: participant id must not be blank", ErrInvalidInput)
	}
	participants := lo.Uniq(trimmed)
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: at least one participant is required", ErrInvalidInput)
	}
	return participants, nil
}

func scheduleOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeBooked
	case errors.Is(err, ErrNoSlotFound), errors.Is(err, ErrSlotTaken):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownParticipant):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
