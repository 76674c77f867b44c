package scheduler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/klokku/meeting-scheduler/internal/rest"
	"github.com/klokku/meeting-scheduler/internal/worker"
	log "github.com/sirupsen/logrus"
)

var validate = validator.New()

type TimeRangeDTO struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	End   string `json:"end" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

type ScheduleRequestDTO struct {
	ParticipantIds  []string     `json:"participantIds" validate:"required,min=1,dive,required"`
	DurationMinutes int          `json:"durationMinutes" validate:"gt=0"`
	TimeRange       TimeRangeDTO `json:"timeRange"`
}

type MeetingDTO struct {
	MeetingId      string   `json:"meetingId"`
	Title          string   `json:"title"`
	ParticipantIds []string `json:"participantIds"`
	StartTime      string   `json:"startTime"`
	EndTime        string   `json:"endTime"`
}

type Handler struct {
	scheduler *Service
	pool      *worker.Pool
}

func NewHandler(s *Service, pool *worker.Pool) *Handler {
	return &Handler{scheduler: s, pool: pool}
}

// Schedule godoc
// @Summary Find and book the best common slot
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param request body ScheduleRequestDTO true "Participants, duration and search window"
// @Success 201 {object} MeetingDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request or unknown participant"
// @Failure 409 {object} rest.ErrorResponse "No common slot available"
// @Failure 503 {object} rest.ErrorResponse "Calendar store unavailable or server busy"
// @Router /api/schedule [post]
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	var dto ScheduleRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	if err := validate.Struct(dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid scheduling request", err.Error())
		return
	}
	req, err := dtoToRequest(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid scheduling request", err.Error())
		return
	}
	log.Tracef("Scheduling request: %+v", req)

	meeting, err := h.scheduler.ScheduleAsync(r.Context(), h.pool, req).Await(r.Context())
	if err != nil {
		status, message := errorStatus(err)
		if status >= http.StatusInternalServerError {
			log.Errorf("failed to schedule meeting: %v", err)
		}
		rest.WriteError(w, status, message, err.Error())
		return
	}

	rest.WriteJSON(w, http.StatusCreated, meetingToDTO(meeting))
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, "Invalid scheduling request"
	case errors.Is(err, ErrUnknownParticipant):
		return http.StatusBadRequest, "Unknown participant"
	case errors.Is(err, ErrNoSlotFound):
		return http.StatusConflict, "No available slot found"
	case errors.Is(err, ErrSlotTaken):
		return http.StatusConflict, "Slot was booked concurrently"
	case errors.Is(err, ErrStore):
		return http.StatusServiceUnavailable, "Calendar store unavailable"
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrPoolClosed):
		return http.StatusServiceUnavailable, "Server busy"
	default:
		return http.StatusInternalServerError, "Failed to schedule meeting"
	}
}

func dtoToRequest(dto ScheduleRequestDTO) (ScheduleRequest, error) {
	start, err := time.Parse(time.RFC3339, dto.TimeRange.Start)
	if err != nil {
		return ScheduleRequest{}, err
	}
	end, err := time.Parse(time.RFC3339, dto.TimeRange.End)
	if err != nil {
		return ScheduleRequest{}, err
	}
	return ScheduleRequest{
		ParticipantIds:  dto.ParticipantIds,
		DurationMinutes: dto.DurationMinutes,
		Window:          TimeWindow{Start: start.UTC(), End: end.UTC()},
	}, nil
}

func meetingToDTO(m Meeting) MeetingDTO {
	return MeetingDTO{
		MeetingId:      m.Id,
		Title:          m.Title,
		ParticipantIds: m.ParticipantIds,
		StartTime:      formatTime(m.StartTime),
		EndTime:        formatTime(m.EndTime),
	}
}
