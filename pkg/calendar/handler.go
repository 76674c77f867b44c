package calendar

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/meeting-scheduler/internal/rest"
	"github.com/klokku/meeting-scheduler/internal/worker"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	calendar *Service
	pool     *worker.Pool
}

type EventDTO struct {
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func NewHandler(s *Service, pool *worker.Pool) *Handler {
	return &Handler{calendar: s, pool: pool}
}

// GetCalendar returns the events of {userId} fully contained in the [start, end] query window.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["userId"]
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid start format", "'start' must be in RFC3339 format")
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid end format", "'end' must be in RFC3339 format")
		return
	}

	events, err := worker.Submit(h.pool, r.Context(), func(ctx context.Context) ([]Event, error) {
		return h.calendar.GetEvents(ctx, userId, start, end)
	}).Await(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRange):
			rest.WriteError(w, http.StatusBadRequest, "Invalid time range", err.Error())
		case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrPoolClosed):
			rest.WriteError(w, http.StatusServiceUnavailable, "Server busy", err.Error())
		default:
			log.Errorf("failed to get calendar of user %s: %v", userId, err)
			rest.WriteError(w, http.StatusInternalServerError, "Failed to get calendar", err.Error())
		}
		return
	}

	rest.WriteJSON(w, http.StatusOK, lo.Map(events, func(e Event, _ int) EventDTO {
		return eventToDTO(e)
	}))
}

func eventToDTO(e Event) EventDTO {
	return EventDTO{
		Title:     e.Title,
		StartTime: e.StartTime.UTC().Format(time.RFC3339),
		EndTime:   e.EndTime.UTC().Format(time.RFC3339),
	}
}
