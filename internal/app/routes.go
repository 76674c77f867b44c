package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klokku/meeting-scheduler/internal/config"
	"github.com/klokku/meeting-scheduler/internal/rest"
	log "github.com/sirupsen/logrus"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Scheduling
	r.HandleFunc("/api/schedule", deps.SchedulerHandler.Schedule).Methods("POST")

	// Participants
	r.HandleFunc("/api/users", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/users/{userId}", deps.UserHandler.GetUser).Methods("GET")
	r.HandleFunc("/api/users/{userId}/calendar", deps.CalendarHandler.GetCalendar).Methods("GET")

	// Operations
	r.HandleFunc("/healthz", healthHandler(deps)).Methods("GET")
	if cfg.Metrics.Enabled {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}
}

func healthHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.HealthCheck(r.Context()); err != nil {
			log.Warnf("health check failed: %v", err)
			rest.WriteError(w, http.StatusServiceUnavailable, "Database unavailable", err.Error())
			return
		}
		rest.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
