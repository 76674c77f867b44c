package app

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/klokku/meeting-scheduler/internal/config"
	log "github.com/sirupsen/logrus"
)

const requestIdHeader = "X-Request-Id"

type requestIdKey struct{}

// RequestId returns the id assigned to the request by the middleware, if any.
func RequestId(ctx context.Context) string {
	id, _ := ctx.Value(requestIdKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Assign a request id, reusing the caller's one when present
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id := req.Header.Get(requestIdHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIdHeader, id)
			next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), requestIdKey{}, id)))
		})
	})

	// Access log and request metrics, labelled by route template
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			started := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, req)
			elapsed := time.Since(started)

			route := req.URL.Path
			if current := mux.CurrentRoute(req); current != nil {
				if template, err := current.GetPathTemplate(); err == nil {
					route = template
				}
			}
			deps.Metrics.ObserveRequest(req.Method, route, recorder.status, elapsed)

			entry := log.WithFields(log.Fields{
				"requestId": RequestId(req.Context()),
				"method":    req.Method,
				"path":      req.URL.Path,
				"status":    recorder.status,
				"duration":  elapsed,
			})
			if recorder.status >= http.StatusInternalServerError {
				entry.Warn("request failed")
			} else {
				entry.Debug("request handled")
			}
		})
	})
}
