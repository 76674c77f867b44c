package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/meeting-scheduler/internal/config"
	"github.com/klokku/meeting-scheduler/internal/event_bus"
	"github.com/klokku/meeting-scheduler/internal/metrics"
	"github.com/klokku/meeting-scheduler/internal/worker"
	"github.com/klokku/meeting-scheduler/pkg/calendar"
	"github.com/klokku/meeting-scheduler/pkg/google"
	"github.com/klokku/meeting-scheduler/pkg/scheduler"
	"github.com/klokku/meeting-scheduler/pkg/user"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Metrics    *metrics.Metrics
	EventBus   *event_bus.EventBus
	WorkerPool *worker.Pool

	UserService user.Service
	UserHandler *user.Handler

	CalendarRepository calendar.Repository
	CalendarService    *calendar.Service
	CalendarHandler    *calendar.Handler

	SchedulerService *scheduler.Service
	SchedulerHandler *scheduler.Handler

	GoogleExporter *google.Exporter

	HealthCheck func(ctx context.Context) error
}

// BuildDependencies initializes and wires all application services and handlers on top of Postgres.
// External clients are created first, a failure there leaves nothing running.
func BuildDependencies(ctx context.Context, db *pgxpool.Pool, cfg config.Application) (*Dependencies, error) {
	var exporter *google.Exporter
	if cfg.Google.Enabled {
		service, err := google.NewCalendarService(ctx, cfg.Google.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to set up Google Calendar export: %w", err)
		}
		exporter = google.NewExporter(service, cfg.Google.CalendarId)
	}

	deps := wireDependencies(calendar.NewRepository(db), user.NewUserRepo(db), cfg)
	deps.HealthCheck = db.Ping

	if exporter != nil {
		deps.GoogleExporter = exporter
		deps.GoogleExporter.Register(deps.EventBus, deps.WorkerPool)
		log.Infof("Booked meetings will be exported to Google calendar %s", cfg.Google.CalendarId)
	}
	return deps, nil
}

func wireDependencies(calendarRepo calendar.Repository, userRepo user.Repo, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Metrics = metrics.New()
	deps.EventBus = event_bus.NewEventBus()
	deps.WorkerPool = worker.NewPool(cfg.Workers.Size, cfg.Workers.QueueCapacity)
	deps.Metrics.RegisterQueueLength(deps.WorkerPool.QueueLength)

	deps.UserService = user.NewUserService(userRepo)
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.CalendarRepository = calendarRepo
	deps.CalendarService = calendar.NewService(calendarRepo)
	deps.CalendarHandler = calendar.NewHandler(deps.CalendarService, deps.WorkerPool)

	engine := scheduler.NewEngine(
		scheduler.NewAvailabilityChecker(calendarRepo),
		scheduler.NewScorer(calendarRepo),
		deps.Metrics,
	)
	booker := scheduler.NewBooker(calendarRepo, cfg.Scheduler.Recheck)
	deps.SchedulerService = scheduler.NewService(deps.UserService, engine, booker, deps.EventBus, deps.Metrics)
	deps.SchedulerHandler = scheduler.NewHandler(deps.SchedulerService, deps.WorkerPool)

	deps.HealthCheck = func(ctx context.Context) error { return nil }
	return deps
}
