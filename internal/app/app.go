package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/meeting-scheduler/internal/config"
	"github.com/klokku/meeting-scheduler/internal/database"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 30 * time.Second

// Application wires configuration, database, router, and server lifecycle.
type Application struct {
	cfg    config.Application
	db     *pgxpool.Pool
	deps   *Dependencies
	router *mux.Router
	srv    *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}

	// DB + migrations
	if err := database.Migrate(cfg.Database); err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	deps, err := BuildDependencies(ctx, db, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	r := NewRouter(deps, cfg)

	srv := &http.Server{
		Handler:      r,
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, db: db, deps: deps, router: r, srv: srv}, nil
}

// NewRouter applies middleware and registers every route.
func NewRouter(deps *Dependencies, cfg config.Application) *mux.Router {
	r := mux.NewRouter()
	SetupMiddleware(r, deps, cfg)
	RegisterRoutes(r, deps, cfg)
	return r
}

// Run starts the HTTP server and blocks until it fails or the process receives SIGINT or SIGTERM.
// Queued scheduling tasks are drained before returning.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case runErr = <-serverErr:
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("failed to shut down HTTP server: %v", err)
	}
	if err := a.deps.WorkerPool.Shutdown(shutdownCtx); err != nil {
		log.Errorf("failed to drain worker pool: %v", err)
	}
	a.db.Close()
	log.Info("Server stopped")
	return runErr
}
