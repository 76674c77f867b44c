package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	// LockUser serializes writers for one user until the surrounding transaction ends.
	LockUser(ctx context.Context, userId string) error
	StoreEvent(ctx context.Context, event Event) (Event, error)
	// GetEvents returns events fully contained in [from, to].
	GetEvents(ctx context.Context, userId string, from, to time.Time) ([]Event, error)
	// FindOverlapping returns events with start < end and end > start.
	FindOverlapping(ctx context.Context, userId string, start, end time.Time) ([]Event, error)
	FindLatestEndAtOrBefore(ctx context.Context, userId string, t time.Time) (time.Time, bool, error)
	FindEarliestStartAtOrAfter(ctx context.Context, userId string, t time.Time) (time.Time, bool, error)
}

type queryer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type RepositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

// getQueryer returns the transaction when the repository is bound to one, the pool otherwise.
func (r *RepositoryImpl) getQueryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	if r.tx != nil {
		// already inside a transaction, join it
		return fn(r)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// no-op once committed
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	txRepo := &RepositoryImpl{db: r.db, tx: tx}
	if err := fn(txRepo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) LockUser(ctx context.Context, userId string) error {
	if r.tx == nil {
		return errors.New("user lock requires a transaction")
	}
	_, err := r.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userId)
	if err != nil {
		err := fmt.Errorf("could not lock user %s: %w", userId, err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) StoreEvent(ctx context.Context, event Event) (Event, error) {
	query := `INSERT INTO calendar_event (
                            uid,
                            title,
                            start_time,
                            end_time,
                            user_id,
                            meeting_id
						) VALUES ($1, $2, $3, $4, $5, $6)`

	if event.UID == uuid.Nil {
		event.UID = uuid.New()
	}
	var meetingId *string
	if event.MeetingId != "" {
		meetingId = &event.MeetingId
	}
	_, err := r.getQueryer().Exec(ctx, query,
		event.UID,
		event.Title,
		event.StartTime.UTC(),
		event.EndTime.UTC(),
		event.UserId,
		meetingId,
	)
	if err != nil {
		err := fmt.Errorf("could not store calendar event: %w", err)
		log.Error(err)
		return Event{}, err
	}
	return event, nil
}

func (r *RepositoryImpl) GetEvents(ctx context.Context, userId string, from, to time.Time) ([]Event, error) {
	query := `SELECT uid, title, start_time, end_time, user_id, meeting_id
              FROM calendar_event
              WHERE user_id = $1
                AND start_time >= $2
                AND end_time <= $3
              ORDER BY start_time`
	return r.queryEvents(ctx, query, userId, from.UTC(), to.UTC())
}

func (r *RepositoryImpl) FindOverlapping(ctx context.Context, userId string, start, end time.Time) ([]Event, error) {
	query := `SELECT uid, title, start_time, end_time, user_id, meeting_id
              FROM calendar_event
              WHERE user_id = $1
                AND start_time < $2
                AND end_time > $3
              ORDER BY start_time`
	return r.queryEvents(ctx, query, userId, end.UTC(), start.UTC())
}

func (r *RepositoryImpl) FindLatestEndAtOrBefore(ctx context.Context, userId string, t time.Time) (time.Time, bool, error) {
	return r.queryBoundary(ctx, `SELECT max(end_time) FROM calendar_event WHERE user_id = $1 AND end_time <= $2`, userId, t)
}

func (r *RepositoryImpl) FindEarliestStartAtOrAfter(ctx context.Context, userId string, t time.Time) (time.Time, bool, error) {
	return r.queryBoundary(ctx, `SELECT min(start_time) FROM calendar_event WHERE user_id = $1 AND start_time >= $2`, userId, t)
}

func (r *RepositoryImpl) queryBoundary(ctx context.Context, query string, userId string, t time.Time) (time.Time, bool, error) {
	var boundary *time.Time
	err := r.getQueryer().QueryRow(ctx, query, userId, t.UTC()).Scan(&boundary)
	if err != nil {
		err := fmt.Errorf("could not query calendar boundary: %w", err)
		log.Error(err)
		return time.Time{}, false, err
	}
	if boundary == nil {
		return time.Time{}, false, nil
	}
	return boundary.UTC(), true, nil
}

func (r *RepositoryImpl) queryEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := r.getQueryer().Query(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query calendar events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0, 10)
	for rows.Next() {
		var event Event
		var meetingId *string
		if err := rows.Scan(&event.UID, &event.Title, &event.StartTime, &event.EndTime, &event.UserId, &meetingId); err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		event.StartTime = event.StartTime.UTC()
		event.EndTime = event.EndTime.UTC()
		if meetingId != nil {
			event.MeetingId = *meetingId
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return events, nil
}
