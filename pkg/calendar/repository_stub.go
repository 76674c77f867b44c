package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RepositoryStub is an in-memory Repository used by service tests.
type RepositoryStub struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Event

	// StoreErr, when set, is consulted before each StoreEvent and may fail it.
	StoreErr func(event Event) error
	// QueryErr, when set, fails every read with the returned error.
	QueryErr error

	overlapCalls map[string]int
	lockedUsers  []string
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		items:        make(map[uuid.UUID]Event),
		overlapCalls: make(map[string]int),
	}
}

// WithTransaction runs fn against a view that records its inserts. On error only those inserts are removed.
func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx := &stubTx{RepositoryStub: r}
	if err := fn(tx); err != nil {
		r.mu.Lock()
		for _, uid := range tx.inserted {
			delete(r.items, uid)
		}
		r.mu.Unlock()
		return err
	}
	return nil
}

type stubTx struct {
	*RepositoryStub
	inserted []uuid.UUID
}

func (t *stubTx) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	return fn(t)
}

func (t *stubTx) StoreEvent(ctx context.Context, event Event) (Event, error) {
	stored, err := t.RepositoryStub.StoreEvent(ctx, event)
	if err != nil {
		return Event{}, err
	}
	t.inserted = append(t.inserted, stored.UID)
	return stored, nil
}

func (r *RepositoryStub) LockUser(ctx context.Context, userId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lockedUsers = append(r.lockedUsers, userId)
	return nil
}

func (r *RepositoryStub) StoreEvent(ctx context.Context, event Event) (Event, error) {
	if r.StoreErr != nil {
		if err := r.StoreErr(event); err != nil {
			return Event{}, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if event.UID == uuid.Nil {
		event.UID = uuid.New()
	}
	event.StartTime = event.StartTime.UTC()
	event.EndTime = event.EndTime.UTC()
	r.items[event.UID] = event
	return event, nil
}

func (r *RepositoryStub) GetEvents(ctx context.Context, userId string, from, to time.Time) ([]Event, error) {
	return r.filter(userId, func(e Event) bool { return e.Within(from, to) })
}

func (r *RepositoryStub) FindOverlapping(ctx context.Context, userId string, start, end time.Time) ([]Event, error) {
	r.mu.Lock()
	r.overlapCalls[userId]++
	r.mu.Unlock()
	return r.filter(userId, func(e Event) bool { return e.Overlaps(start, end) })
}

func (r *RepositoryStub) FindLatestEndAtOrBefore(ctx context.Context, userId string, t time.Time) (time.Time, bool, error) {
	events, err := r.filter(userId, func(e Event) bool { return !e.EndTime.After(t) })
	if err != nil || len(events) == 0 {
		return time.Time{}, false, err
	}
	latest := events[0].EndTime
	for _, e := range events[1:] {
		if e.EndTime.After(latest) {
			latest = e.EndTime
		}
	}
	return latest, true, nil
}

func (r *RepositoryStub) FindEarliestStartAtOrAfter(ctx context.Context, userId string, t time.Time) (time.Time, bool, error) {
	events, err := r.filter(userId, func(e Event) bool { return !e.StartTime.Before(t) })
	if err != nil || len(events) == 0 {
		return time.Time{}, false, err
	}
	// filter sorts by start time
	return events[0].StartTime, true, nil
}

func (r *RepositoryStub) filter(userId string, keep func(Event) bool) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.QueryErr != nil {
		return nil, r.QueryErr
	}
	var result []Event
	for _, event := range r.items {
		if event.UserId == userId && keep(event) {
			result = append(result, event)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result, nil
}

// AddEvents stores the given events directly, bypassing StoreErr. Test setup helper.
func (r *RepositoryStub) AddEvents(events ...Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range events {
		if event.UID == uuid.Nil {
			event.UID = uuid.New()
		}
		event.StartTime = event.StartTime.UTC()
		event.EndTime = event.EndTime.UTC()
		r.items[event.UID] = event
	}
}

// GetAllEvents returns every stored event ordered by start time.
func (r *RepositoryStub) GetAllEvents() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Event, 0, len(r.items))
	for _, event := range r.items {
		result = append(result, event)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result
}

// OverlapCalls returns how many times FindOverlapping was called for the user.
func (r *RepositoryStub) OverlapCalls(userId string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overlapCalls[userId]
}

// LockedUsers returns the users locked so far, in lock order.
func (r *RepositoryStub) LockedUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.lockedUsers...)
}
