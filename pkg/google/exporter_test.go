package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klokku/meeting-scheduler/internal/event_bus"
	"github.com/klokku/meeting-scheduler/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func meeting() event_bus.MeetingBooked {
	return event_bus.MeetingBooked{
		MeetingId:      "meeting-1234",
		Title:          "New Meeting",
		ParticipantIds: []string{"test1", "test2"},
		StartTime:      time.Date(2024, 9, 1, 11, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

func setupExporter(t *testing.T, handler http.HandlerFunc) *Exporter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	service, err := gcal.NewService(context.Background(),
		option.WithHTTPClient(server.Client()),
		option.WithEndpoint(server.URL+"/"),
	)
	require.NoError(t, err)
	return NewExporter(service, "shared")
}

func TestExporter_Export(t *testing.T) {
	// given
	var received gcal.Event
	var path string
	exporter := setupExporter(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gcal-event-1"}`))
	})

	// when
	id, err := exporter.Export(context.Background(), meeting())

	// then
	require.NoError(t, err)
	assert.Equal(t, "gcal-event-1", id)
	assert.Equal(t, "/calendars/shared/events", path)
	assert.Equal(t, "New Meeting", received.Summary)
	assert.Equal(t, "Participants: test1, test2", received.Description)
	assert.Equal(t, "2024-09-01T11:00:00Z", received.Start.DateTime)
	assert.Equal(t, "2024-09-01T12:00:00Z", received.End.DateTime)
	assert.Equal(t, "meeting-1234", received.ExtendedProperties.Private[meetingIdProperty])
}

func TestExporter_Export_ApiError(t *testing.T) {
	exporter := setupExporter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"forbidden"}}`))
	})

	_, err := exporter.Export(context.Background(), meeting())

	assert.ErrorContains(t, err, "meeting-1234")
}

func TestExporter_Register_ExportsOffThePublisher(t *testing.T) {
	// given
	var calls atomic.Int32
	release := make(chan struct{})
	exporter := setupExporter(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gcal-event-1"}`))
	})
	pool := worker.NewPool(1, 10)
	bus := event_bus.NewEventBus()
	unsubscribe := exporter.Register(bus, pool)

	// when
	err := bus.Publish(event_bus.NewEvent(context.Background(), event_bus.MeetingBookedType, meeting()))

	// then
	require.NoError(t, err)
	assert.Equal(t, int32(0), calls.Load())
	close(release)
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// when
	unsubscribe()
	err = bus.Publish(event_bus.NewEvent(context.Background(), event_bus.MeetingBookedType, meeting()))
	require.NoError(t, err)
	require.NoError(t, pool.Shutdown(context.Background()))

	// then
	assert.Equal(t, int32(1), calls.Load())
}

func TestExporter_Register_RejectedExportIsReported(t *testing.T) {
	// given
	exporter := setupExporter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gcal-event-1"}`))
	})
	pool := worker.NewPool(1, 1)
	require.NoError(t, pool.Shutdown(context.Background()))
	bus := event_bus.NewEventBus()
	exporter.Register(bus, pool)

	// when
	err := bus.Publish(event_bus.NewEvent(context.Background(), event_bus.MeetingBookedType, meeting()))

	// then
	assert.ErrorIs(t, err, worker.ErrPoolClosed)
}

func TestNewCalendarService_InvalidCredentials(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"authorized_user"}`), 0600))

	// when
	_, errInvalid := NewCalendarService(context.Background(), path)
	_, errMissing := NewCalendarService(context.Background(), filepath.Join(t.TempDir(), "missing.json"))

	// then
	assert.ErrorContains(t, errInvalid, "unable to parse Google credentials")
	assert.ErrorContains(t, errMissing, "unable to read Google credentials file")
}
