// Package google mirrors booked meetings into a shared Google Calendar.
package google

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/klokku/meeting-scheduler/internal/event_bus"
	"github.com/klokku/meeting-scheduler/internal/worker"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const meetingIdProperty = "meetingId"

type Exporter struct {
	service    *gcal.Service
	calendarId string
}

func NewExporter(service *gcal.Service, calendarId string) *Exporter {
	return &Exporter{
		service:    service,
		calendarId: calendarId,
	}
}

// NewCalendarService builds a Calendar API client authenticated with a service account key file.
func NewCalendarService(ctx context.Context, credentialsFile string) (*gcal.Service, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read Google credentials file: %w", err)
	}
	jwtConfig, err := google.JWTConfigFromJSON(data, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse Google credentials: %w", err)
	}
	service, err := gcal.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		err := fmt.Errorf("unable to create Calendar client: %w", err)
		log.Error(err)
		return nil, err
	}
	return service, nil
}

// Register subscribes the exporter to booked meetings. Exports run on pool, the publisher only waits for the enqueue.
func (e *Exporter) Register(bus *event_bus.EventBus, pool *worker.Pool) (unsubscribe func()) {
	return event_bus.SubscribeTyped(bus, event_bus.MeetingBookedType, func(ev event_bus.EventT[event_bus.MeetingBooked]) error {
		future := worker.Submit(pool, ev.Context(), func(ctx context.Context) (string, error) {
			return e.Export(ctx, ev.Data)
		})
		select {
		case <-future.Done():
			// rejected by the pool, or already finished
			_, err := future.Await(context.Background())
			return err
		default:
			return nil
		}
	})
}

// Export inserts the meeting into the shared calendar and returns the Google event id.
func (e *Exporter) Export(ctx context.Context, meeting event_bus.MeetingBooked) (string, error) {
	log.Debugf("Exporting meeting %s to calendar: %s", meeting.MeetingId, e.calendarId)
	result, err := e.service.Events.Insert(e.calendarId, &gcal.Event{
		Summary:     meeting.Title,
		Description: "Participants: " + strings.Join(meeting.ParticipantIds, ", "),
		Start: &gcal.EventDateTime{
			DateTime: meeting.StartTime.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &gcal.EventDateTime{
			DateTime: meeting.EndTime.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{meetingIdProperty: meeting.MeetingId},
		},
	}).Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to insert meeting %s in Google Calendar: %w", meeting.MeetingId, err)
		log.Error(err)
		return "", err
	}

	log.Infof("Meeting %s exported to Google Calendar as %s", meeting.MeetingId, result.Id)
	return result.Id, nil
}
