package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrInvalidRange = errors.New("invalid time range")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// GetEvents returns the user's events that lie entirely within [from, to].
func (s *Service) GetEvents(ctx context.Context, userId string, from time.Time, to time.Time) ([]Event, error) {
	if userId == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRange)
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	events, err := s.repo.GetEvents(ctx, userId, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	log.Debugf("Found %d events for user %s between %s and %s", len(events), userId, from, to)
	return events, nil
}
