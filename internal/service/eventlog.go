package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"dt_fancontrol/internal/models"
	"dt_fancontrol/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	errUnknownEventType = errors.New("unknown event type")
)

var eventTypes = map[string]bool{
	models.EventConnect:    true,
	models.EventDisconnect: true,
	models.EventSend:       true,
	models.EventFailure:    true,
	models.EventParseError: true,
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates them.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", invalid(errInvalidTimeRange)
	}

	typ := normalizeEventType(f.Type)
	if typ != "" && !eventTypes[typ] {
		return time.Time{}, time.Time{}, "", invalid(errUnknownEventType)
	}
	return from, to, typ, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.SessionEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}
