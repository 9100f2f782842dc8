package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"swiftattend/internal/attendance/db"
	"swiftattend/internal/logger"
	"swiftattend/internal/models"
	"swiftattend/internal/token"
	"time"
)

const eventDateTimeLayout = "2006-01-02 15:04"

type EventInput struct {
	Name        string
	Date        time.Time
	Location    string
	Description string
}

type EventService struct {
	DB       EventDBLayer
	Renderer token.Renderer
	BaseURL  string
	Logger   *logger.Logger
}

func NewEventService(store EventDBLayer, renderer token.Renderer, baseURL string, log *logger.Logger) *EventService {
	return &EventService{DB: store, Renderer: renderer, BaseURL: baseURL, Logger: log}
}

// ParseEventDateTime combines a YYYY-MM-DD date and an HH:MM time.
func ParseEventDateTime(date, clock string) (time.Time, error) {
	t, err := time.Parse(eventDateTimeLayout, strings.TrimSpace(date)+" "+strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, &ValidationError{Fields: map[string]string{"date": "invalid date or time format"}}
	}
	return t, nil
}

func (s *EventService) CreateEvent(ctx context.Context, in EventInput) (*models.Event, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)

	v := &ValidationError{}
	required(v, "name", in.Name, 100)
	required(v, "location", in.Location, 100)
	if in.Date.IsZero() {
		v.add("date", "is required")
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}

	event := &models.Event{
		ID:          token.GenerateID(),
		Name:        in.Name,
		Date:        in.Date.UTC(),
		Location:    in.Location,
		Description: in.Description,
		CreatedAt:   now(),
	}
	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.Logger.LogDatabase("INSERT", "events", fmt.Sprintf("created event %s (%s)", event.ID, event.Name))
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.DB.GetEvent(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, notFound("event", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event %s: %w", id, err)
	}
	return event, nil
}

func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	events, err := s.DB.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// DeleteEvent removes the event and everything registered against it.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	err := s.DB.DeleteEvent(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return notFound("event", id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}

	s.Logger.LogDatabase("DELETE", "events", fmt.Sprintf("deleted event %s with its participants and attendances", id))
	return nil
}

func (s *EventService) Details(ctx context.Context, id string) (*models.EventDetails, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	participants, err := s.DB.ListParticipants(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for %s: %w", id, err)
	}

	count, err := s.DB.CountAttendances(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count attendances for %s: %w", id, err)
	}

	return &models.EventDetails{Event: event, Participants: participants, AttendanceCount: count}, nil
}

// Attendees returns the export rows for an event.
func (s *EventService) Attendees(ctx context.Context, id string) (*models.Event, []models.AttendeeRow, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.DB.ListAttendees(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list attendees for %s: %w", id, err)
	}
	return event, rows, nil
}

// RegistrationToken renders the event's public code, which carries the
// registration URL rather than the bare event id.
func (s *EventService) RegistrationToken(ctx context.Context, id string) (*models.Event, []byte, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	payload := token.RegistrationURL(s.BaseURL, event.ID)
	svg, err := s.Renderer.Render(ctx, payload)
	if err != nil {
		s.Logger.Error("TOKEN", fmt.Sprintf("Failed to render registration code for event %s: %v", event.ID, err))
		return nil, nil, err
	}
	return event, svg, nil
}
