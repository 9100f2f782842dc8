package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"swiftattend/internal/attendance/db"
	"swiftattend/internal/logger"
	"swiftattend/internal/metrics"
	"swiftattend/internal/models"
	"swiftattend/internal/notify"
	"swiftattend/internal/token"
)

// RegisterResult is the participant now holding the natural key. When
// AlreadyRegistered is set nothing was written and Participant is the
// earlier registration, whose token the caller should show again.
type RegisterResult struct {
	Participant       *models.Participant
	Event             *models.Event
	AlreadyRegistered bool
}

type ParticipantToken struct {
	Participant *models.Participant
	Event       *models.Event
	SVG         []byte
}

type RegistrationService struct {
	DB       RegistrationDBLayer
	Renderer token.Renderer
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

func NewRegistrationService(store RegistrationDBLayer, renderer token.Renderer, notifier notify.Notifier, m *metrics.Metrics, log *logger.Logger) *RegistrationService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &RegistrationService{DB: store, Renderer: renderer, Notifier: notifier, Metrics: m, Logger: log}
}

func (s *RegistrationService) Register(ctx context.Context, eventID, name, studentID, email string) (*RegisterResult, error) {
	event, err := s.DB.GetEvent(ctx, eventID)
	if errors.Is(err, db.ErrNotFound) {
		s.Metrics.RecordRegistration(metrics.OutcomeNotFound)
		return nil, notFound("event", eventID)
	}
	if err != nil {
		s.Metrics.RecordRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to load event %s: %w", eventID, err)
	}

	name = strings.TrimSpace(name)
	studentID = strings.TrimSpace(studentID)
	email = strings.TrimSpace(email)

	v := &ValidationError{}
	required(v, "name", name, 100)
	required(v, "student_id", studentID, 50)
	required(v, "email", email, 100)
	if _, ok := v.Fields["email"]; !ok {
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			v.add("email", "is not a valid address")
		}
	}
	if err := v.orNil(); err != nil {
		s.Metrics.RecordRegistration(metrics.OutcomeInvalid)
		return nil, err
	}

	existing, err := s.DB.FindParticipantByNaturalKey(ctx, event.ID, studentID, email)
	if err == nil {
		return s.alreadyRegistered(existing, event), nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		s.Metrics.RecordRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to look up registration: %w", err)
	}

	participant := &models.Participant{
		ID:               token.GenerateID(),
		EventID:          event.ID,
		Name:             name,
		StudentID:        studentID,
		Email:            email,
		RegistrationDate: now(),
	}

	err = s.DB.CreateParticipant(ctx, participant)
	switch {
	case errors.Is(err, db.ErrConstraintViolation):
		// Lost a race with a concurrent registration for the same key.
		winner, ferr := s.DB.FindParticipantByNaturalKey(ctx, event.ID, studentID, email)
		if ferr != nil {
			s.Metrics.RecordRegistration(metrics.OutcomeError)
			return nil, fmt.Errorf("failed to resolve conflicting registration: %w", ferr)
		}
		return s.alreadyRegistered(winner, event), nil
	case errors.Is(err, db.ErrNotFound):
		s.Metrics.RecordRegistration(metrics.OutcomeNotFound)
		return nil, notFound("event", eventID)
	case err != nil:
		s.Metrics.RecordRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}

	s.Metrics.RecordRegistration(metrics.OutcomeCreated)
	s.Logger.LogRegistration("CREATE", participant.ID, fmt.Sprintf("%s (%s) registered for %s", name, studentID, event.Name))

	s.notify(ctx, participant, event)

	return &RegisterResult{Participant: participant, Event: event}, nil
}

func (s *RegistrationService) alreadyRegistered(p *models.Participant, event *models.Event) *RegisterResult {
	s.Metrics.RecordRegistration(metrics.OutcomeDuplicate)
	s.Logger.Warn("REGISTER", fmt.Sprintf("%s already registered for %s as %s", p.StudentID, event.Name, p.ID))
	return &RegisterResult{Participant: p, Event: event, AlreadyRegistered: true}
}

// notify is best-effort: the registration is already committed.
func (s *RegistrationService) notify(ctx context.Context, p *models.Participant, event *models.Event) {
	svg, err := s.Renderer.Render(ctx, p.ID)
	if err != nil {
		s.Logger.Error("TOKEN", fmt.Sprintf("Failed to render token for participant %s: %v", p.ID, err))
		return
	}

	err = s.Notifier.NotifyRegistration(ctx, notify.Registration{
		ParticipantID:   p.ID,
		ParticipantName: p.Name,
		Email:           p.Email,
		EventID:         event.ID,
		EventName:       event.Name,
		RegisteredAt:    p.RegistrationDate,
		RenderedToken:   svg,
	})
	if err != nil {
		s.Logger.Warn("NOTIFY", fmt.Sprintf("Registration notification for %s failed: %v", p.ID, err))
	}
}

// Participant resolves a participant together with its event.
func (s *RegistrationService) Participant(ctx context.Context, participantID string) (*models.Participant, *models.Event, error) {
	participant, err := s.DB.GetParticipant(ctx, participantID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, notFound("participant", participantID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load participant %s: %w", participantID, err)
	}

	event, err := s.DB.GetEvent(ctx, participant.EventID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, notFound("event", participant.EventID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load event %s: %w", participant.EventID, err)
	}
	return participant, event, nil
}

// ParticipantToken renders a participant's personal code. Its payload is the
// bare participant identifier.
func (s *RegistrationService) ParticipantToken(ctx context.Context, participantID string) (*ParticipantToken, error) {
	participant, event, err := s.Participant(ctx, participantID)
	if err != nil {
		return nil, err
	}

	svg, err := s.Renderer.Render(ctx, participant.ID)
	if err != nil {
		s.Logger.Error("TOKEN", fmt.Sprintf("Failed to render token for participant %s: %v", participant.ID, err))
		return nil, err
	}

	return &ParticipantToken{Participant: participant, Event: event, SVG: svg}, nil
}
