package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"swiftattend/internal/attendance/db"
	"swiftattend/internal/logger"
	"swiftattend/internal/metrics"
	"swiftattend/internal/notify"
	"swiftattend/internal/token"
	"time"
)

type CheckInStatus string

const (
	CheckInSuccess   CheckInStatus = "success"
	CheckInDuplicate CheckInStatus = "warning"
)

const participantNotFoundMessage = "Participant not found for this event"

// CheckInResult is either a first check-in or a repeat scan. For a repeat,
// CheckedInAt is the original check-in time.
type CheckInResult struct {
	Status          CheckInStatus `json:"status"`
	Message         string        `json:"message"`
	ParticipantID   string        `json:"participant_id"`
	ParticipantName string        `json:"participant_name"`
	StudentID       string        `json:"student_id"`
	CheckedInAt     time.Time     `json:"checked_in_at"`
}

func (r *CheckInResult) Duplicate() bool {
	return r.Status == CheckInDuplicate
}

type CheckInService struct {
	DB       CheckInDBLayer
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
	Now      func() time.Time
}

func NewCheckInService(store CheckInDBLayer, notifier notify.Notifier, m *metrics.Metrics, log *logger.Logger) *CheckInService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &CheckInService{DB: store, Notifier: notifier, Metrics: m, Logger: log, Now: now}
}

// CheckIn records the first scan of a participant's code at an event.
// scanned is the decoded code text, normally the bare participant id.
func (s *CheckInService) CheckIn(ctx context.Context, scanned, eventID string) (result *CheckInResult, err error) {
	start := time.Now()
	defer func() {
		s.Metrics.ObserveCheckIn(start)
		s.Metrics.RecordCheckIn(checkInOutcome(result, err))
	}()

	scanned = strings.TrimSpace(scanned)
	eventID = strings.TrimSpace(eventID)

	v := &ValidationError{}
	if scanned == "" {
		v.add("participant_id", "is required")
	}
	if eventID == "" {
		v.add("event_id", "is required")
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}

	payload, err := token.ParsePayload(scanned)
	if err != nil {
		s.Logger.LogCheckIn("REJECT", eventID, fmt.Sprintf("unrecognized code %q", truncate(scanned, 40)))
		return nil, fmt.Errorf("%s: %w", participantNotFoundMessage, ErrNotFound)
	}
	if payload.Kind != token.KindParticipant {
		return nil, &ValidationError{Fields: map[string]string{"participant_id": "scanned code is an event registration code"}}
	}

	event, err := s.DB.GetEvent(ctx, eventID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, notFound("event", eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event %s: %w", eventID, err)
	}

	participant, err := s.DB.GetParticipantForEvent(ctx, payload.ID, event.ID)
	if errors.Is(err, db.ErrNotFound) {
		s.Logger.LogCheckIn("REJECT", event.ID, fmt.Sprintf("participant %s is not registered for this event", payload.ID))
		return nil, fmt.Errorf("%s: %w", participantNotFoundMessage, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load participant %s: %w", payload.ID, err)
	}

	attendance, created, err := s.DB.CreateAttendanceIfAbsent(ctx, participant.ID, event.ID, s.Now())
	if errors.Is(err, db.ErrNotFound) {
		// The event was deleted between the lookup and the insert.
		return nil, fmt.Errorf("%s: %w", participantNotFoundMessage, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record attendance for %s: %w", participant.ID, err)
	}

	result = &CheckInResult{
		ParticipantID:   participant.ID,
		ParticipantName: participant.Name,
		StudentID:       participant.StudentID,
		CheckedInAt:     attendance.CheckInTime,
	}

	if !created {
		result.Status = CheckInDuplicate
		result.Message = fmt.Sprintf("%s (ID: %s) already checked in at %s.",
			participant.Name, participant.StudentID, attendance.CheckInTime.UTC().Format("15:04"))
		s.Logger.LogCheckIn("DUPLICATE", event.ID, result.Message)
		return result, nil
	}

	result.Status = CheckInSuccess
	result.Message = fmt.Sprintf("Checked in %s (%s) for %s.", participant.Name, participant.StudentID, event.Name)
	s.Logger.LogCheckIn("SUCCESS", event.ID, result.Message)

	err = s.Notifier.NotifyCheckIn(ctx, notify.CheckIn{
		ParticipantID:   participant.ID,
		ParticipantName: participant.Name,
		StudentID:       participant.StudentID,
		EventID:         event.ID,
		CheckedInAt:     attendance.CheckInTime,
	})
	if err != nil {
		s.Logger.Warn("NOTIFY", fmt.Sprintf("Check-in notification for %s failed: %v", participant.ID, err))
	}

	return result, nil
}

// LiveCount is the current number of check-ins for an existing event.
func (s *CheckInService) LiveCount(ctx context.Context, eventID string) (int, error) {
	if _, err := s.DB.GetEvent(ctx, eventID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return 0, notFound("event", eventID)
		}
		return 0, fmt.Errorf("failed to load event %s: %w", eventID, err)
	}

	count, err := s.DB.CountAttendances(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to count attendances for %s: %w", eventID, err)
	}
	return count, nil
}

func checkInOutcome(result *CheckInResult, err error) string {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case err != nil:
		return metrics.OutcomeError
	case result.Duplicate():
		return metrics.OutcomeDuplicate
	default:
		return metrics.OutcomeCreated
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
