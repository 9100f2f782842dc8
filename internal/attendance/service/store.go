package service

import (
	"context"
	"swiftattend/internal/attendance/db"
	"swiftattend/internal/models"
	"time"
)

type EventDBLayer interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListParticipants(ctx context.Context, eventID string) ([]models.Participant, error)
	CountAttendances(ctx context.Context, eventID string) (int, error)
	ListAttendees(ctx context.Context, eventID string) ([]models.AttendeeRow, error)
}

type RegistrationDBLayer interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	GetParticipant(ctx context.Context, id string) (*models.Participant, error)
	FindParticipantByNaturalKey(ctx context.Context, eventID, studentID, email string) (*models.Participant, error)
	CreateParticipant(ctx context.Context, participant *models.Participant) error
}

type CheckInDBLayer interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	GetParticipantForEvent(ctx context.Context, id, eventID string) (*models.Participant, error)
	CreateAttendanceIfAbsent(ctx context.Context, participantID, eventID string, at time.Time) (*models.Attendance, bool, error)
	CountAttendances(ctx context.Context, eventID string) (int, error)
}

// Store is everything the services need; *db.DB implements it.
type Store interface {
	EventDBLayer
	RegistrationDBLayer
	CheckInDBLayer
}

var _ Store = (*db.DB)(nil)

func now() time.Time {
	// Postgres keeps microseconds; truncating keeps returned and stored times equal.
	return time.Now().UTC().Truncate(time.Microsecond)
}
