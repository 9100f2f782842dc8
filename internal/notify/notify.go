package notify

import (
	"context"
	"errors"
	"time"
)

// Registration is sent once a participant has been registered.
type Registration struct {
	ParticipantID   string    `json:"participant_id"`
	ParticipantName string    `json:"participant_name"`
	Email           string    `json:"email"`
	EventID         string    `json:"event_id"`
	EventName       string    `json:"event_name"`
	RegisteredAt    time.Time `json:"registered_at"`
	RenderedToken   []byte    `json:"-"`
}

// CheckIn is sent after a first successful scan.
type CheckIn struct {
	ParticipantID   string    `json:"participant_id"`
	ParticipantName string    `json:"participant_name"`
	StudentID       string    `json:"student_id"`
	EventID         string    `json:"event_id"`
	CheckedInAt     time.Time `json:"checked_in_at"`
}

// Notifier delivers best-effort notifications. Callers log errors and carry on.
type Notifier interface {
	NotifyRegistration(ctx context.Context, r Registration) error
	NotifyCheckIn(ctx context.Context, c CheckIn) error
}

// Multi fans out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) NotifyRegistration(ctx context.Context, r Registration) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyRegistration(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) NotifyCheckIn(ctx context.Context, c CheckIn) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyCheckIn(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every notification.
type Nop struct{}

func (Nop) NotifyRegistration(context.Context, Registration) error { return nil }
func (Nop) NotifyCheckIn(context.Context, CheckIn) error           { return nil }
