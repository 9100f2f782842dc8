package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Attendance is written once per participant and never updated.
type Attendance struct {
	bun.BaseModel `bun:"table:attendances"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	ParticipantID string    `bun:"participant_id,notnull,unique" json:"participant_id"`
	EventID       string    `bun:"event_id,notnull" json:"event_id"`
	CheckInTime   time.Time `bun:"check_in_time,notnull" json:"check_in_time"`
}

// AttendeeRow is a participant joined with its attendance, if any.
type AttendeeRow struct {
	ParticipantID    string     `bun:"participant_id" json:"participant_id"`
	Name             string     `bun:"name" json:"name"`
	StudentID        string     `bun:"student_id" json:"student_id"`
	Email            string     `bun:"email" json:"email"`
	RegistrationDate time.Time  `bun:"registration_date" json:"registration_date"`
	CheckInTime      *time.Time `bun:"check_in_time" json:"check_in_time,omitempty"`
}
