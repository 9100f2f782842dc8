package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Participant is unique per event on StudentID and, separately, on Email.
type Participant struct {
	bun.BaseModel `bun:"table:participants"`

	ID               string    `bun:"id,pk" json:"id"`
	EventID          string    `bun:"event_id,notnull" json:"event_id"`
	Name             string    `bun:"name,notnull" json:"name"`
	StudentID        string    `bun:"student_id,notnull" json:"student_id"`
	Email            string    `bun:"email,notnull" json:"email"`
	RegistrationDate time.Time `bun:"registration_date,notnull" json:"registration_date"`
}
