package db

import (
	"context"
	"swiftattend/internal/models"

	"github.com/uptrace/bun"
)

// FindParticipantByNaturalKey returns the earliest participant of the event
// whose student id or email matches.
func (d *DB) FindParticipantByNaturalKey(ctx context.Context, eventID, studentID, email string) (*models.Participant, error) {
	var participant models.Participant
	err := d.Bun.NewSelect().
		Model(&participant).
		Where("event_id = ?", eventID).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("student_id = ?", studentID).WhereOr("email = ?", email)
		}).
		Order("registration_date ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return &participant, nil
}

// CreateParticipant inserts unless a participant with the same id, or the
// same student id or email within the event, already exists; in that case it
// returns ErrConstraintViolation and writes nothing.
func (d *DB) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	participant.RegistrationDate = storedTime(participant.RegistrationDate)
	res, err := d.Bun.NewInsert().
		Model(participant).
		On("CONFLICT DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConstraintViolation
	}
	return nil
}

func (d *DB) GetParticipant(ctx context.Context, id string) (*models.Participant, error) {
	var participant models.Participant
	err := d.Bun.NewSelect().
		Model(&participant).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return &participant, nil
}

// GetParticipantForEvent matches on id and owning event together, so an id
// presented at the wrong event is not found.
func (d *DB) GetParticipantForEvent(ctx context.Context, id, eventID string) (*models.Participant, error) {
	var participant models.Participant
	err := d.Bun.NewSelect().
		Model(&participant).
		Where("id = ?", id).
		Where("event_id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return &participant, nil
}

func (d *DB) ListParticipants(ctx context.Context, eventID string) ([]models.Participant, error) {
	participants := make([]models.Participant, 0)
	err := d.Bun.NewSelect().
		Model(&participants).
		Where("event_id = ?", eventID).
		Order("registration_date ASC").
		Scan(ctx)
	return participants, classify(err)
}

func (d *DB) CountParticipants(ctx context.Context, eventID string) (int, error) {
	count, err := d.Bun.NewSelect().
		Model((*models.Participant)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
	return count, classify(err)
}
