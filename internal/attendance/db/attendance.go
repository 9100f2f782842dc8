package db

import (
	"context"
	"swiftattend/internal/models"
	"time"
)

// CreateAttendanceIfAbsent records a check-in unless the participant already
// has one. The insert is a single conditional statement against the unique
// participant_id constraint; the row returned is always the stored one, so a
// losing concurrent caller sees the winner's check-in time. at is stored in
// UTC truncated to microseconds.
func (d *DB) CreateAttendanceIfAbsent(ctx context.Context, participantID, eventID string, at time.Time) (*models.Attendance, bool, error) {
	attendance := &models.Attendance{
		ParticipantID: participantID,
		EventID:       eventID,
		CheckInTime:   storedTime(at),
	}

	res, err := d.Bun.NewInsert().
		Model(attendance).
		On("CONFLICT (participant_id) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return nil, false, classify(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	stored, err := d.GetAttendance(ctx, participantID)
	if err != nil {
		return nil, false, err
	}
	return stored, n == 1, nil
}

func (d *DB) GetAttendance(ctx context.Context, participantID string) (*models.Attendance, error) {
	var attendance models.Attendance
	err := d.Bun.NewSelect().
		Model(&attendance).
		Where("participant_id = ?", participantID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return &attendance, nil
}

// CountAttendances reads the current check-in count; nothing is cached.
func (d *DB) CountAttendances(ctx context.Context, eventID string) (int, error) {
	count, err := d.Bun.NewSelect().
		Model((*models.Attendance)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
	return count, classify(err)
}

// ListAttendees joins every participant of the event with its attendance, if any.
func (d *DB) ListAttendees(ctx context.Context, eventID string) ([]models.AttendeeRow, error) {
	rows := make([]models.AttendeeRow, 0)
	err := d.Bun.NewSelect().
		TableExpr("participants AS p").
		ColumnExpr("p.id AS participant_id").
		ColumnExpr("p.name, p.student_id, p.email, p.registration_date").
		ColumnExpr("a.check_in_time").
		Join("LEFT JOIN attendances AS a ON a.participant_id = p.id").
		Where("p.event_id = ?", eventID).
		OrderExpr("p.registration_date ASC").
		Scan(ctx, &rows)
	return rows, classify(err)
}
