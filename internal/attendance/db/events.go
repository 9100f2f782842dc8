package db

import (
	"context"
	"database/sql"
	"swiftattend/internal/models"

	"github.com/uptrace/bun"
)

func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	event.Date = storedTime(event.Date)
	event.CreatedAt = storedTime(event.CreatedAt)
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	return classify(err)
}

func (d *DB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return &event, nil
}

// ListEvents returns every event, latest date first.
func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	events := make([]models.Event, 0)
	err := d.Bun.NewSelect().
		Model(&events).
		Order("date DESC").
		Scan(ctx)
	return events, classify(err)
}

// DeleteEvent removes the event with its participants and attendances in one
// transaction. On Postgres the event row is locked first so concurrent
// registrations and check-ins either finish before the delete or fail their
// foreign key check after it.
func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if d.isPostgres() {
			var event models.Event
			if err := tx.NewSelect().Model(&event).Where("id = ?", id).For("UPDATE").Scan(ctx); err != nil {
				return classify(err)
			}
		}

		if _, err := tx.NewDelete().
			Model((*models.Attendance)(nil)).
			Where("event_id = ?", id).
			Exec(ctx); err != nil {
			return classify(err)
		}

		if _, err := tx.NewDelete().
			Model((*models.Participant)(nil)).
			Where("event_id = ?", id).
			Exec(ctx); err != nil {
			return classify(err)
		}

		res, err := tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return classify(err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
