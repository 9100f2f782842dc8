package db

import (
	"context"
	"fmt"
	"swiftattend/internal/models"
)

type uniqueIndex struct {
	name    string
	model   interface{}
	columns []string
}

var uniqueIndexes = []uniqueIndex{
	{"participants_event_student_key", (*models.Participant)(nil), []string{"event_id", "student_id"}},
	{"participants_event_email_key", (*models.Participant)(nil), []string{"event_id", "email"}},
}

// CreateSchema creates the tables and unique indexes from the bun models.
// Postgres deployments use the SQL migrations instead.
func (d *DB) CreateSchema(ctx context.Context) error {
	if _, err := d.Bun.NewCreateTable().
		Model((*models.Event)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create events: %w", err)
	}

	if _, err := d.Bun.NewCreateTable().
		Model((*models.Participant)(nil)).
		IfNotExists().
		ForeignKey(`("event_id") REFERENCES "events" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create participants: %w", err)
	}

	if _, err := d.Bun.NewCreateTable().
		Model((*models.Attendance)(nil)).
		IfNotExists().
		ForeignKey(`("participant_id") REFERENCES "participants" ("id") ON DELETE CASCADE`).
		ForeignKey(`("event_id") REFERENCES "events" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create attendances: %w", err)
	}

	for _, idx := range uniqueIndexes {
		if _, err := d.Bun.NewCreateIndex().
			Model(idx.model).
			Unique().
			IfNotExists().
			Index(idx.name).
			Column(idx.columns...).
			Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}

	return nil
}

// DropSchema drops all tables in reverse dependency order.
func (d *DB) DropSchema(ctx context.Context) error {
	tables := []interface{}{(*models.Attendance)(nil), (*models.Participant)(nil), (*models.Event)(nil)}
	for _, m := range tables {
		if _, err := d.Bun.NewDropTable().Model(m).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop %T: %w", m, err)
		}
	}
	return nil
}
