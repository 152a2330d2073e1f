package store

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
)

// UpsertDeveloper inserts a developer, or updates position and rate of the
// developer with the same full name. d.ID is set either way.
func (s *SQLiteStore) UpsertDeveloper(ctx context.Context, d *model.Developer) error {
	d.FullName = strings.TrimSpace(d.FullName)
	if err := d.Validate(); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO developers (full_name, position, hourly_rate)
			VALUES (?, ?, ?)
			ON CONFLICT(full_name) DO UPDATE SET
				position = excluded.position,
				hourly_rate = excluded.hourly_rate`,
			d.FullName, d.Position, d.HourlyRate,
		)
		if err != nil {
			return apperr.Wrap(err, "upserting developer %q", d.FullName)
		}
		// LastInsertId is unreliable when the conflict branch ran.
		if err := tx.GetContext(ctx, &d.ID,
			"SELECT id FROM developers WHERE full_name = ?", d.FullName); err != nil {
			return apperr.Wrap(err, "reading developer id")
		}
		return nil
	})
}

// DeleteDeveloper removes a developer. Developers with tasks cannot be
// deleted.
func (s *SQLiteStore) DeleteDeveloper(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var taskCount int
		if err := tx.GetContext(ctx, &taskCount,
			"SELECT COUNT(*) FROM tasks WHERE developer_id = ?", id); err != nil {
			return apperr.Wrap(err, "counting tasks of developer %d", id)
		}
		if taskCount > 0 {
			return apperr.Conflictf("developer %d still has %d task(s)", id, taskCount)
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM developers WHERE id = ?", id)
		if err != nil {
			return apperr.Wrap(err, "deleting developer %d", id)
		}
		return checkAffected(result, "developer", id)
	})
}

// GetDeveloper retrieves a single developer by ID.
func (s *SQLiteStore) GetDeveloper(ctx context.Context, id int64) (*model.Developer, error) {
	var d model.Developer
	err := s.db.GetContext(ctx, &d,
		"SELECT id, full_name, position, hourly_rate FROM developers WHERE id = ?", id)
	if err != nil {
		return nil, getOne(err, "developer", id)
	}
	return &d, nil
}

// GetDevelopers retrieves all developers ordered by name.
func (s *SQLiteStore) GetDevelopers(ctx context.Context) ([]model.Developer, error) {
	var devs []model.Developer
	err := s.db.SelectContext(ctx, &devs,
		"SELECT id, full_name, position, hourly_rate FROM developers ORDER BY full_name")
	if err != nil {
		return nil, apperr.Wrap(err, "querying developers")
	}
	return devs, nil
}
