package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
)

type checkRunRow struct {
	ID                string    `db:"id"`
	StartedAt         time.Time `db:"started_at"`
	FinishedAt        time.Time `db:"finished_at"`
	OverdueProjects   int       `db:"overdue_projects"`
	UpcomingDeadlines int       `db:"upcoming_deadlines"`
	InactiveTasks     int       `db:"inactive_tasks"`
	BudgetWarnings    int       `db:"budget_warnings"`
	Total             int       `db:"total"`
	Errors            string    `db:"errors"`
}

// CreateCheckRun records the outcome of one run of all rules.
func (s *SQLiteStore) CreateCheckRun(ctx context.Context, run model.CheckRun) error {
	errs := run.Errors
	if errs == nil {
		errs = []string{}
	}
	errorsJSON, err := json.Marshal(errs)
	if err != nil {
		return apperr.Wrap(err, "marshaling errors of check run %s", run.ID)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO check_runs (id, started_at, finished_at, overdue_projects,
			upcoming_deadlines, inactive_tasks, budget_warnings, total, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.OverdueProjects,
		run.UpcomingDeadlines, run.InactiveTasks, run.BudgetWarnings, run.Total,
		string(errorsJSON),
	)
	if err != nil {
		return apperr.Wrap(err, "creating check run %s", run.ID)
	}
	return nil
}

// GetCheckRuns returns the most recent check runs, newest first.
func (s *SQLiteStore) GetCheckRuns(ctx context.Context, limit int) ([]model.CheckRun, error) {
	var rows []checkRunRow
	query := paginate(`
		SELECT id, started_at, finished_at, overdue_projects, upcoming_deadlines,
			inactive_tasks, budget_warnings, total, errors
		FROM check_runs ORDER BY started_at DESC`, limit, 0)
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, apperr.Wrap(err, "querying check runs")
	}

	runs := make([]model.CheckRun, 0, len(rows))
	for _, r := range rows {
		run := model.CheckRun{
			ID:                r.ID,
			StartedAt:         r.StartedAt,
			FinishedAt:        r.FinishedAt,
			OverdueProjects:   r.OverdueProjects,
			UpcomingDeadlines: r.UpcomingDeadlines,
			InactiveTasks:     r.InactiveTasks,
			BudgetWarnings:    r.BudgetWarnings,
			Total:             r.Total,
		}
		if err := json.Unmarshal([]byte(r.Errors), &run.Errors); err != nil {
			return nil, apperr.Wrap(err, "unmarshaling errors of check run %s", r.ID)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
