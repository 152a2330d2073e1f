package store

import (
	"context"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
)

// Unassigned tasks contribute hours but no cost: the developer join is
// outer, so their hours_worked * hourly_rate is NULL and SUM skips it.
const summaryQuery = `
	SELECT
		p.id, p.name, p.client, p.deadline, p.budget, p.status, p.created_at,
		COUNT(t.id) AS total_tasks,
		COALESCE(SUM(CASE WHEN t.status = 'done' THEN 1 ELSE 0 END), 0) AS completed_tasks,
		COALESCE(SUM(t.hours_worked), 0.0) AS total_hours,
		COALESCE(SUM(t.hours_worked * d.hourly_rate), 0.0) AS labor_cost
	FROM projects p
	LEFT JOIN tasks t ON t.project_id = p.id
	LEFT JOIN developers d ON d.id = t.developer_id`

// GetProjectSummary returns one project with its task aggregates.
func (s *SQLiteStore) GetProjectSummary(ctx context.Context, projectID int64) (*model.ProjectSummary, error) {
	var summary model.ProjectSummary
	err := s.db.GetContext(ctx, &summary,
		summaryQuery+" WHERE p.id = ? GROUP BY p.id", projectID)
	if err != nil {
		return nil, getOne(err, "project", projectID)
	}
	return &summary, nil
}

// GetProjectSummaries returns every project with its task aggregates.
func (s *SQLiteStore) GetProjectSummaries(ctx context.Context) ([]model.ProjectSummary, error) {
	var summaries []model.ProjectSummary
	err := s.db.SelectContext(ctx, &summaries,
		summaryQuery+" GROUP BY p.id ORDER BY p.id")
	if err != nil {
		return nil, apperr.Wrap(err, "querying project summaries")
	}
	return summaries, nil
}

// GetTaskActivity returns tasks joined with their project and developer
// names, optionally only those not yet done.
func (s *SQLiteStore) GetTaskActivity(ctx context.Context, onlyOpen bool) ([]model.TaskActivity, error) {
	query := `
		SELECT ` + taskColumns + `,
			p.name AS project_name,
			p.deadline AS project_deadline,
			d.full_name AS developer_name
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		LEFT JOIN developers d ON d.id = t.developer_id`
	if onlyOpen {
		query += " WHERE t.status <> 'done'"
	}
	query += " ORDER BY t.id"

	var activity []model.TaskActivity
	if err := s.db.SelectContext(ctx, &activity, query); err != nil {
		return nil, apperr.Wrap(err, "querying task activity")
	}
	return activity, nil
}
