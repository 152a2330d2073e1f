package store

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
)

const projectColumns = "id, name, client, deadline, budget, status, created_at"

// normalizeProject trims text fields, drops a blank deadline and rewrites a
// valid one in canonical form.
func normalizeProject(p *model.Project) {
	p.Name = strings.TrimSpace(p.Name)
	p.Client = strings.TrimSpace(p.Client)
	p.Status = strings.TrimSpace(p.Status)
	if p.Status == "" {
		p.Status = model.ProjectStatusInProgress
	}
	if !p.HasDeadline() {
		p.Deadline = nil
		return
	}
	if d, err := model.ParseDate(*p.Deadline); err == nil {
		s := model.FormatDate(d)
		p.Deadline = &s
	}
}

// CreateProject validates and inserts a new project, filling in its ID and
// creation time.
func (s *SQLiteStore) CreateProject(ctx context.Context, p *model.Project) error {
	normalizeProject(p)
	if err := p.Validate(s.Now()); err != nil {
		return err
	}
	p.CreatedAt = s.Now()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (name, client, deadline, budget, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.Client, p.Deadline, p.Budget, p.Status, p.CreatedAt,
	)
	if err != nil {
		return apperr.Wrap(err, "creating project")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return apperr.Wrap(err, "reading project id")
	}
	p.ID = id
	return nil
}

// UpdateProject overwrites the editable fields of an existing project.
func (s *SQLiteStore) UpdateProject(ctx context.Context, p *model.Project) error {
	normalizeProject(p)
	if err := p.Validate(s.Now()); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE projects SET
			name = ?, client = ?, deadline = ?, budget = ?, status = ?
		WHERE id = ?`,
		p.Name, p.Client, p.Deadline, p.Budget, p.Status, p.ID,
	)
	if err != nil {
		return apperr.Wrap(err, "updating project %d", p.ID)
	}
	return checkAffected(result, "project", p.ID)
}

// DeleteProject removes a project together with its tasks.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE project_id = ?", id); err != nil {
			return apperr.Wrap(err, "deleting tasks of project %d", id)
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
		if err != nil {
			return apperr.Wrap(err, "deleting project %d", id)
		}
		return checkAffected(result, "project", id)
	})
}

// GetProject retrieves a single project by ID.
func (s *SQLiteStore) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	var p model.Project
	err := s.db.GetContext(ctx, &p,
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	if err != nil {
		return nil, getOne(err, "project", id)
	}
	return &p, nil
}

// GetProjects retrieves all projects ordered by ID.
func (s *SQLiteStore) GetProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	err := s.db.SelectContext(ctx, &projects,
		"SELECT "+projectColumns+" FROM projects ORDER BY id")
	if err != nil {
		return nil, apperr.Wrap(err, "querying projects")
	}
	return projects, nil
}
