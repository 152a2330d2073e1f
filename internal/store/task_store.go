package store

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
)

const taskColumns = `t.id, t.project_id, t.developer_id, t.description, t.status,
	t.hours_worked, t.created_at, t.updated_at`

// checkTaskRefs verifies that the project and, when set, the developer of t
// exist.
func checkTaskRefs(ctx context.Context, tx *sqlx.Tx, t *model.Task) error {
	ok, err := exists(ctx, tx, "projects", t.ProjectID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFoundf("project %d not found", t.ProjectID)
	}
	if t.DeveloperID == nil {
		return nil
	}
	ok, err = exists(ctx, tx, "developers", *t.DeveloperID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFoundf("developer %d not found", *t.DeveloperID)
	}
	return nil
}

// CreateTask validates and inserts a task. An empty status defaults to new.
func (s *SQLiteStore) CreateTask(ctx context.Context, t *model.Task) error {
	t.Description = strings.TrimSpace(t.Description)
	if t.Status == "" {
		t.Status = model.TaskStatusNew
	}
	if err := t.Validate(); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkTaskRefs(ctx, tx, t); err != nil {
			return err
		}
		now := s.Now()
		result, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (project_id, developer_id, description, status,
				hours_worked, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.ProjectID, t.DeveloperID, t.Description, string(t.Status),
			t.HoursWorked, now, now,
		)
		if err != nil {
			return apperr.Wrap(err, "creating task")
		}
		id, err := result.LastInsertId()
		if err != nil {
			return apperr.Wrap(err, "reading task id")
		}
		t.ID = id
		t.CreatedAt = now
		t.UpdatedAt = now
		return nil
	})
}

// UpdateTask overwrites an existing task and advances its updated_at.
func (s *SQLiteStore) UpdateTask(ctx context.Context, t *model.Task) error {
	t.Description = strings.TrimSpace(t.Description)
	if err := t.Validate(); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkTaskRefs(ctx, tx, t); err != nil {
			return err
		}
		now := s.Now()
		result, err := tx.ExecContext(ctx, `
			UPDATE tasks SET
				project_id = ?, developer_id = ?, description = ?, status = ?,
				hours_worked = ?, updated_at = ?
			WHERE id = ?`,
			t.ProjectID, t.DeveloperID, t.Description, string(t.Status),
			t.HoursWorked, now, t.ID,
		)
		if err != nil {
			return apperr.Wrap(err, "updating task %d", t.ID)
		}
		if err := checkAffected(result, "task", t.ID); err != nil {
			return err
		}
		t.UpdatedAt = now
		return nil
	})
}

// DeleteTask removes a task by ID.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return apperr.Wrap(err, "deleting task %d", id)
	}
	return checkAffected(result, "task", id)
}

// GetTask retrieves a single task by ID.
func (s *SQLiteStore) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	var t model.Task
	err := s.db.GetContext(ctx, &t,
		"SELECT "+taskColumns+" FROM tasks t WHERE t.id = ?", id)
	if err != nil {
		return nil, getOne(err, "task", id)
	}
	return &t, nil
}

// GetTasks retrieves tasks matching the filter, oldest first.
func (s *SQLiteStore) GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	var conditions []string
	var args []interface{}

	if filter.ProjectID != nil {
		conditions = append(conditions, "t.project_id = ?")
		args = append(args, *filter.ProjectID)
	}
	if filter.DeveloperID != nil {
		conditions = append(conditions, "t.developer_id = ?")
		args = append(args, *filter.DeveloperID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "t.status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.OnlyOpen {
		conditions = append(conditions, "t.status <> 'done'")
	}

	query := "SELECT " + taskColumns + " FROM tasks t"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query = paginate(query+" ORDER BY t.id", filter.Limit, filter.Offset)

	var tasks []model.Task
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, apperr.Wrap(err, "querying tasks")
	}
	return tasks, nil
}
