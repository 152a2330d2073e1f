package model

import (
	"strings"
	"time"

	"github.com/nhle/projectpulse/internal/apperr"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskStatusNew        TaskStatus = "new"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusInReview   TaskStatus = "in_review"
	TaskStatusDone       TaskStatus = "done"
)

// TaskStatuses lists every valid status in workflow order.
var TaskStatuses = []TaskStatus{
	TaskStatusNew,
	TaskStatusInProgress,
	TaskStatusInReview,
	TaskStatusDone,
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Task is a unit of work on a project, optionally assigned to a developer.
type Task struct {
	ID          int64      `json:"id" db:"id"`
	ProjectID   int64      `json:"project_id" db:"project_id"`
	DeveloperID *int64     `json:"developer_id,omitempty" db:"developer_id"`
	Description string     `json:"description" db:"description"`
	Status      TaskStatus `json:"status" db:"status"`
	HoursWorked float64    `json:"hours_worked" db:"hours_worked"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsDone reports whether the task is finished.
func (t Task) IsDone() bool { return t.Status == TaskStatusDone }

// Validate checks the field-level invariants of a task. Reference checks
// against projects and developers happen in the store.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return apperr.Validationf("description", "task description must not be empty")
	}
	if t.ProjectID <= 0 {
		return apperr.Validationf("project_id", "task must belong to a project")
	}
	if t.DeveloperID != nil && *t.DeveloperID <= 0 {
		return apperr.Validationf("developer_id", "invalid developer id %d", *t.DeveloperID)
	}
	if !t.Status.Valid() {
		return apperr.Validationf("status", "invalid task status %q", t.Status)
	}
	if t.HoursWorked < 0 {
		return apperr.Validationf("hours_worked", "hours worked must not be negative")
	}
	return nil
}

// TaskActivity is a task joined with the names of its project and developer.
type TaskActivity struct {
	Task
	ProjectName     string  `json:"project_name" db:"project_name"`
	ProjectDeadline *string `json:"project_deadline,omitempty" db:"project_deadline"`
	DeveloperName   *string `json:"developer_name,omitempty" db:"developer_name"`
}
