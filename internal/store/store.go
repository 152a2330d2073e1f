package store

import (
	"context"

	"github.com/nhle/projectpulse/internal/model"
)

// TaskFilter narrows task queries. Nil fields match everything.
type TaskFilter struct {
	ProjectID   *int64
	DeveloperID *int64
	Status      *model.TaskStatus
	OnlyOpen    bool
	Limit       int
	Offset      int
}

// NotificationFilter controls filtering and pagination for notification
// queries. A non-nil UserID matches that user's notifications plus
// broadcasts. A positive AfterID keeps only notifications created after
// that one.
type NotificationFilter struct {
	OnlyUnread bool
	UserID     *int64
	AfterID    int64
	Limit      int
	Offset     int
}

// Store defines the persistence interface for projects, developers, tasks,
// notifications and rule check runs.
type Store interface {
	// === Projects ===

	CreateProject(ctx context.Context, p *model.Project) error
	UpdateProject(ctx context.Context, p *model.Project) error
	DeleteProject(ctx context.Context, id int64) error
	GetProject(ctx context.Context, id int64) (*model.Project, error)
	GetProjects(ctx context.Context) ([]model.Project, error)

	// === Developers ===

	UpsertDeveloper(ctx context.Context, d *model.Developer) error
	DeleteDeveloper(ctx context.Context, id int64) error
	GetDeveloper(ctx context.Context, id int64) (*model.Developer, error)
	GetDevelopers(ctx context.Context) ([]model.Developer, error)

	// === Tasks ===

	CreateTask(ctx context.Context, t *model.Task) error
	UpdateTask(ctx context.Context, t *model.Task) error
	DeleteTask(ctx context.Context, id int64) error
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)

	// === Aggregates ===

	GetProjectSummary(ctx context.Context, projectID int64) (*model.ProjectSummary, error)
	GetProjectSummaries(ctx context.Context) ([]model.ProjectSummary, error)
	GetTaskActivity(ctx context.Context, onlyOpen bool) ([]model.TaskActivity, error)

	// === Notifications ===

	CreateNotification(ctx context.Context, n *model.Notification) error
	GetNotification(ctx context.Context, id int64) (*model.Notification, error)
	GetNotifications(ctx context.Context, filter NotificationFilter) ([]model.Notification, error)
	GetNotifiedTargets(ctx context.Context, kind model.RelatedKind) (map[int64]bool, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) (int64, error)
	DeleteNotification(ctx context.Context, id int64) error
	DeleteReadNotifications(ctx context.Context) (int64, error)
	CountUnreadNotifications(ctx context.Context, userID *int64) (int, error)

	// === Check runs ===

	CreateCheckRun(ctx context.Context, run model.CheckRun) error
	GetCheckRuns(ctx context.Context, limit int) ([]model.CheckRun, error)

	Close() error
}
