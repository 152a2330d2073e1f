package model

import "time"

// NotificationType is the severity of a notification.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Valid reports whether t is a persisted notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationInfo, NotificationWarning, NotificationError:
		return true
	}
	return false
}

// EntityKind names the table a Ref points into.
type EntityKind string

const (
	EntityProject   EntityKind = "project"
	EntityTask      EntityKind = "task"
	EntityDeveloper EntityKind = "developer"
)

// RelatedKind tags what a notification refers to. The rule categories
// double as deduplication keys, so their string values are persisted and
// must not change.
type RelatedKind string

const (
	RelatedProjectOverdue  RelatedKind = "project_overdue"
	RelatedProjectUpcoming RelatedKind = "project_upcoming"
	RelatedTaskInactive    RelatedKind = "task_inactive"
	RelatedBudgetWarning   RelatedKind = "budget_warning"

	RelatedProject   RelatedKind = "project"
	RelatedTask      RelatedKind = "task"
	RelatedDeveloper RelatedKind = "developer"
)

// Entity returns the table addressed by a reference of this kind.
// ok is false for unknown kinds.
func (k RelatedKind) Entity() (kind EntityKind, ok bool) {
	switch k {
	case RelatedProjectOverdue, RelatedProjectUpcoming, RelatedBudgetWarning, RelatedProject:
		return EntityProject, true
	case RelatedTaskInactive, RelatedTask:
		return EntityTask, true
	case RelatedDeveloper:
		return EntityDeveloper, true
	}
	return "", false
}

// IsRule reports whether k is produced by a notification rule.
func (k RelatedKind) IsRule() bool {
	switch k {
	case RelatedProjectOverdue, RelatedProjectUpcoming, RelatedTaskInactive, RelatedBudgetWarning:
		return true
	}
	return false
}

// Ref is a tagged reference to the entity a notification is about.
type Ref struct {
	ID   int64       `json:"id"`
	Kind RelatedKind `json:"kind"`
}

// Notification is an alert surfaced to users. A nil UserID broadcasts it
// to everyone.
type Notification struct {
	ID        int64            `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Related   *Ref             `json:"related,omitempty"`
	IsRead    bool             `json:"is_read"`
	UserID    *int64           `json:"user_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
