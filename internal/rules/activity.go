package rules

import (
	"context"
	"fmt"

	"github.com/nhle/projectpulse/internal/model"
)

const unassigned = "unassigned"

// CheckInactiveTasks notifies about open tasks whose last update was at
// least days calendar days ago.
func (e *Engine) CheckInactiveTasks(ctx context.Context, days int) (int, error) {
	if err := validateDays(days); err != nil {
		return 0, err
	}
	tasks, err := e.src.GetTaskActivity(ctx, true)
	if err != nil {
		return 0, err
	}
	em, err := e.newEmitter(ctx, model.RelatedTaskInactive)
	if err != nil {
		return 0, err
	}

	now := e.opts.Now()
	cutoff := model.DateOf(now).AddDate(0, 0, -days)
	for _, t := range tasks {
		if t.IsDone() || em.seen(t.ID) {
			continue
		}
		if model.DateIn(t.UpdatedAt, now.Location()).After(cutoff) {
			continue
		}
		developer := unassigned
		if t.DeveloperName != nil {
			developer = *t.DeveloperName
		}
		err = em.emit(ctx, t.ID, model.NotificationWarning,
			"Inactive task",
			fmt.Sprintf("Task '%s' in project '%s' (developer: %s) has not been updated for more than %d days.",
				t.Description, t.ProjectName, developer, days),
		)
		if err != nil {
			return em.created, err
		}
	}
	return em.created, nil
}
