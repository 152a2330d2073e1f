package rules

import (
	"context"
	"fmt"

	"github.com/nhle/projectpulse/internal/model"
)

// CheckOverdueProjects notifies about unfinished projects whose deadline is
// before today.
func (e *Engine) CheckOverdueProjects(ctx context.Context) (int, error) {
	projects, err := e.src.GetProjects(ctx)
	if err != nil {
		return 0, err
	}
	em, err := e.newEmitter(ctx, model.RelatedProjectOverdue)
	if err != nil {
		return 0, err
	}

	today := e.today()
	for _, p := range projects {
		if p.IsDone() || !p.HasDeadline() || em.seen(p.ID) {
			continue
		}
		deadline, err := p.DeadlineDate()
		if err != nil {
			e.logger.Warn("skipping project with unreadable deadline", "project", p.ID, "error", err)
			continue
		}
		if !deadline.Before(today) {
			continue
		}
		err = em.emit(ctx, p.ID, model.NotificationWarning,
			"Project deadline missed",
			fmt.Sprintf("Project '%s' is overdue. The deadline was %s.", p.Name, model.FormatDate(deadline)),
		)
		if err != nil {
			return em.created, err
		}
	}
	return em.created, nil
}

// CheckUpcomingDeadlines notifies about projects due exactly days from today.
func (e *Engine) CheckUpcomingDeadlines(ctx context.Context, days int) (int, error) {
	if err := validateDays(days); err != nil {
		return 0, err
	}
	projects, err := e.src.GetProjects(ctx)
	if err != nil {
		return 0, err
	}
	em, err := e.newEmitter(ctx, model.RelatedProjectUpcoming)
	if err != nil {
		return 0, err
	}

	due := e.today().AddDate(0, 0, days)
	for _, p := range projects {
		if !p.HasDeadline() || em.seen(p.ID) {
			continue
		}
		deadline, err := p.DeadlineDate()
		if err != nil {
			e.logger.Warn("skipping project with unreadable deadline", "project", p.ID, "error", err)
			continue
		}
		if !deadline.Equal(due) {
			continue
		}
		err = em.emit(ctx, p.ID, model.NotificationInfo,
			"Project deadline approaching",
			fmt.Sprintf("Project '%s' is due in %d days. Deadline: %s.", p.Name, days, model.FormatDate(deadline)),
		)
		if err != nil {
			return em.created, err
		}
	}
	return em.created, nil
}
