// Package stats computes project progress, costs, salaries and reports
// from the store.
package stats

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/store"
)

// Source is the read side of the store the engine needs.
type Source interface {
	GetProject(ctx context.Context, id int64) (*model.Project, error)
	GetProjectSummary(ctx context.Context, projectID int64) (*model.ProjectSummary, error)
	GetProjectSummaries(ctx context.Context) ([]model.ProjectSummary, error)
	GetDeveloper(ctx context.Context, id int64) (*model.Developer, error)
	GetDevelopers(ctx context.Context) ([]model.Developer, error)
	GetTasks(ctx context.Context, filter store.TaskFilter) ([]model.Task, error)
	GetTaskActivity(ctx context.Context, onlyOpen bool) ([]model.TaskActivity, error)
}

// Engine derives aggregate figures. It holds no state beyond its
// collaborators and is safe for concurrent use.
type Engine struct {
	src Source
	now func() time.Time
}

// New returns an Engine reading from src. A nil now uses time.Now.
func New(src Source, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{src: src, now: now}
}

func (e *Engine) today() time.Time {
	return model.DateOf(e.now())
}

// percent returns part/total*100, or 0 when total is 0.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// deadlineDays returns the days from today to the project deadline.
// A missing or unreadable deadline yields nil and a description.
func deadlineDays(p model.Project, today time.Time) (*int, string) {
	if !p.HasDeadline() {
		return nil, "no deadline set"
	}
	d, err := p.DeadlineDate()
	if err != nil {
		return nil, err.Error()
	}
	days := model.DaysBetween(today, d)
	return &days, ""
}

// ProjectProgress reports task completion, hours, labor cost and days left
// for one project.
func (e *Engine) ProjectProgress(ctx context.Context, projectID int64) (model.ProjectProgress, error) {
	summary, err := e.src.GetProjectSummary(ctx, projectID)
	if err != nil {
		return model.ProjectProgress{}, err
	}

	daysLeft, issue := deadlineDays(summary.Project, e.today())
	return model.ProjectProgress{
		ProjectID:       projectID,
		TotalTasks:      summary.TotalTasks,
		CompletedTasks:  summary.CompletedTasks,
		ProgressPercent: percent(summary.CompletedTasks, summary.TotalTasks),
		TotalHours:      summary.TotalHours,
		DaysLeft:        daysLeft,
		LaborCost:       summary.LaborCost,
		DeadlineIssue:   issue,
	}, nil
}

// ProjectCost walks the project's tasks and prices each one at its
// developer's rate. Hours of unassigned tasks, or of tasks whose developer
// no longer resolves, count toward TotalHours but cost nothing.
func (e *Engine) ProjectCost(ctx context.Context, projectID int64) (model.ProjectCost, error) {
	project, err := e.src.GetProject(ctx, projectID)
	if err != nil {
		return model.ProjectCost{}, err
	}
	tasks, err := e.src.GetTasks(ctx, store.TaskFilter{ProjectID: &projectID})
	if err != nil {
		return model.ProjectCost{}, err
	}

	rates := make(map[int64]float64)
	cost := model.ProjectCost{ProjectID: projectID, Budget: project.Budget}
	for _, t := range tasks {
		cost.TotalHours += t.HoursWorked
		if t.DeveloperID == nil {
			continue
		}
		rate, ok := rates[*t.DeveloperID]
		if !ok {
			dev, err := e.src.GetDeveloper(ctx, *t.DeveloperID)
			switch {
			case errors.Is(err, apperr.ErrNotFound):
				rate = 0
			case err != nil:
				return model.ProjectCost{}, err
			default:
				rate = dev.HourlyRate
			}
			rates[*t.DeveloperID] = rate
		}
		cost.TotalCost += t.HoursWorked * rate
	}

	if project.Budget > 0 {
		remaining := project.Budget - cost.TotalCost
		cost.BudgetRemaining = &remaining
	}
	return cost, nil
}

// inRange reports whether the calendar date of t in loc lies within the
// inclusive bounds. Nil bounds are open.
func inRange(t time.Time, loc *time.Location, start, end *time.Time) bool {
	d := model.DateIn(t, loc)
	if start != nil && d.Before(model.DateOf(*start)) {
		return false
	}
	if end != nil && d.After(model.DateOf(*end)) {
		return false
	}
	return true
}

func checkRange(start, end *time.Time) error {
	if start != nil && end != nil && model.DateOf(*start).After(model.DateOf(*end)) {
		return apperr.Validationf("start_date", "start date %s is after end date %s",
			model.FormatDate(*start), model.FormatDate(*end))
	}
	return nil
}

// DeveloperSalary sums the hours of tasks the developer created within the
// inclusive date bounds and prices them at the developer's rate.
func (e *Engine) DeveloperSalary(ctx context.Context, developerID int64, start, end *time.Time) (model.DeveloperSalary, error) {
	if err := checkRange(start, end); err != nil {
		return model.DeveloperSalary{}, err
	}
	dev, err := e.src.GetDeveloper(ctx, developerID)
	if err != nil {
		return model.DeveloperSalary{}, err
	}
	tasks, err := e.src.GetTasks(ctx, store.TaskFilter{DeveloperID: &developerID})
	if err != nil {
		return model.DeveloperSalary{}, err
	}

	salary := model.DeveloperSalary{
		DeveloperID: developerID,
		HourlyRate:  dev.HourlyRate,
		StartDate:   start,
		EndDate:     end,
	}
	loc := e.now().Location()
	for _, t := range tasks {
		if inRange(t.CreatedAt, loc, start, end) {
			salary.TotalHours += t.HoursWorked
		}
	}
	salary.Salary = salary.TotalHours * dev.HourlyRate
	return salary, nil
}
