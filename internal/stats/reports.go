package stats

import (
	"context"
	"sort"
	"time"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/store"
)

// ProjectStatusReport lists every project with its progress, spend and
// deadline position, earliest deadline first. Projects without a deadline
// come last; an unreadable deadline also sets Err.
func (e *Engine) ProjectStatusReport(ctx context.Context) (model.ProjectStatusReport, error) {
	summaries, err := e.src.GetProjectSummaries(ctx)
	if err != nil {
		return model.ProjectStatusReport{}, err
	}

	today := e.today()
	report := model.ProjectStatusReport{
		GeneratedAt: e.now(),
		Projects:    make([]model.ProjectStatusRow, 0, len(summaries)),
	}
	for _, s := range summaries {
		row := model.ProjectStatusRow{
			Project:         s.Project,
			TotalTasks:      s.TotalTasks,
			CompletedTasks:  s.CompletedTasks,
			ProgressPercent: percent(s.CompletedTasks, s.TotalTasks),
			TotalHours:      s.TotalHours,
			TotalCost:       s.LaborCost,
		}
		if s.Budget > 0 {
			remaining := s.Budget - s.LaborCost
			row.BudgetRemaining = &remaining
		}
		if s.HasDeadline() {
			days, issue := deadlineDays(s.Project, today)
			row.DaysRemaining = days
			row.Err = issue
			row.IsOverdue = days != nil && *days < 0
		}

		if row.IsOverdue {
			report.OverdueProjects++
		}
		if s.TotalTasks > 0 && s.CompletedTasks == s.TotalTasks {
			report.CompletedProjects++
		}
		report.TotalBudget += s.Budget
		report.TotalCost += s.LaborCost
		report.Projects = append(report.Projects, row)
	}

	sort.SliceStable(report.Projects, func(i, j int) bool {
		a, b := report.Projects[i].DaysRemaining, report.Projects[j].DaysRemaining
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return report, nil
}

// DeveloperWorkload reports task count, hours and cost per developer for
// tasks created within the inclusive range. Nil bounds default to the first
// day of the current month and today. Developers are ordered by hours,
// busiest first.
func (e *Engine) DeveloperWorkload(ctx context.Context, start, end *time.Time) (model.WorkloadReport, error) {
	now := e.now()
	today, loc := model.DateOf(now), now.Location()
	if start == nil {
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		start = &first
	}
	if end == nil {
		end = &today
	}
	if err := checkRange(start, end); err != nil {
		return model.WorkloadReport{}, err
	}

	devs, err := e.src.GetDevelopers(ctx)
	if err != nil {
		return model.WorkloadReport{}, err
	}
	tasks, err := e.src.GetTasks(ctx, store.TaskFilter{})
	if err != nil {
		return model.WorkloadReport{}, err
	}

	rows := make(map[int64]*model.WorkloadRow, len(devs))
	report := model.WorkloadReport{
		GeneratedAt: now,
		StartDate:   model.DateOf(*start),
		EndDate:     model.DateOf(*end),
		Developers:  make([]model.WorkloadRow, 0, len(devs)),
	}
	for _, d := range devs {
		rows[d.ID] = &model.WorkloadRow{Developer: d}
	}
	for _, t := range tasks {
		if t.DeveloperID == nil || !inRange(t.CreatedAt, loc, start, end) {
			continue
		}
		row, ok := rows[*t.DeveloperID]
		if !ok {
			continue
		}
		row.TaskCount++
		row.TotalHours += t.HoursWorked
		row.TotalCost += t.HoursWorked * row.Developer.HourlyRate
	}
	for _, d := range devs {
		row := rows[d.ID]
		report.TotalHours += row.TotalHours
		report.TotalCost += row.TotalCost
		report.Developers = append(report.Developers, *row)
	}

	sort.SliceStable(report.Developers, func(i, j int) bool {
		return report.Developers[i].TotalHours > report.Developers[j].TotalHours
	})
	return report, nil
}

// OverdueTasks lists open tasks whose project deadline has passed, most
// overdue first. Tasks of projects with unreadable deadlines are skipped.
func (e *Engine) OverdueTasks(ctx context.Context) (model.OverdueTasksReport, error) {
	activity, err := e.src.GetTaskActivity(ctx, true)
	if err != nil {
		return model.OverdueTasksReport{}, err
	}

	today := e.today()
	report := model.OverdueTasksReport{GeneratedAt: e.now(), Tasks: []model.OverdueTask{}}
	for _, a := range activity {
		if a.ProjectDeadline == nil {
			continue
		}
		deadline, err := model.ParseDate(*a.ProjectDeadline)
		if err != nil || !deadline.Before(today) {
			continue
		}
		report.Tasks = append(report.Tasks, model.OverdueTask{
			TaskActivity: a,
			DaysOverdue:  model.DaysBetween(deadline, today),
		})
	}

	sort.SliceStable(report.Tasks, func(i, j int) bool {
		return report.Tasks[i].DaysOverdue > report.Tasks[j].DaysOverdue
	})
	return report, nil
}

// MonthlyRevenue reports, per project, the cost of tasks created in the
// given month and the profit left from the budget. Projects with no tasks
// in the month are omitted. Zero year or month means the current one.
func (e *Engine) MonthlyRevenue(ctx context.Context, year int, month time.Month) (model.RevenueReport, error) {
	now := e.now()
	today, loc := model.DateOf(now), now.Location()
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = today.Month()
	}
	if month < time.January || month > time.December {
		return model.RevenueReport{}, apperr.Validationf("month", "invalid month %d", month)
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	summaries, err := e.src.GetProjectSummaries(ctx)
	if err != nil {
		return model.RevenueReport{}, err
	}
	devs, err := e.src.GetDevelopers(ctx)
	if err != nil {
		return model.RevenueReport{}, err
	}
	tasks, err := e.src.GetTasks(ctx, store.TaskFilter{})
	if err != nil {
		return model.RevenueReport{}, err
	}

	rates := make(map[int64]float64, len(devs))
	for _, d := range devs {
		rates[d.ID] = d.HourlyRate
	}
	rows := make(map[int64]*model.RevenueRow)
	for _, t := range tasks {
		if !inRange(t.CreatedAt, loc, &start, &end) {
			continue
		}
		row, ok := rows[t.ProjectID]
		if !ok {
			row = &model.RevenueRow{}
			rows[t.ProjectID] = row
		}
		row.TaskCount++
		row.TotalHours += t.HoursWorked
		if t.DeveloperID != nil {
			row.TotalCost += t.HoursWorked * rates[*t.DeveloperID]
		}
	}

	report := model.RevenueReport{
		GeneratedAt: now,
		Year:        year,
		Month:       month,
		StartDate:   start,
		EndDate:     end,
		Projects:    []model.RevenueRow{},
	}
	for _, s := range summaries {
		row, ok := rows[s.ID]
		if !ok {
			continue
		}
		row.Project = s.Project
		if s.Budget > 0 {
			profit := s.Budget - row.TotalCost
			row.Profit = &profit
			report.TotalProfit += profit
		}
		report.TotalBudget += s.Budget
		report.TotalCost += row.TotalCost
		report.Projects = append(report.Projects, *row)
	}

	sort.SliceStable(report.Projects, func(i, j int) bool {
		return report.Projects[i].TotalCost > report.Projects[j].TotalCost
	})
	return report, nil
}
