package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/theme"
)

func runProgress(ctx context.Context, e *env, args []string) error {
	id, err := parseID(args, "project")
	if err != nil {
		return err
	}
	p, err := e.stats.ProjectProgress(ctx, id)
	if err != nil {
		return err
	}

	renderFields(e.out, [][2]string{
		{"Project", fmt.Sprintf("%d", p.ProjectID)},
		{"Tasks", fmt.Sprintf("%d of %d done", p.CompletedTasks, p.TotalTasks)},
		{"Progress", percent(p.ProgressPercent)},
		{"Hours", hours(p.TotalHours)},
		{"Labor cost", money(p.LaborCost)},
		{"Days left", e.styledDays(p.DaysLeft, p.DeadlineIssue)},
	})
	return nil
}

func runCost(ctx context.Context, e *env, args []string) error {
	id, err := parseID(args, "project")
	if err != nil {
		return err
	}
	c, err := e.stats.ProjectCost(ctx, id)
	if err != nil {
		return err
	}

	renderFields(e.out, [][2]string{
		{"Project", fmt.Sprintf("%d", c.ProjectID)},
		{"Hours", hours(c.TotalHours)},
		{"Cost", money(c.TotalCost)},
		{"Budget", money(c.Budget)},
		{"Remaining", optMoney(c.BudgetRemaining)},
	})
	return nil
}

func runSalary(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("salary")
	startRaw := fs.String("start", "", "first day, YYYY-MM-DD (inclusive)")
	endRaw := fs.String("end", "", "last day, YYYY-MM-DD (inclusive)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args(), "developer")
	if err != nil {
		return err
	}
	start, err := parseDateFlag("start", *startRaw)
	if err != nil {
		return err
	}
	end, err := parseDateFlag("end", *endRaw)
	if err != nil {
		return err
	}

	s, err := e.stats.DeveloperSalary(ctx, id, start, end)
	if err != nil {
		return err
	}

	renderFields(e.out, [][2]string{
		{"Developer", fmt.Sprintf("%d", s.DeveloperID)},
		{"Period", period(s.StartDate, s.EndDate)},
		{"Hours", hours(s.TotalHours)},
		{"Rate", money(s.HourlyRate)},
		{"Salary", money(s.Salary)},
	})
	return nil
}

func period(start, end *time.Time) string {
	from, to := "beginning", "now"
	if start != nil {
		from = model.FormatDate(*start)
	}
	if end != nil {
		to = model.FormatDate(*end)
	}
	return from + " to " + to
}

// styledDays colors a days-left figure against the reminder window.
func (e *env) styledDays(v *int, reason string) string {
	s := days(v, reason)
	if v == nil {
		return theme.DimmedStyle.Render(s)
	}
	return theme.DaysLeftStyle(*v, e.cfg.Rules.UpcomingDays).Render(s)
}

func runReport(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("report needs a kind: projects, workload, overdue-tasks or revenue")
	}
	switch args[0] {
	case "projects":
		return reportProjects(ctx, e)
	case "workload":
		return reportWorkload(ctx, e, args[1:])
	case "overdue-tasks", "overdue":
		return reportOverdueTasks(ctx, e)
	case "revenue":
		return reportRevenue(ctx, e, args[1:])
	default:
		return fmt.Errorf("unknown report %q (projects, workload, overdue-tasks, revenue)", args[0])
	}
}

func reportProjects(ctx context.Context, e *env) error {
	r, err := e.stats.ProjectStatusReport(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(r.Projects))
	for _, p := range r.Projects {
		deadline := "-"
		if p.Project.HasDeadline() {
			deadline = *p.Project.Deadline
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", p.Project.ID),
			p.Project.Name,
			p.Project.Client,
			deadline,
			e.styledDays(p.DaysRemaining, p.Err),
			fmt.Sprintf("%d/%d", p.CompletedTasks, p.TotalTasks),
			percent(p.ProgressPercent),
			money(p.TotalCost),
			optMoney(p.BudgetRemaining),
		})
	}
	renderTable(e.out,
		[]string{"ID", "Project", "Client", "Deadline", "Days", "Tasks", "Progress", "Cost", "Remaining"},
		rows)
	renderFields(e.out, [][2]string{
		{"Projects", fmt.Sprintf("%d (%d overdue, %d completed)", len(r.Projects), r.OverdueProjects, r.CompletedProjects)},
		{"Budget", money(r.TotalBudget)},
		{"Cost", money(r.TotalCost)},
	})
	return nil
}

func reportWorkload(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("report workload")
	startRaw := fs.String("start", "", "first day, YYYY-MM-DD (default: first of this month)")
	endRaw := fs.String("end", "", "last day, YYYY-MM-DD (default: today)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	start, err := parseDateFlag("start", *startRaw)
	if err != nil {
		return err
	}
	end, err := parseDateFlag("end", *endRaw)
	if err != nil {
		return err
	}

	r, err := e.stats.DeveloperWorkload(ctx, start, end)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(r.Developers))
	for _, d := range r.Developers {
		rows = append(rows, []string{
			d.Developer.FullName,
			d.Developer.Position,
			fmt.Sprintf("%d", d.TaskCount),
			hours(d.TotalHours),
			money(d.TotalCost),
		})
	}
	fmt.Fprintf(e.out, "Workload %s to %s\n", model.FormatDate(r.StartDate), model.FormatDate(r.EndDate))
	renderTable(e.out, []string{"Developer", "Position", "Tasks", "Hours", "Cost"}, rows)
	renderFields(e.out, [][2]string{
		{"Hours", hours(r.TotalHours)},
		{"Cost", money(r.TotalCost)},
	})
	return nil
}

func reportOverdueTasks(ctx context.Context, e *env) error {
	r, err := e.stats.OverdueTasks(ctx)
	if err != nil {
		return err
	}
	if len(r.Tasks) == 0 {
		fmt.Fprintln(e.out, theme.DimmedStyle.Render("no overdue tasks"))
		return nil
	}

	rows := make([][]string, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		dev := "unassigned"
		if t.DeveloperName != nil {
			dev = *t.DeveloperName
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", t.ID),
			t.ProjectName,
			t.Description,
			dev,
			theme.TaskStatusStyle(string(t.Status)).Render(string(t.Status)),
			fmt.Sprintf("%d", t.DaysOverdue),
		})
	}
	renderTable(e.out, []string{"ID", "Project", "Task", "Developer", "Status", "Days overdue"}, rows)
	return nil
}

func reportRevenue(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("report revenue")
	year := fs.Int("year", 0, "year (default: this year)")
	month := fs.Int("month", 0, "month 1-12 (default: this month)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r, err := e.stats.MonthlyRevenue(ctx, *year, time.Month(*month))
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(r.Projects))
	for _, p := range r.Projects {
		rows = append(rows, []string{
			p.Project.Name,
			fmt.Sprintf("%d", p.TaskCount),
			hours(p.TotalHours),
			money(p.TotalCost),
			optMoney(p.Profit),
		})
	}
	fmt.Fprintf(e.out, "Revenue %s %d\n", r.Month, r.Year)
	renderTable(e.out, []string{"Project", "Tasks", "Hours", "Cost", "Profit"}, rows)
	renderFields(e.out, [][2]string{
		{"Budget", money(r.TotalBudget)},
		{"Cost", money(r.TotalCost)},
		{"Profit", money(r.TotalProfit)},
	})
	return nil
}

func runHistory(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("history")
	limit := fs.Int("limit", 20, "number of runs to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	runs, err := e.store.GetCheckRuns(ctx, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(e.out, theme.DimmedStyle.Render("no check runs yet"))
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.StartedAt.Local().Format(time.DateTime),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
			fmt.Sprintf("%d", r.OverdueProjects),
			fmt.Sprintf("%d", r.UpcomingDeadlines),
			fmt.Sprintf("%d", r.InactiveTasks),
			fmt.Sprintf("%d", r.BudgetWarnings),
			fmt.Sprintf("%d", r.Total),
			strings.Join(r.Errors, "; "),
		})
	}
	renderTable(e.out,
		[]string{"Started", "Took", "Overdue", "Upcoming", "Inactive", "Budget", "Total", "Errors"},
		rows)
	return nil
}
