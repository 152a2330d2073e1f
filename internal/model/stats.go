package model

import "time"

// TaskSummary aggregates the tasks of one project.
type TaskSummary struct {
	TotalTasks     int     `json:"total_tasks" db:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks" db:"completed_tasks"`
	TotalHours     float64 `json:"total_hours" db:"total_hours"`
	LaborCost      float64 `json:"labor_cost" db:"labor_cost"`
}

// ProjectSummary is a project row with its task aggregates.
type ProjectSummary struct {
	Project
	TaskSummary
}

// ProjectProgress reports completion and spend of a project.
// DaysLeft is nil when the deadline is missing or unreadable; DeadlineIssue
// then says why.
type ProjectProgress struct {
	ProjectID       int64   `json:"project_id"`
	TotalTasks      int     `json:"total_tasks"`
	CompletedTasks  int     `json:"completed_tasks"`
	ProgressPercent float64 `json:"progress_percent"`
	TotalHours      float64 `json:"total_hours"`
	DaysLeft        *int    `json:"days_left"`
	LaborCost       float64 `json:"labor_cost"`
	DeadlineIssue   string  `json:"deadline_issue,omitempty"`
}

// ProjectCost compares labor cost with the project budget.
// BudgetRemaining is nil when no budget is set.
type ProjectCost struct {
	ProjectID       int64    `json:"project_id"`
	TotalHours      float64  `json:"total_hours"`
	TotalCost       float64  `json:"total_cost"`
	Budget          float64  `json:"budget"`
	BudgetRemaining *float64 `json:"budget_remaining"`
}

// DeveloperSalary is the pay owed to a developer for a period.
type DeveloperSalary struct {
	DeveloperID int64      `json:"developer_id"`
	TotalHours  float64    `json:"total_hours"`
	HourlyRate  float64    `json:"hourly_rate"`
	Salary      float64    `json:"salary"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// ProjectStatusRow is one line of the project status report. Err names a
// data problem with the project, such as an unreadable deadline; the
// deadline fields are left empty then.
type ProjectStatusRow struct {
	Project         Project  `json:"project"`
	TotalTasks      int      `json:"total_tasks"`
	CompletedTasks  int      `json:"completed_tasks"`
	ProgressPercent float64  `json:"progress_percent"`
	TotalHours      float64  `json:"total_hours"`
	TotalCost       float64  `json:"total_cost"`
	BudgetRemaining *float64 `json:"budget_remaining"`
	IsOverdue       bool     `json:"is_overdue"`
	DaysRemaining   *int     `json:"days_remaining"`
	Err             string   `json:"error,omitempty"`
}

// ProjectStatusReport summarizes every project.
type ProjectStatusReport struct {
	GeneratedAt       time.Time          `json:"generated_at"`
	Projects          []ProjectStatusRow `json:"projects"`
	OverdueProjects   int                `json:"overdue_projects"`
	CompletedProjects int                `json:"completed_projects"`
	TotalBudget       float64            `json:"total_budget"`
	TotalCost         float64            `json:"total_cost"`
}

// WorkloadRow is one developer's share of the workload report.
type WorkloadRow struct {
	Developer  Developer `json:"developer"`
	TaskCount  int       `json:"task_count"`
	TotalHours float64   `json:"total_hours"`
	TotalCost  float64   `json:"total_cost"`
}

// WorkloadReport summarizes developer hours over a date range.
type WorkloadReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	StartDate   time.Time     `json:"start_date"`
	EndDate     time.Time     `json:"end_date"`
	Developers  []WorkloadRow `json:"developers"`
	TotalHours  float64       `json:"total_hours"`
	TotalCost   float64       `json:"total_cost"`
}

// OverdueTask is an open task of a project whose deadline has passed.
type OverdueTask struct {
	TaskActivity
	DaysOverdue int `json:"days_overdue"`
}

// OverdueTasksReport lists open tasks of overdue projects, most overdue first.
type OverdueTasksReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Tasks       []OverdueTask `json:"tasks"`
}

// RevenueRow is one project's share of a monthly revenue report.
type RevenueRow struct {
	Project    Project  `json:"project"`
	TaskCount  int      `json:"task_count"`
	TotalHours float64  `json:"total_hours"`
	TotalCost  float64  `json:"total_cost"`
	Profit     *float64 `json:"profit"`
}

// RevenueReport summarizes the cost of tasks created in one month.
type RevenueReport struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Year        int          `json:"year"`
	Month       time.Month   `json:"month"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `json:"end_date"`
	Projects    []RevenueRow `json:"projects"`
	TotalBudget float64      `json:"total_budget"`
	TotalCost   float64      `json:"total_cost"`
	TotalProfit float64      `json:"total_profit"`
}

// CheckRun records one execution of all notification rules.
type CheckRun struct {
	ID                string    `json:"id"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	OverdueProjects   int       `json:"overdue_projects"`
	UpcomingDeadlines int       `json:"upcoming_deadlines"`
	InactiveTasks     int       `json:"inactive_tasks"`
	BudgetWarnings    int       `json:"budget_warnings"`
	Total             int       `json:"total"`
	Errors            []string  `json:"errors,omitempty"`
}
