package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/stats"
	"github.com/nhle/projectpulse/internal/store"
	"github.com/nhle/projectpulse/tests/testutil"
)

var today = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store  *store.SQLiteStore
	clock  *testutil.Clock
	engine *stats.Engine
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s, clock := testutil.NewClockedStore(t, today)
	return fixture{store: s, clock: clock, engine: stats.New(s, clock.Now)}
}

func (f fixture) project(t *testing.T, name, deadline string, budget float64) model.Project {
	t.Helper()
	p := model.Project{Name: name, Client: "Acme", Budget: budget}
	if deadline != "" {
		p.Deadline = &deadline
	}
	return testutil.MustProject(t, f.store, p)
}

func (f fixture) developer(t *testing.T, name string, rate float64) model.Developer {
	t.Helper()
	return testutil.MustDeveloper(t, f.store, model.Developer{
		FullName: name, Position: model.PositionFullstack, HourlyRate: rate,
	})
}

func (f fixture) task(t *testing.T, projectID int64, dev *model.Developer, status model.TaskStatus, hours float64) model.Task {
	t.Helper()
	task := model.Task{ProjectID: projectID, Description: "work", Status: status, HoursWorked: hours}
	if dev != nil {
		task.DeveloperID = &dev.ID
	}
	return testutil.MustTask(t, f.store, task)
}

func TestProjectProgress_HalfDone(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "Portal", "2026-03-20", 20000)
	dev := f.developer(t, "Ivan Petrov", 1000)
	f.task(t, p.ID, &dev, model.TaskStatusDone, 5)
	f.task(t, p.ID, &dev, model.TaskStatusInProgress, 3)

	got, err := f.engine.ProjectProgress(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, got.TotalTasks)
	assert.Equal(t, 1, got.CompletedTasks)
	assert.InDelta(t, 50, got.ProgressPercent, 1e-9)
	assert.InDelta(t, 8, got.TotalHours, 1e-9)
	assert.InDelta(t, 8000, got.LaborCost, 1e-9)
	require.NotNil(t, got.DaysLeft)
	assert.Equal(t, 10, *got.DaysLeft)
	assert.Empty(t, got.DeadlineIssue)
}

func TestProjectProgress_Boundaries(t *testing.T) {
	f := newFixture(t)
	empty := f.project(t, "Empty", "2026-03-01", 0)
	finished := f.project(t, "Finished", "", 0)
	f.task(t, finished.ID, nil, model.TaskStatusDone, 1)
	f.task(t, finished.ID, nil, model.TaskStatusDone, 2)

	got, err := f.engine.ProjectProgress(context.Background(), empty.ID)
	require.NoError(t, err)
	assert.Zero(t, got.ProgressPercent)
	require.NotNil(t, got.DaysLeft)
	assert.Equal(t, -9, *got.DaysLeft)

	got, err = f.engine.ProjectProgress(context.Background(), finished.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100, got.ProgressPercent, 1e-9)
	assert.Nil(t, got.DaysLeft)
	assert.NotEmpty(t, got.DeadlineIssue)
}

func TestProjectProgress_UnknownProject(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.ProjectProgress(context.Background(), 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// corruptDeadline serves summaries whose deadline cannot be parsed, as
// rows written before validation existed would.
type corruptDeadline struct {
	*store.SQLiteStore
}

func (c corruptDeadline) GetProjectSummary(ctx context.Context, id int64) (*model.ProjectSummary, error) {
	s, err := c.SQLiteStore.GetProjectSummary(ctx, id)
	if err != nil {
		return nil, err
	}
	bad := "31/12/2026"
	s.Deadline = &bad
	return s, nil
}

func (c corruptDeadline) GetProjectSummaries(ctx context.Context) ([]model.ProjectSummary, error) {
	all, err := c.SQLiteStore.GetProjectSummaries(ctx)
	if err != nil {
		return nil, err
	}
	bad := "soon"
	all[0].Deadline = &bad
	return all, nil
}

func TestProjectProgress_MalformedDeadlineIsNeutral(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "Portal", "2026-03-20", 0)
	f.task(t, p.ID, nil, model.TaskStatusDone, 4)

	engine := stats.New(corruptDeadline{f.store}, f.clock.Now)
	got, err := engine.ProjectProgress(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Nil(t, got.DaysLeft)
	assert.Contains(t, got.DeadlineIssue, "31/12/2026")
	assert.Equal(t, 1, got.TotalTasks)
	assert.InDelta(t, 100, got.ProgressPercent, 1e-9)
}

func TestProjectCost(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "Portal", "2026-04-01", 10000)
	dev := f.developer(t, "Ivan Petrov", 1000)
	f.task(t, p.ID, &dev, model.TaskStatusDone, 6)
	f.task(t, p.ID, nil, model.TaskStatusNew, 4)

	got, err := f.engine.ProjectCost(context.Background(), p.ID)
	require.NoError(t, err)

	assert.InDelta(t, 10, got.TotalHours, 1e-9)
	assert.InDelta(t, 6000, got.TotalCost, 1e-9)
	require.NotNil(t, got.BudgetRemaining)
	assert.InDelta(t, 4000, *got.BudgetRemaining, 1e-9)
}

func TestProjectCost_NoBudget(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "Internal", "", 0)
	f.task(t, p.ID, nil, model.TaskStatusNew, 4)

	got, err := f.engine.ProjectCost(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.BudgetRemaining)
	assert.Zero(t, got.TotalCost)

	_, err = f.engine.ProjectCost(context.Background(), 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// vanishedDeveloper reports one developer as missing.
type vanishedDeveloper struct {
	*store.SQLiteStore
	id int64
}

func (v vanishedDeveloper) GetDeveloper(ctx context.Context, id int64) (*model.Developer, error) {
	if id == v.id {
		return nil, apperr.NotFoundf("developer %d not found", id)
	}
	return v.SQLiteStore.GetDeveloper(ctx, id)
}

func TestProjectCost_UnresolvedDeveloperCostsNothing(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "Portal", "", 5000)
	gone := f.developer(t, "Gone Dev", 2000)
	kept := f.developer(t, "Kept Dev", 100)
	f.task(t, p.ID, &gone, model.TaskStatusDone, 3)
	f.task(t, p.ID, &kept, model.TaskStatusDone, 2)

	engine := stats.New(vanishedDeveloper{SQLiteStore: f.store, id: gone.ID}, f.clock.Now)
	got, err := engine.ProjectCost(context.Background(), p.ID)
	require.NoError(t, err)

	assert.InDelta(t, 5, got.TotalHours, 1e-9)
	assert.InDelta(t, 200, got.TotalCost, 1e-9)
}

func TestDeveloperSalary(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "Portal", "", 0)
	dev := f.developer(t, "Ivan Petrov", 1000)

	f.clock.Set(time.Date(2026, 2, 27, 18, 0, 0, 0, time.UTC))
	f.task(t, p.ID, &dev, model.TaskStatusDone, 2)
	f.clock.Set(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	f.task(t, p.ID, &dev, model.TaskStatusDone, 5)
	f.clock.Set(time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC))
	f.task(t, p.ID, &dev, model.TaskStatusInReview, 3)

	ctx := context.Background()
	all, err := f.engine.DeveloperSalary(ctx, dev.ID, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 10, all.TotalHours, 1e-9)
	assert.InDelta(t, 10000, all.Salary, 1e-9)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	march, err := f.engine.DeveloperSalary(ctx, dev.ID, &start, &end)
	require.NoError(t, err)
	assert.InDelta(t, 8, march.TotalHours, 1e-9)
	assert.InDelta(t, 8000, march.Salary, 1e-9)
	assert.InDelta(t, 1000, march.HourlyRate, 1e-9)

	_, err = f.engine.DeveloperSalary(ctx, dev.ID, &end, &start)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.engine.DeveloperSalary(ctx, 999, nil, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeveloperSalary_BoundsUseClockZone(t *testing.T) {
	brisbane := time.FixedZone("AEST", 10*60*60)
	s, clock := testutil.NewClockedStore(t, time.Date(2026, 3, 1, 8, 0, 0, 0, brisbane))
	f := fixture{store: s, clock: clock, engine: stats.New(s, clock.Now)}
	p := f.project(t, "Portal", "", 0)
	dev := f.developer(t, "Ivan Petrov", 100)

	// 2026-02-28 22:00 UTC, but the 1st on the local calendar.
	f.task(t, p.ID, &dev, model.TaskStatusDone, 5)
	clock.Set(time.Date(2026, 3, 2, 23, 30, 0, 0, brisbane))
	f.task(t, p.ID, &dev, model.TaskStatusDone, 3)

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	got, err := f.engine.DeveloperSalary(context.Background(), dev.ID, &day, &day)
	require.NoError(t, err)
	assert.InDelta(t, 5, got.TotalHours, 1e-9)
	assert.InDelta(t, 500, got.Salary, 1e-9)

	workload, err := f.engine.DeveloperWorkload(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, workload.Developers, 1)
	assert.Equal(t, 2, workload.Developers[0].TaskCount)
	assert.Equal(t, "2026-03-01", model.FormatDate(workload.StartDate))
}
