package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/store"
	"github.com/nhle/projectpulse/tests/testutil"
)

var start = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T) (*store.SQLiteStore, *testutil.Clock, model.Project, model.Developer) {
	t.Helper()
	s, clock := testutil.NewClockedStore(t, start)
	p := testutil.MustProject(t, s, model.Project{
		Name: "Portal", Client: "Acme", Budget: 10000, Deadline: testutil.Ptr("2026-04-01"),
	})
	d := testutil.MustDeveloper(t, s, model.Developer{
		FullName: "Ivan Petrov", Position: model.PositionBackend, HourlyRate: 1000,
	})
	return s, clock, p, d
}

func TestNewSQLiteStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	p := model.Project{Name: "Portal", Client: "Acme"}
	require.NoError(t, s.CreateProject(context.Background(), &p))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Portal", got.Name)
}

func TestProjects_CRUD(t *testing.T) {
	ctx := context.Background()
	s, _ := testutil.NewClockedStore(t, start)

	p := model.Project{Name: " Portal ", Client: "Acme", Budget: 500, Deadline: testutil.Ptr("2026-4-1")}
	err := s.CreateProject(ctx, &p)
	require.ErrorIs(t, err, apperr.ErrValidation, "non-canonical date is rejected")

	p.Deadline = testutil.Ptr("2026-04-01")
	require.NoError(t, s.CreateProject(ctx, &p))
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Portal", p.Name)
	assert.Equal(t, model.ProjectStatusInProgress, p.Status)

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-04-01", *got.Deadline)
	assert.True(t, start.Equal(got.CreatedAt))

	got.Status = model.ProjectStatusDone
	got.Deadline = testutil.Ptr("")
	require.NoError(t, s.UpdateProject(ctx, got))

	got, err = s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDone())
	assert.Nil(t, got.Deadline)

	all, err := s.GetProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.GetProject(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, s.UpdateProject(ctx, &model.Project{ID: 999, Name: "x", Client: "y"}), apperr.ErrNotFound)
}

func TestDeleteProject_RemovesTasks(t *testing.T) {
	ctx := context.Background()
	s, _, p, d := seed(t)
	task := testutil.MustTask(t, s, model.Task{ProjectID: p.ID, DeveloperID: &d.ID, Description: "API"})

	require.NoError(t, s.DeleteProject(ctx, p.ID))

	_, err := s.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, s.DeleteProject(ctx, p.ID), apperr.ErrNotFound)

	// The developer lost their only task and can go now.
	require.NoError(t, s.DeleteDeveloper(ctx, d.ID))
}

func TestUpsertDeveloper_ByName(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	first := model.Developer{FullName: "Anna Smirnova", Position: model.PositionDesigner, HourlyRate: 800}
	require.NoError(t, s.UpsertDeveloper(ctx, &first))

	again := model.Developer{FullName: "Anna Smirnova", Position: model.PositionManager, HourlyRate: 1200}
	require.NoError(t, s.UpsertDeveloper(ctx, &again))

	assert.Equal(t, first.ID, again.ID)
	devs, err := s.GetDevelopers(ctx)
	require.NoError(t, err)
	require.Len(t, devs, 1)
	assert.Equal(t, model.PositionManager, devs[0].Position)
	assert.InDelta(t, 1200, devs[0].HourlyRate, 1e-9)

	bad := model.Developer{FullName: "Bob", Position: "astronaut", HourlyRate: 10}
	assert.ErrorIs(t, s.UpsertDeveloper(ctx, &bad), apperr.ErrValidation)
}

func TestDeleteDeveloper_WithTasksConflicts(t *testing.T) {
	ctx := context.Background()
	s, _, p, d := seed(t)
	testutil.MustTask(t, s, model.Task{ProjectID: p.ID, DeveloperID: &d.ID, Description: "API"})

	err := s.DeleteDeveloper(ctx, d.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.ErrorIs(t, s.DeleteDeveloper(ctx, 999), apperr.ErrNotFound)

	_, err = s.GetDeveloper(ctx, d.ID)
	assert.NoError(t, err)
}

func TestCreateTask_ChecksReferences(t *testing.T) {
	ctx := context.Background()
	s, _, p, _ := seed(t)

	task := model.Task{ProjectID: 999, Description: "orphan"}
	assert.ErrorIs(t, s.CreateTask(ctx, &task), apperr.ErrNotFound)

	task = model.Task{ProjectID: p.ID, DeveloperID: testutil.Ptr[int64](999), Description: "ghost dev"}
	assert.ErrorIs(t, s.CreateTask(ctx, &task), apperr.ErrNotFound)

	task = model.Task{ProjectID: p.ID, Description: "  "}
	assert.ErrorIs(t, s.CreateTask(ctx, &task), apperr.ErrValidation)

	tasks, err := s.GetTasks(ctx, store.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestUpdateTask_AdvancesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	s, clock, p, d := seed(t)
	task := testutil.MustTask(t, s, model.Task{ProjectID: p.ID, Description: "API"})
	assert.Equal(t, model.TaskStatusNew, task.Status)

	clock.Advance(48 * time.Hour)
	task.DeveloperID = &d.ID
	task.Status = model.TaskStatusInReview
	task.HoursWorked = 6.5
	require.NoError(t, s.UpdateTask(ctx, &task))

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusInReview, got.Status)
	assert.InDelta(t, 6.5, got.HoursWorked, 1e-9)
	assert.True(t, start.Equal(got.CreatedAt))
	assert.True(t, start.Add(48*time.Hour).Equal(got.UpdatedAt))

	task.ID = 999
	assert.ErrorIs(t, s.UpdateTask(ctx, &task), apperr.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTask(ctx, 999), apperr.ErrNotFound)
}

func TestGetTasks_Filters(t *testing.T) {
	ctx := context.Background()
	s, _, p, d := seed(t)
	other := testutil.MustProject(t, s, model.Project{Name: "CRM", Client: "Globex"})

	testutil.MustTask(t, s, model.Task{ProjectID: p.ID, DeveloperID: &d.ID, Description: "a", Status: model.TaskStatusDone})
	testutil.MustTask(t, s, model.Task{ProjectID: p.ID, Description: "b"})
	testutil.MustTask(t, s, model.Task{ProjectID: other.ID, DeveloperID: &d.ID, Description: "c"})

	byProject, err := s.GetTasks(ctx, store.TaskFilter{ProjectID: &p.ID})
	require.NoError(t, err)
	assert.Len(t, byProject, 2)

	byDev, err := s.GetTasks(ctx, store.TaskFilter{DeveloperID: &d.ID})
	require.NoError(t, err)
	assert.Len(t, byDev, 2)

	open, err := s.GetTasks(ctx, store.TaskFilter{OnlyOpen: true})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	done := model.TaskStatusDone
	finished, err := s.GetTasks(ctx, store.TaskFilter{Status: &done})
	require.NoError(t, err)
	require.Len(t, finished, 1)
	assert.Equal(t, "a", finished[0].Description)

	page, err := s.GetTasks(ctx, store.TaskFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].Description)
}

func TestGetProjectSummaries(t *testing.T) {
	ctx := context.Background()
	s, _, p, d := seed(t)
	empty := testutil.MustProject(t, s, model.Project{Name: "Empty", Client: "Initech"})

	testutil.MustTask(t, s, model.Task{ProjectID: p.ID, DeveloperID: &d.ID, Description: "a", Status: model.TaskStatusDone, HoursWorked: 5})
	testutil.MustTask(t, s, model.Task{ProjectID: p.ID, DeveloperID: &d.ID, Description: "b", HoursWorked: 3})
	testutil.MustTask(t, s, model.Task{ProjectID: p.ID, Description: "unassigned", HoursWorked: 10})

	summaries, err := s.GetProjectSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	got := summaries[0]
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, 3, got.TotalTasks)
	assert.Equal(t, 1, got.CompletedTasks)
	assert.InDelta(t, 18, got.TotalHours, 1e-9)
	assert.InDelta(t, 8000, got.LaborCost, 1e-9)

	assert.Equal(t, empty.ID, summaries[1].ID)
	assert.Zero(t, summaries[1].TotalTasks)
	assert.Zero(t, summaries[1].LaborCost)

	one, err := s.GetProjectSummary(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, got, *one)

	_, err = s.GetProjectSummary(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetTaskActivity(t *testing.T) {
	ctx := context.Background()
	s, _, p, d := seed(t)
	testutil.MustTask(t, s, model.Task{ProjectID: p.ID, DeveloperID: &d.ID, Description: "assigned"})
	testutil.MustTask(t, s, model.Task{ProjectID: p.ID, Description: "free"})
	testutil.MustTask(t, s, model.Task{ProjectID: p.ID, Description: "closed", Status: model.TaskStatusDone})

	activity, err := s.GetTaskActivity(ctx, true)
	require.NoError(t, err)
	require.Len(t, activity, 2)

	assert.Equal(t, "Portal", activity[0].ProjectName)
	require.NotNil(t, activity[0].DeveloperName)
	assert.Equal(t, "Ivan Petrov", *activity[0].DeveloperName)
	assert.Equal(t, "2026-04-01", *activity[0].ProjectDeadline)
	assert.Nil(t, activity[1].DeveloperName)

	all, err := s.GetTaskActivity(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestNotifications_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s, clock := testutil.NewClockedStore(t, start)

	first := model.Notification{
		Title: "Overdue", Message: "Portal missed 2026-03-01", Type: model.NotificationWarning,
		Related: &model.Ref{ID: 7, Kind: model.RelatedProjectOverdue},
	}
	require.NoError(t, s.CreateNotification(ctx, &first))
	clock.Advance(time.Minute)

	second := model.Notification{Title: "Hello", Message: "Welcome", Type: model.NotificationInfo, UserID: testutil.Ptr[int64](3)}
	require.NoError(t, s.CreateNotification(ctx, &second))

	list, err := s.GetNotifications(ctx, store.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, &model.Ref{ID: 7, Kind: model.RelatedProjectOverdue}, list[1].Related)
	assert.Nil(t, list[0].Related)
	assert.Equal(t, int64(3), *list[0].UserID)

	forOther, err := s.GetNotifications(ctx, store.NotificationFilter{UserID: testutil.Ptr[int64](4)})
	require.NoError(t, err)
	require.Len(t, forOther, 1, "broadcasts only")
	assert.Equal(t, first.ID, forOther[0].ID)

	newer, err := s.GetNotifications(ctx, store.NotificationFilter{AfterID: first.ID})
	require.NoError(t, err)
	require.Len(t, newer, 1)
	assert.Equal(t, second.ID, newer[0].ID)

	count, err := s.CountUnreadNotifications(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, s.MarkNotificationRead(ctx, first.ID))
	require.NoError(t, s.MarkNotificationRead(ctx, first.ID))
	assert.ErrorIs(t, s.MarkNotificationRead(ctx, 999), apperr.ErrNotFound)

	unread, err := s.GetNotifications(ctx, store.NotificationFilter{OnlyUnread: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, second.ID, unread[0].ID)

	targets, err := s.GetNotifiedTargets(ctx, model.RelatedProjectOverdue)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{7: true}, targets, "read rows still count")

	n, err := s.DeleteReadNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.MarkAllNotificationsRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.GetNotification(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)

	require.NoError(t, s.DeleteNotification(ctx, second.ID))
	assert.ErrorIs(t, s.DeleteNotification(ctx, second.ID), apperr.ErrNotFound)
	_, err = s.GetNotification(ctx, second.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCheckRuns(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	older := model.CheckRun{ID: "run-1", StartedAt: start, FinishedAt: start.Add(time.Second), Total: 2, OverdueProjects: 2}
	newer := model.CheckRun{
		ID: "run-2", StartedAt: start.Add(time.Hour), FinishedAt: start.Add(time.Hour + time.Second),
		Errors: []string{"inactive tasks: boom"},
	}
	require.NoError(t, s.CreateCheckRun(ctx, older))
	require.NoError(t, s.CreateCheckRun(ctx, newer))

	runs, err := s.GetCheckRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, []string{"inactive tasks: boom"}, runs[0].Errors)
	assert.Equal(t, 2, runs[1].OverdueProjects)
	assert.Empty(t, runs[1].Errors)

	latest, err := s.GetCheckRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, latest, 1)
}
