package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/notify"
	"github.com/nhle/projectpulse/internal/rules"
	"github.com/nhle/projectpulse/internal/server"
	"github.com/nhle/projectpulse/internal/stats"
	"github.com/nhle/projectpulse/internal/store"
	"github.com/nhle/projectpulse/tests/testutil"
)

var today = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*server.Server, *store.SQLiteStore) {
	t.Helper()
	s, clock := testutil.NewClockedStore(t, today)

	svc := notify.NewService(s, nil)
	opts := rules.DefaultOptions()
	opts.Now = clock.Now
	opts.Recorder = s

	srv := server.New(s, svc, stats.New(s, clock.Now), rules.New(s, svc, nil, opts), nil)
	return srv, s
}

func do(t *testing.T, srv *server.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field"`
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestNotifications_CreateListRead(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/notifications", map[string]any{
		"title":   "Release",
		"message": "Version 2 shipped",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		Notification model.Notification `json:"notification"`
	}](t, rec).Notification
	assert.Equal(t, model.NotificationInfo, created.Type)
	assert.False(t, created.IsRead)

	rec = do(t, srv, http.MethodGet, "/api/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unread":1}`, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/notifications/1/read", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Notifications []model.Notification `json:"notifications"`
	}](t, rec).Notifications
	assert.Empty(t, list)

	rec = do(t, srv, http.MethodDelete, "/api/notifications/read", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())
}

func TestErrorStatusMapping(t *testing.T) {
	srv, s := newTestServer(t)
	p := testutil.MustProject(t, s, model.Project{Name: "Portal", Client: "Acme"})
	d := testutil.MustDeveloper(t, s, model.Developer{FullName: "Ann Lee", Position: model.PositionBackend, HourlyRate: 500})
	testutil.MustTask(t, s, model.Task{ProjectID: p.ID, DeveloperID: &d.ID, Description: "API"})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		kind   string
		field  string
	}{
		{"empty title", http.MethodPost, "/api/notifications", map[string]any{"message": "m"}, http.StatusBadRequest, "validation", "title"},
		{"bad type", http.MethodPost, "/api/notifications", map[string]any{"title": "t", "message": "m", "type": "critical"}, http.StatusBadRequest, "validation", "type"},
		{"malformed id", http.MethodGet, "/api/projects/abc", nil, http.StatusBadRequest, "validation", ""},
		{"missing notification", http.MethodPost, "/api/notifications/99/read", nil, http.StatusNotFound, "not_found", ""},
		{"missing project", http.MethodGet, "/api/projects/99/progress", nil, http.StatusNotFound, "not_found", ""},
		{"developer with tasks", http.MethodDelete, "/api/developers/1", nil, http.StatusConflict, "conflict", ""},
		{"bad status filter", http.MethodGet, "/api/tasks?status=paused", nil, http.StatusBadRequest, "validation", "status"},
		{"bad date", http.MethodGet, "/api/reports/workload?start=2026-3-1", nil, http.StatusBadRequest, "validation", "start"},
		{"reversed range", http.MethodGet, "/api/developers/1/salary?start=2026-03-10&end=2026-03-01", nil, http.StatusBadRequest, "validation", "start_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decode[errorBody](t, rec)
			assert.Equal(t, tt.kind, body.Kind)
			assert.Equal(t, tt.field, body.Field)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestProjectProgressEndpoint(t *testing.T) {
	srv, s := newTestServer(t)
	p := testutil.MustProject(t, s, model.Project{
		Name: "Portal", Client: "Acme", Deadline: testutil.Ptr("2026-03-20"), Budget: 10000,
	})
	d := testutil.MustDeveloper(t, s, model.Developer{FullName: "Ann Lee", Position: model.PositionBackend, HourlyRate: 500})
	testutil.MustTask(t, s, model.Task{ProjectID: p.ID, DeveloperID: &d.ID, Description: "API", Status: model.TaskStatusDone, HoursWorked: 8})
	testutil.MustTask(t, s, model.Task{ProjectID: p.ID, DeveloperID: &d.ID, Description: "UI"})

	rec := do(t, srv, http.MethodGet, "/api/projects/1/progress", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	progress := decode[struct {
		Progress model.ProjectProgress `json:"progress"`
	}](t, rec).Progress
	assert.Equal(t, 2, progress.TotalTasks)
	assert.Equal(t, 1, progress.CompletedTasks)
	assert.InDelta(t, 50.0, progress.ProgressPercent, 1e-9)
	assert.InDelta(t, 4000.0, progress.LaborCost, 1e-9)
	require.NotNil(t, progress.DaysLeft)
	assert.Equal(t, 10, *progress.DaysLeft)
}

func TestTaskUpdateEndpoint(t *testing.T) {
	srv, s := newTestServer(t)
	p := testutil.MustProject(t, s, model.Project{Name: "Portal", Client: "Acme"})
	task := testutil.MustTask(t, s, model.Task{ProjectID: p.ID, Description: "API"})

	rec := do(t, srv, http.MethodPut, "/api/tasks/1", map[string]any{
		"project_id":   p.ID,
		"description":  "API v2",
		"status":       "in_progress",
		"hours_worked": 3.5,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[struct {
		Task model.Task `json:"task"`
	}](t, rec).Task
	assert.Equal(t, task.ID, updated.ID)
	assert.Equal(t, "API v2", updated.Description)
	assert.Equal(t, model.TaskStatusInProgress, updated.Status)
	assert.InDelta(t, 3.5, updated.HoursWorked, 1e-9)
}

func TestRunChecksEndpoint(t *testing.T) {
	srv, s := newTestServer(t)
	testutil.MustProject(t, s, model.Project{Name: "Legacy", Client: "Acme", Deadline: testutil.Ptr("2026-03-01")})

	rec := do(t, srv, http.MethodPost, "/api/checks/run", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[struct {
		Result rules.Result `json:"result"`
	}](t, rec).Result
	assert.Equal(t, 1, res.OverdueProjects)
	assert.Equal(t, 1, res.Total)
	assert.Empty(t, res.Errors)
	assert.NotEmpty(t, res.RunID)

	rec = do(t, srv, http.MethodPost, "/api/checks/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[struct {
		Result rules.Result `json:"result"`
	}](t, rec).Result.Total)

	rec = do(t, srv, http.MethodGet, "/api/checks/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[struct {
		Runs []model.CheckRun `json:"runs"`
	}](t, rec).Runs
	assert.Len(t, runs, 2)
}
