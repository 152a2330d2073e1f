package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/credential"
	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/store"
	"github.com/nhle/projectpulse/tests/testutil"
)

var today = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return today }

type workspace struct {
	dir string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	t.Setenv(digestPasswordEnv, "")
	return workspace{dir: t.TempDir()}
}

func (w workspace) configPath() string { return filepath.Join(w.dir, "config.yaml") }
func (w workspace) dbPath() string     { return filepath.Join(w.dir, "pulse.db") }

// seed opens the workspace database directly and closes it afterwards.
func (w workspace) seed(t *testing.T, fn func(s *store.SQLiteStore)) {
	t.Helper()
	s, err := store.NewSQLiteStore(w.dbPath(), store.WithClock(fixedClock))
	require.NoError(t, err)
	fn(s)
	require.NoError(t, s.Close())
}

func (w workspace) run(t *testing.T, args []string, opts ...Option) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", w.configPath(), "--db", w.dbPath()}, args...)
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	err := Run(context.Background(), full, &stdout, &stderr, opts...)
	return stdout.String(), stderr.String(), err
}

func TestRun_NoCommandPrintsUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := Run(context.Background(), nil, &stdout, &stderr)

	assert.True(t, IsHelp(err))
	assert.Contains(t, stderr.String(), "Commands:")
	assert.Contains(t, stderr.String(), "notifications")
	assert.Contains(t, stderr.String(), "--db")
}

func TestRun_UnknownCommand(t *testing.T) {
	w := newWorkspace(t)

	_, _, err := w.run(t, []string{"frobnicate"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "frobnicate"`)
}

func TestRun_BadLogLevel(t *testing.T) {
	w := newWorkspace(t)

	_, _, err := w.run(t, []string{"--log-level", "loud", "history"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log.level")
}

func TestCheck_CreatesNotificationsOnce(t *testing.T) {
	w := newWorkspace(t)
	w.seed(t, func(s *store.SQLiteStore) {
		testutil.MustProject(t, s, model.Project{Name: "Legacy", Client: "Acme", Deadline: testutil.Ptr("2026-03-01")})
	})

	out, _, err := w.run(t, []string{"check"})
	require.NoError(t, err)
	assert.Contains(t, out, "overdue projects")

	out, _, err = w.run(t, []string{"notifications", "list"})
	require.NoError(t, err)
	assert.Contains(t, out, "Project deadline missed")
	assert.Contains(t, out, "project_overdue #1")

	_, _, err = w.run(t, []string{"check"})
	require.NoError(t, err)

	out, _, err = w.run(t, []string{"history"})
	require.NoError(t, err)
	assert.Contains(t, out, "Started")
	assert.NotContains(t, out, "no check runs yet")

	var count int
	w.seed(t, func(s *store.SQLiteStore) {
		list, err := s.GetNotifications(context.Background(), store.NotificationFilter{})
		require.NoError(t, err)
		count = len(list)
	})
	assert.Equal(t, 1, count)
}

func TestNotifications_Lifecycle(t *testing.T) {
	w := newWorkspace(t)
	declined := WithConfirm(func(string) (bool, error) { return false, nil })

	out, _, err := w.run(t, []string{"notifications", "add", "--title", "Release", "--message", "v2 shipped", "--type", "warning"})
	require.NoError(t, err)
	assert.Contains(t, out, "notification 1 created")

	out, _, err = w.run(t, []string{"notifications", "list", "--unread"})
	require.NoError(t, err)
	assert.Contains(t, out, "Release")

	out, _, err = w.run(t, []string{"notifications", "read", "1"})
	require.NoError(t, err)
	assert.Contains(t, out, "notification 1 marked read")

	out, _, err = w.run(t, []string{"notifications", "list", "--unread"})
	require.NoError(t, err)
	assert.Contains(t, out, "no notifications")

	out, _, err = w.run(t, []string{"notifications", "purge-read"}, declined)
	require.NoError(t, err)
	assert.Contains(t, out, "nothing deleted")

	out, _, err = w.run(t, []string{"notifications", "purge-read", "--yes"}, declined)
	require.NoError(t, err)
	assert.Contains(t, out, "1 read notifications deleted")
}

func TestNotifications_Errors(t *testing.T) {
	w := newWorkspace(t)

	_, _, err := w.run(t, []string{"notifications", "add", "--message", "no title"})
	assert.Equal(t, "validation", apperr.KindOf(err))
	assert.Equal(t, "title", apperr.FieldOf(err))

	_, _, err = w.run(t, []string{"notifications", "add", "--title", "t", "--message", "m", "--related-id", "3"})
	assert.Equal(t, "validation", apperr.KindOf(err))

	_, _, err = w.run(t, []string{"notifications", "add", "--title", "t", "--message", "m",
		"--related-kind", "budget_warning", "--related-id", "3"})
	assert.Equal(t, "related_type", apperr.FieldOf(err))

	_, _, err = w.run(t, []string{"notifications", "read", "42"})
	assert.Equal(t, "not_found", apperr.KindOf(err))

	_, _, err = w.run(t, []string{"notifications", "delete", "abc"})
	assert.Equal(t, "validation", apperr.KindOf(err))
}

func TestProgressCostAndSalary(t *testing.T) {
	w := newWorkspace(t)
	w.seed(t, func(s *store.SQLiteStore) {
		p := testutil.MustProject(t, s, model.Project{
			Name: "Portal", Client: "Acme", Deadline: testutil.Ptr("2026-03-20"), Budget: 10000,
		})
		d := testutil.MustDeveloper(t, s, model.Developer{FullName: "Ann Lee", Position: model.PositionBackend, HourlyRate: 1000})
		testutil.MustTask(t, s, model.Task{ProjectID: p.ID, DeveloperID: &d.ID, Description: "API", Status: model.TaskStatusDone, HoursWorked: 8})
		testutil.MustTask(t, s, model.Task{ProjectID: p.ID, DeveloperID: &d.ID, Description: "UI"})
	})

	out, _, err := w.run(t, []string{"progress", "1"})
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 2 done")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "8000.00")

	out, _, err = w.run(t, []string{"cost", "1"})
	require.NoError(t, err)
	assert.Contains(t, out, "2000.00")

	out, _, err = w.run(t, []string{"salary", "--start", "2026-03-01", "--end", "2026-03-31", "1"})
	require.NoError(t, err)
	assert.Contains(t, out, "2026-03-01 to 2026-03-31")
	assert.Contains(t, out, "8000.00")

	_, _, err = w.run(t, []string{"salary", "--start", "2026-3-1", "1"})
	assert.Equal(t, "validation", apperr.KindOf(err))

	_, _, err = w.run(t, []string{"progress", "9"})
	assert.Equal(t, "not_found", apperr.KindOf(err))
}

func TestReports(t *testing.T) {
	w := newWorkspace(t)
	w.seed(t, func(s *store.SQLiteStore) {
		p := testutil.MustProject(t, s, model.Project{Name: "Legacy", Client: "Acme", Deadline: testutil.Ptr("2026-03-01"), Budget: 500})
		d := testutil.MustDeveloper(t, s, model.Developer{FullName: "Ann Lee", Position: model.PositionBackend, HourlyRate: 100})
		testutil.MustTask(t, s, model.Task{ProjectID: p.ID, DeveloperID: &d.ID, Description: "Migrate", HoursWorked: 2})
	})

	out, _, err := w.run(t, []string{"report", "projects"})
	require.NoError(t, err)
	assert.Contains(t, out, "Legacy")
	assert.Contains(t, out, "1 overdue")

	out, _, err = w.run(t, []string{"report", "workload"})
	require.NoError(t, err)
	assert.Contains(t, out, "Workload 2026-03-01 to 2026-03-10")
	assert.Contains(t, out, "Ann Lee")

	out, _, err = w.run(t, []string{"report", "overdue-tasks"})
	require.NoError(t, err)
	assert.Contains(t, out, "Migrate")

	out, _, err = w.run(t, []string{"report", "revenue"})
	require.NoError(t, err)
	assert.Contains(t, out, "Revenue March 2026")
	assert.Contains(t, out, "300.00")

	_, _, err = w.run(t, []string{"report", "revenue", "--month", "13"})
	assert.Equal(t, "validation", apperr.KindOf(err))

	_, _, err = w.run(t, []string{"report", "weekly"})
	assert.Error(t, err)
}

func TestDigest_RequiresConfig(t *testing.T) {
	w := newWorkspace(t)

	_, _, err := w.run(t, []string{"digest"})

	assert.Equal(t, "validation", apperr.KindOf(err))
}

func TestDigest_MissingPassword(t *testing.T) {
	w := newWorkspace(t)
	t.Setenv("PULSE_DIGEST_HOST", "imap.example.com")
	t.Setenv("PULSE_DIGEST_USERNAME", "ann")
	ring := WithKeyring(func() (*credential.Store, error) {
		return credential.NewStore(keyring.NewArrayKeyring(nil)), nil
	})

	_, _, err := w.run(t, []string{"digest"}, ring)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no IMAP password stored")
}

func TestConfig_InitAndShow(t *testing.T) {
	w := newWorkspace(t)

	out, _, err := w.run(t, []string{"config", "init"})
	require.NoError(t, err)
	assert.Contains(t, out, "configuration written")
	assert.FileExists(t, w.configPath())

	_, _, err = w.run(t, []string{"config", "init"})
	assert.Equal(t, "conflict", apperr.KindOf(err))

	out, _, err = w.run(t, []string{"config", "show"})
	require.NoError(t, err)
	assert.Contains(t, out, "rules.upcoming_days")
	assert.Contains(t, out, w.dbPath())
}
