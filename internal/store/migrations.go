package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
//
// Deadlines are TEXT (YYYY-MM-DD) rather than DATE so the driver hands
// them back verbatim and malformed legacy values stay readable.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	client     TEXT NOT NULL,
	deadline   TEXT,
	budget     REAL NOT NULL DEFAULT 0 CHECK (budget >= 0),
	status     TEXT NOT NULL DEFAULT 'in_progress',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS developers (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	full_name   TEXT NOT NULL UNIQUE,
	position    TEXT NOT NULL,
	hourly_rate REAL NOT NULL CHECK (hourly_rate > 0)
);

CREATE TABLE IF NOT EXISTS tasks (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id   INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	developer_id INTEGER REFERENCES developers(id) ON DELETE RESTRICT,
	description  TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'new'
		CHECK (status IN ('new', 'in_progress', 'in_review', 'done')),
	hours_worked REAL NOT NULL DEFAULT 0 CHECK (hours_worked >= 0),
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notifications (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	title        TEXT NOT NULL,
	message      TEXT NOT NULL,
	type         TEXT NOT NULL CHECK (type IN ('info', 'warning', 'error')),
	related_id   INTEGER,
	related_type TEXT,
	is_read      INTEGER NOT NULL DEFAULT 0,
	user_id      INTEGER,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
CREATE INDEX IF NOT EXISTS idx_tasks_developer ON tasks(developer_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(is_read);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);
CREATE INDEX IF NOT EXISTS idx_notifications_related
	ON notifications(related_type, related_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS check_runs (
	id                 TEXT PRIMARY KEY,
	started_at         DATETIME NOT NULL,
	finished_at        DATETIME NOT NULL,
	overdue_projects   INTEGER NOT NULL DEFAULT 0,
	upcoming_deadlines INTEGER NOT NULL DEFAULT 0,
	inactive_tasks     INTEGER NOT NULL DEFAULT 0,
	budget_warnings    INTEGER NOT NULL DEFAULT 0,
	total              INTEGER NOT NULL DEFAULT 0,
	errors             TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_check_runs_started ON check_runs(started_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
