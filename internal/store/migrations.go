package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	owner_id    TEXT NOT NULL,
	theme_color TEXT NOT NULL DEFAULT '',
	is_public   INTEGER NOT NULL DEFAULT 0 CHECK(is_public IN (0, 1)),
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_projects_owner_id ON projects(owner_id);

CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	title      TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	color      TEXT NOT NULL DEFAULT 'yellow',
	position_x REAL NOT NULL DEFAULT 0,
	position_y REAL NOT NULL DEFAULT 0,
	width      REAL NOT NULL DEFAULT 300,
	height     REAL NOT NULL DEFAULT 250,
	z_index    INTEGER NOT NULL DEFAULT 0,
	is_locked  INTEGER NOT NULL DEFAULT 0 CHECK(is_locked IN (0, 1)),
	is_pinned  INTEGER NOT NULL DEFAULT 0 CHECK(is_pinned IN (0, 1)),
	is_hidden  INTEGER NOT NULL DEFAULT 0 CHECK(is_hidden IN (0, 1)),
	priority   TEXT NOT NULL DEFAULT ''
		CHECK(priority IN ('', 'low', 'medium', 'high', 'critical')),
	due_date   DATETIME,
	status     TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notes_project_id ON notes(project_id);
CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes(created_at);

CREATE TABLE IF NOT EXISTS tags (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	color      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(project_id, name)
);

CREATE TABLE IF NOT EXISTS note_tags (
	note_id    TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	tag_id     TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (note_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_note_tags_tag_id ON note_tags(tag_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS view_preferences (
	project_id TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
