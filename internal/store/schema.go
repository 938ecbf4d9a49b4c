package store

// schema is applied once at Open time as a single string constant executed
// via db.Exec.
//
// messages_meta is the canonical row store for User/Assistant turns;
// messages_fts is an external-content FTS5 index over its content column,
// kept in sync by the three triggers below rather than by application
// code: the full-text index is never written to directly.
const schema = `
PRAGMA journal_mode = WAL;

CREATE TABLE IF NOT EXISTS sessions (
	id                   TEXT PRIMARY KEY,
	project_name         TEXT NOT NULL,
	project_path_encoded TEXT NOT NULL,
	cwd                  TEXT,
	git_branch           TEXT,
	first_seen_at        TEXT NOT NULL,
	last_seen_at         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_name);

CREATE TABLE IF NOT EXISTS messages_meta (
	rowid      INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	session_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	timestamp  TEXT NOT NULL,
	content    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages_meta(session_id);
CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages_meta(timestamp);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
	content,
	content='messages_meta',
	content_rowid='rowid',
	tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS messages_meta_ai AFTER INSERT ON messages_meta BEGIN
	INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
END;
CREATE TRIGGER IF NOT EXISTS messages_meta_ad AFTER DELETE ON messages_meta BEGIN
	INSERT INTO messages_fts(messages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
END;
CREATE TRIGGER IF NOT EXISTS messages_meta_au AFTER UPDATE ON messages_meta BEGIN
	INSERT INTO messages_fts(messages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
	INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TABLE IF NOT EXISTS tool_uses (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	input_json TEXT,
	timestamp  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tool_uses_session ON tool_uses(session_id);

CREATE TABLE IF NOT EXISTS tool_results (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	tool_use_id TEXT NOT NULL,
	content     TEXT,
	is_error    INTEGER NOT NULL DEFAULT 0,
	timestamp   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tool_results_session ON tool_results(session_id);
CREATE INDEX IF NOT EXISTS idx_tool_results_tool_use ON tool_results(tool_use_id);

CREATE TABLE IF NOT EXISTS summaries (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	content    TEXT NOT NULL,
	leaf_uuid  TEXT,
	timestamp  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_summaries_session ON summaries(session_id);

CREATE TABLE IF NOT EXISTS system_events (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	subtype     TEXT NOT NULL,
	duration_ms INTEGER,
	data_json   TEXT,
	timestamp   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_system_events_session ON system_events(session_id);

-- Generic cross-entity-kind edges: parent/subagent session linking
-- (relationship='continues'), tool_result -> tool_use references, and any
-- other mentions/related_to/discusses edge. Uniqueness excludes weight.
CREATE TABLE IF NOT EXISTS links (
	source_type  TEXT NOT NULL,
	source_id    TEXT NOT NULL,
	target_type  TEXT NOT NULL,
	target_id    TEXT NOT NULL,
	relationship TEXT NOT NULL,
	weight       REAL NOT NULL DEFAULT 1,
	PRIMARY KEY (source_type, source_id, target_type, target_id, relationship)
);
CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_type, source_id);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_type, target_id);

-- Per-file sync bookkeeping: one row per discovered source file, advanced
-- only after that file's transaction commits. last_byte_offset lets the
-- next sync parse only the portion appended since last_byte_offset.
CREATE TABLE IF NOT EXISTS extraction_state (
	file_path        TEXT PRIMARY KEY,
	session_id       TEXT NOT NULL,
	modified_time    TEXT NOT NULL,
	size             INTEGER NOT NULL,
	last_byte_offset INTEGER NOT NULL DEFAULT 0,
	last_event_uuid  TEXT,
	synced_at        TEXT NOT NULL
);
`
