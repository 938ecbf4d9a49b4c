// Package store implements the embedded SQL engine: schema, transaction
// discipline, and the full-text/relational query primitives the sync
// engine and CLI build on, over database/sql + mattn/go-sqlite3.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"memory-nexus/internal/nexuserr"
	"memory-nexus/internal/nexusmodel"
)

// Store wraps the embedded SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies the
// schema. When quickIntegrityCheck is set, a PRAGMA quick_check
// runs first and a corrupted file is reported as nexuserr.KindStoreCorrupted
// rather than surfacing a raw SQLite error.
func Open(path string, quickIntegrityCheck bool) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, nexuserr.Wrap(nexuserr.KindStoreConnectionFailed, "failed to open store", err).WithPath(path)
	}

	s := &Store{db: db, path: path}

	if quickIntegrityCheck {
		ok, checkErr := s.quickIntegrityCheck(context.Background())
		if checkErr != nil {
			db.Close()
			return nil, nexuserr.Wrap(nexuserr.KindStoreConnectionFailed, "integrity check failed to run", checkErr).WithPath(path)
		}
		if !ok {
			db.Close()
			return nil, nexuserr.New(nexuserr.KindStoreCorrupted, "store failed quick integrity check").WithPath(path)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, nexuserr.Wrap(nexuserr.KindStoreConnectionFailed, "failed to apply schema", err).WithPath(path)
	}

	return s, nil
}

func (s *Store) quickIntegrityCheck(ctx context.Context) (bool, error) {
	var result string
	if err := s.db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return false, err
	}
	return result == "ok", nil
}

// IntegrityCheck runs the full PRAGMA integrity_check, for the CLI's
// standalone integrity-check operation.
func (s *Store) IntegrityCheck(ctx context.Context) (bool, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA integrity_check")
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return false, err
		}
		if line != "ok" {
			return false, nil
		}
	}
	return true, rows.Err()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// QuarantineCorrupted renames a corrupted store file aside, to
// <path>.corrupted.<ISO-8601 UTC timestamp>, so a fresh one can be created
// in its place.
func QuarantineCorrupted(path string) (string, error) {
	dest := fmt.Sprintf("%s.corrupted.%s", path, time.Now().UTC().Format("2006-01-02T15:04:05.000Z"))
	if err := os.Rename(path, dest); err != nil {
		return "", nexuserr.Wrap(nexuserr.KindIOError, "failed to quarantine corrupted store", err).WithPath(path)
	}
	return dest, nil
}

// FileTx begins a transaction scoped to syncing one source file: each file
// is synced in its own transaction.
func (s *Store) FileTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nexuserr.Wrap(nexuserr.KindTransactionFailed, "failed to begin transaction", err)
	}
	return tx, nil
}

// UpsertSession records or refreshes session-level metadata. now is the
// normalized timestamp of the event that triggered the upsert.
func UpsertSession(ctx context.Context, tx *sql.Tx, sess nexusmodel.SessionInfo, now string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, project_name, project_path_encoded, cwd, git_branch, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			cwd = CASE WHEN excluded.cwd <> '' THEN excluded.cwd ELSE sessions.cwd END,
			git_branch = CASE WHEN excluded.git_branch <> '' THEN excluded.git_branch ELSE sessions.git_branch END,
			last_seen_at = excluded.last_seen_at
	`, sess.ID, sess.ProjectName, sess.ProjectPathEncoded, sess.Cwd, sess.GitBranch, now, now)
	if err != nil {
		return nexuserr.Wrap(nexuserr.KindTransactionFailed, "failed to upsert session", err)
	}
	return nil
}

// InsertMessage persists a flattened User/Assistant turn. Conflicts on id
// are ignored: a session file is re-parsed from byte 0 when it has shrunk
// since its last sync, and the statement stays idempotent for such reparses,
// for reruns, and for the "rename and resync" corrupted-store recovery path.
func InsertMessage(ctx context.Context, tx *sql.Tx, msg nexusmodel.Message) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO messages_meta (id, session_id, role, timestamp, content)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, msg.ID, msg.SessionID, msg.Role, msg.Timestamp, msg.Content)
	if err != nil {
		return nexuserr.Wrap(nexuserr.KindTransactionFailed, "failed to insert message", err)
	}
	return nil
}

// InsertToolUse persists a derived tool invocation record.
func InsertToolUse(ctx context.Context, tx *sql.Tx, tu nexusmodel.ToolUse) error {
	inputJSON, err := json.Marshal(tu.Input)
	if err != nil {
		inputJSON = []byte("{}")
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tool_uses (id, session_id, name, input_json, timestamp)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, tu.ID, tu.SessionID, tu.Name, string(inputJSON), tu.Timestamp)
	if err != nil {
		return nexuserr.Wrap(nexuserr.KindTransactionFailed, "failed to insert tool use", err)
	}
	return nil
}

// InsertToolResult persists a derived tool-result record.
func InsertToolResult(ctx context.Context, tx *sql.Tx, tr nexusmodel.ToolResult) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO tool_results (id, session_id, tool_use_id, content, is_error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, tr.ID, tr.SessionID, tr.ToolUseID, tr.Content, tr.IsError, tr.Timestamp)
	if err != nil {
		return nexuserr.Wrap(nexuserr.KindTransactionFailed, "failed to insert tool result", err)
	}
	return nil
}

// InsertSummary persists a conversation-compaction summary.
func InsertSummary(ctx context.Context, tx *sql.Tx, sum nexusmodel.Summary) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO summaries (id, session_id, content, leaf_uuid, timestamp)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, sum.ID, sum.SessionID, sum.Content, sum.LeafUUID, sum.Timestamp)
	if err != nil {
		return nexuserr.Wrap(nexuserr.KindTransactionFailed, "failed to insert summary", err)
	}
	return nil
}

// InsertSystemEvent persists an opaque system event.
func InsertSystemEvent(ctx context.Context, tx *sql.Tx, sys nexusmodel.System) error {
	var dataJSON sql.NullString
	if sys.Data != nil {
		if b, err := json.Marshal(sys.Data); err == nil {
			dataJSON = sql.NullString{String: string(b), Valid: true}
		}
	}
	var durationMs sql.NullInt64
	if sys.DurationMs != nil {
		durationMs = sql.NullInt64{Int64: *sys.DurationMs, Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO system_events (id, session_id, subtype, duration_ms, data_json, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, sys.ID, sys.SessionID, sys.Subtype, durationMs, dataJSON, sys.Timestamp)
	if err != nil {
		return nexuserr.Wrap(nexuserr.KindTransactionFailed, "failed to insert system event", err)
	}
	return nil
}

// Link is a generic cross-entity-kind edge: (sourceType, sourceId,
// targetType, targetId, relationship, weight), unique on the quintuple
// excluding weight.
type Link struct {
	SourceType   string
	SourceID     string
	TargetType   string
	TargetID     string
	Relationship string
	Weight       float64
}

// InsertLink records a generic edge, conflict-ignored on the uniqueness
// quintuple so re-deriving the same edge during a resync is a no-op.
func InsertLink(ctx context.Context, tx *sql.Tx, l Link) error {
	weight := l.Weight
	if weight == 0 {
		weight = 1
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO links (source_type, source_id, target_type, target_id, relationship, weight)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_type, source_id, target_type, target_id, relationship) DO NOTHING
	`, l.SourceType, l.SourceID, l.TargetType, l.TargetID, l.Relationship, weight)
	if err != nil {
		return nexuserr.Wrap(nexuserr.KindTransactionFailed, "failed to insert link", err)
	}
	return nil
}

// FileState is the extraction_state row for one discovered source file.
type FileState struct {
	SessionID    string
	ModifiedTime string
	Size         int64
	ByteOffset   int64
	EventUUID    string
}

// GetFileState looks up the last-synced state for a file path, for delta
// detection. ok is false when the file has never been synced.
func (s *Store) GetFileState(ctx context.Context, path string) (FileState, bool, error) {
	var fs FileState
	var eventUUID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, modified_time, size, last_byte_offset, last_event_uuid
		FROM extraction_state WHERE file_path = ?
	`, path).Scan(&fs.SessionID, &fs.ModifiedTime, &fs.Size, &fs.ByteOffset, &eventUUID)
	if err == sql.ErrNoRows {
		return FileState{}, false, nil
	}
	if err != nil {
		return FileState{}, false, err
	}
	fs.EventUUID = eventUUID.String
	return fs, true, nil
}

// AdvanceFileState records that path was synced successfully through the
// given modification time/size/byte offset/last event, advanced only on a
// committed transaction — never on a failed or partial sync.
func AdvanceFileState(ctx context.Context, tx *sql.Tx, path, sessionID, modifiedTime string, size, byteOffset int64, eventUUID, syncedAt string) error {
	var uuidArg sql.NullString
	if eventUUID != "" {
		uuidArg = sql.NullString{String: eventUUID, Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO extraction_state (file_path, session_id, modified_time, size, last_byte_offset, last_event_uuid, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			session_id = excluded.session_id,
			modified_time = excluded.modified_time,
			size = excluded.size,
			last_byte_offset = excluded.last_byte_offset,
			last_event_uuid = excluded.last_event_uuid,
			synced_at = excluded.synced_at
	`, path, sessionID, modifiedTime, size, byteOffset, uuidArg, syncedAt)
	if err != nil {
		return nexuserr.Wrap(nexuserr.KindTransactionFailed, "failed to advance extraction state", err)
	}
	return nil
}
