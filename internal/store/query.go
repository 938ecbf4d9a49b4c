package store

import (
	"context"
	"database/sql"
	"math"
	"strings"

	"memory-nexus/internal/nexuserr"
)

// SearchResult is one ranked full-text match.
type SearchResult struct {
	MessageID string
	SessionID string
	Role      string
	Timestamp string
	Snippet   string
	Score     float64 // normalized to [0,1], 1 = best match
}

// SearchOptions carries the optional refinements to a Search call:
// ProjectFilter/RoleFilter narrow by session project or message role,
// CaseSensitive requests a literal-case re-filter, and Limit bounds the
// result count (0 = caller/store default).
type SearchOptions struct {
	Limit         int
	ProjectFilter string
	RoleFilter    string
	CaseSensitive bool
}

// Search runs matchExpr (already translated to FTS5 MATCH syntax by
// internal/querylang) against messages_fts and returns up to opts.Limit hits
// ranked by BM25, normalized into [0,1]. When matchExpr is empty (a
// filter-only query), it instead runs searchByFilter, ordering by recency
// rather than relevance since there is no text to rank.
//
// opts.CaseSensitive requests a literal-case match: FTS5's default tokenizer
// folds case, so this over-fetches (2x limit) and re-filters in Go against
// the original content rather than maintaining a second, case-aware
// virtual table.
func (s *Store) Search(ctx context.Context, matchExpr string, opts SearchOptions) ([]SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	if matchExpr == "" {
		return s.searchByFilter(ctx, opts, limit)
	}

	fetchLimit := limit
	if opts.CaseSensitive {
		fetchLimit = limit * 2
	}

	conditions := []string{"messages_fts MATCH ?"}
	args := []any{matchExpr}
	if opts.ProjectFilter != "" {
		conditions = append(conditions, "s.project_name = ?")
		args = append(args, opts.ProjectFilter)
	}
	if opts.RoleFilter != "" {
		conditions = append(conditions, "m.role = ?")
		args = append(args, opts.RoleFilter)
	}
	args = append(args, fetchLimit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.session_id, m.role, m.timestamp, m.content,
		       snippet(messages_fts, 0, '<mark>', '</mark>', '...', 32) AS snip,
		       bm25(messages_fts) AS rank
		FROM messages_fts
		JOIN messages_meta m ON m.rowid = messages_fts.rowid
		JOIN sessions s ON s.id = m.session_id
		WHERE `+strings.Join(conditions, " AND ")+`
		ORDER BY rank
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, nexuserr.Wrap(nexuserr.KindTransactionFailed, "search query failed", err)
	}
	defer rows.Close()

	var items []scoredRow
	for rows.Next() {
		var r scoredRow
		if err := rows.Scan(&r.res.MessageID, &r.res.SessionID, &r.res.Role, &r.res.Timestamp, &r.content, &r.res.Snippet, &r.rank); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if opts.CaseSensitive {
		needle := matchExpr
		filtered := items[:0]
		for _, it := range items {
			if containsCaseSensitiveToken(it.content, needle) {
				filtered = append(filtered, it)
			}
		}
		items = filtered
		if len(items) > limit {
			items = items[:limit]
		}
	}

	normalizeBM25(items)

	results := make([]SearchResult, 0, len(items))
	for _, it := range items {
		results = append(results, it.res)
	}
	return results, nil
}

// searchByFilter handles a filter-only query (no terms or phrases): a plain
// messages_meta/sessions join ordered by recency, with Score fixed at 1
// since there is no relevance signal to rank by.
func (s *Store) searchByFilter(ctx context.Context, opts SearchOptions, limit int) ([]SearchResult, error) {
	var conditions []string
	var args []any
	if opts.ProjectFilter != "" {
		conditions = append(conditions, "s.project_name = ?")
		args = append(args, opts.ProjectFilter)
	}
	if opts.RoleFilter != "" {
		conditions = append(conditions, "m.role = ?")
		args = append(args, opts.RoleFilter)
	}

	query := `
		SELECT m.id, m.session_id, m.role, m.timestamp, m.content
		FROM messages_meta m
		JOIN sessions s ON s.id = m.session_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY m.timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nexuserr.Wrap(nexuserr.KindTransactionFailed, "filter search query failed", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var content string
		if err := rows.Scan(&r.MessageID, &r.SessionID, &r.Role, &r.Timestamp, &content); err != nil {
			return nil, err
		}
		r.Snippet = content
		r.Score = 1
		results = append(results, r)
	}
	return results, rows.Err()
}

// scoredRow is one raw search hit before case-sensitive re-filtering and
// BM25 normalization are applied.
type scoredRow struct {
	res     SearchResult
	content string
	rank    float64
}

// normalizeBM25 rewrites each item's Score in place via min-max
// normalization of SQLite's bm25() output (more negative = better match)
// into [0,1], 1 being the best match in the result set.
func normalizeBM25(items []scoredRow) {
	if len(items) == 0 {
		return
	}
	min, max := items[0].rank, items[0].rank
	for _, it := range items {
		if it.rank < min {
			min = it.rank
		}
		if it.rank > max {
			max = it.rank
		}
	}
	if max == min {
		for i := range items {
			items[i].res.Score = 1
		}
		return
	}
	for i := range items {
		// bm25 is more negative for better matches; invert so higher == better.
		items[i].res.Score = 1 - (items[i].rank-min)/(max-min)
		items[i].res.Score = math.Max(0, math.Min(1, items[i].res.Score))
	}
}

// containsCaseSensitiveToken is a best-effort literal-case re-filter used
// after FTS5's case-folded match.
func containsCaseSensitiveToken(content, needle string) bool {
	// The match expression may contain MATCH operators (AND, quotes); strip
	// them so each AND-joined term or phrase becomes a plain substring check
	// against the raw content, which is all a post-filter needs to decide if
	// the literal case is present.
	for _, part := range strings.Split(needle, " AND ") {
		term := stripMatchSyntax(part)
		if term != "" && !contains(content, term) {
			return false
		}
	}
	return true
}

func contains(haystack, needle string) bool {
	return indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func stripMatchSyntax(expr string) string {
	out := make([]byte, 0, len(expr))
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if c == '"' {
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

// SessionContext is one message row returned by ContextForProject.
type SessionContext struct {
	SessionID string
	Role      string
	Timestamp string
	Content   string
}

// ContextForProject returns the most recent messages across all sessions
// under a decoded project name, newest first — the "project context" read
// path.
func (s *Store) ContextForProject(ctx context.Context, projectName string, limit int) ([]SessionContext, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.session_id, m.role, m.timestamp, m.content
		FROM messages_meta m
		JOIN sessions s ON s.id = m.session_id
		WHERE s.project_name = ?
		ORDER BY m.timestamp DESC
		LIMIT ?
	`, projectName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionContext
	for rows.Next() {
		var c SessionContext
		if err := rows.Scan(&c.SessionID, &c.Role, &c.Timestamp, &c.Content); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetSessionMessages returns every message in sessionID, oldest first —
// the "show one session" CLI read path.
func (s *Store) GetSessionMessages(ctx context.Context, sessionID string) ([]SessionContext, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, role, timestamp, content
		FROM messages_meta
		WHERE session_id = ?
		ORDER BY timestamp ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionContext
	for rows.Next() {
		var c SessionContext
		if err := rows.Scan(&c.SessionID, &c.Role, &c.Timestamp, &c.Content); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Related returns up to count sessions linked to sessionID — in either
// direction of the session-to-session links (subagent "continues" edges and
// any other session/session relationship) — ranked by the weighted sum of
// their link weights, highest first.
func (s *Store) Related(ctx context.Context, sessionID string, count int) ([]SessionSummary, error) {
	if count <= 0 {
		count = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT other, SUM(weight) AS total_weight FROM (
			SELECT target_id AS other, weight FROM links
			WHERE source_type = 'session' AND target_type = 'session' AND source_id = ?
			UNION ALL
			SELECT source_id AS other, weight FROM links
			WHERE source_type = 'session' AND target_type = 'session' AND target_id = ?
		)
		GROUP BY other
		ORDER BY total_weight DESC
		LIMIT ?
	`, sessionID, sessionID, count)
	if err != nil {
		return nil, err
	}

	var rankedIDs []string
	for rows.Next() {
		var id string
		var totalWeight float64
		if err := rows.Scan(&id, &totalWeight); err != nil {
			rows.Close()
			return nil, err
		}
		rankedIDs = append(rankedIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := make([]SessionSummary, 0, len(rankedIDs))
	for _, id := range rankedIDs {
		var r SessionSummary
		err := s.db.QueryRowContext(ctx, `
			SELECT s.id, s.project_name, s.first_seen_at, s.last_seen_at,
			       (SELECT COUNT(*) FROM messages_meta m WHERE m.session_id = s.id) AS msg_count
			FROM sessions s WHERE s.id = ?
		`, id).Scan(&r.ID, &r.ProjectName, &r.StartTime, &r.EndTime, &r.MessageCount)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// SessionSummary is one row returned by ListSessions and Related.
type SessionSummary struct {
	ID           string
	ProjectName  string
	MessageCount int
	StartTime    string
	EndTime      string
}

// ListSessions returns known sessions ordered by start time, most recent
// first. projectFilter restricts to one decoded project name when non-empty;
// limit bounds the result count when positive.
func (s *Store) ListSessions(ctx context.Context, projectFilter string, limit int) ([]SessionSummary, error) {
	query := `
		SELECT s.id, s.project_name, s.first_seen_at, s.last_seen_at,
		       (SELECT COUNT(*) FROM messages_meta m WHERE m.session_id = s.id) AS msg_count
		FROM sessions s`
	var args []any
	if projectFilter != "" {
		query += " WHERE s.project_name = ?"
		args = append(args, projectFilter)
	}
	query += " ORDER BY s.first_seen_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var r SessionSummary
		if err := rows.Scan(&r.ID, &r.ProjectName, &r.StartTime, &r.EndTime, &r.MessageCount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats is the aggregate store summary returned by the CLI's stats
// operation.
type Stats struct {
	SessionCount     int
	MessageCount     int
	ToolUseCount     int
	ToolResultCount  int
	SummaryCount     int
	OldestMessageAt  sql.NullString
	NewestMessageAt  sql.NullString
}

// Stats computes store-wide counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(*) FROM messages_meta),
			(SELECT COUNT(*) FROM tool_uses),
			(SELECT COUNT(*) FROM tool_results),
			(SELECT COUNT(*) FROM summaries),
			(SELECT MIN(timestamp) FROM messages_meta),
			(SELECT MAX(timestamp) FROM messages_meta)
	`)
	err := row.Scan(&st.SessionCount, &st.MessageCount, &st.ToolUseCount, &st.ToolResultCount, &st.SummaryCount, &st.OldestMessageAt, &st.NewestMessageAt)
	return st, err
}

// Purge deletes every session (and its dependent rows) whose last activity
// is strictly before the given ISO-8601 timestamp boundary.
func (s *Store) Purge(ctx context.Context, beforeTimestamp string) (int, error) {
	tx, err := s.FileTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM sessions WHERE last_seen_at < ?`, beforeTimestamp)
	if err != nil {
		return 0, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()

	const deleteLinks = `DELETE FROM links WHERE (source_type = 'session' AND source_id = ?) OR (target_type = 'session' AND target_id = ?)`
	for _, id := range ids {
		for _, stmt := range []string{
			`DELETE FROM messages_meta WHERE session_id = ?`,
			`DELETE FROM tool_uses WHERE session_id = ?`,
			`DELETE FROM tool_results WHERE session_id = ?`,
			`DELETE FROM summaries WHERE session_id = ?`,
			`DELETE FROM system_events WHERE session_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return 0, err
			}
		}
		if _, err := tx.ExecContext(ctx, deleteLinks, id, id); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, nexuserr.Wrap(nexuserr.KindTransactionFailed, "purge commit failed", err)
	}
	return len(ids), nil
}
