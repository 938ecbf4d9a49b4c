// Package syncengine implements discovery, delta detection, and per-file
// transactional ingest of session log files into the embedded store.
package syncengine

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"memory-nexus/internal/extract"
	"memory-nexus/internal/logx"
	"memory-nexus/internal/nexusmodel"
	"memory-nexus/internal/parser"
	"memory-nexus/internal/pathcodec"
	"memory-nexus/internal/store"
	"memory-nexus/internal/telemetry"
)

// FileEntry is one discovered session-log file awaiting a sync decision.
type FileEntry struct {
	Path            string
	Project         pathcodec.ProjectPath
	IsSubagent      bool
	ParentSessionID string // set when IsSubagent
}

// Discover walks root for encoded project directories, their top-level
// *.jsonl session files, and any <sessionUUID>/subagents/agent-*.jsonl
// subagent transcripts. Unreadable entries are skipped rather than
// aborting the whole walk.
func Discover(root string) ([]FileEntry, error) {
	topEntries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range topEntries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}

	var out []FileEntry
	for _, proj := range pathcodec.FilterEncodedPaths(names) {
		projDir := filepath.Join(root, proj.Encoded)
		children, err := os.ReadDir(projDir)
		if err != nil {
			continue
		}
		for _, child := range children {
			if !child.IsDir() {
				if strings.HasSuffix(child.Name(), ".jsonl") {
					out = append(out, FileEntry{
						Path:    filepath.Join(projDir, child.Name()),
						Project: proj,
					})
				}
				continue
			}

			parentSessionID := child.Name()
			subagentsDir := filepath.Join(projDir, parentSessionID, "subagents")
			subEntries, err := os.ReadDir(subagentsDir)
			if err != nil {
				continue
			}
			for _, sub := range subEntries {
				if sub.IsDir() || !strings.HasPrefix(sub.Name(), "agent-") || !strings.HasSuffix(sub.Name(), ".jsonl") {
					continue
				}
				out = append(out, FileEntry{
					Path:            filepath.Join(subagentsDir, sub.Name()),
					Project:         proj,
					IsSubagent:      true,
					ParentSessionID: parentSessionID,
				})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Stats summarizes one Sync run.
type Stats struct {
	FilesScanned int
	FilesSynced  int
	FilesSkipped int // unchanged since last sync
	EventsSkipped int
}

// Sync discovers every session file under root and syncs each that has
// changed since its last recorded extraction_state. A per-file failure is
// logged and does not abort the run.
func Sync(ctx context.Context, st *store.Store, root string, log *logx.Logger) (Stats, error) {
	if log == nil {
		log = logx.Default
	}
	files, err := Discover(root)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, f := range files {
		stats.FilesScanned++
		synced, eventsSkipped, err := SyncFile(ctx, st, f)
		if err != nil {
			log.Error("failed to sync session file", map[string]any{"path": f.Path, "error": err.Error()})
			continue
		}
		stats.EventsSkipped += eventsSkipped
		if synced {
			stats.FilesSynced++
		} else {
			stats.FilesSkipped++
		}
	}
	return stats, nil
}

// SyncFile syncs a single discovered file if it has changed since its last
// recorded state, returning whether it was (re)synced and how many lines
// were skipped as non-semantic or malformed.
func SyncFile(ctx context.Context, st *store.Store, f FileEntry) (synced bool, eventsSkipped int, err error) {
	ctx, span := telemetry.StartSpan(ctx, "syncengine.SyncFile", telemetry.String("path", f.Path))
	defer func() { telemetry.EndSpan(span, err) }()

	info, statErr := os.Stat(f.Path)
	if statErr != nil {
		return false, 0, statErr
	}
	modTime := strconv.FormatInt(info.ModTime().UnixNano(), 10)
	size := info.Size()

	var startOffset int64
	prior, hasPrior, stateErr := st.GetFileState(ctx, f.Path)
	if stateErr == nil && hasPrior {
		if prior.ModifiedTime == modTime && prior.Size == size {
			return false, 0, nil
		}
		// Resume from the last recorded offset only if the file has grown:
		// a shorter file means it was truncated or rewritten, so a full
		// re-parse from the start is the safe course.
		if size >= prior.Size {
			startOffset = prior.ByteOffset
		}
	}

	p, err := parser.OpenAt(f.Path, startOffset)
	if err != nil {
		return false, 0, err
	}
	defer p.Close()

	sessionID := p.SessionID()

	var events []nexusmodel.Event
	for {
		evt, ok, nextErr := p.Next()
		if nextErr != nil {
			return false, eventsSkipped, nextErr
		}
		if !ok {
			break
		}
		events = append(events, evt)
	}
	endOffset := p.Offset()

	// Order events by normalized timestamp before committing anything,
	// using file order as the tie-breaker for equal or missing timestamps.
	sort.SliceStable(events, func(i, j int) bool {
		return eventTimestamp(events[i]) < eventTimestamp(events[j])
	})

	tx, err := st.FileTx(ctx)
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	var lastTimestamp string
	var lastEventUUID string
	for _, evt := range events {
		switch evt.Kind {
		case nexusmodel.KindUser:
			if err := store.UpsertSession(ctx, tx, nexusmodel.SessionInfo{
				ID:                 sessionID,
				ProjectName:        f.Project.ProjectName(),
				ProjectPathEncoded: f.Project.Encoded,
				Cwd:                evt.User.Cwd,
				GitBranch:          evt.User.GitBranch,
			}, evt.User.Timestamp); err != nil {
				return false, eventsSkipped, err
			}
			if err := store.InsertMessage(ctx, tx, nexusmodel.Message{
				ID: evt.User.ID, SessionID: sessionID, Role: "user",
				Content: evt.User.Content, Timestamp: evt.User.Timestamp,
			}); err != nil {
				return false, eventsSkipped, err
			}
			for _, tr := range evt.ToolResults {
				if err := store.InsertToolResult(ctx, tx, tr); err != nil {
					return false, eventsSkipped, err
				}
				if tr.ToolUseID != "" {
					if err := store.InsertLink(ctx, tx, store.Link{
						SourceType: "tool_result", SourceID: tr.ID,
						TargetType: "tool_use", TargetID: tr.ToolUseID,
						Relationship: "references",
					}); err != nil {
						return false, eventsSkipped, err
					}
				}
			}
			lastTimestamp = evt.User.Timestamp
			lastEventUUID = evt.User.ID

		case nexusmodel.KindAssistant:
			if err := store.UpsertSession(ctx, tx, nexusmodel.SessionInfo{
				ID: sessionID, ProjectName: f.Project.ProjectName(), ProjectPathEncoded: f.Project.Encoded,
			}, evt.Assistant.Timestamp); err != nil {
				return false, eventsSkipped, err
			}
			if err := store.InsertMessage(ctx, tx, nexusmodel.Message{
				ID: evt.Assistant.ID, SessionID: sessionID, Role: "assistant",
				Content: extract.JoinText(evt.Assistant.Blocks), Timestamp: evt.Assistant.Timestamp,
			}); err != nil {
				return false, eventsSkipped, err
			}
			for _, tu := range evt.ToolUses {
				if err := store.InsertToolUse(ctx, tx, tu); err != nil {
					return false, eventsSkipped, err
				}
			}
			lastTimestamp = evt.Assistant.Timestamp
			lastEventUUID = evt.Assistant.ID

		case nexusmodel.KindSummary:
			if err := store.InsertSummary(ctx, tx, *evt.Summary); err != nil {
				return false, eventsSkipped, err
			}
			lastTimestamp = evt.Summary.Timestamp
			lastEventUUID = evt.Summary.ID

		case nexusmodel.KindSystem:
			if err := store.InsertSystemEvent(ctx, tx, *evt.System); err != nil {
				return false, eventsSkipped, err
			}
			lastTimestamp = evt.System.Timestamp
			lastEventUUID = evt.System.ID

		case nexusmodel.KindSkipped:
			eventsSkipped++
		}
	}

	if f.IsSubagent {
		if err := store.InsertLink(ctx, tx, store.Link{
			SourceType: "session", SourceID: f.ParentSessionID,
			TargetType: "session", TargetID: sessionID,
			Relationship: "continues",
		}); err != nil {
			return false, eventsSkipped, err
		}
	}

	if err := store.AdvanceFileState(ctx, tx, f.Path, sessionID, modTime, size, endOffset, lastEventUUID, lastTimestamp); err != nil {
		return false, eventsSkipped, err
	}

	if err := tx.Commit(); err != nil {
		return false, eventsSkipped, err
	}
	return true, eventsSkipped, nil
}

// eventTimestamp extracts the normalized timestamp used to order events
// before commit, per the kind carrying it. Skipped (malformed) lines have no
// timestamp and sort by file order alone among themselves.
func eventTimestamp(evt nexusmodel.Event) string {
	switch evt.Kind {
	case nexusmodel.KindUser:
		return evt.User.Timestamp
	case nexusmodel.KindAssistant:
		return evt.Assistant.Timestamp
	case nexusmodel.KindSummary:
		return evt.Summary.Timestamp
	case nexusmodel.KindSystem:
		return evt.System.Timestamp
	default:
		return ""
	}
}
