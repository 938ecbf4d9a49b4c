package syncengine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"memory-nexus/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover_FindsSessionsAndSubagents(t *testing.T) {
	root := t.TempDir()
	projDir := filepath.Join(root, "-home-me-myproject")

	writeFile(t, filepath.Join(projDir, "session-1.jsonl"), "{}\n")
	writeFile(t, filepath.Join(projDir, "session-2", "subagents", "agent-abc.jsonl"), "{}\n")
	writeFile(t, filepath.Join(root, "not-encoded-but-plain"), "ignored")

	entries, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}

	var sawSession, sawSubagent bool
	for _, e := range entries {
		if e.IsSubagent {
			sawSubagent = true
			if e.ParentSessionID != "session-2" {
				t.Errorf("unexpected parent session id %q", e.ParentSessionID)
			}
		} else {
			sawSession = true
		}
		if e.Project.ProjectName() != "myproject" {
			t.Errorf("unexpected project name %q", e.Project.ProjectName())
		}
	}
	if !sawSession || !sawSubagent {
		t.Errorf("expected both a session and a subagent entry, got %+v", entries)
	}
}

func TestSyncFile_IngestsAndSkipsOnRerun(t *testing.T) {
	root := t.TempDir()
	projDir := filepath.Join(root, "-home-me-myproject")
	content := `{"type":"user","uuid":"u1","timestamp":"2026-01-28T00:00:00.000Z","cwd":"/home/me/myproject","message":{"content":"hello"}}
{"type":"assistant","uuid":"a1","timestamp":"2026-01-28T00:00:01.000Z","message":{"content":[{"type":"text","text":"hi there"}]}}
`
	sessionPath := filepath.Join(projDir, "session-1.jsonl")
	writeFile(t, sessionPath, content)

	entries, err := Discover(root)
	if err != nil || len(entries) != 1 {
		t.Fatalf("Discover: %v, %+v", err, entries)
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath, false)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	synced, skipped, err := SyncFile(ctx, st, entries[0])
	if err != nil {
		t.Fatalf("SyncFile: %v", err)
	}
	if !synced {
		t.Fatal("expected first sync to report synced=true")
	}
	if skipped != 0 {
		t.Errorf("expected 0 skipped events, got %d", skipped)
	}

	sessions, err := st.ListSessions(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].MessageCount != 2 {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}

	synced2, _, err := SyncFile(ctx, st, entries[0])
	if err != nil {
		t.Fatalf("second SyncFile: %v", err)
	}
	if synced2 {
		t.Error("expected unchanged file to be skipped on rerun")
	}
}

func TestSyncFile_OrdersOutOfOrderTimestamps(t *testing.T) {
	root := t.TempDir()
	projDir := filepath.Join(root, "-home-me-myproject")
	// The assistant line appears first in the file but carries a later
	// timestamp than the user line that follows it.
	content := `{"type":"assistant","uuid":"a1","timestamp":"2026-01-28T00:00:05.000Z","message":{"content":[{"type":"text","text":"hi there"}]}}
{"type":"user","uuid":"u1","timestamp":"2026-01-28T00:00:00.000Z","cwd":"/home/me/myproject","message":{"content":"hello"}}
`
	sessionPath := filepath.Join(projDir, "session-1.jsonl")
	writeFile(t, sessionPath, content)

	entries, err := Discover(root)
	if err != nil || len(entries) != 1 {
		t.Fatalf("Discover: %v, %+v", err, entries)
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath, false)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if _, _, err := SyncFile(ctx, st, entries[0]); err != nil {
		t.Fatalf("SyncFile: %v", err)
	}

	fs, ok, err := st.GetFileState(ctx, sessionPath)
	if err != nil || !ok {
		t.Fatalf("expected file state, got ok=%v err=%v", ok, err)
	}
	if fs.EventUUID != "a1" {
		t.Fatalf("expected last-applied event to be the later-timestamped assistant event, got %q", fs.EventUUID)
	}
}

func TestSyncFile_ResumesFromByteOffset(t *testing.T) {
	root := t.TempDir()
	projDir := filepath.Join(root, "-home-me-myproject")
	first := `{"type":"user","uuid":"u1","timestamp":"2026-01-28T00:00:00.000Z","cwd":"/home/me/myproject","message":{"content":"hello"}}
`
	sessionPath := filepath.Join(projDir, "session-1.jsonl")
	writeFile(t, sessionPath, first)

	entries, err := Discover(root)
	if err != nil || len(entries) != 1 {
		t.Fatalf("Discover: %v, %+v", err, entries)
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath, false)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if _, _, err := SyncFile(ctx, st, entries[0]); err != nil {
		t.Fatalf("first SyncFile: %v", err)
	}
	firstState, _, _ := st.GetFileState(ctx, sessionPath)
	if firstState.ByteOffset != int64(len(first)) {
		t.Fatalf("expected byte offset %d after first sync, got %d", len(first), firstState.ByteOffset)
	}

	appended := first + `{"type":"assistant","uuid":"a1","timestamp":"2026-01-28T00:00:01.000Z","message":{"content":[{"type":"text","text":"hi there"}]}}
`
	writeFile(t, sessionPath, appended)

	synced, _, err := SyncFile(ctx, st, entries[0])
	if err != nil {
		t.Fatalf("second SyncFile: %v", err)
	}
	if !synced {
		t.Fatal("expected grown file to be resynced")
	}

	sessions, err := st.ListSessions(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].MessageCount != 2 {
		t.Fatalf("expected both messages present after resumed sync, got %+v", sessions)
	}
}

func TestSyncFile_LinksSubagentAndToolResult(t *testing.T) {
	root := t.TempDir()
	projDir := filepath.Join(root, "-home-me-myproject")
	parentPath := filepath.Join(projDir, "session-parent.jsonl")
	writeFile(t, parentPath, `{"type":"user","uuid":"u1","timestamp":"2026-01-28T00:00:00.000Z","cwd":"/home/me/myproject","message":{"content":"hello"}}
`)
	subagentContent := `{"type":"user","uuid":"u2","timestamp":"2026-01-28T00:00:01.000Z","message":{"content":[{"type":"tool_result","tool_use_id":"missing-tool-use","content":"done"}]}}
`
	writeFile(t, filepath.Join(projDir, "session-parent", "subagents", "agent-1.jsonl"), subagentContent)

	entries, err := Discover(root)
	if err != nil || len(entries) != 2 {
		t.Fatalf("Discover: %v, %+v", err, entries)
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath, false)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	for _, e := range entries {
		if _, _, err := SyncFile(ctx, st, e); err != nil {
			t.Fatalf("SyncFile(%s): %v", e.Path, err)
		}
	}

	related, err := st.Related(ctx, "session-parent", 10)
	if err != nil {
		t.Fatalf("Related: %v", err)
	}
	if len(related) != 1 || related[0].ID != "agent-1" {
		t.Fatalf("expected subagent session linked via 'continues', got %+v", related)
	}
}
