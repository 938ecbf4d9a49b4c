package extract

import (
	"encoding/json"
	"testing"

	"memory-nexus/internal/nexusmodel"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("bad fixture json: %v", err)
	}
	return m
}

func TestClassify_SkipSetClosure(t *testing.T) {
	for _, typ := range []string{
		"progress", "agent_progress", "bash_progress", "mcp_progress",
		"hook_progress", "base64", "image", "file-history-snapshot",
		"waiting_for_task", "create", "update", "queue-operation",
	} {
		raw := map[string]any{"type": typ}
		got := Classify(raw, "sess-1")
		if got.Kind != nexusmodel.KindSkipped {
			t.Errorf("type %q: expected Skipped, got %v", typ, got.Kind)
		}
	}
}

func TestClassify_UnknownType(t *testing.T) {
	got := Classify(map[string]any{"type": "mystery"}, "sess-1")
	if got.Kind != nexusmodel.KindSkipped {
		t.Fatalf("expected Skipped, got %v", got.Kind)
	}
}

func TestClassify_InvalidStructure(t *testing.T) {
	cases := []map[string]any{
		nil,
		{},
		{"type": 42},
	}
	for _, raw := range cases {
		got := Classify(raw, "sess-1")
		if got.Kind != nexusmodel.KindSkipped {
			t.Errorf("case %+v: expected Skipped, got %v", raw, got.Kind)
		}
	}
}

func TestClassify_User_StringContent(t *testing.T) {
	raw := decode(t, `{
		"type": "user",
		"uuid": "u1",
		"timestamp": "2026-01-28T00:00:00.000Z",
		"cwd": "/home/x",
		"gitBranch": "main",
		"message": {"content": "hello there"}
	}`)
	got := Classify(raw, "sess-1")
	if got.Kind != nexusmodel.KindUser {
		t.Fatalf("expected User, got %v", got.Kind)
	}
	if got.User.Content != "hello there" {
		t.Errorf("got content %q", got.User.Content)
	}
	if got.User.Cwd != "/home/x" || got.User.GitBranch != "main" {
		t.Errorf("unexpected metadata: %+v", got.User)
	}
}

func TestClassify_User_ToolResultBlocks(t *testing.T) {
	raw := decode(t, `{
		"type": "user",
		"uuid": "u2",
		"timestamp": "2026-01-28T00:00:00.000Z",
		"message": {"content": [
			{"type": "tool_result", "tool_use_id": "tu1", "content": "ok", "is_error": false},
			{"type": "tool_result", "tool_use_id": "tu2", "content": "boom", "is_error": true}
		]}
	}`)
	got := Classify(raw, "sess-1")
	if got.Kind != nexusmodel.KindUser {
		t.Fatalf("expected User, got %v", got.Kind)
	}
	if len(got.ToolResults) != 2 {
		t.Fatalf("expected 2 tool results, got %d", len(got.ToolResults))
	}
	if got.ToolResults[0].ID != "result-tu1" || got.ToolResults[0].IsError {
		t.Errorf("unexpected first result: %+v", got.ToolResults[0])
	}
	if got.ToolResults[1].ID != "result-tu2" || !got.ToolResults[1].IsError {
		t.Errorf("unexpected second result: %+v", got.ToolResults[1])
	}
	if got.User.Content != "ok\nboom" {
		t.Errorf("got joined content %q", got.User.Content)
	}
}

func TestClassify_Assistant_ThinkingFiltered(t *testing.T) {
	raw := decode(t, `{
		"type": "assistant",
		"uuid": "a1",
		"timestamp": "2026-01-28T00:00:00.000Z",
		"message": {
			"model": "claude-test",
			"usage": {"input_tokens": 10, "output_tokens": 20},
			"content": [
				{"type": "thinking", "thinking": "let me consider..."},
				{"type": "text", "text": "here is the answer"},
				{"type": "tool_use", "id": "tu1", "name": "Bash", "input": {"command": "ls"}}
			]
		}
	}`)
	got := Classify(raw, "sess-1")
	if got.Kind != nexusmodel.KindAssistant {
		t.Fatalf("expected Assistant, got %v", got.Kind)
	}
	if len(got.Assistant.Blocks) != 2 {
		t.Fatalf("expected thinking block filtered, got %d blocks", len(got.Assistant.Blocks))
	}
	for _, b := range got.Assistant.Blocks {
		if b.Type == "thinking" {
			t.Fatal("thinking block leaked through")
		}
	}
	if got.Assistant.Model != "claude-test" {
		t.Errorf("got model %q", got.Assistant.Model)
	}
	if got.Assistant.Usage == nil || got.Assistant.Usage.InputTokens != 10 || got.Assistant.Usage.OutputTokens != 20 {
		t.Errorf("unexpected usage: %+v", got.Assistant.Usage)
	}
	if len(got.ToolUses) != 1 || got.ToolUses[0].Name != "Bash" {
		t.Errorf("unexpected tool uses: %+v", got.ToolUses)
	}
	if JoinText(got.Assistant.Blocks) != "here is the answer" {
		t.Errorf("got joined text %q", JoinText(got.Assistant.Blocks))
	}
}

func TestClassify_Summary(t *testing.T) {
	raw := decode(t, `{"type": "summary", "summary": "talked about X", "leafUuid": "leaf1"}`)
	got := Classify(raw, "sess-1")
	if got.Kind != nexusmodel.KindSummary {
		t.Fatalf("expected Summary, got %v", got.Kind)
	}
	if got.Summary.Content != "talked about X" || got.Summary.LeafUUID != "leaf1" {
		t.Errorf("unexpected summary: %+v", got.Summary)
	}
	if got.Summary.Timestamp == "" {
		t.Error("expected fallback timestamp to be populated")
	}
}

func TestClassify_System(t *testing.T) {
	raw := decode(t, `{"type": "system", "subtype": "compact_boundary", "durationMs": 1500}`)
	got := Classify(raw, "sess-1")
	if got.Kind != nexusmodel.KindSystem {
		t.Fatalf("expected System, got %v", got.Kind)
	}
	if got.System.DurationMs == nil || *got.System.DurationMs != 1500 {
		t.Errorf("unexpected duration: %+v", got.System.DurationMs)
	}
}

func TestClassify_MissingRequiredFields(t *testing.T) {
	cases := []map[string]any{
		{"type": "user"},
		{"type": "assistant"},
		{"type": "summary"},
		{"type": "system"},
	}
	for _, raw := range cases {
		got := Classify(raw, "sess-1")
		if got.Kind != nexusmodel.KindSkipped {
			t.Errorf("case %+v: expected Skipped, got %v", raw, got.Kind)
		}
	}
}
