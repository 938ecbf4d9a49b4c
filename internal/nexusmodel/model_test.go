package nexusmodel

import "testing"

func TestKind_String(t *testing.T) {
	cases := map[Kind]string{
		KindUser:      "user",
		KindAssistant: "assistant",
		KindToolUse:   "tool_use",
		KindToolResult: "tool_result",
		KindSummary:   "summary",
		KindSystem:    "system",
		KindSkipped:   "skipped",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestKind_StringUnknown(t *testing.T) {
	var k Kind = 99
	if got := k.String(); got != "unknown" {
		t.Errorf("got %q, want unknown", got)
	}
}

func TestEvent_ExactlyOneTypedFieldPerKind(t *testing.T) {
	evt := Event{Kind: KindUser, User: &User{ID: "u1"}}
	if evt.Assistant != nil || evt.Summary != nil || evt.System != nil || evt.Skipped != nil {
		t.Error("expected only User populated")
	}
}
