// Package extract implements the event classifier/extractor: it consumes
// one decoded JSON object at a time and returns a classified
// nexusmodel.Event, the single place where the external session-log event
// taxonomy is coupled to the internal domain model.
package extract

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"memory-nexus/internal/nexusmodel"
	"memory-nexus/internal/tstamp"
)

// skipSet lists event types that carry no conversational content worth
// extracting (progress ticks, binary attachments, queue bookkeeping).
var skipSet = map[string]bool{
	"progress":              true,
	"agent_progress":        true,
	"bash_progress":         true,
	"mcp_progress":          true,
	"hook_progress":         true,
	"base64":                true,
	"image":                 true,
	"file-history-snapshot": true,
	"waiting_for_task":      true,
	"create":                true,
	"update":                true,
	"queue-operation":       true,
}

// Classify consumes one decoded JSON object (already parsed from a session
// log line) and returns the classified event. sessionID is the owning
// session's identity, derived from the file path by the caller.
func Classify(raw map[string]any, sessionID string) nexusmodel.Event {
	if raw == nil {
		return skipped("Invalid event structure")
	}
	typeVal, ok := raw["type"]
	if !ok {
		return skipped("Invalid event structure")
	}
	eventType, ok := typeVal.(string)
	if !ok {
		return skipped("Invalid event structure")
	}

	if skipSet[eventType] {
		return skipped(fmt.Sprintf("Event type %q not extracted", eventType))
	}

	switch eventType {
	case "user":
		return classifyUser(raw, sessionID)
	case "assistant":
		return classifyAssistant(raw, sessionID)
	case "summary":
		return classifySummary(raw, sessionID)
	case "system":
		return classifySystem(raw, sessionID)
	default:
		return skipped(fmt.Sprintf("Event type %q not classified", eventType))
	}
}

func skipped(reason string) nexusmodel.Event {
	return nexusmodel.Event{
		Kind:    nexusmodel.KindSkipped,
		Skipped: &nexusmodel.Skipped{Reason: reason},
	}
}

func str(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asArray(v any) []any {
	a, _ := v.([]any)
	return a
}

// classifyUser normalizes a raw "user" event into a User record, also
// deriving any tool-result records embedded in its content blocks.
func classifyUser(raw map[string]any, sessionID string) nexusmodel.Event {
	uuid := str(raw, "uuid")
	message := asObject(raw["message"])
	if uuid == "" || raw["timestamp"] == nil || message == nil {
		return skipped("Invalid event structure")
	}

	ts := tstamp.FromAny(raw["timestamp"])
	content, toolResults := extractUserContent(message["content"], uuid, sessionID, ts)

	u := &nexusmodel.User{
		ID:        uuid,
		SessionID: sessionID,
		Content:   content,
		Timestamp: ts,
		Cwd:       str(raw, "cwd"),
		GitBranch: str(raw, "gitBranch"),
	}
	return nexusmodel.Event{
		Kind:        nexusmodel.KindUser,
		User:        u,
		ToolResults: toolResults,
	}
}

// extractUserContent normalizes a User event's content field and, as a side
// effect, derives ToolResult records from any tool_result blocks.
func extractUserContent(raw any, parentUUID, sessionID, ts string) (string, []nexusmodel.ToolResult) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []any:
		var text string
		var results []nexusmodel.ToolResult
		first := true
		for _, blockRaw := range v {
			block := asObject(blockRaw)
			if block == nil || str(block, "type") != "tool_result" {
				continue
			}
			content := stringifyBlockContent(block["content"])
			if !first {
				text += "\n"
			}
			text += content
			first = false

			toolUseID := str(block, "tool_use_id")
			isError := false
			if b, ok := block["is_error"].(bool); ok {
				isError = b
			}
			results = append(results, nexusmodel.ToolResult{
				ID:        "result-" + toolUseID,
				SessionID: sessionID,
				ToolUseID: toolUseID,
				Content:   content,
				IsError:   isError,
				Timestamp: ts,
			})
		}
		return text, results
	default:
		return "", nil
	}
}

// stringifyBlockContent renders a tool_result block's content field as
// text: already-string content is used as-is; structured content is
// canonically JSON-encoded.
func stringifyBlockContent(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// classifyAssistant normalizes a raw "assistant" event into an Assistant
// record, also deriving one ToolUse per tool_use content block.
func classifyAssistant(raw map[string]any, sessionID string) nexusmodel.Event {
	uuid := str(raw, "uuid")
	message := asObject(raw["message"])
	if uuid == "" || raw["timestamp"] == nil || message == nil {
		return skipped("Invalid event structure")
	}

	ts := tstamp.FromAny(raw["timestamp"])
	blocks, toolUses := extractAssistantBlocks(message["content"], uuid, sessionID, ts)

	a := &nexusmodel.Assistant{
		ID:        uuid,
		SessionID: sessionID,
		Blocks:    blocks,
		Timestamp: ts,
		Model:     str(message, "model"),
	}
	if usage := asObject(message["usage"]); usage != nil {
		a.Usage = &nexusmodel.Usage{
			InputTokens:  intField(usage, "input_tokens"),
			OutputTokens: intField(usage, "output_tokens"),
		}
	}

	return nexusmodel.Event{
		Kind:      nexusmodel.KindAssistant,
		Assistant: a,
		ToolUses:  toolUses,
	}
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// extractAssistantBlocks filters out thinking blocks unconditionally,
// keeps text and tool_use blocks in order, and derives one ToolUse per
// tool_use block.
func extractAssistantBlocks(raw any, parentUUID, sessionID, ts string) ([]nexusmodel.ContentBlock, []nexusmodel.ToolUse) {
	arr := asArray(raw)
	if arr == nil {
		return nil, nil
	}

	var blocks []nexusmodel.ContentBlock
	var toolUses []nexusmodel.ToolUse
	for _, blockRaw := range arr {
		block := asObject(blockRaw)
		if block == nil {
			continue
		}
		switch str(block, "type") {
		case "thinking":
			continue
		case "text":
			blocks = append(blocks, nexusmodel.ContentBlock{
				Type: "text",
				Text: str(block, "text"),
			})
		case "tool_use":
			id := str(block, "id")
			name := str(block, "name")
			input := asObject(block["input"])
			blocks = append(blocks, nexusmodel.ContentBlock{
				Type:      "tool_use",
				ToolUseID: id,
				ToolName:  name,
				ToolInput: input,
			})
			toolUses = append(toolUses, nexusmodel.ToolUse{
				ID:        id,
				SessionID: sessionID,
				Name:      name,
				Input:     input,
				Timestamp: ts,
			})
		}
	}
	return blocks, toolUses
}

// JoinText joins an Assistant's text blocks with newlines, producing the
// form persisted as Message.Content.
func JoinText(blocks []nexusmodel.ContentBlock) string {
	var out string
	first := true
	for _, b := range blocks {
		if b.Type != "text" {
			continue
		}
		if !first {
			out += "\n"
		}
		out += b.Text
		first = false
	}
	return out
}

// classifySummary normalizes a raw "summary" event, the record emitted
// when the source compacts earlier conversation turns.
func classifySummary(raw map[string]any, sessionID string) nexusmodel.Event {
	content, ok := raw["summary"].(string)
	if !ok {
		return skipped("Invalid event structure")
	}
	ts := tstamp.Now()
	if raw["timestamp"] != nil {
		ts = tstamp.FromAny(raw["timestamp"])
	}
	return nexusmodel.Event{
		Kind: nexusmodel.KindSummary,
		Summary: &nexusmodel.Summary{
			ID:        uuid.New().String(),
			SessionID: sessionID,
			Content:   content,
			LeafUUID:  str(raw, "leafUuid"),
			Timestamp: ts,
		},
	}
}

// classifySystem normalizes a raw "system" event, an opaque lifecycle or
// tooling notice carrying no conversational content.
func classifySystem(raw map[string]any, sessionID string) nexusmodel.Event {
	subtype, ok := raw["subtype"].(string)
	if !ok {
		return skipped("Invalid event structure")
	}
	ts := tstamp.Now()
	if raw["timestamp"] != nil {
		ts = tstamp.FromAny(raw["timestamp"])
	}

	sys := &nexusmodel.System{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Subtype:   subtype,
		Timestamp: ts,
	}
	if d, ok := raw["durationMs"]; ok {
		switch v := d.(type) {
		case float64:
			ms := int64(v)
			sys.DurationMs = &ms
		}
	} else {
		sys.Data = raw["data"]
	}

	return nexusmodel.Event{Kind: nexusmodel.KindSystem, System: sys}
}
