// Package nexusmodel defines the normalized domain model produced by the
// event classifier/extractor: a closed sum of event kinds with stable
// identities and normalized ISO-8601 UTC timestamps.
package nexusmodel

// Kind discriminates the closed sum of classified outputs.
type Kind int

const (
	KindUser Kind = iota
	KindAssistant
	KindToolUse
	KindToolResult
	KindSummary
	KindSystem
	KindSkipped
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindAssistant:
		return "assistant"
	case KindToolUse:
		return "tool_use"
	case KindToolResult:
		return "tool_result"
	case KindSummary:
		return "summary"
	case KindSystem:
		return "system"
	case KindSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// User is a normalized user message.
type User struct {
	ID        string // event uuid
	SessionID string
	Content   string
	Timestamp string // ISO-8601 UTC
	Cwd       string
	GitBranch string
}

// Usage holds token accounting for an Assistant turn.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ContentBlock is a single block of an Assistant's message.content array,
// after thinking blocks have been filtered out.
type ContentBlock struct {
	Type string // "text" or "tool_use"

	// Populated when Type == "text".
	Text string

	// Populated when Type == "tool_use".
	ToolUseID   string
	ToolName    string
	ToolInput   map[string]any
}

// Assistant is a normalized assistant turn. Blocks is the original
// filtered block sequence (thinking removed); Message.Content (when joined
// into a single persisted string) is produced by extract.JoinText.
type Assistant struct {
	ID        string
	SessionID string
	Blocks    []ContentBlock
	Timestamp string
	Model     string
	Usage     *Usage
}

// ToolUse is derived from an Assistant event's tool_use blocks.
type ToolUse struct {
	ID        string // == tool_use block id
	SessionID string
	Name      string
	Input     map[string]any
	Timestamp string
}

// ToolResult is derived from a User event's tool_result blocks.
type ToolResult struct {
	ID         string // "result-" + ToolUseID
	SessionID  string
	ToolUseID  string
	Content    string
	IsError    bool
	Timestamp  string
}

// Summary is produced when the source compresses conversation context. The
// source JSON carries no identity for a summary line, so ID is always
// generated.
type Summary struct {
	ID        string
	SessionID string
	Content   string
	LeafUUID  string
	Timestamp string
}

// System is an opaque system event. Like Summary, the source JSON carries
// no identity, so ID is always generated.
type System struct {
	ID         string
	SessionID  string
	Subtype    string
	DurationMs *int64
	Data       any
	Timestamp  string
}

// Skipped records a deliberately-not-extracted line or event.
type Skipped struct {
	Reason     string
	LineNumber int // 0 when not derived from a specific line
}

// SessionInfo is the session-level metadata row derived from a session
// file's location and its events' cwd/gitBranch fields.
type SessionInfo struct {
	ID                 string
	ProjectName        string
	ProjectPathEncoded string
	Cwd                string
	GitBranch          string
}

// Message is the flattened, persisted form of a User or Assistant event —
// a single role/content/timestamp row, matching the `messages_meta` table
// and the FTS-indexed content.
type Message struct {
	ID        string
	SessionID string
	Role      string // "user" or "assistant"
	Content   string
	Timestamp string
}

// Event is the tagged variant returned by the streaming parser. Exactly one
// of the typed fields is non-nil, selected by Kind. ToolUses/ToolResults may
// carry more than one derived record (an Assistant event can emit several
// tool_use blocks).
type Event struct {
	Kind Kind

	User       *User
	Assistant  *Assistant
	ToolUses   []ToolUse
	ToolResults []ToolResult
	Summary    *Summary
	System     *System
	Skipped    *Skipped
}
