// ABOUTME: Core hook pipeline types: event enumeration, hook records, execution results
// ABOUTME: Defines the contract between store, matcher, executor, and pipeline

package hook

import "time"

// Scope identifies where a hook file lives.
type Scope string

const (
	ScopeUser    Scope = "user"    // ~/.agentdeck/hooks
	ScopeProject Scope = "project" // <project>/.agentdeck/hooks
)

// EventType identifies a lifecycle event in the assistant loop.
type EventType string

const (
	PreToolUse       EventType = "PreToolUse"
	PostToolUse      EventType = "PostToolUse"
	Notification     EventType = "Notification"
	Stop             EventType = "Stop"
	SubagentStop     EventType = "SubagentStop"
	UserPromptSubmit EventType = "UserPromptSubmit"
	Unknown          EventType = "Unknown"
)

// EventWildcard matches every event type when used in a hook header.
const EventWildcard EventType = "*"

// ParseEventType maps a string to a recognized event type. The wildcard is
// accepted only when allowWildcard is set (hook headers yes, ingress no).
func ParseEventType(s string, allowWildcard bool) (EventType, bool) {
	switch EventType(s) {
	case PreToolUse, PostToolUse, Notification, Stop, SubagentStop, UserPromptSubmit, Unknown:
		return EventType(s), true
	case EventWildcard:
		if allowWildcard {
			return EventWildcard, true
		}
	}
	return Unknown, false
}

// Hook is a file-backed unit of user logic bound to one event type and
// match pattern. Enabled reflects directory placement, not header content.
type Hook struct {
	ID          string            // stable id derived from filename
	Name        string            // display name from the @name header
	FileName    string            // base name including extension
	Scope       Scope
	ProjectPath string            // empty for user scope
	Event       EventType         // recognized type or EventWildcard
	Pattern     string            // "*", substring, or simple glob
	Description string
	Enabled     bool
	Author      string
	Version     string
	Extra       map[string]string // unrecognized @key tags, preserved verbatim
	Source      string            // full executable source text
	ModTime     time.Time
}

// ProjectInfo is the project context exposed to hook source at execution
// time. Nil for user-scope events with no owning project.
type ProjectInfo struct {
	Name   string
	Path   string
	Config map[string]any
}

// Event is an immutable record of something the assistant did or is about
// to do. Only its outcome is persisted; the event itself is discarded
// after processing.
type Event struct {
	ID          string
	Type        EventType
	ToolName    string
	FilePaths   []string
	Context     map[string]any
	Timestamp   time.Time
	ProjectPath string
	SessionID   string
	Raw         map[string]any // original hook payload, opaque to the pipeline
}

// BlockDirective is a PreToolUse-only signal instructing the pipeline to
// prevent the originating action.
type BlockDirective struct {
	Reason string
}

// ExecutionResult is the outcome of running one hook against one event.
// Never mutated after creation.
type ExecutionResult struct {
	HookID    string          `json:"hookId"`
	HookName  string          `json:"hookName"`
	Success   bool            `json:"success"`
	Value     string          `json:"result,omitempty"`
	Err       string          `json:"error,omitempty"`
	Duration  time.Duration   `json:"-"`
	Timestamp time.Time       `json:"-"`
	Block     *BlockDirective `json:"-"`

	DurationMs  int64 `json:"durationMs"`
	TimestampMs int64 `json:"timestampMs"`
}

// Finalize fills the derived millisecond fields used on the wire and in
// the log store.
func (r *ExecutionResult) Finalize() {
	r.DurationMs = r.Duration.Milliseconds()
	r.TimestampMs = r.Timestamp.UnixMilli()
}
