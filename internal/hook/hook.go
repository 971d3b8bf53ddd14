// Package hook defines the lifecycle event stream and the decision records
// returned by flightrec's in-process telemetry handlers.
package hook

import "time"

// EventType identifies a lifecycle event kind.
type EventType string

// Lifecycle event kinds delivered by the host dispatcher.
const (
	SessionStart EventType = "session_start"
	ToolPre      EventType = "tool_pre"
	ToolPost     EventType = "tool_post"
	ProviderPost EventType = "provider_post"
	SessionEnd   EventType = "session_end"
)

// Usage holds token counts from one provider response.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Event is one lifecycle event from the agent loop. Timestamp is stamped by
// the recorder; handlers fall back to their own clock when it is zero, so
// replayed logs reproduce the original timings.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	SessionID string    `json:"session_id,omitempty"`

	// Tool events. ToolUseID correlates a tool_pre with its tool_post;
	// the same tool may be in flight multiple times concurrently, so the
	// tool name alone is not a usable key.
	ToolName  string `json:"tool_name,omitempty"`
	ToolUseID string `json:"tool_use_id,omitempty"`
	Error     string `json:"error,omitempty"`

	// Provider events.
	Model string `json:"model,omitempty"`
	Usage Usage  `json:"usage,omitzero"`
}

// Tool returns the event's tool name, defaulting to "unknown".
func (e Event) Tool() string {
	if e.ToolName == "" {
		return "unknown"
	}
	return e.ToolName
}

// Succeeded reports whether a tool_post event completed without error.
func (e Event) Succeeded() bool {
	return e.Error == ""
}

// Message severity levels surfaced to the human operator.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
)

// ActionContinue is the only action these handlers ever request; they never
// halt or redirect the loop.
const ActionContinue = "continue"

// Result is the decision record a handler returns to the dispatcher.
type Result struct {
	Action string `json:"action"`

	// Surfaced to the human operator, not the agent.
	UserMessage      string `json:"user_message,omitempty"`
	UserMessageLevel string `json:"user_message_level,omitempty"`

	// Fed back into the agent's reasoning context. Ephemeral injections
	// must never be persisted into durable conversation history.
	ContextInjection     string `json:"context_injection,omitempty"`
	ContextInjectionRole string `json:"context_injection_role,omitempty"`
	Ephemeral            bool   `json:"ephemeral,omitempty"`
	SuppressOutput       bool   `json:"suppress_output,omitempty"`
}

// Continue returns a bare continue decision.
func Continue() Result {
	return Result{Action: ActionContinue}
}

// Warn returns a continue decision carrying a warning for the operator.
func Warn(msg string) Result {
	return Result{Action: ActionContinue, UserMessage: msg, UserMessageLevel: LevelWarning}
}

// Info returns a continue decision carrying an info message for the operator.
func Info(msg string) Result {
	return Result{Action: ActionContinue, UserMessage: msg, UserMessageLevel: LevelInfo}
}

// Inject returns a continue decision carrying an ephemeral system-role
// context injection, suppressed from duplicate user-facing display.
func Inject(text string) Result {
	return Result{
		Action:               ActionContinue,
		ContextInjection:     text,
		ContextInjectionRole: "system",
		Ephemeral:            true,
		SuppressOutput:       true,
	}
}

// Handler consumes one lifecycle event and returns a decision record.
type Handler interface {
	HandleEvent(ev Event) Result
}

// Safe wraps a handler so that a panic degrades to a bare continue. The
// telemetry layer is best-effort; no fault of its own may reach the
// dispatcher.
func Safe(h Handler) Handler {
	return safeHandler{inner: h}
}

type safeHandler struct {
	inner Handler
}

func (s safeHandler) HandleEvent(ev Event) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Continue()
		}
	}()
	return s.inner.HandleEvent(ev)
}
