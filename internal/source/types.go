package source

// RawEvent represents a single line in a recorded flightrec event log.
// The recorder writes one lifecycle event per line.
type RawEvent struct {
	Type      string    `json:"type"`
	Timestamp string    `json:"timestamp,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	ToolName  string    `json:"tool_name,omitempty"`
	ToolUseID string    `json:"tool_use_id,omitempty"`
	Error     string    `json:"error,omitempty"`
	Model     string    `json:"model,omitempty"`
	Usage     *RawUsage `json:"usage,omitempty"`
}

// RawUsage holds token counts from the provider response.
type RawUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// DiscoveredFile represents an event log found during directory scanning.
type DiscoveredFile struct {
	Path      string
	SessionID string // extracted from filename
}
