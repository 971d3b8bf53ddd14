// Package source discovers and parses recorded flightrec event logs.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/theirongolddev/flightrec/internal/hook"
)

// ParseResult holds the output of parsing a single event log.
type ParseResult struct {
	SessionID   string
	Events      []hook.Event
	ParseErrors int
	Err         error
}

var knownTypes = map[string]hook.EventType{
	"session_start": hook.SessionStart,
	"tool_pre":      hook.ToolPre,
	"tool_post":     hook.ToolPost,
	"provider_post": hook.ProviderPost,
	"session_end":   hook.SessionEnd,
}

// ParseFile reads a JSONL event log and produces the ordered event stream
// it recorded. Malformed lines and unknown event types are counted, never
// fatal; events keep file order, which is the order the dispatcher saw them.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	result := ParseResult{SessionID: df.SessionID}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 2*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		// Cheap routing before committing to a full parse.
		kind, ok := knownTypes[extractTopLevelType(line)]
		if !ok {
			result.ParseErrors++
			continue
		}

		var raw RawEvent
		if err := json.Unmarshal(line, &raw); err != nil {
			result.ParseErrors++
			continue
		}

		ev := hook.Event{
			Type:      kind,
			SessionID: raw.SessionID,
			ToolName:  raw.ToolName,
			ToolUseID: raw.ToolUseID,
			Error:     raw.Error,
			Model:     raw.Model,
		}
		if ev.SessionID == "" {
			ev.SessionID = df.SessionID
		}
		if raw.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339Nano, raw.Timestamp); err == nil {
				ev.Timestamp = ts
			}
		}
		if raw.Usage != nil {
			ev.Usage = hook.Usage{
				InputTokens:  raw.Usage.InputTokens,
				OutputTokens: raw.Usage.OutputTokens,
			}
		}

		result.Events = append(result.Events, ev)
	}

	if err := scanner.Err(); err != nil {
		return ParseResult{SessionID: df.SessionID, Err: err}
	}

	return result
}

// typeKey is the byte sequence for a JSON key named "type" (with quotes).
var typeKey = []byte(`"type"`)

// extractTopLevelType pulls the value of the top-level "type" field without
// a full JSON parse. Returns "" when the field is absent or malformed.
func extractTopLevelType(line []byte) string {
	idx := bytes.Index(line, typeKey)
	if idx < 0 {
		return ""
	}

	rest := line[idx+len(typeKey):]
	colon := bytes.IndexByte(rest, ':')
	if colon < 0 {
		return ""
	}
	rest = bytes.TrimLeft(rest[colon+1:], " \t")
	if len(rest) < 2 || rest[0] != '"' {
		return ""
	}
	end := bytes.IndexByte(rest[1:], '"')
	if end < 0 {
		return ""
	}
	return string(rest[1 : 1+end])
}
