// Package capture maps raw host events — tool executions, file edits,
// session errors — into normalized records, applying the privacy filter
// before anything reaches the buffer. Adapters are pure: same event in,
// same record out. They never panic across their public surface; a capture
// failure must never surface as a host-visible crash, so internal faults
// convert to a nil record.
package capture

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmfarley/recollect/internal/privacy"
	"github.com/dmfarley/recollect/internal/store"
)

// ─── Event shapes ────────────────────────────────────────────────────────────

// ToolExecution is the raw shape the host delivers for a completed tool call.
type ToolExecution struct {
	ToolName  string         `json:"toolName"`
	SessionID string         `json:"sessionId"`
	CallID    string         `json:"callId"`
	Arguments map[string]any `json:"arguments"`
}

// FileEdit is the raw shape the host delivers when a file is modified.
type FileEdit struct {
	Path      string `json:"path"`
	SessionID string `json:"sessionId,omitempty"`
}

// ErrorInfo carries the error portion of a SessionError event.
type ErrorInfo struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

// SessionError is the raw shape the host delivers when a session-level
// error occurs.
type SessionError struct {
	Err       ErrorInfo `json:"error"`
	SessionID string    `json:"sessionId,omitempty"`
}

// pathArgumentKeys are the argument names tools use for a single file path.
var pathArgumentKeys = []string{"file_path", "path", "filename", "notebook_path"}

// pathArrayKey is the argument name tools use for a list of file paths.
const pathArrayKey = "file_paths"

// ─── Adapters ────────────────────────────────────────────────────────────────

// ToolRecord maps a tool execution to a record, or nil when nothing should
// be captured. The shell-execution tool's command is routed through
// RedactCommand — flag-based credentials need different detection than
// key:value text.
func ToolRecord(ev ToolExecution, sessionID string) (rec *store.Record) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
		}
	}()

	if ev.ToolName == "" {
		return nil
	}
	if sessionID == "" {
		sessionID = ev.SessionID
	}

	body := privacy.Redact(toolSummary(ev))

	attrs := map[string]any{
		"sessionId": sessionID,
		"tool":      ev.ToolName,
		"summary":   body,
	}
	if ev.CallID != "" {
		attrs["callId"] = ev.CallID
	}
	if files := extractPaths(ev.Arguments); len(files) > 0 {
		attrs["files"] = files
	}

	return &store.Record{
		ID:         uuid.NewString(),
		Kind:       kindForTool(ev.ToolName),
		Body:       body,
		CreatedAt:  time.Now().UnixMilli(),
		SessionID:  sessionID,
		Attributes: attrs,
	}
}

// FileEditRecord maps a file edit to a "refactor" record. Edits to excluded
// paths return nil silently — logging the rejection would itself leak which
// files were excluded.
func FileEditRecord(ev FileEdit, sessionID string) (rec *store.Record) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
		}
	}()

	if ev.Path == "" || !privacy.AdmitsPath(ev.Path) {
		return nil
	}
	if sessionID == "" {
		sessionID = ev.SessionID
	}

	body := privacy.Redact(fmt.Sprintf("Edited %s", path.Base(strings.ReplaceAll(ev.Path, `\`, "/"))))
	return &store.Record{
		ID:        uuid.NewString(),
		Kind:      store.KindRefactor,
		Body:      body,
		CreatedAt: time.Now().UnixMilli(),
		SessionID: sessionID,
		Attributes: map[string]any{
			"sessionId": sessionID,
			"summary":   body,
			"files":     []string{ev.Path},
		},
	}
}

// ErrorRecord maps a session error to a "problem" record, or nil when the
// event carries no error. A sensitive message is replaced wholesale with the
// redaction marker — never even a partial original.
func ErrorRecord(ev SessionError, sessionID string) (rec *store.Record) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
		}
	}()

	if ev.Err.Message == "" && ev.Err.Name == "" {
		return nil
	}
	if sessionID == "" {
		sessionID = ev.SessionID
	}

	attrs := map[string]any{"sessionId": sessionID}
	if ev.Err.Name != "" {
		attrs["errorType"] = ev.Err.Name
	}

	body := ev.Err.Message
	if privacy.IsSensitive(body) {
		body = privacy.Marker
		attrs["redacted"] = true
	}

	return &store.Record{
		ID:         uuid.NewString(),
		Kind:       store.KindProblem,
		Body:       body,
		CreatedAt:  time.Now().UnixMilli(),
		SessionID:  sessionID,
		Attributes: attrs,
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// kindForTool classifies a tool name into a record kind.
func kindForTool(toolName string) string {
	switch strings.ToLower(toolName) {
	case "read", "search", "grep", "glob", "ask":
		return store.KindDiscovery
	case "write", "bash":
		return store.KindSolution
	case "edit":
		return store.KindRefactor
	default:
		return store.KindPattern
	}
}

// toolSummary formats a short human summary for a tool execution. The shell
// tool's command is sanitized with RedactCommand; an empty command still
// yields a generic summary rather than dropping the event.
func toolSummary(ev ToolExecution) string {
	switch strings.ToLower(ev.ToolName) {
	case "bash":
		cmd, ok := privacy.RedactCommand(argString(ev.Arguments, "command"))
		if !ok {
			return "Ran a shell command"
		}
		return fmt.Sprintf("Ran: %s", cmd)
	case "read":
		if p := firstPath(ev.Arguments); p != "" {
			return fmt.Sprintf("Read %s", path.Base(p))
		}
		return "Read a file"
	case "write":
		if p := firstPath(ev.Arguments); p != "" {
			return fmt.Sprintf("Wrote %s", path.Base(p))
		}
		return "Wrote a file"
	case "edit":
		if p := firstPath(ev.Arguments); p != "" {
			return fmt.Sprintf("Edited %s", path.Base(p))
		}
		return "Edited a file"
	case "search", "grep":
		if q := argString(ev.Arguments, "pattern"); q != "" {
			return fmt.Sprintf("Searched for %q", q)
		}
		return "Searched the codebase"
	case "glob":
		if q := argString(ev.Arguments, "pattern"); q != "" {
			return fmt.Sprintf("Globbed %q", q)
		}
		return "Listed files"
	case "ask":
		if q := argString(ev.Arguments, "question"); q != "" {
			return fmt.Sprintf("Asked: %s", q)
		}
		return "Asked a question"
	default:
		return fmt.Sprintf("Used tool %s", ev.ToolName)
	}
}

// extractPaths collects file paths from the known argument keys plus the
// array field, de-duplicated in encounter order and gated by AdmitsPath.
func extractPaths(args map[string]any) []string {
	var paths []string
	seen := map[string]bool{}

	add := func(p string) {
		if p == "" || seen[p] || !privacy.AdmitsPath(p) {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	for _, key := range pathArgumentKeys {
		add(argString(args, key))
	}
	if arr, ok := args[pathArrayKey].([]any); ok {
		for _, v := range arr {
			if s, ok := v.(string); ok {
				add(s)
			}
		}
	}
	return paths
}

func firstPath(args map[string]any) string {
	for _, key := range pathArgumentKeys {
		if p := argString(args, key); p != "" {
			return p
		}
	}
	return ""
}

func argString(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	s, _ := args[key].(string)
	return s
}
