package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmfarley/recollect/internal/capture"
	"github.com/dmfarley/recollect/internal/session"
)

var captureSession string

var captureCmd = &cobra.Command{
	Use:   "capture {tool|edit|error}",
	Short: "Capture one session event from stdin",
	Long: `Read a single JSON event from stdin, redact it, and persist it.

Meant to be invoked from editor or agent hooks. The event shape depends on
the type argument:

  tool    {"toolName": "bash", "sessionId": "...", "callId": "...", "arguments": {...}}
  edit    {"path": "src/app.ts", "sessionId": "..."}
  error   {"error": {"message": "...", "name": "..."}, "sessionId": "..."}

Events touching sensitive paths or content are dropped or redacted; the
command still exits 0 so hooks never fail the host.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"tool", "edit", "error"},
	RunE:      runCapture,
}

func init() {
	captureCmd.Flags().StringVarP(&captureSession, "session", "s", "", "session id when the event carries none")
}

func runCapture(cmd *cobra.Command, args []string) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read event: %w", err)
	}

	st, err := openStore()
	if err != nil {
		// Capture must never fail the host hook: degrade to a no-op.
		logger.Warn("capture degraded, event dropped", "error", err)
		st = nil
	}

	rec := session.New(captureSession, st, session.Options{
		BufferSize:    cfg.BufferSize,
		FlushInterval: cfg.FlushInterval,
		Logger:        logger,
	})
	defer func() {
		rec.Close()
		if st != nil {
			_ = st.Close()
		}
	}()

	switch args[0] {
	case "tool":
		var ev capture.ToolExecution
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("parse tool event: %w", err)
		}
		rec.CaptureToolExecution(ev)
	case "edit":
		var ev capture.FileEdit
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("parse edit event: %w", err)
		}
		rec.CaptureFileEdit(ev)
	case "error":
		var ev capture.SessionError
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("parse error event: %w", err)
		}
		rec.CaptureError(ev)
	default:
		return fmt.Errorf("unknown event type %q (want tool, edit, or error)", args[0])
	}

	return nil
}
