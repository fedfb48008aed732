// Package session wires one capture session together: a Recorder owns the
// event buffer for the session and feeds it from the capture adapters, with
// the storage engine as the flush sink.
//
// The Recorder upholds the "host never crashes" contract: a missing or
// broken store degrades the session to a logged no-op, and every capture
// entry point swallows internal failures.
package session

import (
	"log/slog"
	"time"

	"github.com/dmfarley/recollect/internal/buffer"
	"github.com/dmfarley/recollect/internal/capture"
	"github.com/dmfarley/recollect/internal/store"
)

// Options configures a Recorder.
type Options struct {
	// BufferSize is the buffer occupancy that triggers a flush.
	BufferSize int
	// FlushInterval is the period of the background flush timer.
	FlushInterval time.Duration
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Recorder captures events for a single session. Create one per session
// with New and release it with Close; independent sessions in one process
// run independent recorders.
type Recorder struct {
	sessionID string
	st        *store.Store
	buf       *buffer.Buffer
	log       *slog.Logger
	degraded  bool
}

// New creates a Recorder writing to st. A nil store puts the recorder in
// degraded no-op mode: captures are accepted and dropped with a warning,
// because a storage-open failure must never take the host session down.
func New(sessionID string, st *store.Store, opts Options) *Recorder {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	log := opts.Logger.With("session", sessionID)

	r := &Recorder{
		sessionID: sessionID,
		st:        st,
		log:       log,
	}
	if st == nil {
		r.degraded = true
		log.Warn("no storage available, session capture disabled")
		return r
	}

	r.buf = buffer.New(r.persist, buffer.Options{
		MaxSize:       opts.BufferSize,
		FlushInterval: opts.FlushInterval,
		Logger:        log,
	})
	r.buf.Start()
	return r
}

// persist is the buffer's sink: one upsert per record, in batch order.
// Returning the first error makes the buffer restore the whole batch;
// records that already landed are simply overwritten on retry.
func (r *Recorder) persist(records []store.Record) error {
	for _, rec := range records {
		if err := r.st.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// CaptureToolExecution records a completed tool call.
func (r *Recorder) CaptureToolExecution(ev capture.ToolExecution) {
	r.add(capture.ToolRecord(ev, r.sessionID))
}

// CaptureFileEdit records a file modification. Excluded paths are dropped
// silently inside the adapter.
func (r *Recorder) CaptureFileEdit(ev capture.FileEdit) {
	r.add(capture.FileEditRecord(ev, r.sessionID))
}

// CaptureError records a session-level error.
func (r *Recorder) CaptureError(ev capture.SessionError) {
	r.add(capture.ErrorRecord(ev, r.sessionID))
}

func (r *Recorder) add(rec *store.Record) {
	if rec == nil {
		return
	}
	if r.degraded {
		r.log.Debug("degraded mode, dropping record", "kind", rec.Kind)
		return
	}
	r.buf.Add(*rec)
}

// Flush forces the buffered records out immediately.
func (r *Recorder) Flush() {
	if r.degraded {
		return
	}
	r.buf.Flush()
}

// Pending returns the number of records awaiting persistence.
func (r *Recorder) Pending() int {
	if r.degraded {
		return 0
	}
	return r.buf.Size()
}

// Close stops the session's buffer with a final flush. Shutdown ordering is
// load-bearing: the owner must Close the recorder before closing the store,
// so no write is attempted against an already-closed database.
func (r *Recorder) Close() {
	if r.degraded {
		return
	}
	r.buf.Stop()
}
