// Package buffer implements the in-memory accumulator that sits between the
// capture adapters and the storage engine. Records pile up until a size
// threshold or timer triggers a flush to the sink; a failed flush restores
// the batch for an opportunistic retry on the next trigger.
package buffer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmfarley/recollect/internal/store"
)

// Sink receives a flushed batch. It is called with records in insertion
// order and must be idempotent per record id — a failed batch is retried
// wholesale, so records that did land will be written again.
type Sink func(records []store.Record) error

const (
	defaultMaxSize    = 10
	defaultFlushEvery = 30 * time.Second
)

// Options configures a Buffer.
type Options struct {
	// MaxSize is the occupancy at which Add triggers a synchronous flush.
	MaxSize int
	// FlushInterval is the period of the background flush timer.
	FlushInterval time.Duration
	// Logger receives flush failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// Buffer accumulates records awaiting persistence. One Buffer is created
// per session and owns its timer and flush-in-progress flag — nothing here
// is ambient package state, so independent sessions in one process can run
// independent buffers. No method on Buffer ever panics.
type Buffer struct {
	mu        sync.Mutex
	records   []store.Record
	flushing  bool
	lastFlush time.Time

	maxSize int
	every   time.Duration
	sink    Sink
	log     *slog.Logger

	ticker *time.Ticker
	done   chan struct{}
}

// New creates a Buffer that hands batches to sink.
func New(sink Sink, opts Options) *Buffer {
	if opts.MaxSize <= 0 {
		opts.MaxSize = defaultMaxSize
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = defaultFlushEvery
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Buffer{
		maxSize: opts.MaxSize,
		every:   opts.FlushInterval,
		sink:    sink,
		log:     opts.Logger,
	}
}

// Add appends a record. When occupancy reaches MaxSize the buffer flushes
// synchronously — back-pressure blocks the caller for the cost of one flush,
// it never drops events.
func (b *Buffer) Add(rec store.Record) {
	b.mu.Lock()
	b.records = append(b.records, rec)
	full := len(b.records) >= b.maxSize
	b.mu.Unlock()

	if full {
		b.Flush()
	}
}

// Size returns the current occupancy.
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Flush hands the buffered batch to the sink. It is a no-op when the buffer
// is empty or another flush is already running — at most one flush executes
// at a time, so the sink never sees interleaved partial batches. On sink
// failure the un-flushed snapshot is restored, exactly once and ahead of any
// records added meanwhile, for retry on the next trigger. Flush never
// propagates sink errors or panics to the caller.
func (b *Buffer) Flush() {
	b.mu.Lock()
	if b.flushing || len(b.records) == 0 {
		b.mu.Unlock()
		return
	}
	b.flushing = true
	snapshot := b.records
	b.records = nil
	b.mu.Unlock()

	err := b.deliver(snapshot)

	b.mu.Lock()
	b.flushing = false
	if err != nil {
		b.log.Warn("flush failed, restoring batch for retry", "records", len(snapshot), "error", err)
		b.records = append(snapshot, b.records...)
	} else {
		b.lastFlush = time.Now()
	}
	b.mu.Unlock()
}

// deliver invokes the sink, converting a panic into an error so a misbehaving
// sink can never take the host down.
func (b *Buffer) deliver(batch []store.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return b.sink(batch)
}

// Start launches the periodic flush timer. Calling Start on a running
// buffer is a no-op.
func (b *Buffer) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ticker != nil {
		return
	}
	b.ticker = time.NewTicker(b.every)
	b.done = make(chan struct{})
	go b.run(b.ticker, b.done)
}

func (b *Buffer) run(ticker *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-ticker.C:
			b.Flush()
		case <-done:
			return
		}
	}
}

// Stop halts the timer after one final flush — session termination must not
// silently drop buffered events.
func (b *Buffer) Stop() {
	b.stop(true)
}

// StopDiscarding halts the timer without flushing. Buffered records are
// dropped; intended for abnormal teardown only.
func (b *Buffer) StopDiscarding() {
	b.stop(false)
}

func (b *Buffer) stop(flushRemaining bool) {
	b.mu.Lock()
	ticker, done := b.ticker, b.done
	b.ticker, b.done = nil, nil
	b.mu.Unlock()

	if ticker != nil {
		ticker.Stop()
		close(done)
	}
	if flushRemaining {
		b.Flush()
	}
}

// LastFlush returns the time of the last successful flush, zero if none.
func (b *Buffer) LastFlush() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastFlush
}
