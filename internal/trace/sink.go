package trace

import (
	"errors"
	"io"
	"os"
	"sync"
)

// leveled holds the level every tracer filters by.
type leveled struct{ level Level }

func (l leveled) Level() Level           { return l.level }
func (l leveled) Enabled() bool          { return l.level > LevelOff }
func (l leveled) accepts(ev *Event) bool { return l.level.ShouldEmit(ev.Scope) }

type nopTracer struct{ leveled }

func (nopTracer) Emit(*Event)  {}
func (nopTracer) Flush() error { return nil }
func (nopTracer) Close() error { return nil }

// Nop discards everything. Its level is LevelOff.
var Nop Tracer = nopTracer{}

// eventWriter frames formatted events. Chrome output is a single JSON
// object, so it gets a header before the first event, separators, and a
// footer on close.
type eventWriter struct {
	w      io.Writer
	format Format
	n      int
}

const (
	chromeHeader = "{\"traceEvents\":[\n"
	chromeFooter = "\n]}\n"
)

func (e *eventWriter) write(ev *Event) error {
	if e.format == FormatChrome {
		sep := ",\n"
		if e.n == 0 {
			sep = chromeHeader
		}
		if _, err := io.WriteString(e.w, sep); err != nil {
			return err
		}
	}
	e.n++
	_, err := e.w.Write(FormatEvent(ev, e.format))
	return err
}

func (e *eventWriter) close() error {
	if e.format != FormatChrome {
		return nil
	}
	if e.n == 0 {
		if _, err := io.WriteString(e.w, chromeHeader); err != nil {
			return err
		}
	}
	_, err := io.WriteString(e.w, chromeFooter)
	return err
}

// StreamTracer writes each event as it arrives. The first write error is
// kept and returned from Flush and Close; later events are dropped.
type StreamTracer struct {
	leveled
	mu  sync.Mutex
	out eventWriter
	err error
}

// NewStreamTracer writes events at level to w in format.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	if format == FormatAuto {
		format = FormatText
	}
	return &StreamTracer{leveled: leveled{level}, out: eventWriter{w: w, format: format}}
}

func (t *StreamTracer) Emit(ev *Event) {
	if !t.accepts(ev) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = t.out.write(ev)
	}
}

func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushLocked()
}

func (t *StreamTracer) flushLocked() error {
	if t.err != nil {
		return t.err
	}
	if f, ok := t.out.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close terminates the output and closes the writer unless it is one of
// the standard streams.
func (t *StreamTracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = t.out.close()
	}
	err := t.flushLocked()
	if c, ok := t.out.w.(io.Closer); ok && c != os.Stdout && c != os.Stderr {
		err = errors.Join(err, c.Close())
	}
	return err
}

// RingTracer keeps the last events in memory for a dump after a failure.
type RingTracer struct {
	leveled
	mu    sync.Mutex
	buf   []Event
	next  int
	total uint64
}

// NewRingTracer keeps up to capacity events, 4096 when capacity <= 0.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{leveled: leveled{level}, buf: make([]Event, capacity)}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.accepts(ev) {
		return
	}
	t.mu.Lock()
	t.buf[t.next] = *ev
	t.next = (t.next + 1) % len(t.buf)
	t.total++
	t.mu.Unlock()
}

// Overwritten reports how many events fell out of the ring.
func (t *RingTracer) Overwritten() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.total <= uint64(len(t.buf)) {
		return 0
	}
	return t.total - uint64(len(t.buf))
}

// Snapshot copies the retained events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.buf)
	if t.total < uint64(n) {
		n = int(t.total)
	}
	out := make([]Event, n)
	start := (t.next - n + len(t.buf)) % len(t.buf)
	for i := range out {
		out[i] = t.buf[(start+i)%len(t.buf)]
	}
	return out
}

// Dump writes the retained events to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	if format == FormatAuto {
		format = FormatText
	}
	out := eventWriter{w: w, format: format}
	events := t.Snapshot()
	for i := range events {
		if err := out.write(&events[i]); err != nil {
			return err
		}
	}
	return out.close()
}

func (t *RingTracer) Flush() error { return nil }
func (t *RingTracer) Close() error { return nil }

// MultiTracer forwards every event to each of its tracers.
type MultiTracer struct {
	leveled
	tracers []Tracer
}

func NewMultiTracer(level Level, tracers ...Tracer) *MultiTracer {
	return &MultiTracer{leveled: leveled{level}, tracers: tracers}
}

func (t *MultiTracer) Emit(ev *Event) {
	for _, tr := range t.tracers {
		tr.Emit(ev)
	}
}

func (t *MultiTracer) Flush() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Flush())
	}
	return errors.Join(errs...)
}

func (t *MultiTracer) Close() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Close())
	}
	return errors.Join(errs...)
}
