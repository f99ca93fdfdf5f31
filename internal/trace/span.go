package trace

import (
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

func nextSeq() uint64 { return seqCounter.Add(1) }

// SpanContext identifies the span that new work nests under. Lane is the ID
// of the root span of the chain; Chrome output draws one row per lane.
type SpanContext struct {
	SpanID uint64
	Lane   uint64
}

// Span is an open interval of work. A span whose scope is filtered out by
// the tracer level is inert: End and WithExtra do nothing.
type Span struct {
	tracer  Tracer
	ctx     SpanContext
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
}

// Begin opens a span under parent. A zero parent starts a new lane.
func Begin(t Tracer, scope Scope, name string, parent SpanContext) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{}
	}
	id := spanCounter.Add(1)
	lane := parent.Lane
	if lane == 0 {
		lane = id
	}
	s := &Span{
		tracer:  t,
		ctx:     SpanContext{SpanID: id, Lane: lane},
		parent:  parent.SpanID,
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	s.emit(KindSpanBegin, s.started, "", nil)
	return s
}

func (s *Span) active() bool { return s != nil && s.tracer != nil }

func (s *Span) emit(kind Kind, at time.Time, detail string, extra map[string]string) {
	s.tracer.Emit(&Event{
		Time:     at,
		Seq:      nextSeq(),
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.ctx.SpanID,
		ParentID: s.parent,
		Lane:     s.ctx.Lane,
		Name:     s.name,
		Detail:   detail,
		Extra:    extra,
	})
}

// End closes the span and returns how long it was open.
func (s *Span) End(detail string) time.Duration {
	if !s.active() {
		return 0
	}
	now := time.Now()
	s.emit(KindSpanEnd, now, detail, s.extra)
	return now.Sub(s.started)
}

// WithExtra attaches key=value to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if !s.active() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

// ID returns the span ID, zero for an inert span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.ctx.SpanID
}

// Context returns the handle children use as their parent.
func (s *Span) Context() SpanContext {
	if s == nil {
		return SpanContext{}
	}
	return s.ctx
}
