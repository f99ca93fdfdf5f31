package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1 // span start
	KindSpanEnd                   // span end
	KindPoint                     // instant event
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity of the event.
// Lower values are coarser.
type Scope uint8

const (
	ScopeDriver    Scope = iota + 1 // CLI commands and manifest checks
	ScopeTable                      // dialect table loading
	ScopeLookup                     // one overload resolution
	ScopeCandidate                  // one overload tried during a lookup
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopeTable:
		return "table"
	case ScopeLookup:
		return "lookup"
	case ScopeCandidate:
		return "candidate"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time         `json:"-" msgpack:"-"`
	Seq      uint64            `json:"seq"`
	Kind     Kind              `json:"-"`
	Scope    Scope             `json:"-"`
	SpanID   uint64            `json:"span_id"`
	ParentID uint64            `json:"parent_id,omitempty"`
	Lane     uint64            `json:"lane,omitempty"`
	Name     string            `json:"name"` // e.g. "check", "lookup clamp"
	Detail   string            `json:"detail,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// Point emits an instant event under parent.
func Point(t Tracer, scope Scope, name, detail string, parent SpanContext) {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Seq:      nextSeq(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parent.SpanID,
		Lane:     parent.Lane,
		Name:     name,
		Detail:   detail,
	})
}
