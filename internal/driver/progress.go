package driver

import "time"

// Phase describes what the batch runner is doing with a manifest.
type Phase string

const (
	PhaseLoad    Phase = "load"
	PhaseResolve Phase = "resolve"
)

// State captures progress within a phase.
type State string

const (
	StateQueued  State = "queued"
	StateWorking State = "working"
	StateDone    State = "done"
	StateError   State = "error"
)

// Event reports progress for a manifest, or for the whole batch when File is
// empty.
type Event struct {
	File    string
	Phase   Phase
	State   State
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
