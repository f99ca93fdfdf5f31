// Package observ records phase timings for --timings output.
package observ

import (
	"sync"
	"time"
)

type phase struct {
	name  string
	start time.Time
	dur   time.Duration
	note  string
	open  bool
}

// Timer records named phases of one manifest check. It is safe for
// concurrent use; phases are reported in the order they began.
type Timer struct {
	mu     sync.Mutex
	phases []phase
	now    func() time.Time
}

func NewTimer() *Timer { return &Timer{now: time.Now} }

// Track starts a phase and returns the function that ends it with an
// optional note. Calling the end function twice keeps the first result.
// A nil Timer tracks nothing.
func (t *Timer) Track(name string) func(note string) {
	if t == nil {
		return func(string) {}
	}
	t.mu.Lock()
	idx := len(t.phases)
	t.phases = append(t.phases, phase{name: name, start: t.now(), open: true})
	t.mu.Unlock()

	return func(note string) {
		t.mu.Lock()
		defer t.mu.Unlock()
		p := &t.phases[idx]
		if !p.open {
			return
		}
		p.open = false
		p.dur = t.now().Sub(p.start)
		p.note = note
	}
}

// PhaseReport: одна фаза в сериализуемом виде.
type PhaseReport struct {
	Name       string  `json:"name" msgpack:"name"`
	DurationMS float64 `json:"duration_ms" msgpack:"duration_ms"`
	Note       string  `json:"note,omitempty" msgpack:"note,omitempty"`
}

// Report is the serialisable form of a Timer.
type Report struct {
	TotalMS float64       `json:"total_ms" msgpack:"total_ms"`
	Phases  []PhaseReport `json:"phases" msgpack:"phases"`
}

// Phase finds a phase by name.
func (r Report) Phase(name string) (PhaseReport, bool) {
	for _, p := range r.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return PhaseReport{}, false
}

// Report snapshots finished phases. Phases still open count as zero.
func (t *Timer) Report() Report {
	if t == nil {
		return Report{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.phases) == 0 {
		return Report{}
	}
	r := Report{Phases: make([]PhaseReport, len(t.phases))}
	var total time.Duration
	for i, p := range t.phases {
		total += p.dur
		r.Phases[i] = PhaseReport{Name: p.name, DurationMS: millis(p.dur), Note: p.note}
	}
	r.TotalMS = millis(total)
	return r
}

func millis(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
