package observ

import (
	"sync"
	"testing"
	"time"
)

// stepClock advances by one millisecond per reading.
func stepClock() func() time.Time {
	var mu sync.Mutex
	at := time.Unix(0, 0)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		at = at.Add(time.Millisecond)
		return at
	}
}

func TestTimerReportKeepsOrder(t *testing.T) {
	tm := NewTimer()
	tm.now = stepClock()
	endLoad := tm.Track("dialect")
	endLoad("core")
	endResolve := tm.Track("resolve")
	endResolve("")
	endResolve("second call ignored")

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Name != "dialect" || r.Phases[1].Name != "resolve" {
		t.Fatalf("phases = %+v", r.Phases)
	}
	if r.Phases[0].Note != "core" || r.Phases[1].Note != "" {
		t.Fatalf("notes = %+v", r.Phases)
	}
	if r.Phases[0].DurationMS != 1 || r.TotalMS != 2 {
		t.Fatalf("durations = %+v total %v", r.Phases, r.TotalMS)
	}
	if p, ok := r.Phase("resolve"); !ok || p.DurationMS != 1 {
		t.Fatalf("Phase(resolve) = %+v, %v", p, ok)
	}
	if _, ok := r.Phase("emit"); ok {
		t.Fatal("unknown phase found")
	}
}

func TestOpenPhaseCountsAsZero(t *testing.T) {
	tm := NewTimer()
	tm.now = stepClock()
	tm.Track("resolve")
	if r := tm.Report(); r.TotalMS != 0 || len(r.Phases) != 1 {
		t.Fatalf("report = %+v", r)
	}
}

func TestTimerConcurrent(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Track("call")("")
		}()
	}
	wg.Wait()
	if n := len(tm.Report().Phases); n != 16 {
		t.Fatalf("phases = %d", n)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.Track("x")("")
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("nil timer reported phases")
	}
}
