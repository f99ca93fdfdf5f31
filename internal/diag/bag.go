package diag

import (
	"cmp"
	"slices"
	"sync"

	"fortio.org/safecast"
)

// Bag collects diagnostics up to a limit. It is safe for concurrent use
// and is itself a Reporter.
type Bag struct {
	mu      sync.Mutex
	items   []Diagnostic
	limit   uint16
	dropped int
}

// NewBag keeps at most max diagnostics. Values outside 1..65535 mean the
// largest limit.
func NewBag(max int) *Bag {
	limit, err := safecast.Conv[uint16](max)
	if err != nil || limit == 0 {
		limit = ^uint16(0)
	}
	return &Bag{limit: limit}
}

// Add возвращает false, если лимит исчерпан и диагностика отброшена.
func (b *Bag) Add(d Diagnostic) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) >= int(b.limit) {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Report(d Diagnostic) { b.Add(d) }

// Limit is the most diagnostics the bag keeps.
func (b *Bag) Limit() int { return int(b.limit) }

// Dropped reports how many diagnostics were refused because of the limit.
func (b *Bag) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// HasErrors reports whether any kept diagnostic is an error.
func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool { return d.Severity >= SevError })
}

func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Items returns a copy of the kept diagnostics.
func (b *Bag) Items() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items)
}

// Compare orders diagnostics by location, then severity (most severe
// first), then code.
func Compare(a, b Diagnostic) int {
	if a.Primary != b.Primary {
		if a.Primary.Before(b.Primary) {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(b.Severity, a.Severity); c != 0 {
		return c
	}
	return cmp.Compare(a.Code, b.Code)
}

// Sort puts the diagnostics in Compare order. Equal entries keep the
// order they were added in.
func (b *Bag) Sort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	slices.SortStableFunc(b.items, Compare)
}
