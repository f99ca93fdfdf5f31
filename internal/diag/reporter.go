package diag

import "sync"

// Reporter принимает диагностики от резолвера и драйвера.
// *Bag и *DedupReporter реализуют его.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a plain function.
type ReporterFunc func(Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// Pending is a diagnostic being assembled. Emit hands it to the reporter
// once; later calls do nothing.
type Pending struct {
	to   Reporter
	d    Diagnostic
	sent bool
}

func ReportError(r Reporter, code Code, primary Location, msg string) *Pending {
	return &Pending{to: r, d: New(SevError, code, primary, msg)}
}

func ReportWarning(r Reporter, code Code, primary Location, msg string) *Pending {
	return &Pending{to: r, d: New(SevWarning, code, primary, msg)}
}

func (p *Pending) WithNote(loc Location, msg string) *Pending {
	p.d.Notes = append(p.d.Notes, Note{Loc: loc, Msg: msg})
	return p
}

func (p *Pending) Emit() {
	if p.sent || p.to == nil {
		return
	}
	p.sent = true
	p.to.Report(p.d)
}

// Diagnostic returns what Emit would send.
func (p *Pending) Diagnostic() Diagnostic { return p.d }

type dedupKey struct {
	code Code
	sev  Severity
	loc  Location
	msg  string
}

// DedupReporter forwards the first of any diagnostics sharing code,
// severity, location and message. Notes are not compared.
type DedupReporter struct {
	next Reporter
	mu   sync.Mutex
	seen map[dedupKey]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[dedupKey]struct{})}
}

func (r *DedupReporter) Report(d Diagnostic) {
	k := dedupKey{d.Code, d.Severity, d.Primary, d.Message}
	r.mu.Lock()
	_, dup := r.seen[k]
	if !dup {
		r.seen[k] = struct{}{}
	}
	r.mu.Unlock()
	if !dup && r.next != nil {
		r.next.Report(d)
	}
}
