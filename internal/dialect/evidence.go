package dialect

import "shadec/internal/intrinsic"

// Hint records one call whose name only a specific dialect defines.
type Hint struct {
	Dialect Kind
	Index   int // position of the call in the batch
	Name    string
	Reason  string
}

// Evidence aggregates hints collected while scanning a batch of calls.
type Evidence struct {
	hints []Hint
}

// NewEvidence creates an empty Evidence container.
func NewEvidence() *Evidence {
	return &Evidence{hints: make([]Hint, 0, 4)}
}

// Add appends a hint.
func (e *Evidence) Add(h Hint) {
	if e == nil {
		return
	}
	e.hints = append(e.hints, h)
}

// Hints returns the collected hints.
func (e *Evidence) Hints() []Hint {
	if e == nil {
		return nil
	}
	return e.hints
}

// Observe records a hint for a call to name when dialect k defines it but
// its base dialect does not. Calls the core table already knows yield nothing.
func (e *Evidence) Observe(index int, kind intrinsic.Kind, name string) error {
	core, err := Load(Core)
	if err != nil {
		return err
	}
	if _, ok := core.Find(kind, name); ok {
		return nil
	}
	for k := Core + 1; k < kindCount; k++ {
		t, err := Load(k)
		if err != nil {
			return err
		}
		if _, ok := t.Find(kind, name); ok {
			e.Add(Hint{Dialect: k, Index: index, Name: name, Reason: k.String() + " defines " + kind.String() + " " + name})
			return nil
		}
	}
	return nil
}
