package driver

import (
	"fmt"

	"shadec/internal/diag"
	"shadec/internal/observ"
)

// reportSchema changes whenever Report's encoded shape does; cached reports
// with another schema are ignored.
const reportSchema uint16 = 1

// Status summarises the outcome of one call.
type Status uint8

const (
	StatusOK Status = iota
	StatusNoMatch
	StatusAmbiguous
	StatusUnknown
	StatusInvalid // the call could not be built from the manifest
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoMatch:
		return "no_match"
	case StatusAmbiguous:
		return "ambiguous"
	case StatusUnknown:
		return "unknown"
	case StatusInvalid:
		return "invalid"
	}
	return "status?"
}

// MarshalText encodes Status by name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a Status name.
func (s *Status) UnmarshalText(b []byte) error {
	for c := StatusOK; c <= StatusInvalid; c++ {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown call status %q", b)
}

// CallResult is the outcome of one manifest call.
type CallResult struct {
	Index    int           `json:"index" msgpack:"index"`
	Location diag.Location `json:"location" msgpack:"location"`
	Kind     string        `json:"kind" msgpack:"kind"`
	Name     string        `json:"name" msgpack:"name"`
	// Call is the call as written, e.g. clamp(i32, abstract-int, i32).
	Call   string `json:"call" msgpack:"call"`
	Status Status `json:"status" msgpack:"status"`
	Stage  string `json:"stage" msgpack:"stage"`

	Signature  string   `json:"signature,omitempty" msgpack:"signature,omitempty"`
	ReturnType string   `json:"return_type,omitempty" msgpack:"return_type,omitempty"`
	Parameters []string `json:"parameters,omitempty" msgpack:"parameters,omitempty"`
	Ranks      []uint32 `json:"ranks,omitempty" msgpack:"ranks,omitempty"`
	Flags      string   `json:"flags,omitempty" msgpack:"flags,omitempty"`
	ConstEval  string   `json:"const_eval,omitempty" msgpack:"const_eval,omitempty"`
	// Value is the folded constant result, when the call was evaluated.
	Value string `json:"value,omitempty" msgpack:"value,omitempty"`
	Error string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// Report is the outcome of checking one manifest.
type Report struct {
	Schema      uint16            `json:"-" msgpack:"schema"`
	Manifest    string            `json:"manifest" msgpack:"manifest"`
	Dialect     string            `json:"dialect" msgpack:"dialect"`
	Results     []CallResult      `json:"results" msgpack:"results"`
	Diagnostics []diag.Diagnostic `json:"-" msgpack:"diagnostics"`
	Dropped     int               `json:"dropped,omitempty" msgpack:"dropped,omitempty"`
	Timings     observ.Report     `json:"timings" msgpack:"-"`
	// Cached is set when the report came from the disk cache.
	Cached bool `json:"cached,omitempty" msgpack:"-"`
}

// Count returns the number of results with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for i := range r.Results {
		if r.Results[i].Status == s {
			n++
		}
	}
	return n
}

// HasErrors reports whether any diagnostic is an error.
func (r *Report) HasErrors() bool {
	for i := range r.Diagnostics {
		if r.Diagnostics[i].Severity >= diag.SevError {
			return true
		}
	}
	return false
}
