package intrinsic

import (
	"errors"
	"fmt"
	"strings"

	"shadec/internal/styled"
)

var (
	ErrUnknownIntrinsic   = errors.New("unknown intrinsic")
	ErrNoMatchingOverload = errors.New("no matching overload")
	ErrAmbiguousOverload  = errors.New("ambiguous overload")
)

// RejectReason says why a candidate overload did not match.
type RejectReason uint8

const (
	Accepted RejectReason = iota
	RejectParameterCount
	RejectTemplateCount
	RejectStage
	RejectParameter
	RejectTemplate
	RejectReturnType
)

func (r RejectReason) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectParameterCount:
		return "parameter-count"
	case RejectTemplateCount:
		return "template-count"
	case RejectStage:
		return "stage"
	case RejectParameter:
		return "parameter"
	case RejectTemplate:
		return "template"
	case RejectReturnType:
		return "return-type"
	}
	return "unknown"
}

// Candidate is the outcome of matching one overload.
type Candidate struct {
	Overload  OverloadIndex
	Signature *styled.Text
	Reason    RejectReason
	// Index is the failing parameter or template, -1 otherwise.
	Index int
	// Expected is the constraint that rejected the candidate, if any.
	Expected *styled.Text
	Note     string
	// Ranks holds the per-argument conversion ranks of accepted candidates.
	Ranks []uint32
}

func nounFor(k Kind) string {
	switch k {
	case KindUnaryOperator, KindBinaryOperator:
		return "operator"
	case KindCtorConv:
		return "constructor or conversion"
	}
	return "call"
}

func writeCandidates(b *strings.Builder, cands []Candidate) {
	if len(cands) == 1 {
		b.WriteString("1 candidate:\n")
	} else {
		fmt.Fprintf(b, "%d candidates:\n", len(cands))
	}
	for _, c := range cands {
		fmt.Fprintf(b, "  %s\n", c.Signature.String())
		if c.Note != "" {
			fmt.Fprintf(b, "    %s\n", c.Note)
		}
	}
}

// NoMatchError reports a call that no overload accepts.
type NoMatchError struct {
	Kind       Kind
	Name       string
	Call       *styled.Text
	Candidates []Candidate
}

func (e *NoMatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no matching %s for %s", nounFor(e.Kind), e.Call.String())
	if len(e.Candidates) > 0 {
		b.WriteString("\n\n")
		writeCandidates(&b, e.Candidates)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (e *NoMatchError) Is(target error) bool { return target == ErrNoMatchingOverload }

// AmbiguousError reports a call that several overloads accept with no single
// best one. Candidates lists only the tied overloads.
type AmbiguousError struct {
	Kind       Kind
	Name       string
	Call       *styled.Text
	Candidates []Candidate
}

func (e *AmbiguousError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ambiguous %s for %s\n\n", nounFor(e.Kind), e.Call.String())
	writeCandidates(&b, e.Candidates)
	return strings.TrimRight(b.String(), "\n")
}

func (e *AmbiguousError) Is(target error) bool { return target == ErrAmbiguousOverload }
