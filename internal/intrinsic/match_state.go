package intrinsic

import (
	"shadec/internal/styled"
	"shadec/internal/types"
)

// MatchState walks one matcher-indices run. Each Type or Num call consumes
// the next entry and dispatches to the matcher it names; composite matchers
// call back into the state for their operands.
type MatchState struct {
	Types     *types.Interner
	Templates *TemplateState
	Data      *TableData
	Overload  *OverloadInfo
	// Stage is the earliest evaluation stage of the call being matched.
	Stage   EvaluationStage
	indices []MatcherIndex
}

func newMatchState(in *types.Interner, tmpl *TemplateState, data *TableData, o *OverloadInfo, stage EvaluationStage, run MatcherIndicesIndex) *MatchState {
	return &MatchState{
		Types:     in,
		Templates: tmpl,
		Data:      data,
		Overload:  o,
		Stage:     stage,
		indices:   data.Matchers(run),
	}
}

func (s *MatchState) next() MatcherIndex {
	if len(s.indices) == 0 {
		panic("intrinsic: matcher-indices run exhausted")
	}
	m := s.indices[0]
	s.indices = s.indices[1:]
	return m
}

// Type matches ty against the next type matcher.
func (s *MatchState) Type(ty types.TypeID) types.TypeID {
	return s.Data.TypeMatcher(s.next()).Match(s, ty)
}

// Num matches n against the next number matcher.
func (s *MatchState) Num(n Number) Number {
	return s.Data.NumberMatcher(s.next()).Match(s, n)
}

// PrintType renders the next type matcher.
func (s *MatchState) PrintType(out *styled.Text) {
	s.Data.TypeMatcher(s.next()).Print(s, out)
}

// PrintNum renders the next number matcher.
func (s *MatchState) PrintNum(out *styled.Text) {
	s.Data.NumberMatcher(s.next()).Print(s, out)
}

// TemplateName returns the declared name of overload-relative slot idx.
func (s *MatchState) TemplateName(idx int) string {
	if s.Overload == nil || idx >= int(s.Overload.NumTemplates) {
		return "?"
	}
	return s.Data.Template(s.Overload.Templates + TemplateIndex(idx)).Name
}

// AllowsAbstract reports whether abstract numerics may be matched, which is
// only the case for calls evaluated at shader-creation time.
func (s *MatchState) AllowsAbstract() bool {
	return s.Stage == EvalConstant
}
