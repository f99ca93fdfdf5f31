package intrinsic

import (
	"fmt"

	"shadec/internal/consteval"
)

// TemplateKind tells whether a template slot holds a type or a number.
type TemplateKind uint8

const (
	TemplateType TemplateKind = iota
	TemplateNumber
)

func (k TemplateKind) String() string {
	if k == TemplateNumber {
		return "number"
	}
	return "type"
}

// TemplateInfo describes one template slot of an overload.
type TemplateInfo struct {
	Name string
	Kind TemplateKind
	// MatcherIndices is the constraint run, or InvalidMatcherIndices when
	// the template is unconstrained.
	MatcherIndices MatcherIndicesIndex
}

// ParameterInfo describes one formal parameter of an overload.
type ParameterInfo struct {
	Usage          UsageIndex
	MatcherIndices MatcherIndicesIndex
}

// OverloadInfo describes one signature variant of an intrinsic.
type OverloadInfo struct {
	Flags                OverloadFlags
	NumParameters        uint8
	NumExplicitTemplates uint8
	NumTemplates         uint8
	Templates            TemplateIndex
	Parameters           ParameterIndex
	// ReturnMatcherIndices is InvalidMatcherIndices for overloads returning void.
	ReturnMatcherIndices MatcherIndicesIndex
	ConstEvalFunction    ConstEvalFunctionIndex
}

// MinimumStage is the earliest evaluation stage a call may have for this
// overload to be usable. Overloads without a constant evaluator only run
// at runtime.
func (o *OverloadInfo) MinimumStage() EvaluationStage {
	if o.ConstEvalFunction.IsValid() {
		return EvalConstant
	}
	return EvalRuntime
}

// IntrinsicInfo names a contiguous run of overloads.
type IntrinsicInfo struct {
	Name         string
	Kind         Kind
	NumOverloads uint32
	Overloads    OverloadIndex
}

// TableData is the flattened, immutable description of every intrinsic of a
// dialect. Records refer to each other only through the typed indices.
type TableData struct {
	Name               string
	Templates          []TemplateInfo
	TypeMatchers       []TypeMatcher
	NumberMatchers     []NumberMatcher
	MatcherIndices     []MatcherIndex
	Parameters         []ParameterInfo
	Overloads          []OverloadInfo
	ConstEvalFunctions []consteval.Function
	ConstEvalNames     []string
	// Usages[0] is the empty usage.
	Usages     []string
	Intrinsics []IntrinsicInfo
}

func at[T any, I ~uint32 | ~uint16](s []T, i I, what string) *T {
	if uint64(i) >= uint64(len(s)) {
		panic(fmt.Sprintf("intrinsic: %s index %d out of range [0,%d)", what, i, len(s)))
	}
	return &s[i]
}

// Template returns the template at i. It panics on an invalid index.
func (d *TableData) Template(i TemplateIndex) *TemplateInfo {
	return at(d.Templates, i, "template")
}

// Parameter returns the parameter at i. It panics on an invalid index.
func (d *TableData) Parameter(i ParameterIndex) *ParameterInfo {
	return at(d.Parameters, i, "parameter")
}

// Overload returns the overload at i. It panics on an invalid index.
func (d *TableData) Overload(i OverloadIndex) *OverloadInfo {
	return at(d.Overloads, i, "overload")
}

// Intrinsic returns the intrinsic at i. It panics on an invalid index.
func (d *TableData) Intrinsic(i IntrinsicIndex) *IntrinsicInfo {
	return at(d.Intrinsics, i, "intrinsic")
}

// ConstEval returns the evaluator at i. It panics on an invalid index.
func (d *TableData) ConstEval(i ConstEvalFunctionIndex) consteval.Function {
	return *at(d.ConstEvalFunctions, i, "const-eval function")
}

// ConstEvalName returns the registry name of the evaluator at i, or "" if unnamed.
func (d *TableData) ConstEvalName(i ConstEvalFunctionIndex) string {
	if !i.IsValid() || int(i) >= len(d.ConstEvalNames) {
		return ""
	}
	return d.ConstEvalNames[i]
}

// Usage returns the usage name at i.
func (d *TableData) Usage(i UsageIndex) string {
	if !i.IsValid() {
		return ""
	}
	return *at(d.Usages, i, "usage")
}

// Matchers returns the matcher-indices run starting at i.
func (d *TableData) Matchers(i MatcherIndicesIndex) []MatcherIndex {
	if uint64(i) >= uint64(len(d.MatcherIndices)) {
		panic(fmt.Sprintf("intrinsic: matcher-indices index %d out of range [0,%d)", i, len(d.MatcherIndices)))
	}
	return d.MatcherIndices[i:]
}

// TypeMatcher returns the type matcher at i. It panics on an invalid index.
func (d *TableData) TypeMatcher(i MatcherIndex) TypeMatcher {
	return *at(d.TypeMatchers, uint16(i), "type matcher")
}

// NumberMatcher returns the number matcher at i. It panics on an invalid index.
func (d *TableData) NumberMatcher(i MatcherIndex) NumberMatcher {
	return *at(d.NumberMatchers, uint16(i), "number matcher")
}

// OverloadsOf returns the overload indices belonging to info, in table order.
func (d *TableData) OverloadsOf(info *IntrinsicInfo) []OverloadIndex {
	out := make([]OverloadIndex, 0, info.NumOverloads)
	for i := range info.NumOverloads {
		out = append(out, info.Overloads+OverloadIndex(i))
	}
	return out
}

// Validate checks that every index stored in the table addresses an
// existing record.
func (d *TableData) Validate() error {
	checkRun := func(where string, i MatcherIndicesIndex) error {
		if i.IsValid() && int(i) >= len(d.MatcherIndices) {
			return fmt.Errorf("%s: matcher-indices index %d out of range", where, i)
		}
		return nil
	}
	limit := max(len(d.TypeMatchers), len(d.NumberMatchers))
	for i, m := range d.MatcherIndices {
		if int(m) >= limit {
			return fmt.Errorf("matcher-indices[%d]: matcher %d out of range", i, m)
		}
	}
	for i, t := range d.Templates {
		if err := checkRun(fmt.Sprintf("template %d (%s)", i, t.Name), t.MatcherIndices); err != nil {
			return err
		}
	}
	for i, p := range d.Parameters {
		if err := checkRun(fmt.Sprintf("parameter %d", i), p.MatcherIndices); err != nil {
			return err
		}
		if !p.MatcherIndices.IsValid() {
			return fmt.Errorf("parameter %d: no matcher", i)
		}
		if int(p.Usage) >= max(len(d.Usages), 1) {
			return fmt.Errorf("parameter %d: usage %d out of range", i, p.Usage)
		}
	}
	for i := range d.Overloads {
		o := &d.Overloads[i]
		where := fmt.Sprintf("overload %d", i)
		if o.NumExplicitTemplates > o.NumTemplates {
			return fmt.Errorf("%s: %d explicit templates exceed %d templates", where, o.NumExplicitTemplates, o.NumTemplates)
		}
		if o.NumTemplates > 0 && (!o.Templates.IsValid() || int(o.Templates)+int(o.NumTemplates) > len(d.Templates)) {
			return fmt.Errorf("%s: template run out of range", where)
		}
		if o.NumParameters > 0 && (!o.Parameters.IsValid() || int(o.Parameters)+int(o.NumParameters) > len(d.Parameters)) {
			return fmt.Errorf("%s: parameter run out of range", where)
		}
		if err := checkRun(where+" return", o.ReturnMatcherIndices); err != nil {
			return err
		}
		if o.ConstEvalFunction.IsValid() && int(o.ConstEvalFunction) >= len(d.ConstEvalFunctions) {
			return fmt.Errorf("%s: const-eval function %d out of range", where, o.ConstEvalFunction)
		}
	}
	for i, in := range d.Intrinsics {
		if in.NumOverloads == 0 {
			continue
		}
		if !in.Overloads.IsValid() || uint64(in.Overloads)+uint64(in.NumOverloads) > uint64(len(d.Overloads)) {
			return fmt.Errorf("intrinsic %d (%s): overload run out of range", i, in.Name)
		}
	}
	return nil
}
