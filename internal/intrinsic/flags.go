package intrinsic

import "strings"

// OverloadFlags describe an overload.
type OverloadFlags uint16

const (
	FlagIsBuiltin OverloadFlags = 1 << iota
	FlagIsOperator
	FlagIsConstructor
	FlagIsConverter
	FlagSupportsVertexPipeline
	FlagSupportsFragmentPipeline
	FlagSupportsComputePipeline
	FlagMustUse
	FlagMemberFunction
	FlagIsDeprecated

	FlagSupportsAllPipelines = FlagSupportsVertexPipeline | FlagSupportsFragmentPipeline | FlagSupportsComputePipeline
)

var flagNames = []struct {
	flag OverloadFlags
	name string
}{
	{FlagIsBuiltin, "builtin"},
	{FlagIsOperator, "operator"},
	{FlagIsConstructor, "constructor"},
	{FlagIsConverter, "converter"},
	{FlagSupportsVertexPipeline, "vertex"},
	{FlagSupportsFragmentPipeline, "fragment"},
	{FlagSupportsComputePipeline, "compute"},
	{FlagMustUse, "must_use"},
	{FlagMemberFunction, "member_function"},
	{FlagIsDeprecated, "deprecated"},
}

// Has reports whether every bit of f is set.
func (o OverloadFlags) Has(f OverloadFlags) bool { return o&f == f }

func (o OverloadFlags) String() string {
	parts := make([]string, 0, len(flagNames))
	for _, fn := range flagNames {
		if o.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// EvaluationStage is the earliest stage at which an expression's value is known.
type EvaluationStage uint8

const (
	EvalConstant EvaluationStage = iota
	EvalOverride
	EvalRuntime
)

func (s EvaluationStage) String() string {
	switch s {
	case EvalConstant:
		return "constant"
	case EvalOverride:
		return "override"
	case EvalRuntime:
		return "runtime"
	}
	return "unknown"
}

// ParseEvaluationStage maps "constant", "override" or "runtime" to a stage.
func ParseEvaluationStage(s string) (EvaluationStage, bool) {
	switch strings.ToLower(s) {
	case "constant", "const":
		return EvalConstant, true
	case "override":
		return EvalOverride, true
	case "runtime", "":
		return EvalRuntime, true
	}
	return EvalRuntime, false
}

// Kind is the namespace an intrinsic name lives in.
type Kind uint8

const (
	KindBuiltin Kind = iota
	KindUnaryOperator
	KindBinaryOperator
	KindCtorConv
)

func (k Kind) String() string {
	switch k {
	case KindBuiltin:
		return "builtin"
	case KindUnaryOperator:
		return "unary"
	case KindBinaryOperator:
		return "binary"
	case KindCtorConv:
		return "ctor_conv"
	}
	return "unknown"
}

// ParseKind maps the textual namespace names back to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(s) {
	case "builtin", "fn", "":
		return KindBuiltin, true
	case "unary":
		return KindUnaryOperator, true
	case "binary":
		return KindBinaryOperator, true
	case "ctor_conv", "ctor", "conv", "constructor", "converter":
		return KindCtorConv, true
	}
	return KindBuiltin, false
}
