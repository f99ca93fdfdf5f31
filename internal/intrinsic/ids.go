package intrinsic

// Every table section is addressed by its own index type so that an index of
// one section can't be used to address another. The all-ones value of each
// type is the invalid sentinel.
type (
	TemplateIndex          uint32
	ParameterIndex         uint32
	OverloadIndex          uint32
	MatcherIndicesIndex    uint32
	ConstEvalFunctionIndex uint32
	IntrinsicIndex         uint32
	UsageIndex             uint16
	// MatcherIndex is one entry of the flat matcher-indices list. It addresses
	// TypeMatchers or NumberMatchers depending on which MatchState call consumes it.
	MatcherIndex uint8
)

const (
	InvalidTemplate          TemplateIndex          = ^TemplateIndex(0)
	InvalidParameter         ParameterIndex         = ^ParameterIndex(0)
	InvalidOverload          OverloadIndex          = ^OverloadIndex(0)
	InvalidMatcherIndices    MatcherIndicesIndex    = ^MatcherIndicesIndex(0)
	InvalidConstEvalFunction ConstEvalFunctionIndex = ^ConstEvalFunctionIndex(0)
	InvalidIntrinsic         IntrinsicIndex         = ^IntrinsicIndex(0)
	// NoUsage marks a parameter without a named role.
	NoUsage UsageIndex = 0
)

func (i TemplateIndex) IsValid() bool          { return i != InvalidTemplate }
func (i ParameterIndex) IsValid() bool         { return i != InvalidParameter }
func (i OverloadIndex) IsValid() bool          { return i != InvalidOverload }
func (i MatcherIndicesIndex) IsValid() bool    { return i != InvalidMatcherIndices }
func (i ConstEvalFunctionIndex) IsValid() bool { return i != InvalidConstEvalFunction }
func (i IntrinsicIndex) IsValid() bool         { return i != InvalidIntrinsic }
func (i UsageIndex) IsValid() bool             { return i != NoUsage }
