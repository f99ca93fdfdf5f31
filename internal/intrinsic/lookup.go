package intrinsic

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"shadec/internal/consteval"
	"shadec/internal/styled"
	"shadec/internal/trace"
	"shadec/internal/types"
)

// Arg is one call argument: its type and, when known, its constant value.
type Arg struct {
	Type  types.TypeID
	Value *consteval.Value
}

// ArgsOf wraps argument types that carry no constant value.
func ArgsOf(tys ...types.TypeID) []Arg {
	out := make([]Arg, len(tys))
	for i, ty := range tys {
		out[i] = Arg{Type: ty}
	}
	return out
}

// Call describes a call site to resolve.
type Call struct {
	Args []Arg
	// TemplateArgs are explicit template arguments, e.g. f32 in vec3<f32>(...).
	// When empty, explicit templates are inferred from the arguments.
	TemplateArgs []types.TypeID
	// Stage is the earliest evaluation stage of the call.
	Stage EvaluationStage
}

// Parameter is a resolved parameter of the selected overload.
type Parameter struct {
	Type  types.TypeID
	Usage string
}

// Overload is the result of a successful lookup.
type Overload struct {
	Name       string
	Kind       Kind
	Index      OverloadIndex
	Info       *OverloadInfo
	ReturnType types.TypeID
	Parameters []Parameter
	// ConstEval is nil when the overload has no constant evaluator.
	ConstEval     consteval.Function
	ConstEvalName string
	// Ranks are the per-argument conversion ranks the overload was chosen with.
	Ranks []uint32
}

// Flags returns the flags of the selected overload.
func (o Overload) Flags() OverloadFlags {
	if o.Info == nil {
		return 0
	}
	return o.Info.Flags
}

// ParameterTypes returns the canonical parameter types.
func (o Overload) ParameterTypes() []types.TypeID {
	out := make([]types.TypeID, len(o.Parameters))
	for i, p := range o.Parameters {
		out[i] = p.Type
	}
	return out
}

type intrinsicKey struct {
	kind Kind
	name string
}

// Table is an immutable, validated TableData with name lookup. It is safe
// for concurrent use.
type Table struct {
	data   *TableData
	byName map[intrinsicKey]IntrinsicIndex
}

// NewTable validates data and indexes its intrinsics by kind and name.
func NewTable(data *TableData) (*Table, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("table %q: %w", data.Name, err)
	}
	t := &Table{data: data, byName: make(map[intrinsicKey]IntrinsicIndex, len(data.Intrinsics))}
	for i, info := range data.Intrinsics {
		key := intrinsicKey{info.Kind, info.Name}
		if _, dup := t.byName[key]; dup {
			return nil, fmt.Errorf("table %q: duplicate %s intrinsic %q", data.Name, info.Kind, info.Name)
		}
		t.byName[key] = IntrinsicIndex(i)
	}
	return t, nil
}

// Data returns the underlying table data.
func (t *Table) Data() *TableData { return t.data }

// Name returns the table name.
func (t *Table) Name() string { return t.data.Name }

// Find returns the intrinsic called name in namespace kind.
func (t *Table) Find(kind Kind, name string) (*IntrinsicInfo, bool) {
	idx, ok := t.byName[intrinsicKey{kind, name}]
	if !ok {
		return nil, false
	}
	return t.data.Intrinsic(idx), true
}

// Names returns the sorted intrinsic names of namespace kind.
func (t *Table) Names(kind Kind) []string {
	var out []string
	for key := range t.byName {
		if key.kind == kind {
			out = append(out, key.name)
		}
	}
	sort.Strings(out)
	return out
}

// Signatures returns the printed overloads of an intrinsic in table order.
func (t *Table) Signatures(kind Kind, name string) ([]string, error) {
	info, ok := t.Find(kind, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownIntrinsic, kind, name)
	}
	out := make([]string, 0, info.NumOverloads)
	for _, oi := range t.data.OverloadsOf(info) {
		out = append(out, PrintOverload(t.data, t.data.Overload(oi), name).String())
	}
	return out, nil
}

// Lookup resolves a call without tracing.
func (t *Table) Lookup(in *types.Interner, kind Kind, name string, call Call) (Overload, error) {
	return NewResolver(t, in, nil).Lookup(kind, name, call)
}

// Resolver selects overloads from a table. It keeps no state between
// lookups; one Resolver may serve a goroutine for any number of calls.
type Resolver struct {
	table  *Table
	types  *types.Interner
	tracer trace.Tracer
}

// NewResolver binds a table to a type interner. A nil tracer disables tracing.
func NewResolver(t *Table, in *types.Interner, tracer trace.Tracer) *Resolver {
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Resolver{table: t, types: in, tracer: tracer}
}

// Lookup finds the intrinsic called name and resolves call against it.
func (r *Resolver) Lookup(kind Kind, name string, call Call) (Overload, error) {
	info, ok := r.table.Find(kind, name)
	if !ok {
		return Overload{}, fmt.Errorf("%w: %s %q", ErrUnknownIntrinsic, kind, name)
	}
	return r.Resolve(info, call)
}

// attempt is one overload matched against the call.
type attempt struct {
	cand   Candidate
	params []Parameter
	ret    types.TypeID
}

// Resolve matches call against every overload of info and picks the best.
func (r *Resolver) Resolve(info *IntrinsicInfo, call Call) (Overload, error) {
	// Workers resolve calls concurrently, so every lookup gets its own lane.
	span := trace.Begin(r.tracer, trace.ScopeLookup, "lookup "+info.Name, trace.SpanContext{}).
		WithExtra("kind", info.Kind.String()).
		WithExtra("args", strconv.Itoa(len(call.Args)))
	d := r.table.data

	attempts := make([]attempt, 0, info.NumOverloads)
	for _, oi := range d.OverloadsOf(info) {
		a := r.match(info, oi, call)
		if r.tracer.Enabled() {
			cs := trace.Begin(r.tracer, trace.ScopeCandidate, "candidate "+r.signature(info, &a.cand).String(), span.Context())
			cs.End(a.cand.Reason.String())
		}
		attempts = append(attempts, a)
	}

	var accepted []int
	for i := range attempts {
		if attempts[i].cand.Reason == Accepted {
			accepted = append(accepted, i)
		}
	}

	switch len(accepted) {
	case 0:
		span.End("no match")
		cands := make([]Candidate, len(attempts))
		for i := range attempts {
			r.signature(info, &attempts[i].cand)
			cands[i] = attempts[i].cand
		}
		return Overload{}, &NoMatchError{Kind: info.Kind, Name: info.Name, Call: r.printCall(info.Name, call), Candidates: cands}
	case 1:
		span.End("match")
		return r.result(info, attempts[accepted[0]]), nil
	}

	best := []int{accepted[0]}
	bestCost := costOf(attempts[accepted[0]].cand.Ranks)
	for _, i := range accepted[1:] {
		switch c := costOf(attempts[i].cand.Ranks); {
		case c.less(bestCost):
			best, bestCost = []int{i}, c
		case c == bestCost:
			best = append(best, i)
		}
	}
	if len(best) == 1 {
		span.End("match")
		return r.result(info, attempts[best[0]]), nil
	}

	// Ambiguity: every candidate sharing the lowest cost, in table order.
	tied := make([]Candidate, 0, len(best))
	for _, i := range best {
		r.signature(info, &attempts[i].cand)
		c := attempts[i].cand
		c.Note = "conversion ranks " + formatRanks(c.Ranks)
		tied = append(tied, c)
	}
	span.End("ambiguous")
	return Overload{}, &AmbiguousError{Kind: info.Kind, Name: info.Name, Call: r.printCall(info.Name, call), Candidates: tied}
}

// cost orders accepted candidates: fewer implicit conversions first, then
// the lower sum of conversion ranks.
type cost struct {
	conversions int
	rankSum     uint64
}

func (c cost) less(o cost) bool {
	if c.conversions != o.conversions {
		return c.conversions < o.conversions
	}
	return c.rankSum < o.rankSum
}

func costOf(ranks []uint32) cost {
	var c cost
	for _, r := range ranks {
		if r != 0 {
			c.conversions++
			c.rankSum += uint64(r)
		}
	}
	return c
}

func formatRanks(ranks []uint32) string {
	parts := make([]string, len(ranks))
	for i, r := range ranks {
		if r == types.NoConversion {
			parts[i] = "-"
			continue
		}
		parts[i] = strconv.FormatUint(uint64(r), 10)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (r *Resolver) printCall(name string, call Call) *styled.Text {
	labels := make([]string, len(call.Args))
	for i, a := range call.Args {
		labels[i] = types.Label(r.types, a.Type)
	}
	var tmpl []string
	for _, ty := range call.TemplateArgs {
		tmpl = append(tmpl, types.Label(r.types, ty))
	}
	return PrintCall(labels, name, tmpl)
}

func (r *Resolver) signature(info *IntrinsicInfo, c *Candidate) *styled.Text {
	if c.Signature == nil {
		d := r.table.data
		c.Signature = PrintOverload(d, d.Overload(c.Overload), info.Name)
	}
	return c.Signature
}

func (r *Resolver) result(info *IntrinsicInfo, a attempt) Overload {
	d := r.table.data
	o := d.Overload(a.cand.Overload)
	res := Overload{
		Name:       info.Name,
		Kind:       info.Kind,
		Index:      a.cand.Overload,
		Info:       o,
		ReturnType: a.ret,
		Parameters: a.params,
		Ranks:      slices.Clone(a.cand.Ranks),
	}
	if o.ConstEvalFunction.IsValid() {
		res.ConstEval = d.ConstEval(o.ConstEvalFunction)
		res.ConstEvalName = d.ConstEvalName(o.ConstEvalFunction)
	}
	return res
}

// match runs one overload against the call with a fresh template state.
func (r *Resolver) match(info *IntrinsicInfo, oi OverloadIndex, call Call) attempt {
	d := r.table.data
	o := d.Overload(oi)
	a := attempt{cand: Candidate{Overload: oi, Index: -1}}
	reject := func(reason RejectReason, idx int, note string) attempt {
		a.cand.Reason, a.cand.Index, a.cand.Note = reason, idx, note
		return a
	}

	if int(o.NumParameters) != len(call.Args) {
		return reject(RejectParameterCount, -1, fmt.Sprintf("expects %d argument%s, got %d", o.NumParameters, plural(int(o.NumParameters)), len(call.Args)))
	}
	if len(call.TemplateArgs) > 0 && int(o.NumExplicitTemplates) != len(call.TemplateArgs) {
		return reject(RejectTemplateCount, -1, fmt.Sprintf("expects %d template argument%s, got %d", o.NumExplicitTemplates, plural(int(o.NumExplicitTemplates)), len(call.TemplateArgs)))
	}
	if o.MinimumStage() > call.Stage {
		return reject(RejectStage, -1, fmt.Sprintf("only usable at %s stage, call is %s", o.MinimumStage(), call.Stage))
	}

	tmpl := NewTemplateState(r.types)
	for i, ty := range call.TemplateArgs {
		if d.Template(o.Templates+TemplateIndex(i)).Kind != TemplateType {
			a.cand.Expected = PrintTemplateConstraint(d, o, i)
			return reject(RejectTemplate, i, fmt.Sprintf("template argument %d (%s) must be a number", i, types.Label(r.types, ty)))
		}
		tmpl.SetType(i, ty)
	}

	for i, arg := range call.Args {
		p := d.Parameter(o.Parameters + ParameterIndex(i))
		if r.state(tmpl, o, call.Stage, p.MatcherIndices).Type(arg.Type) == types.NoTypeID {
			a.cand.Expected = PrintParameter(d, o, i)
			return reject(RejectParameter, i, fmt.Sprintf("argument %d (%s) does not match %s", i, types.Label(r.types, arg.Type), a.cand.Expected.String()))
		}
	}

	for i := range int(o.NumTemplates) {
		t := d.Template(o.Templates + TemplateIndex(i))
		if !r.checkTemplate(tmpl, o, call.Stage, i, t) {
			a.cand.Expected = PrintTemplateConstraint(d, o, i)
			return reject(RejectTemplate, i, fmt.Sprintf("template %s is not satisfied", a.cand.Expected.String()))
		}
	}

	a.params = make([]Parameter, len(call.Args))
	a.cand.Ranks = make([]uint32, len(call.Args))
	for i, arg := range call.Args {
		p := d.Parameter(o.Parameters + ParameterIndex(i))
		ty := r.state(tmpl, o, call.Stage, p.MatcherIndices).Type(arg.Type)
		if ty == types.NoTypeID {
			a.cand.Expected = PrintParameter(d, o, i)
			return reject(RejectParameter, i, fmt.Sprintf("argument %d (%s) does not match %s", i, types.Label(r.types, arg.Type), a.cand.Expected.String()))
		}
		a.params[i] = Parameter{Type: ty, Usage: d.Usage(p.Usage)}
		rank, ok := r.types.ConversionRank(arg.Type, ty)
		if !ok {
			rank = types.NoConversion
		}
		a.cand.Ranks[i] = rank
	}

	a.ret = r.types.Builtins().Void
	if o.ReturnMatcherIndices.IsValid() {
		a.ret = r.state(tmpl, o, call.Stage, o.ReturnMatcherIndices).Type(r.types.Builtins().Any)
		if a.ret == types.NoTypeID {
			return reject(RejectReturnType, -1, "return type can't be built from the inferred templates")
		}
	}
	a.cand.Reason = Accepted
	return a
}

// checkTemplate requires slot i to be bound and re-matches the binding
// against the template's constraint, storing the constrained result.
func (r *Resolver) checkTemplate(tmpl *TemplateState, o *OverloadInfo, stage EvaluationStage, i int, t *TemplateInfo) bool {
	switch t.Kind {
	case TemplateType:
		bound := tmpl.TypeAt(i)
		if bound == types.NoTypeID {
			return false
		}
		if !t.MatcherIndices.IsValid() {
			return true
		}
		ty := r.state(tmpl, o, stage, t.MatcherIndices).Type(bound)
		if ty == types.NoTypeID {
			return false
		}
		tmpl.SetType(i, ty)
	case TemplateNumber:
		bound := tmpl.NumAt(i)
		if !bound.IsValue() {
			return false
		}
		if !t.MatcherIndices.IsValid() {
			return true
		}
		n := r.state(tmpl, o, stage, t.MatcherIndices).Num(bound)
		if !n.IsValue() {
			return false
		}
		tmpl.SetNum(i, n)
	}
	return true
}

func (r *Resolver) state(tmpl *TemplateState, o *OverloadInfo, stage EvaluationStage, run MatcherIndicesIndex) *MatchState {
	return newMatchState(r.types, tmpl, r.table.data, o, stage, run)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
