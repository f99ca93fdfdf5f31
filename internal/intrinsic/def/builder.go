package def

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"shadec/internal/consteval"
	"shadec/internal/intrinsic"
	"shadec/internal/types"
)

var scalarNames = map[string]types.Kind{
	"bool":               types.KindBool,
	"ia":                 types.KindAbstractInt,
	"fa":                 types.KindAbstractFloat,
	"i32":                types.KindI32,
	"u32":                types.KindU32,
	"f32":                types.KindF32,
	"f16":                types.KindF16,
	"sampler":            types.KindSampler,
	"sampler_comparison": types.KindComparisonSampler,
}

type groupKey struct {
	kind intrinsic.Kind
	name string
}

type group struct {
	key       groupKey
	overloads []intrinsic.OverloadInfo
}

type builder struct {
	data       *intrinsic.TableData
	typeKeys   map[string]intrinsic.MatcherIndex
	numKeys    map[string]intrinsic.MatcherIndex
	runs       map[string]intrinsic.MatcherIndicesIndex
	usages     map[string]intrinsic.UsageIndex
	constFns   map[string]intrinsic.ConstEvalFunctionIndex
	typeSets   map[string]*intrinsic.TypeSetMatcher
	numberSets map[string]*intrinsic.NumberSetMatcher
	groups     []*group
	byKey      map[groupKey]*group
}

// Build flattens documents into table data. Later documents extend earlier
// ones: overloads of an intrinsic already defined are appended to it.
func Build(docs ...*Document) (*intrinsic.TableData, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no definition documents")
	}
	b := &builder{
		data:       &intrinsic.TableData{Name: docs[len(docs)-1].Dialect, Usages: []string{""}},
		typeKeys:   make(map[string]intrinsic.MatcherIndex),
		numKeys:    make(map[string]intrinsic.MatcherIndex),
		runs:       make(map[string]intrinsic.MatcherIndicesIndex),
		usages:     map[string]intrinsic.UsageIndex{"": intrinsic.NoUsage},
		constFns:   make(map[string]intrinsic.ConstEvalFunctionIndex),
		typeSets:   make(map[string]*intrinsic.TypeSetMatcher),
		numberSets: make(map[string]*intrinsic.NumberSetMatcher),
		byKey:      make(map[groupKey]*group),
	}
	for _, doc := range docs {
		if err := b.addDocument(doc); err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Dialect, err)
		}
	}
	if err := b.flatten(); err != nil {
		return nil, err
	}
	if err := b.data.Validate(); err != nil {
		return nil, err
	}
	return b.data, nil
}

func (b *builder) addDocument(doc *Document) error {
	for _, ts := range doc.TypeSets {
		if err := b.defineTypeSet(ts); err != nil {
			return err
		}
	}
	for _, ns := range doc.NumberSets {
		if err := b.defineNumberSet(ns); err != nil {
			return err
		}
	}
	for _, in := range doc.Intrinsics {
		for i, line := range in.Overloads {
			sig, err := ParseSignature(line)
			if err != nil {
				return fmt.Errorf("intrinsic %q overload %d: %w", in.Name, i, err)
			}
			if sig.Name != in.Name {
				return fmt.Errorf("intrinsic %q overload %d: signature names %q", in.Name, i, sig.Name)
			}
			if err := b.addOverload(sig); err != nil {
				return fmt.Errorf("intrinsic %q overload %d: %w", in.Name, i, err)
			}
		}
	}
	return nil
}

func (b *builder) reserved(name string) bool {
	if _, ok := scalarNames[name]; ok {
		return true
	}
	_, isType := b.typeSets[name]
	_, isNum := b.numberSets[name]
	return isType || isNum || name == "num"
}

func (b *builder) defineTypeSet(ts TypeSet) error {
	if ts.Name == "" || b.reserved(ts.Name) {
		return fmt.Errorf("type set %q: name missing or already defined", ts.Name)
	}
	if len(ts.Members) == 0 {
		return fmt.Errorf("type set %q: no members", ts.Name)
	}
	kinds := make([]types.Kind, 0, len(ts.Members))
	for _, m := range ts.Members {
		k, ok := scalarNames[m]
		if !ok {
			return fmt.Errorf("type set %q: %q is not a scalar type", ts.Name, m)
		}
		kinds = append(kinds, k)
	}
	b.typeSets[ts.Name] = intrinsic.NewTypeSetMatcher(ts.Name, kinds...)
	return nil
}

func enumValue(name string) (uint32, bool) {
	if v, err := strconv.ParseUint(name, 10, 32); err == nil {
		return uint32(v), true
	}
	if s, ok := types.ParseAddressSpace(name); ok {
		return uint32(s), true
	}
	if a, ok := types.ParseAccess(name); ok {
		return uint32(a), true
	}
	return 0, false
}

func (b *builder) defineNumberSet(ns NumberSet) error {
	if ns.Name == "" || b.reserved(ns.Name) {
		return fmt.Errorf("number set %q: name missing or already defined", ns.Name)
	}
	if len(ns.Members) == 0 {
		return fmt.Errorf("number set %q: no members", ns.Name)
	}
	set := &intrinsic.NumberSetMatcher{Name: ns.Name}
	for _, m := range ns.Members {
		v, ok := enumValue(m)
		if !ok {
			return fmt.Errorf("number set %q: %q is not a number or enumerator", ns.Name, m)
		}
		set.Members = append(set.Members, intrinsic.NumberValueMatcher{Value: v, Name: m})
	}
	b.numberSets[ns.Name] = set
	return nil
}

type templateScope struct {
	slots map[string]int
	kinds map[string]intrinsic.TemplateKind
}

func keywordKind(sig *Signature) (intrinsic.Kind, intrinsic.OverloadFlags, error) {
	switch sig.Keyword {
	case "fn":
		return intrinsic.KindBuiltin, intrinsic.FlagIsBuiltin, nil
	case "ctor":
		return intrinsic.KindCtorConv, intrinsic.FlagIsConstructor, nil
	case "conv":
		return intrinsic.KindCtorConv, intrinsic.FlagIsConverter, nil
	case "op":
		switch len(sig.Params) {
		case 1:
			return intrinsic.KindUnaryOperator, intrinsic.FlagIsOperator, nil
		case 2:
			return intrinsic.KindBinaryOperator, intrinsic.FlagIsOperator, nil
		}
		return 0, 0, fmt.Errorf("operator %s takes %d operands", sig.Name, len(sig.Params))
	}
	return 0, 0, fmt.Errorf("unknown keyword %q", sig.Keyword)
}

func (b *builder) isNumberExpr(e TypeExpr, scope templateScope) bool {
	if len(e.Args) > 0 {
		return false
	}
	if k, ok := scope.kinds[e.Name]; ok {
		return k == intrinsic.TemplateNumber
	}
	if _, ok := b.numberSets[e.Name]; ok {
		return true
	}
	_, ok := enumValue(e.Name)
	return ok
}

func (b *builder) addOverload(sig *Signature) error {
	kind, flags, err := keywordKind(sig)
	if err != nil {
		return err
	}
	o := intrinsic.OverloadInfo{
		Flags:                flags,
		Templates:            intrinsic.InvalidTemplate,
		Parameters:           intrinsic.InvalidParameter,
		ReturnMatcherIndices: intrinsic.InvalidMatcherIndices,
		ConstEvalFunction:    intrinsic.InvalidConstEvalFunction,
	}
	if err := b.applyAttributes(sig, &o); err != nil {
		return err
	}

	decls := append(append([]TemplateDecl(nil), sig.Explicit...), sig.Implicit...)
	scope := templateScope{slots: make(map[string]int, len(decls)), kinds: make(map[string]intrinsic.TemplateKind, len(decls))}
	for i, d := range decls {
		if _, dup := scope.slots[d.Name]; dup || b.reserved(d.Name) {
			return fmt.Errorf("template %q redeclared", d.Name)
		}
		scope.slots[d.Name] = i
		scope.kinds[d.Name] = intrinsic.TemplateType
		if d.Constraint != nil && (d.Constraint.Name == "num" && len(d.Constraint.Args) == 0 || b.isNumberExpr(*d.Constraint, templateScope{})) {
			scope.kinds[d.Name] = intrinsic.TemplateNumber
		}
	}
	if o.NumTemplates, err = safecast.Conv[uint8](len(decls)); err != nil {
		return fmt.Errorf("too many templates: %w", err)
	}
	if o.NumExplicitTemplates, err = safecast.Conv[uint8](len(sig.Explicit)); err != nil {
		return fmt.Errorf("too many explicit templates: %w", err)
	}
	if o.NumParameters, err = safecast.Conv[uint8](len(sig.Params)); err != nil {
		return fmt.Errorf("too many parameters: %w", err)
	}

	templates := make([]intrinsic.TemplateInfo, len(decls))
	for i, d := range decls {
		t := intrinsic.TemplateInfo{Name: d.Name, Kind: scope.kinds[d.Name], MatcherIndices: intrinsic.InvalidMatcherIndices}
		if d.Constraint != nil && d.Constraint.Name != "num" {
			var seq []intrinsic.MatcherIndex
			if t.Kind == intrinsic.TemplateNumber {
				seq, err = b.emitNum(nil, *d.Constraint, scope)
			} else {
				seq, err = b.emitType(nil, *d.Constraint, scope)
			}
			if err != nil {
				return fmt.Errorf("template %s: %w", d.Name, err)
			}
			if t.MatcherIndices, err = b.run(seq); err != nil {
				return err
			}
		}
		templates[i] = t
	}

	used := make(map[string]bool)
	params := make([]intrinsic.ParameterInfo, len(sig.Params))
	for i, p := range sig.Params {
		markUsed(p.Type, used)
		seq, err := b.emitType(nil, p.Type, scope)
		if err != nil {
			return fmt.Errorf("parameter %d: %w", i, err)
		}
		run, err := b.run(seq)
		if err != nil {
			return err
		}
		usage, err := b.usage(p.Usage)
		if err != nil {
			return err
		}
		params[i] = intrinsic.ParameterInfo{Usage: usage, MatcherIndices: run}
	}
	for _, d := range sig.Implicit {
		if !used[d.Name] {
			return fmt.Errorf("template %s is not used by any parameter", d.Name)
		}
	}
	if sig.Return != nil {
		seq, err := b.emitType(nil, *sig.Return, scope)
		if err != nil {
			return fmt.Errorf("return type: %w", err)
		}
		if o.ReturnMatcherIndices, err = b.run(seq); err != nil {
			return err
		}
	}

	if len(templates) > 0 {
		start, err := safecast.Conv[uint32](len(b.data.Templates))
		if err != nil {
			return err
		}
		o.Templates = intrinsic.TemplateIndex(start)
		b.data.Templates = append(b.data.Templates, templates...)
	}
	if len(params) > 0 {
		start, err := safecast.Conv[uint32](len(b.data.Parameters))
		if err != nil {
			return err
		}
		o.Parameters = intrinsic.ParameterIndex(start)
		b.data.Parameters = append(b.data.Parameters, params...)
	}

	key := groupKey{kind, sig.Name}
	g, ok := b.byKey[key]
	if !ok {
		g = &group{key: key}
		b.byKey[key] = g
		b.groups = append(b.groups, g)
	}
	g.overloads = append(g.overloads, o)
	return nil
}

func markUsed(e TypeExpr, used map[string]bool) {
	used[e.Name] = true
	for _, a := range e.Args {
		markUsed(a, used)
	}
}

func (b *builder) applyAttributes(sig *Signature, o *intrinsic.OverloadInfo) error {
	var stages intrinsic.OverloadFlags
	for _, a := range sig.Attributes {
		switch a.Name {
		case "must_use":
			o.Flags |= intrinsic.FlagMustUse
		case "deprecated":
			o.Flags |= intrinsic.FlagIsDeprecated
		case "member_function":
			o.Flags |= intrinsic.FlagMemberFunction
		case "const":
			name := a.Arg
			if name == "" {
				name = sig.Name
			}
			idx, err := b.constFn(name)
			if err != nil {
				return err
			}
			o.ConstEvalFunction = idx
		case "stage":
			switch a.Arg {
			case "vertex":
				stages |= intrinsic.FlagSupportsVertexPipeline
			case "fragment":
				stages |= intrinsic.FlagSupportsFragmentPipeline
			case "compute":
				stages |= intrinsic.FlagSupportsComputePipeline
			default:
				return fmt.Errorf("unknown pipeline stage %q", a.Arg)
			}
		default:
			return fmt.Errorf("unknown attribute @%s", a.Name)
		}
	}
	if stages == 0 {
		stages = intrinsic.FlagSupportsAllPipelines
	}
	o.Flags |= stages
	return nil
}

func (b *builder) constFn(name string) (intrinsic.ConstEvalFunctionIndex, error) {
	if idx, ok := b.constFns[name]; ok {
		return idx, nil
	}
	fn, ok := consteval.Lookup(name)
	if !ok {
		return intrinsic.InvalidConstEvalFunction, fmt.Errorf("no constant evaluator named %q", name)
	}
	n, err := safecast.Conv[uint32](len(b.data.ConstEvalFunctions))
	if err != nil {
		return intrinsic.InvalidConstEvalFunction, err
	}
	idx := intrinsic.ConstEvalFunctionIndex(n)
	b.data.ConstEvalFunctions = append(b.data.ConstEvalFunctions, fn)
	b.data.ConstEvalNames = append(b.data.ConstEvalNames, name)
	b.constFns[name] = idx
	return idx, nil
}

func (b *builder) usage(name string) (intrinsic.UsageIndex, error) {
	if idx, ok := b.usages[name]; ok {
		return idx, nil
	}
	n, err := safecast.Conv[uint16](len(b.data.Usages))
	if err != nil {
		return intrinsic.NoUsage, fmt.Errorf("too many parameter usages: %w", err)
	}
	idx := intrinsic.UsageIndex(n)
	b.data.Usages = append(b.data.Usages, name)
	b.usages[name] = idx
	return idx, nil
}

// run stores seq in the matcher-indices list, sharing identical runs.
func (b *builder) run(seq []intrinsic.MatcherIndex) (intrinsic.MatcherIndicesIndex, error) {
	var key strings.Builder
	for _, m := range seq {
		key.WriteByte(byte(m))
	}
	if idx, ok := b.runs[key.String()]; ok {
		return idx, nil
	}
	n, err := safecast.Conv[uint32](len(b.data.MatcherIndices))
	if err != nil {
		return intrinsic.InvalidMatcherIndices, err
	}
	idx := intrinsic.MatcherIndicesIndex(n)
	b.data.MatcherIndices = append(b.data.MatcherIndices, seq...)
	b.runs[key.String()] = idx
	return idx, nil
}

func (b *builder) typeMatcher(key string, newMatcher func() intrinsic.TypeMatcher) (intrinsic.MatcherIndex, error) {
	if idx, ok := b.typeKeys[key]; ok {
		return idx, nil
	}
	n, err := safecast.Conv[uint8](len(b.data.TypeMatchers))
	if err != nil {
		return 0, fmt.Errorf("too many type matchers: %w", err)
	}
	idx := intrinsic.MatcherIndex(n)
	b.data.TypeMatchers = append(b.data.TypeMatchers, newMatcher())
	b.typeKeys[key] = idx
	return idx, nil
}

func (b *builder) numMatcher(key string, newMatcher func() intrinsic.NumberMatcher) (intrinsic.MatcherIndex, error) {
	if idx, ok := b.numKeys[key]; ok {
		return idx, nil
	}
	n, err := safecast.Conv[uint8](len(b.data.NumberMatchers))
	if err != nil {
		return 0, fmt.Errorf("too many number matchers: %w", err)
	}
	idx := intrinsic.MatcherIndex(n)
	b.data.NumberMatchers = append(b.data.NumberMatchers, newMatcher())
	b.numKeys[key] = idx
	return idx, nil
}

func arity(e TypeExpr, n int) error {
	if len(e.Args) != n {
		return fmt.Errorf("col %d: %s takes %d template arguments, got %d", e.Col, e.Name, n, len(e.Args))
	}
	return nil
}

// emitType appends the matcher sequence for a type operand.
func (b *builder) emitType(seq []intrinsic.MatcherIndex, e TypeExpr, scope templateScope) ([]intrinsic.MatcherIndex, error) {
	push := func(key string, newMatcher func() intrinsic.TypeMatcher) error {
		idx, err := b.typeMatcher(key, newMatcher)
		seq = append(seq, idx)
		return err
	}
	var err error
	if slot, ok := scope.slots[e.Name]; ok {
		if scope.kinds[e.Name] != intrinsic.TemplateType {
			return nil, fmt.Errorf("col %d: %s is a number template, not a type", e.Col, e.Name)
		}
		if err := arity(e, 0); err != nil {
			return nil, err
		}
		err = push("T:"+strconv.Itoa(slot), func() intrinsic.TypeMatcher { return intrinsic.TemplateTypeMatcher{Slot: slot} })
		return seq, err
	}
	if k, ok := scalarNames[e.Name]; ok {
		if err := arity(e, 0); err != nil {
			return nil, err
		}
		err = push("scalar:"+e.Name, func() intrinsic.TypeMatcher { return intrinsic.ScalarMatcher{Kind: k} })
		return seq, err
	}
	if set, ok := b.typeSets[e.Name]; ok {
		if err := arity(e, 0); err != nil {
			return nil, err
		}
		err = push("set:"+e.Name, func() intrinsic.TypeMatcher { return set })
		return seq, err
	}

	var numArgs, typeArg int
	switch {
	case e.Name == "vec":
		err = push("vec", func() intrinsic.TypeMatcher { return intrinsic.VecMatcher{} })
		numArgs, typeArg = 1, 1
	case len(e.Name) == 4 && strings.HasPrefix(e.Name, "vec") && e.Name[3] >= '2' && e.Name[3] <= '4':
		w := uint32(e.Name[3] - '0')
		err = push(e.Name, func() intrinsic.TypeMatcher { return intrinsic.VecNMatcher{Width: w} })
		typeArg = 1
	case e.Name == "mat":
		err = push("mat", func() intrinsic.TypeMatcher { return intrinsic.MatMatcher{} })
		numArgs, typeArg = 2, 1
	case len(e.Name) == 6 && strings.HasPrefix(e.Name, "mat") && e.Name[4] == 'x' &&
		e.Name[3] >= '2' && e.Name[3] <= '4' && e.Name[5] >= '2' && e.Name[5] <= '4':
		c, r := uint32(e.Name[3]-'0'), uint32(e.Name[5]-'0')
		err = push(e.Name, func() intrinsic.TypeMatcher { return intrinsic.MatCRMatcher{Cols: c, Rows: r} })
		typeArg = 1
	case e.Name == "array":
		err = push("array", func() intrinsic.TypeMatcher { return intrinsic.ArrayMatcher{} })
		typeArg = 1
	case e.Name == "atomic":
		err = push("atomic", func() intrinsic.TypeMatcher { return intrinsic.AtomicMatcher{} })
		typeArg = 1
	case e.Name == "ptr":
		if err := arity(e, 3); err != nil {
			return nil, err
		}
		if err := push("ptr", func() intrinsic.TypeMatcher { return intrinsic.PtrMatcher{} }); err != nil {
			return nil, err
		}
		if seq, err = b.emitNum(seq, e.Args[0], scope); err != nil {
			return nil, err
		}
		if seq, err = b.emitType(seq, e.Args[1], scope); err != nil {
			return nil, err
		}
		return b.emitNum(seq, e.Args[2], scope)
	default:
		return nil, fmt.Errorf("col %d: unknown type %q", e.Col, e.Name)
	}
	if err != nil {
		return nil, err
	}
	if err := arity(e, numArgs+typeArg); err != nil {
		return nil, err
	}
	for _, a := range e.Args[:numArgs] {
		if seq, err = b.emitNum(seq, a, scope); err != nil {
			return nil, err
		}
	}
	return b.emitType(seq, e.Args[numArgs], scope)
}

// emitNum appends the matcher for a number operand.
func (b *builder) emitNum(seq []intrinsic.MatcherIndex, e TypeExpr, scope templateScope) ([]intrinsic.MatcherIndex, error) {
	if err := arity(e, 0); err != nil {
		return nil, err
	}
	var idx intrinsic.MatcherIndex
	var err error
	if slot, ok := scope.slots[e.Name]; ok {
		if scope.kinds[e.Name] != intrinsic.TemplateNumber {
			return nil, fmt.Errorf("col %d: %s is a type template, not a number", e.Col, e.Name)
		}
		idx, err = b.numMatcher("N:"+strconv.Itoa(slot), func() intrinsic.NumberMatcher { return intrinsic.TemplateNumberMatcher{Slot: slot} })
	} else if set, ok := b.numberSets[e.Name]; ok {
		idx, err = b.numMatcher("set:"+e.Name, func() intrinsic.NumberMatcher { return set })
	} else if v, ok := enumValue(e.Name); ok {
		idx, err = b.numMatcher("value:"+e.Name, func() intrinsic.NumberMatcher { return intrinsic.NumberValueMatcher{Value: v, Name: e.Name} })
	} else {
		return nil, fmt.Errorf("col %d: %q is not a number", e.Col, e.Name)
	}
	if err != nil {
		return nil, err
	}
	return append(seq, idx), nil
}

func (b *builder) flatten() error {
	for _, g := range b.groups {
		start, err := safecast.Conv[uint32](len(b.data.Overloads))
		if err != nil {
			return err
		}
		n, err := safecast.Conv[uint32](len(g.overloads))
		if err != nil {
			return err
		}
		b.data.Overloads = append(b.data.Overloads, g.overloads...)
		b.data.Intrinsics = append(b.data.Intrinsics, intrinsic.IntrinsicInfo{
			Name:         g.key.name,
			Kind:         g.key.kind,
			NumOverloads: n,
			Overloads:    intrinsic.OverloadIndex(start),
		})
	}
	return nil
}
