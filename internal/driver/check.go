package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shadec/internal/consteval"
	"shadec/internal/diag"
	"shadec/internal/dialect"
	"shadec/internal/intrinsic"
	"shadec/internal/observ"
	"shadec/internal/trace"
	"shadec/internal/types"
)

// Options configures Check.
type Options struct {
	// Dialect overrides the manifest's dialect. "auto" picks the dialect
	// from the names the calls use.
	Dialect string
	// Stage is the default evaluation stage for calls and manifests that do
	// not name one.
	Stage string
	// Jobs limits parallel resolution; 0 means GOMAXPROCS.
	Jobs int
	// ConstEval folds constant calls through their const-eval functions.
	ConstEval      bool
	MaxDiagnostics int
	Cache          *DiskCache
	Timer          *observ.Timer
}

// Check resolves every call of m. Problems with individual calls become
// diagnostics in the report; the error is reserved for failures that stop
// the whole batch (unknown dialect, cancellation).
func Check(ctx context.Context, m *Manifest, opts Options) (*Report, error) {
	tracer := trace.FromContext(ctx)
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "check "+m.Path)
	timer := opts.Timer
	if timer == nil {
		timer = observ.NewTimer()
	}

	endDialect := timer.Track("dialect")
	kind, evidence, err := selectDialect(m, opts.Dialect)
	if err != nil {
		endDialect("")
		span.End(err.Error())
		return nil, err
	}
	table, err := dialect.LoadContext(ctx, kind)
	if err != nil {
		endDialect("")
		span.End(err.Error())
		return nil, err
	}
	endDialect(kind.String())

	var key Digest
	if opts.Cache != nil {
		key = ReportKey(m, kind, opts)
		var cached Report
		ok, err := opts.Cache.Get(key, &cached)
		switch {
		case err != nil:
			Logger().Warn("report cache read failed", zap.String("manifest", m.Path), zap.Error(err))
		case ok && cached.Schema == reportSchema:
			cached.Cached = true
			cached.Manifest = m.Path
			cached.Timings = timer.Report()
			span.WithExtra("cached", "true").End("")
			return &cached, nil
		}
	}

	// pending[0] holds manifest-level diagnostics, pending[i+1] those of call i.
	pending := make([][]diag.Diagnostic, len(m.Calls)+1)
	c := &checker{
		m:        m,
		opts:     opts,
		table:    table,
		in:       types.NewInterner(),
		evidence: evidence,
		reporter: collectInto(&pending[0]),
	}
	c.resolver = intrinsic.NewResolver(table, c.in, tracer)
	if len(m.Calls) == 0 {
		diag.ReportWarning(c.reporter, diag.ManEmptyCallSet, diag.Location{File: m.Path}, "manifest has no calls").Emit()
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Каждая горутина пишет только в свой индекс, мьютекс не нужен.
	results := make([]CallResult, len(m.Calls))
	endResolve := timer.Track("resolve")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(m.Calls))))
	for i := range m.Calls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w := *c
			w.reporter = collectInto(&pending[i+1])
			results[i] = w.check(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		endResolve("cancelled")
		span.End(err.Error())
		return nil, err
	}
	endResolve(strconv.Itoa(len(m.Calls)) + " calls")

	bag := mergeDiagnostics(pending, opts.MaxDiagnostics)
	report := &Report{
		Schema:      reportSchema,
		Manifest:    m.Path,
		Dialect:     kind.String(),
		Results:     results,
		Diagnostics: bag.Items(),
		Dropped:     bag.Dropped(),
	}
	if opts.Cache != nil {
		if err := opts.Cache.Put(key, report); err != nil {
			Logger().Warn("report cache write failed", zap.String("manifest", m.Path), zap.Error(err))
		}
	}
	report.Timings = timer.Report()

	Logger().Info("checked manifest",
		zap.String("manifest", m.Path),
		zap.String("dialect", report.Dialect),
		zap.Int("calls", len(results)),
		zap.Int("failed", len(results)-report.Count(StatusOK)),
		zap.Int("diagnostics", len(report.Diagnostics)),
	)
	span.WithExtra("calls", strconv.Itoa(len(results))).End("")
	return report, nil
}

// selectDialect returns the dialect a manifest runs against, plus the
// evidence of extension-only names among its calls.
func selectDialect(m *Manifest, override string) (dialect.Kind, *dialect.Evidence, error) {
	core, err := dialect.Load(dialect.Core)
	if err != nil {
		return 0, nil, err
	}
	ev := dialect.NewEvidence()
	for i, cs := range m.Calls {
		kind, err := callKind(core, cs)
		if err != nil || cs.Name == "" {
			continue
		}
		if err := ev.Observe(i, kind, cs.Name); err != nil {
			return 0, nil, err
		}
	}

	name := override
	if name == "" {
		name = m.Dialect
	}
	if name == "" || strings.EqualFold(name, "auto") {
		cls := dialect.Classifier{}.Classify(ev)
		Logger().Debug("dialect detected",
			zap.String("manifest", m.Path),
			zap.Stringer("dialect", cls.Kind),
			zap.Int("hints", cls.Total),
		)
		return cls.Kind, ev, nil
	}
	k, err := dialect.ParseKind(name)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", m.Path, err)
	}
	return k, ev, nil
}

func isOperatorName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '+', '-', '*', '/', '%', '!', '~', '&', '|', '^', '<', '>', '=':
		default:
			return false
		}
	}
	return true
}

// callKind returns the namespace of a call: the explicit kind when given,
// otherwise unary or binary for operator names, ctor_conv for names the
// table knows as constructors and builtin for the rest.
func callKind(t *intrinsic.Table, cs CallSpec) (intrinsic.Kind, error) {
	if cs.Kind != "" {
		k, ok := intrinsic.ParseKind(cs.Kind)
		if !ok {
			return 0, fmt.Errorf("unknown call kind %q", cs.Kind)
		}
		return k, nil
	}
	if isOperatorName(cs.Name) {
		if len(cs.Args) == 1 {
			return intrinsic.KindUnaryOperator, nil
		}
		return intrinsic.KindBinaryOperator, nil
	}
	if _, ok := t.Find(intrinsic.KindCtorConv, cs.Name); ok {
		return intrinsic.KindCtorConv, nil
	}
	return intrinsic.KindBuiltin, nil
}

func parsePipeline(s string) (intrinsic.OverloadFlags, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "vertex":
		return intrinsic.FlagSupportsVertexPipeline, nil
	case "fragment":
		return intrinsic.FlagSupportsFragmentPipeline, nil
	case "compute":
		return intrinsic.FlagSupportsComputePipeline, nil
	}
	return 0, fmt.Errorf("unknown pipeline stage %q", s)
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

func collectInto(dst *[]diag.Diagnostic) diag.Reporter {
	return diag.ReporterFunc(func(d diag.Diagnostic) { *dst = append(*dst, d) })
}

// mergeDiagnostics joins per-call diagnostics in call order, sorts them and
// only then applies the limit, so the kept set does not depend on which
// worker finished first.
func mergeDiagnostics(pending [][]diag.Diagnostic, limit int) *diag.Bag {
	all := slices.Concat(pending...)
	slices.SortStableFunc(all, diag.Compare)
	bag := diag.NewBag(limit)
	r := diag.NewDedupReporter(bag)
	for _, d := range all {
		r.Report(d)
	}
	return bag
}

type checker struct {
	m        *Manifest
	opts     Options
	table    *intrinsic.Table
	in       *types.Interner
	resolver *intrinsic.Resolver
	evidence *dialect.Evidence
	reporter diag.Reporter
}

// stage picks the evaluation stage of a call. Without an explicit stage a
// call whose arguments are all literals is a constant expression; calls
// with no arguments or any non-constant argument run at runtime.
func (c *checker) stage(cs CallSpec, args []intrinsic.Arg) (intrinsic.EvaluationStage, error) {
	name := firstNonEmpty(cs.Stage, c.m.Stage, c.opts.Stage)
	if name == "" || strings.EqualFold(name, "auto") {
		if len(args) == 0 {
			return intrinsic.EvalRuntime, nil
		}
		for _, a := range args {
			if a.Value == nil {
				return intrinsic.EvalRuntime, nil
			}
		}
		return intrinsic.EvalConstant, nil
	}
	s, ok := intrinsic.ParseEvaluationStage(name)
	if !ok {
		return 0, fmt.Errorf("unknown evaluation stage %q", name)
	}
	return s, nil
}

func (c *checker) check(i int) CallResult {
	cs := c.m.Calls[i]
	loc := c.m.Location(i)
	res := CallResult{Index: i, Location: loc, Name: cs.Name}
	invalid := func(code diag.Code, err error) CallResult {
		res.Status = StatusInvalid
		res.Error = err.Error()
		diag.ReportError(c.reporter, code, loc, err.Error()).Emit()
		return res
	}

	if cs.Name == "" {
		return invalid(diag.ManMissingName, errors.New("call has no name"))
	}
	kind, err := callKind(c.table, cs)
	if err != nil {
		return invalid(diag.ManBadKind, err)
	}
	res.Kind = kind.String()

	args := make([]intrinsic.Arg, len(cs.Args))
	labels := make([]string, len(cs.Args))
	for j, text := range cs.Args {
		a, err := ParseArg(c.in, text)
		if err != nil {
			code := diag.SemaBadType
			if errors.Is(err, ErrBadLiteral) {
				code = diag.ManBadLiteral
			}
			return invalid(code, fmt.Errorf("argument %d: %w", j+1, err))
		}
		args[j] = a
		labels[j] = types.Label(c.in, a.Type)
	}
	tmpl := make([]types.TypeID, len(cs.TemplateArgs))
	tmplLabels := make([]string, len(cs.TemplateArgs))
	for j, text := range cs.TemplateArgs {
		ty, err := types.Parse(c.in, text)
		if err != nil {
			return invalid(diag.SemaBadType, fmt.Errorf("template argument %d: %w", j+1, err))
		}
		tmpl[j] = ty
		tmplLabels[j] = types.Label(c.in, ty)
	}
	res.Call = intrinsic.PrintCall(labels, cs.Name, tmplLabels).String()

	stage, err := c.stage(cs, args)
	if err != nil {
		return invalid(diag.ManBadStage, err)
	}
	res.Stage = stage.String()
	pipeline, err := parsePipeline(firstNonEmpty(cs.Pipeline, c.m.Pipeline))
	if err != nil {
		return invalid(diag.ManBadPipeline, err)
	}

	call := intrinsic.Call{Args: args, TemplateArgs: tmpl, Stage: stage}
	o, err := c.resolver.Lookup(kind, cs.Name, call)
	if err != nil {
		c.reportLookupError(i, &res, err)
		c.checkExpect(cs, &res, types.NoTypeID)
		Logger().Debug("call rejected", zap.String("call", res.Call), zap.Stringer("status", res.Status))
		return res
	}

	res.Status = StatusOK
	res.Signature = intrinsic.PrintOverload(c.table.Data(), o.Info, o.Name).String()
	res.ReturnType = types.Label(c.in, o.ReturnType)
	res.Ranks = o.Ranks
	res.Flags = o.Flags().String()
	res.ConstEval = o.ConstEvalName
	res.Parameters = make([]string, len(o.Parameters))
	for j, p := range o.Parameters {
		if p.Usage != "" {
			res.Parameters[j] = p.Usage + ": " + types.Label(c.in, p.Type)
		} else {
			res.Parameters[j] = types.Label(c.in, p.Type)
		}
	}

	flags := o.Flags()
	if flags.Has(intrinsic.FlagIsDeprecated) {
		diag.ReportWarning(c.reporter, diag.SemaDeprecated, loc, cs.Name+" is deprecated").Emit()
	}
	if pipeline != 0 && !flags.Has(pipeline) {
		diag.ReportError(c.reporter, diag.SemaPipelineStage, loc,
			fmt.Sprintf("%s is not available in the %s pipeline stage", cs.Name, firstNonEmpty(cs.Pipeline, c.m.Pipeline))).Emit()
	}
	if cs.Discard && flags.Has(intrinsic.FlagMustUse) {
		diag.ReportWarning(c.reporter, diag.SemaUnusedResult, loc, "result of "+cs.Name+" must be used").Emit()
	}
	if c.opts.ConstEval && stage == intrinsic.EvalConstant && o.ConstEval != nil {
		c.fold(loc, &res, o, args)
	}
	c.checkExpect(cs, &res, o.ReturnType)
	Logger().Debug("call resolved", zap.String("call", res.Call), zap.String("returns", res.ReturnType))
	return res
}

// fold evaluates a constant call. Arguments are materialised to the
// selected parameter types first.
func (c *checker) fold(loc diag.Location, res *CallResult, o intrinsic.Overload, args []intrinsic.Arg) {
	vals := make([]consteval.Value, len(args))
	for j, a := range args {
		if a.Value == nil {
			return
		}
		v, err := consteval.Materialize(c.in, *a.Value, o.Parameters[j].Type)
		if err != nil {
			diag.ReportError(c.reporter, diag.SemaConstEval, loc,
				fmt.Sprintf("argument %d of %s: %v", j+1, res.Call, err)).Emit()
			return
		}
		vals[j] = v
	}
	v, err := o.ConstEval(c.in, o.ReturnType, vals)
	if err != nil {
		diag.ReportError(c.reporter, diag.SemaConstEval, loc,
			fmt.Sprintf("constant evaluation of %s failed: %v", res.Call, err)).Emit()
		return
	}
	res.Value = consteval.Format(c.in, v)
}

func headline(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}
	return msg
}

func candidateNote(cand intrinsic.Candidate) string {
	sig := cand.Signature.String()
	if cand.Note == "" {
		return sig
	}
	return sig + ": " + cand.Note
}

func (c *checker) reportLookupError(i int, res *CallResult, err error) {
	loc := res.Location
	res.Error = err.Error()

	var noMatch *intrinsic.NoMatchError
	var ambiguous *intrinsic.AmbiguousError
	switch {
	case errors.As(err, &noMatch):
		res.Status = StatusNoMatch
		rb := diag.ReportError(c.reporter, diag.SemaNoOverload, loc, headline(err))
		for _, cand := range noMatch.Candidates {
			rb.WithNote(diag.Location{}, candidateNote(cand))
		}
		rb.Emit()
	case errors.As(err, &ambiguous):
		res.Status = StatusAmbiguous
		rb := diag.ReportError(c.reporter, diag.SemaAmbiguousOverload, loc, headline(err))
		for _, cand := range ambiguous.Candidates {
			rb.WithNote(diag.Location{}, candidateNote(cand))
		}
		rb.Emit()
	default:
		res.Status = StatusUnknown
		rb := diag.ReportError(c.reporter, diag.SemaUnknownIntrinsic, loc, headline(err))
		for _, h := range c.evidence.Hints() {
			if h.Index == i && h.Dialect.String() != c.table.Name() {
				rb.WithNote(diag.Location{}, h.Reason+"; set dialect: "+h.Dialect.String())
			}
		}
		rb.Emit()
	}
}

func (c *checker) checkExpect(cs CallSpec, res *CallResult, ret types.TypeID) {
	want := cs.Expect
	if want == "" {
		return
	}
	mismatch := func(got string) {
		diag.ReportError(c.reporter, diag.SemaUnexpectedResult, res.Location,
			fmt.Sprintf("%s: expected %s, got %s", res.Call, want, got)).Emit()
	}
	switch want {
	case StatusNoMatch.String(), StatusAmbiguous.String(), StatusUnknown.String():
		if res.Status.String() != want {
			mismatch(res.Status.String())
		}
		return
	}
	if res.Status != StatusOK {
		mismatch(res.Status.String())
		return
	}
	ty, err := types.Parse(c.in, want)
	if err != nil {
		diag.ReportError(c.reporter, diag.SemaBadType, res.Location, fmt.Sprintf("expect: %v", err)).Emit()
		return
	}
	if ty != ret {
		mismatch(res.ReturnType)
	}
}
