package intrinsic

import (
	"shadec/internal/styled"
)

func printState(d *TableData, o *OverloadInfo, run MatcherIndicesIndex) *MatchState {
	return newMatchState(nil, nil, d, o, EvalRuntime, run)
}

// PrintOverload renders the signature of o as written in a table definition:
//
//	clamp(e: T, low: T, high: T) -> T  where: T is abstract-int, ... or f16
func PrintOverload(d *TableData, o *OverloadInfo, name string) *styled.Text {
	out := &styled.Text{}
	out.Code(name)
	if o.NumExplicitTemplates > 0 {
		out.Code("<")
		for i := range int(o.NumExplicitTemplates) {
			if i > 0 {
				out.Code(", ")
			}
			printTemplateName(out, d.Template(o.Templates+TemplateIndex(i)))
		}
		out.Code(">")
	}
	out.Code("(")
	for i := range int(o.NumParameters) {
		if i > 0 {
			out.Code(", ")
		}
		p := d.Parameter(o.Parameters + ParameterIndex(i))
		if p.Usage.IsValid() {
			out.Variable(d.Usage(p.Usage))
			out.Code(": ")
		}
		printState(d, o, p.MatcherIndices).PrintType(out)
	}
	out.Code(")")
	if o.ReturnMatcherIndices.IsValid() {
		out.Code(" -> ")
		printState(d, o, o.ReturnMatcherIndices).PrintType(out)
	}

	first := true
	for i := range int(o.NumTemplates) {
		tmpl := d.Template(o.Templates + TemplateIndex(i))
		if !tmpl.MatcherIndices.IsValid() {
			continue
		}
		if first {
			out.Plain("  where: ")
			first = false
		} else {
			out.Plain(", ")
		}
		out.Append(PrintTemplateConstraint(d, o, i))
	}
	return out
}

func printTemplateName(out *styled.Text, t *TemplateInfo) {
	if t.Kind == TemplateNumber {
		out.Variable(t.Name)
		return
	}
	out.Type(t.Name)
}

// PrintParameter renders the matcher of parameter idx of o.
func PrintParameter(d *TableData, o *OverloadInfo, idx int) *styled.Text {
	out := &styled.Text{}
	p := d.Parameter(o.Parameters + ParameterIndex(idx))
	printState(d, o, p.MatcherIndices).PrintType(out)
	return out
}

// PrintTemplateConstraint renders "T is <constraint>" for template idx of o.
// Unconstrained templates render as their bare name.
func PrintTemplateConstraint(d *TableData, o *OverloadInfo, idx int) *styled.Text {
	out := &styled.Text{}
	tmpl := d.Template(o.Templates + TemplateIndex(idx))
	printTemplateName(out, tmpl)
	if !tmpl.MatcherIndices.IsValid() {
		return out
	}
	out.Plain(" is ")
	s := printState(d, o, tmpl.MatcherIndices)
	if tmpl.Kind == TemplateNumber {
		s.PrintNum(out)
	} else {
		s.PrintType(out)
	}
	return out
}

// PrintCall renders name(arg, ...) with the labels of the argument types.
func PrintCall(labels []string, name string, templateArgs []string) *styled.Text {
	out := &styled.Text{}
	out.Code(name)
	if len(templateArgs) > 0 {
		out.Code("<")
		for i, l := range templateArgs {
			if i > 0 {
				out.Code(", ")
			}
			out.Type(l)
		}
		out.Code(">")
	}
	out.Code("(")
	for i, l := range labels {
		if i > 0 {
			out.Code(", ")
		}
		out.Type(l)
	}
	out.Code(")")
	return out
}
