package def

import (
	"fmt"
	"strconv"
	"strings"
)

// Attribute is an @name or @name("arg") annotation on a signature.
type Attribute struct {
	Name string
	Arg  string
}

// TypeExpr is a type or number operand: a name with optional template
// arguments. Integer literals are names made of digits.
type TypeExpr struct {
	Name string
	Args []TypeExpr
	Col  int
}

func (e TypeExpr) String() string {
	if len(e.Args) == 0 {
		return e.Name
	}
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return e.Name + "<" + strings.Join(parts, ", ") + ">"
}

// IsInteger reports whether the expression is an integer literal.
func (e TypeExpr) IsInteger() bool {
	_, err := strconv.ParseUint(e.Name, 10, 32)
	return err == nil && len(e.Args) == 0
}

// TemplateDecl declares a template: T, T: constraint, or N: num.
type TemplateDecl struct {
	Name       string
	Constraint *TypeExpr
	Col        int
}

// Param is one formal parameter.
type Param struct {
	Usage string
	Type  TypeExpr
}

// Signature is one parsed overload line.
type Signature struct {
	Attributes []Attribute
	Keyword    string // fn, op, ctor or conv
	Name       string
	Explicit   []TemplateDecl
	Implicit   []TemplateDecl
	Params     []Param
	Return     *TypeExpr
}

// Attr returns the attribute called name.
func (s *Signature) Attr(name string) (Attribute, bool) {
	for _, a := range s.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// SyntaxError locates a problem inside a signature string.
type SyntaxError struct {
	Source string
	Col    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("col %d: %s in %q", e.Col, e.Msg, e.Source)
}

type sigParser struct {
	c cursor
}

// ParseSignature parses one overload line:
//
//	@must_use @const fn clamp[T: fia_fiu32_f16](e: T, low: T, high: T) -> T
func ParseSignature(src string) (*Signature, error) {
	p := &sigParser{c: newCursor(src)}
	return p.parse()
}

func (p *sigParser) errorf(format string, args ...any) error {
	return &SyntaxError{Source: p.c.src, Col: int(p.c.Off) + 1, Msg: fmt.Sprintf(format, args...)}
}

func (p *sigParser) ident() (string, error) {
	p.c.SkipSpace()
	if !isIdentStart(p.c.Peek()) {
		return "", p.errorf("expected identifier")
	}
	return p.c.TakeWhile(isIdentByte), nil
}

func (p *sigParser) expect(b byte) error {
	p.c.SkipSpace()
	if !p.c.Eat(b) {
		if p.c.EOF() {
			return p.errorf("expected %q, found end of signature", b)
		}
		return p.errorf("expected %q, found %q", b, p.c.Peek())
	}
	return nil
}

func (p *sigParser) accept(b byte) bool {
	p.c.SkipSpace()
	return p.c.Eat(b)
}

func (p *sigParser) parse() (*Signature, error) {
	sig := &Signature{}
	for p.accept('@') {
		attr, err := p.attribute()
		if err != nil {
			return nil, err
		}
		sig.Attributes = append(sig.Attributes, attr)
	}

	kw, err := p.ident()
	if err != nil {
		return nil, err
	}
	switch kw {
	case "fn", "ctor", "conv":
		if sig.Name, err = p.ident(); err != nil {
			return nil, err
		}
	case "op":
		p.c.SkipSpace()
		sig.Name = p.c.TakeWhile(isOperatorByte)
		if sig.Name == "" {
			return nil, p.errorf("expected operator")
		}
	default:
		return nil, p.errorf("expected fn, op, ctor or conv, found %q", kw)
	}
	sig.Keyword = kw

	if p.accept('<') {
		if sig.Explicit, err = p.templates('>'); err != nil {
			return nil, err
		}
	}
	if p.accept('[') {
		if sig.Implicit, err = p.templates(']'); err != nil {
			return nil, err
		}
	}

	if err := p.expect('('); err != nil {
		return nil, err
	}
	if !p.accept(')') {
		for {
			param, err := p.param()
			if err != nil {
				return nil, err
			}
			sig.Params = append(sig.Params, param)
			if p.accept(')') {
				break
			}
			if err := p.expect(','); err != nil {
				return nil, err
			}
		}
	}

	p.c.SkipSpace()
	if b0, b1, ok := p.c.Peek2(); ok && b0 == '-' && b1 == '>' {
		p.c.Off += 2
		ret, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		sig.Return = &ret
	}
	p.c.SkipSpace()
	if !p.c.EOF() {
		return nil, p.errorf("unexpected %q after signature", p.c.Peek())
	}
	return sig, nil
}

func (p *sigParser) attribute() (Attribute, error) {
	name, err := p.ident()
	if err != nil {
		return Attribute{}, err
	}
	attr := Attribute{Name: name}
	if p.c.Peek() != '(' {
		return attr, nil
	}
	p.c.Bump()
	if err := p.expect('"'); err != nil {
		return Attribute{}, err
	}
	attr.Arg = p.c.TakeWhile(func(b byte) bool { return b != '"' })
	if !p.c.Eat('"') {
		return Attribute{}, p.errorf("unterminated attribute argument")
	}
	if err := p.expect(')'); err != nil {
		return Attribute{}, err
	}
	return attr, nil
}

func (p *sigParser) templates(closer byte) ([]TemplateDecl, error) {
	var out []TemplateDecl
	for {
		p.c.SkipSpace()
		col := int(p.c.Off) + 1
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		decl := TemplateDecl{Name: name, Col: col}
		if p.accept(':') {
			constraint, err := p.typeExpr()
			if err != nil {
				return nil, err
			}
			decl.Constraint = &constraint
		}
		out = append(out, decl)
		if p.accept(closer) {
			return out, nil
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
	}
}

func (p *sigParser) param() (Param, error) {
	p.c.SkipSpace()
	save := p.c.Off
	if isIdentStart(p.c.Peek()) {
		name := p.c.TakeWhile(isIdentByte)
		if p.accept(':') {
			ty, err := p.typeExpr()
			return Param{Usage: name, Type: ty}, err
		}
		p.c.Off = save
	}
	ty, err := p.typeExpr()
	return Param{Type: ty}, err
}

func (p *sigParser) typeExpr() (TypeExpr, error) {
	p.c.SkipSpace()
	expr := TypeExpr{Col: int(p.c.Off) + 1}
	switch b := p.c.Peek(); {
	case isDigit(b):
		expr.Name = p.c.TakeWhile(isDigit)
		return expr, nil
	case isIdentStart(b):
		expr.Name = p.c.TakeWhile(isIdentByte)
	default:
		return expr, p.errorf("expected type")
	}
	if !p.accept('<') {
		return expr, nil
	}
	for {
		arg, err := p.typeExpr()
		if err != nil {
			return expr, err
		}
		expr.Args = append(expr.Args, arg)
		if p.accept('>') {
			return expr, nil
		}
		if err := p.expect(','); err != nil {
			return expr, err
		}
	}
}
