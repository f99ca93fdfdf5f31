package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedType is returned by Parse for text that is not a type name.
var ErrMalformedType = errors.New("malformed type")

// Parse interns the type spelled by text, e.g. "vec3<f32>", "mat2x2f",
// "ptr<storage, array<u32>, read>" or "abstract-int".
func Parse(in *Interner, text string) (TypeID, error) {
	p := typeParser{in: in, src: text}
	id, err := p.parseType()
	if err != nil {
		return NoTypeID, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return NoTypeID, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return id, nil
}

type typeParser struct {
	in  *Interner
	src string
	pos int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w %q: %s", ErrMalformedType, p.src, fmt.Sprintf(format, args...))
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b == '-' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func (p *typeParser) word() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isWordByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) accept(b byte) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == b {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) expect(b byte) error {
	if !p.accept(b) {
		return p.errorf("expected %q", b)
	}
	return nil
}

var scalarNames = map[string]Kind{
	"bool":               KindBool,
	"i32":                KindI32,
	"u32":                KindU32,
	"f32":                KindF32,
	"f16":                KindF16,
	"abstract-int":       KindAbstractInt,
	"abstract-float":     KindAbstractFloat,
	"void":               KindVoid,
	"sampler":            KindSampler,
	"sampler_comparison": KindComparisonSampler,
}

var shorthandSuffix = map[byte]Kind{
	'f': KindF32,
	'h': KindF16,
	'i': KindI32,
	'u': KindU32,
}

func (p *typeParser) parseType() (TypeID, error) {
	name := p.word()
	if name == "" {
		return NoTypeID, p.errorf("expected type name")
	}
	if k, ok := scalarNames[name]; ok {
		return p.in.Scalar(k), nil
	}
	switch {
	case name == "array":
		return p.parseArray()
	case name == "atomic":
		elem, err := p.parseSingleArg()
		if err != nil {
			return NoTypeID, err
		}
		return p.in.Atomic(elem), nil
	case name == "ptr":
		return p.parsePointer()
	case strings.HasPrefix(name, "vec"):
		return p.parseVector(name)
	case strings.HasPrefix(name, "mat"):
		return p.parseMatrix(name)
	}
	return NoTypeID, p.errorf("unknown type %q", name)
}

func (p *typeParser) parseSingleArg() (TypeID, error) {
	if err := p.expect('<'); err != nil {
		return NoTypeID, err
	}
	elem, err := p.parseType()
	if err != nil {
		return NoTypeID, err
	}
	if err := p.expect('>'); err != nil {
		return NoTypeID, err
	}
	return elem, nil
}

// elemFor resolves the element of vecN/matCxR, either from a shorthand suffix
// or from a <T> argument list.
func (p *typeParser) elemFor(suffix string) (TypeID, error) {
	switch len(suffix) {
	case 0:
		return p.parseSingleArg()
	case 1:
		if k, ok := shorthandSuffix[suffix[0]]; ok {
			return p.in.Scalar(k), nil
		}
	}
	return NoTypeID, p.errorf("bad element suffix %q", suffix)
}

func dimension(b byte) (uint32, bool) {
	if b < '2' || b > '4' {
		return 0, false
	}
	return uint32(b - '0'), true
}

func (p *typeParser) parseVector(name string) (TypeID, error) {
	rest := name[len("vec"):]
	if rest == "" {
		return NoTypeID, p.errorf("vector needs a width")
	}
	width, ok := dimension(rest[0])
	if !ok {
		return NoTypeID, p.errorf("bad vector width in %q", name)
	}
	elem, err := p.elemFor(rest[1:])
	if err != nil {
		return NoTypeID, err
	}
	return p.in.Vec(width, elem), nil
}

func (p *typeParser) parseMatrix(name string) (TypeID, error) {
	rest := name[len("mat"):]
	if len(rest) < 3 || rest[1] != 'x' {
		return NoTypeID, p.errorf("bad matrix shape in %q", name)
	}
	cols, okC := dimension(rest[0])
	rows, okR := dimension(rest[2])
	if !okC || !okR {
		return NoTypeID, p.errorf("bad matrix shape in %q", name)
	}
	elem, err := p.elemFor(rest[3:])
	if err != nil {
		return NoTypeID, err
	}
	return p.in.Mat(cols, rows, elem), nil
}

func (p *typeParser) parseArray() (TypeID, error) {
	if err := p.expect('<'); err != nil {
		return NoTypeID, err
	}
	elem, err := p.parseType()
	if err != nil {
		return NoTypeID, err
	}
	if p.accept(',') {
		lit := p.word()
		n, convErr := strconv.ParseUint(strings.TrimSuffix(lit, "u"), 10, 32)
		if convErr != nil || n == 0 {
			return NoTypeID, p.errorf("bad array length %q", lit)
		}
		if err := p.expect('>'); err != nil {
			return NoTypeID, err
		}
		return p.in.Array(elem, uint32(n)), nil
	}
	if err := p.expect('>'); err != nil {
		return NoTypeID, err
	}
	return p.in.RuntimeArray(elem), nil
}

func (p *typeParser) parsePointer() (TypeID, error) {
	if err := p.expect('<'); err != nil {
		return NoTypeID, err
	}
	spaceName := p.word()
	space, ok := ParseAddressSpace(spaceName)
	if !ok {
		return NoTypeID, p.errorf("unknown address space %q", spaceName)
	}
	if err := p.expect(','); err != nil {
		return NoTypeID, err
	}
	elem, err := p.parseType()
	if err != nil {
		return NoTypeID, err
	}
	access := DefaultAccess(space)
	if p.accept(',') {
		accessName := p.word()
		if access, ok = ParseAccess(accessName); !ok {
			return NoTypeID, p.errorf("unknown access mode %q", accessName)
		}
	}
	if err := p.expect('>'); err != nil {
		return NoTypeID, err
	}
	return p.in.Pointer(space, elem, access), nil
}
