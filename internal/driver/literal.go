package driver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"shadec/internal/consteval"
	"shadec/internal/intrinsic"
	"shadec/internal/types"
)

var (
	ErrBadLiteral = errors.New("malformed literal")
	ErrBadType    = errors.New("malformed type")
)

// IsLiteral reports whether text is spelled as a literal rather than a type.
func IsLiteral(text string) bool {
	text = strings.TrimSpace(text)
	if text == "true" || text == "false" {
		return true
	}
	if text == "" {
		return false
	}
	switch c := text[0]; {
	case c >= '0' && c <= '9', c == '-', c == '+', c == '.':
		return true
	}
	return false
}

// ParseArg turns an argument string into a call argument. Literals carry a
// constant value:
//
//	1, 0x10    abstract-int
//	1.5, 2e3   abstract-float
//	2i, 3u     i32, u32
//	1.0f, 1h   f32, f16
//	true       bool
//
// Anything else is parsed as a type name and carries no value.
func ParseArg(in *types.Interner, text string) (intrinsic.Arg, error) {
	text = strings.TrimSpace(text)
	if !IsLiteral(text) {
		ty, err := types.Parse(in, text)
		if err != nil {
			return intrinsic.Arg{}, fmt.Errorf("%w: %w", ErrBadType, err)
		}
		return intrinsic.Arg{Type: ty}, nil
	}
	v, err := ParseLiteral(in, text)
	if err != nil {
		return intrinsic.Arg{}, err
	}
	return intrinsic.Arg{Type: v.Type, Value: &v}, nil
}

// ParseLiteral parses a scalar literal.
func ParseLiteral(in *types.Interner, text string) (consteval.Value, error) {
	bi := in.Builtins()
	switch text {
	case "true":
		return consteval.BoolValue(in, true), nil
	case "false":
		return consteval.BoolValue(in, false), nil
	}

	body, suffix := splitSuffix(text)
	hex := isHex(body)
	float := suffix == 'f' || suffix == 'h' || (!hex && strings.ContainsAny(body, ".eE"))

	var v consteval.Value
	if float {
		f, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return consteval.Value{}, fmt.Errorf("%w %q", ErrBadLiteral, text)
		}
		v = consteval.FloatValue(bi.AbstractFloat, f)
	} else {
		n, err := strconv.ParseInt(body, 0, 64)
		if err != nil {
			return consteval.Value{}, fmt.Errorf("%w %q", ErrBadLiteral, text)
		}
		v = consteval.IntValue(bi.AbstractInt, n)
	}

	var target types.TypeID
	switch suffix {
	case 0:
		return v, nil
	case 'i':
		target = bi.I32
	case 'u':
		target = bi.U32
	case 'f':
		target = bi.F32
	case 'h':
		target = bi.F16
	}
	if float && (suffix == 'i' || suffix == 'u') {
		return consteval.Value{}, fmt.Errorf("%w %q: integer suffix on a float", ErrBadLiteral, text)
	}
	out, err := consteval.Materialize(in, v, target)
	if err != nil {
		return consteval.Value{}, fmt.Errorf("%w %q: %w", ErrBadLiteral, text, err)
	}
	return out, nil
}

func isHex(body string) bool {
	body = strings.TrimLeft(body, "+-")
	return strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X")
}

// splitSuffix separates a type suffix from a numeric literal. Hex digits
// never count as the f suffix.
func splitSuffix(text string) (string, byte) {
	if len(text) < 2 {
		return text, 0
	}
	last := text[len(text)-1]
	switch last {
	case 'i', 'u':
		return text[:len(text)-1], last
	case 'f', 'h':
		if isHex(text) {
			return text, 0
		}
		return text[:len(text)-1], last
	}
	return text, 0
}
