package intrinsic

import "strconv"

type numberState uint8

const (
	numberInvalid numberState = iota
	numberValid
	numberAny
)

// Number is an integer-valued matcher operand: a vector width, an address
// space, an access mode. It is Invalid, a concrete value, or Any.
type Number struct {
	state numberState
	value uint32
}

var (
	// NumberInvalid signals a failed number match.
	NumberInvalid = Number{}
	// NumberAny matches every valid number.
	NumberAny = Number{state: numberAny}
)

// NumberOf returns the concrete number v.
func NumberOf(v uint32) Number {
	return Number{state: numberValid, value: v}
}

// IsValid reports whether n is not Invalid. Any is valid.
func (n Number) IsValid() bool { return n.state != numberInvalid }

// IsAny reports whether n is the wildcard.
func (n Number) IsAny() bool { return n.state == numberAny }

// IsValue reports whether n holds a concrete value.
func (n Number) IsValue() bool { return n.state == numberValid }

// Value returns the concrete value, or 0 for Invalid and Any.
func (n Number) Value() uint32 {
	if n.state != numberValid {
		return 0
	}
	return n.value
}

func (n Number) String() string {
	switch n.state {
	case numberValid:
		return strconv.FormatUint(uint64(n.value), 10)
	case numberAny:
		return "any"
	}
	return "invalid"
}
