package def

import (
	"fmt"

	"fortio.org/safecast"
)

// cursor is a byte position inside one signature string.
type cursor struct {
	src   string
	Off   uint32
	Limit uint32
}

func newCursor(src string) cursor {
	limit, err := safecast.Conv[uint32](len(src))
	if err != nil {
		panic(fmt.Errorf("signature length overflow: %w", err))
	}
	return cursor{src: src, Limit: limit}
}

// EOF проверяет, достигнут ли конец строки
func (c *cursor) EOF() bool { return c.Off >= c.Limit }

// Peek returns the current byte, or 0 at the end.
func (c *cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.src[c.Off]
}

// Peek2 returns the current and next byte.
func (c *cursor) Peek2() (b0, b1 byte, ok bool) {
	if c.Off+1 >= c.Limit {
		return 0, 0, false
	}
	return c.src[c.Off], c.src[c.Off+1], true
}

// Bump advances by one byte and returns it.
func (c *cursor) Bump() byte {
	if c.EOF() {
		return 0
	}
	b := c.src[c.Off]
	c.Off++
	return b
}

// Eat advances past b if it is the current byte.
func (c *cursor) Eat(b byte) bool {
	if c.Peek() == b {
		c.Off++
		return true
	}
	return false
}

// SkipSpace advances over blanks.
func (c *cursor) SkipSpace() {
	for !c.EOF() {
		switch c.Peek() {
		case ' ', '\t', '\n', '\r':
			c.Off++
		default:
			return
		}
	}
}

// TakeWhile consumes bytes while pred holds and returns them.
func (c *cursor) TakeWhile(pred func(byte) bool) string {
	start := c.Off
	for !c.EOF() && pred(c.Peek()) {
		c.Off++
	}
	return c.src[start:c.Off]
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isOperatorByte(b byte) bool {
	switch b {
	case '+', '-', '*', '/', '%', '!', '~', '&', '|', '^', '<', '>', '=':
		return true
	}
	return false
}
