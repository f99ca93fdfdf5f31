package types

import (
	"strconv"
	"strings"
)

// Label returns the WGSL spelling of a TypeID.
func Label(in *Interner, id TypeID) string {
	var b strings.Builder
	writeLabel(&b, in, id, 0)
	return b.String()
}

func writeLabel(b *strings.Builder, in *Interner, id TypeID, depth int) {
	if id == NoTypeID || in == nil {
		b.WriteByte('?')
		return
	}
	if depth > 8 {
		b.WriteString("...")
		return
	}
	tt, ok := in.Lookup(id)
	if !ok {
		b.WriteByte('?')
		return
	}
	switch tt.Kind {
	case KindVector:
		b.WriteString("vec")
		b.WriteString(strconv.FormatUint(uint64(tt.Count), 10))
		b.WriteByte('<')
		writeLabel(b, in, tt.Elem, depth+1)
		b.WriteByte('>')
	case KindMatrix:
		b.WriteString("mat")
		b.WriteString(strconv.FormatUint(uint64(tt.Count), 10))
		b.WriteByte('x')
		b.WriteString(strconv.FormatUint(uint64(tt.Rows), 10))
		b.WriteByte('<')
		writeLabel(b, in, tt.Elem, depth+1)
		b.WriteByte('>')
	case KindArray:
		b.WriteString("array<")
		writeLabel(b, in, tt.Elem, depth+1)
		if tt.Count != ArrayRuntimeLength {
			b.WriteString(", ")
			b.WriteString(strconv.FormatUint(uint64(tt.Count), 10))
		}
		b.WriteByte('>')
	case KindAtomic:
		b.WriteString("atomic<")
		writeLabel(b, in, tt.Elem, depth+1)
		b.WriteByte('>')
	case KindPointer:
		b.WriteString("ptr<")
		b.WriteString(tt.Space.String())
		b.WriteString(", ")
		writeLabel(b, in, tt.Elem, depth+1)
		b.WriteString(", ")
		b.WriteString(tt.Access.String())
		b.WriteByte('>')
	default:
		b.WriteString(tt.Kind.String())
	}
}
