package types

// NoConversion is the rank reported for pairs without an automatic conversion.
const NoConversion = ^uint32(0)

// scalarRanks lists the WGSL automatic conversion ranks between scalar kinds.
// Identity conversions have rank 0 and are handled separately.
var scalarRanks = map[[2]Kind]uint32{
	{KindAbstractFloat, KindF32}:         1,
	{KindAbstractFloat, KindF16}:         2,
	{KindAbstractInt, KindI32}:           3,
	{KindAbstractInt, KindU32}:           4,
	{KindAbstractInt, KindAbstractFloat}: 5,
	{KindAbstractInt, KindF32}:           6,
	{KindAbstractInt, KindF16}:           7,
}

// ConversionRank returns the rank of the automatic conversion from -> to.
// The second result is false when no such conversion exists.
func (in *Interner) ConversionRank(from, to TypeID) (uint32, bool) {
	if from == to && from != NoTypeID {
		return 0, true
	}
	ft, okFrom := in.Lookup(from)
	tt, okTo := in.Lookup(to)
	if !okFrom || !okTo {
		return NoConversion, false
	}
	if ft.Kind.IsScalar() && tt.Kind.IsScalar() {
		rank, ok := scalarRanks[[2]Kind{ft.Kind, tt.Kind}]
		if !ok {
			return NoConversion, false
		}
		return rank, true
	}
	if ft.Kind != tt.Kind {
		return NoConversion, false
	}
	switch ft.Kind {
	case KindVector, KindArray:
		if ft.Count != tt.Count {
			return NoConversion, false
		}
		return in.ConversionRank(ft.Elem, tt.Elem)
	case KindMatrix:
		if ft.Count != tt.Count || ft.Rows != tt.Rows {
			return NoConversion, false
		}
		return in.ConversionRank(ft.Elem, tt.Elem)
	}
	return NoConversion, false
}

// CanConvert reports whether from converts automatically to to.
func (in *Interner) CanConvert(from, to TypeID) bool {
	_, ok := in.ConversionRank(from, to)
	return ok
}

// Common returns the type that every id converts to automatically, or
// NoTypeID if the list has no such type.
func (in *Interner) Common(ids ...TypeID) TypeID {
	if len(ids) == 0 {
		return NoTypeID
	}
	common := ids[0]
	if common == NoTypeID {
		return NoTypeID
	}
	for _, ty := range ids[1:] {
		switch {
		case ty == NoTypeID:
			return NoTypeID
		case ty == common:
		case in.CanConvert(ty, common):
		case in.CanConvert(common, ty):
			common = ty
		default:
			return NoTypeID
		}
	}
	return common
}
