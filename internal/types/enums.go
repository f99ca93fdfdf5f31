package types

import "fmt"

// AddressSpace is the memory space of a pointer. Values double as intrinsic
// template numbers, so the numbering is stable.
type AddressSpace uint8

const (
	AddressSpaceUndefined AddressSpace = iota
	AddressSpaceFunction
	AddressSpacePrivate
	AddressSpaceWorkgroup
	AddressSpaceUniform
	AddressSpaceStorage
	AddressSpaceHandle
)

var addressSpaceNames = [...]string{
	AddressSpaceUndefined: "undefined",
	AddressSpaceFunction:  "function",
	AddressSpacePrivate:   "private",
	AddressSpaceWorkgroup: "workgroup",
	AddressSpaceUniform:   "uniform",
	AddressSpaceStorage:   "storage",
	AddressSpaceHandle:    "handle",
}

func (s AddressSpace) String() string {
	if int(s) < len(addressSpaceNames) {
		return addressSpaceNames[s]
	}
	return fmt.Sprintf("AddressSpace(%d)", s)
}

// ParseAddressSpace maps WGSL spelling to an AddressSpace.
func ParseAddressSpace(s string) (AddressSpace, bool) {
	for i, name := range addressSpaceNames {
		if i != int(AddressSpaceUndefined) && name == s {
			return AddressSpace(i), true
		}
	}
	return AddressSpaceUndefined, false
}

// Access is the access mode of a pointer.
type Access uint8

const (
	AccessUndefined Access = iota
	AccessRead
	AccessWrite
	AccessReadWrite
)

var accessNames = [...]string{
	AccessUndefined: "undefined",
	AccessRead:      "read",
	AccessWrite:     "write",
	AccessReadWrite: "read_write",
}

func (a Access) String() string {
	if int(a) < len(accessNames) {
		return accessNames[a]
	}
	return fmt.Sprintf("Access(%d)", a)
}

// ParseAccess maps WGSL spelling to an Access.
func ParseAccess(s string) (Access, bool) {
	for i, name := range accessNames {
		if i != int(AccessUndefined) && name == s {
			return Access(i), true
		}
	}
	return AccessUndefined, false
}

// DefaultAccess returns the access mode WGSL implies for a pointer in space.
func DefaultAccess(space AddressSpace) Access {
	switch space {
	case AddressSpaceUniform, AddressSpaceHandle:
		return AccessRead
	case AddressSpaceStorage:
		return AccessRead
	default:
		return AccessReadWrite
	}
}
