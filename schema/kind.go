package schema

type Kind uint8

const (
	KindStruct Kind = iota
	KindStructPointer
	KindUnion
	KindUnionPointer
	KindArray
	KindString
	KindHandle
	KindVector
)

var kindNames = [...]string{
	KindStruct:        "struct",
	KindStructPointer: "struct pointer",
	KindUnion:         "union",
	KindUnionPointer:  "union pointer",
	KindArray:         "array",
	KindString:        "string",
	KindHandle:        "handle",
	KindVector:        "vector",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsBoxed reports whether the kind is an out-of-line pointer shape.
func (k Kind) IsBoxed() bool {
	return k == KindStructPointer || k == KindUnionPointer
}

// InlineSlotSize returns the primary-region bytes the shape's own slot
// occupies, where that is fixed by the wire format rather than the schema.
// Struct, union and array sizes come from the descriptor instead.
func (k Kind) InlineSlotSize() uint32 {
	switch k {
	case KindStructPointer, KindUnionPointer:
		return 8
	case KindString, KindVector:
		return 16 // u64 length/count + u64 data slot
	case KindHandle:
		return 4
	default:
		return 0
	}
}
