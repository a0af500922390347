package schema

import (
	"fmt"
	"math"
	"strings"
)

// Unbounded is the MaxCount value for strings and vectors without a schema
// bound.
const Unbounded uint32 = math.MaxUint32

// Field is one walkable member of a struct: a child descriptor and its byte
// offset from the struct's start. Scalar fields need no fix-ups and are not
// listed; their bytes ride along inside the struct's Size.
type Field struct {
	Type   *Type
	Offset uint32
}

// Type is one node of a type-descriptor tree. Which members are meaningful
// depends on Kind; descriptors are produced by an external schema compiler
// and never mutated by the codec.
type Type struct {
	Elem    *Type   // Array/Vector element; nil vector element means opaque bytes
	Target  *Type   // StructPointer/UnionPointer boxed target
	Fields  []Field // Struct walkable fields, in declared order
	Members []*Type // Union members by tag; nil entry is tag-only

	Size          uint32 // Struct/Union inline size in bytes
	PayloadOffset uint32 // Union payload offset from the tag
	Count         uint32 // Array element count
	Stride        uint32 // Array/Vector element stride
	MaxCount      uint32 // String max byte length / Vector max element count

	Nullable bool // String/Handle/Vector
	Kind     Kind
}

// Struct returns a struct descriptor of the given inline size with the given
// walkable fields.
func Struct(size uint32, fields ...Field) *Type {
	return &Type{Kind: KindStruct, Size: size, Fields: fields}
}

// At pairs a child descriptor with its offset inside a struct.
func At(offset uint32, t *Type) Field {
	return Field{Type: t, Offset: offset}
}

// StructPointer returns a nullable boxed-struct descriptor.
func StructPointer(target *Type) *Type {
	return &Type{Kind: KindStructPointer, Target: target}
}

// Union returns a union descriptor: a u32 tag, then the selected member's
// payload at payloadOffset. A nil member is tag-only. Size covers tag,
// padding and the widest payload, and is what a UnionPointer claims.
func Union(size, payloadOffset uint32, members ...*Type) *Type {
	return &Type{Kind: KindUnion, Size: size, PayloadOffset: payloadOffset, Members: members}
}

// UnionPointer returns a nullable boxed-union descriptor.
func UnionPointer(target *Type) *Type {
	return &Type{Kind: KindUnionPointer, Target: target}
}

// Array returns a fixed-length inline sequence descriptor.
func Array(elem *Type, count, stride uint32) *Type {
	return &Type{Kind: KindArray, Elem: elem, Count: count, Stride: stride}
}

// String returns a bounded string descriptor. Payload bytes live out of
// line; maxLen bounds the byte length.
func String(maxLen uint32, nullable bool) *Type {
	return &Type{Kind: KindString, MaxCount: maxLen, Stride: 1, Nullable: nullable}
}

// Handle returns a resource-handle slot descriptor.
func Handle(nullable bool) *Type {
	return &Type{Kind: KindHandle, Nullable: nullable}
}

// Vector returns a bounded out-of-line sequence descriptor. A nil elem means
// the payload is opaque bytes with no substructure to walk.
func Vector(elem *Type, maxCount, stride uint32, nullable bool) *Type {
	return &Type{Kind: KindVector, Elem: elem, MaxCount: maxCount, Stride: stride, Nullable: nullable}
}

// String renders a compact single-line form of the descriptor tree, for
// error detail and tooling. Boxed targets deeper than a few levels are
// elided to keep output usable on self-referential schemas.
func (t *Type) String() string {
	var b strings.Builder
	t.render(&b, 4)
	return b.String()
}

func (t *Type) render(b *strings.Builder, depth int) {
	if t == nil {
		b.WriteString("-")
		return
	}
	if depth == 0 {
		b.WriteString("...")
		return
	}
	switch t.Kind {
	case KindStruct:
		fmt.Fprintf(b, "struct[%d]{", t.Size)
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(b, "%d:", f.Offset)
			f.Type.render(b, depth-1)
		}
		b.WriteByte('}')
	case KindStructPointer, KindUnionPointer:
		b.WriteByte('*')
		t.Target.render(b, depth-1)
	case KindUnion:
		fmt.Fprintf(b, "union[%d]{", t.Size)
		for i, m := range t.Members {
			if i > 0 {
				b.WriteByte(' ')
			}
			m.render(b, depth-1)
		}
		b.WriteByte('}')
	case KindArray:
		fmt.Fprintf(b, "array<%d x ", t.Count)
		t.Elem.render(b, depth-1)
		b.WriteByte('>')
	case KindString:
		b.WriteString("string")
		if t.MaxCount != Unbounded {
			fmt.Fprintf(b, "<%d>", t.MaxCount)
		}
		if t.Nullable {
			b.WriteByte('?')
		}
	case KindHandle:
		b.WriteString("handle")
		if t.Nullable {
			b.WriteByte('?')
		}
	case KindVector:
		b.WriteString("vector<")
		if t.Elem == nil {
			fmt.Fprintf(b, "%d bytes", t.Stride)
		} else {
			t.Elem.render(b, depth-1)
		}
		b.WriteByte('>')
		if t.MaxCount != Unbounded {
			fmt.Fprintf(b, ":%d", t.MaxCount)
		}
		if t.Nullable {
			b.WriteByte('?')
		}
	default:
		b.WriteString("unknown")
	}
}
