package codec

import (
	"github.com/portmux/ipcwire"
	"github.com/portmux/ipcwire/schema"
)

type frameKind uint8

const (
	frameDone frameKind = iota
	frameStruct
	frameArray
	frameUnion
)

// frame is one unit of traversal state: which node of the type tree is being
// walked and where its storage starts in the message buffer.
//
// For struct frames typ is the struct descriptor and index the next field.
// For array frames typ is the element descriptor; count and stride come from
// either an array descriptor or a vector header. For union frames typ is the
// union descriptor; the tag has not been read yet.
type frame struct {
	typ    *schema.Type
	offset uint32
	index  uint32
	count  uint32
	stride uint32
	kind   frameKind
}

func structFrame(t *schema.Type, offset uint32) frame {
	return frame{kind: frameStruct, typ: t, offset: offset}
}

func arrayFrame(elem *schema.Type, offset, count, stride uint32) frame {
	return frame{kind: frameArray, typ: elem, offset: offset, count: count, stride: stride}
}

func unionFrame(t *schema.Type, offset uint32) frame {
	return frame{kind: frameUnion, typ: t, offset: offset}
}

// frameStack is the fixed-capacity explicit stack backing the tree walk.
// Capacity is MaxRecursionDepth nesting levels plus the terminal sentinel;
// the walk never uses native call-stack recursion, so worst-case stack usage
// is independent of input shape. Exceeding capacity is a hard error, never
// a grow.
type frameStack struct {
	frames [ipcwire.MaxRecursionDepth + 1]frame
	depth  int
}

func (s *frameStack) push(f frame) bool {
	if s.depth == len(s.frames) {
		return false
	}
	s.frames[s.depth] = f
	s.depth++
	return true
}

func (s *frameStack) pop() {
	s.depth--
}

func (s *frameStack) top() *frame {
	return &s.frames[s.depth-1]
}
