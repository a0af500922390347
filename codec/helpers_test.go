package codec

import (
	"encoding/binary"

	"github.com/portmux/ipcwire"
	"github.com/portmux/ipcwire/schema"
)

// wirebuf builds little-endian test buffers.
type wirebuf struct {
	b []byte
}

func (w *wirebuf) u32(v uint32) *wirebuf {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.b = append(w.b, tmp[:]...)
	return w
}

func (w *wirebuf) u64(v uint64) *wirebuf {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.b = append(w.b, tmp[:]...)
	return w
}

func (w *wirebuf) raw(p ...byte) *wirebuf {
	w.b = append(w.b, p...)
	return w
}

func (w *wirebuf) pad(n int) *wirebuf {
	w.b = append(w.b, make([]byte, n)...)
	return w
}

func (w *wirebuf) bytes() []byte {
	return w.b
}

// boxedChain returns a descriptor of depth nested boxed structs: the root
// struct holds a pointer to the next, and so on; the innermost is empty.
// Every struct is 8 bytes.
func boxedChain(depth int) *schema.Type {
	t := schema.Struct(8)
	for i := 1; i < depth; i++ {
		t = schema.Struct(8, schema.At(0, schema.StructPointer(t)))
	}
	return t
}

// boxedChainWire returns the wire form of a boxedChain(depth) message:
// depth regions of 8 bytes, all but the last holding a present sentinel.
func boxedChainWire(depth int) []byte {
	var w wirebuf
	for i := 1; i < depth; i++ {
		w.u64(ipcwire.AllocPresent)
	}
	w.pad(8)
	return w.bytes()
}

// boxedChainMem returns the in-memory form of the same message: each pointer
// slot holds the offset of the next 8-byte region.
func boxedChainMem(depth int) []byte {
	var w wirebuf
	for i := 1; i < depth; i++ {
		w.u64(uint64(8 * i))
	}
	w.pad(8)
	return w.bytes()
}
