package codec

import (
	"math"

	"go.uber.org/zap"

	"github.com/portmux/ipcwire"
	"github.com/portmux/ipcwire/codec/internal/abi"
	"github.com/portmux/ipcwire/errors"
	"github.com/portmux/ipcwire/schema"
)

// Decoder validates and fixes up wire messages received from a peer.
//
// Decode operates on untrusted bytes: every length, count, discriminant and
// sentinel is checked before use, all size arithmetic is overflow-checked,
// and the traversal runs on a fixed-capacity explicit stack so hostile
// nesting cannot exhaust the call stack.
//
// A Decoder holds no per-message state and is safe for concurrent use on
// disjoint messages.
type Decoder struct {
	cfg config
}

// NewDecoder creates a decoder. Handles are discharged through the
// configured disposer when a message is rejected.
func NewDecoder(opts ...Option) *Decoder {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Decoder{cfg: cfg}
}

// decodeState owns the in-flight traversal of a single message.
type decodeState struct {
	data    []byte
	stack   frameStack
	arena   arenaCursor
	handles handleCursor
}

// Decode checks data against typ and rewrites presence sentinels into
// buffer-relative references and handle slots into values claimed from
// handles. On success every buffer byte and every handle has been consumed
// exactly once. On failure every supplied handle is closed, the handle
// array is zeroed, and no partial decode is exposed.
func (d *Decoder) Decode(typ *schema.Type, data []byte, handles []ipcwire.Handle) error {
	err := d.run(typ, data, handles)
	if err != nil {
		// The whole handle array was transferred in with the message, so a
		// rejected message must not leak even the handles no slot claimed.
		for i, h := range handles {
			if h != ipcwire.HandleInvalid {
				d.cfg.disposer.Close(h)
			}
			handles[i] = ipcwire.HandleInvalid
		}
		Logger().Debug("message decode failed", zap.Error(err))
	}
	return err
}

// DecodeMessage decodes a transport-delivered buffer pair in place.
func (d *Decoder) DecodeMessage(typ *schema.Type, msg *ipcwire.Message) error {
	return d.Decode(typ, msg.Bytes, msg.Handles)
}

func (d *Decoder) run(typ *schema.Type, data []byte, handles []ipcwire.Handle) error {
	switch {
	case typ == nil:
		return errors.NullInput(errors.PhaseDecode, "nil type descriptor")
	case data == nil:
		return errors.NullInput(errors.PhaseDecode, "nil byte buffer")
	case typ.Kind != schema.KindStruct:
		return errors.NullInput(errors.PhaseDecode, "message must be a struct")
	case uint64(len(data)) > math.MaxUint32:
		return errors.BufferTooSmall(errors.PhaseDecode, "buffer length %d exceeds 32-bit wire addressing", len(data))
	}

	byteLen := uint32(len(data))
	if typ.Size > byteLen {
		return errors.BufferTooSmall(errors.PhaseDecode, "buffer holds %d bytes, struct needs %d", byteLen, typ.Size)
	}
	primary, ok := abi.AlignTo(typ.Size, ipcwire.Alignment)
	if !ok || primary > byteLen {
		return errors.BufferTooSmall(errors.PhaseDecode, "buffer holds %d bytes, aligned primary region needs %d", byteLen, primary)
	}

	st := decodeState{
		data:    data,
		arena:   arenaCursor{next: primary, limit: byteLen},
		handles: handleCursor{handles: handles},
	}
	st.stack.push(frame{kind: frameDone})
	st.stack.push(structFrame(typ, 0))

	for {
		f := st.stack.top()
		switch f.kind {
		case frameDone:
			if !st.arena.done() {
				return errors.TrailingBytes(errors.PhaseDecode, st.arena.next, st.arena.limit)
			}
			if !st.handles.done() {
				return errors.HandleMismatch(errors.PhaseDecode,
					"message specified %d handles, claimed %d", len(handles), st.handles.next)
			}
			return nil

		case frameStruct:
			if f.index == uint32(len(f.typ.Fields)) {
				st.stack.pop()
				continue
			}
			fld := f.typ.Fields[f.index]
			f.index++
			if err := d.visit(&st, fld.Type, f.offset+fld.Offset); err != nil {
				return err
			}

		case frameArray:
			if f.index == f.count {
				st.stack.pop()
				continue
			}
			off := f.offset + f.index*f.stride
			f.index++
			if err := d.visit(&st, f.typ, off); err != nil {
				return err
			}

		case frameUnion:
			if err := d.visitUnionTop(&st); err != nil {
				return err
			}
		}
	}
}

// visit advances the traversal into one child node. Container nodes push a
// frame; leaf nodes are validated and fixed up in place.
func (d *Decoder) visit(st *decodeState, t *schema.Type, off uint32) error {
	switch t.Kind {
	case schema.KindStruct:
		if !st.stack.push(structFrame(t, off)) {
			return errors.RecursionDepth(errors.PhaseDecode, "struct")
		}
		return nil
	case schema.KindArray:
		if !st.stack.push(arrayFrame(t.Elem, off, t.Count, t.Stride)) {
			return errors.RecursionDepth(errors.PhaseDecode, "array")
		}
		return nil
	case schema.KindUnion:
		if !st.stack.push(unionFrame(t, off)) {
			return errors.RecursionDepth(errors.PhaseDecode, "union")
		}
		return nil
	case schema.KindStructPointer, schema.KindUnionPointer:
		return d.visitPointer(st, t, off)
	case schema.KindString:
		return d.visitString(st, t, off)
	case schema.KindHandle:
		return d.visitHandle(st, t, off)
	case schema.KindVector:
		return d.visitVector(st, t, off)
	default:
		return errors.NullInput(errors.PhaseDecode, "unknown descriptor kind")
	}
}

// visitUnionTop consumes the union frame on top of the stack: one tag read,
// then the selected member replaces the union in the traversal.
func (d *Decoder) visitUnionTop(st *decodeState) error {
	f := *st.stack.top()
	st.stack.pop()

	tag, ok := readU32(st.data, f.offset)
	if !ok {
		return errors.BufferTooSmall(errors.PhaseDecode, "union tag at offset %d outside buffer", f.offset)
	}
	if tag >= uint32(len(f.typ.Members)) {
		return errors.InvalidDiscriminant(errors.PhaseDecode, tag, uint32(len(f.typ.Members)))
	}
	member := f.typ.Members[tag]
	if member == nil {
		// Tag-only member, no payload.
		return nil
	}
	return d.visit(st, member, f.offset+f.typ.PayloadOffset)
}

func (d *Decoder) visitPointer(st *decodeState, t *schema.Type, off uint32) error {
	slot, ok := readU64(st.data, off)
	if !ok {
		return errors.BufferTooSmall(errors.PhaseDecode, "%s slot at offset %d outside buffer", t.Kind, off)
	}
	switch slot {
	case ipcwire.AllocAbsent:
		return nil
	case ipcwire.AllocPresent:
		claimed, ok := st.arena.claim(t.Target.Size)
		if !ok {
			return errors.BufferTooSmall(errors.PhaseDecode,
				"out-of-line %s of %d bytes exceeds buffer", t.Target.Kind, t.Target.Size)
		}
		writeU64(st.data, off, uint64(claimed))
		return d.visit(st, t.Target, claimed)
	default:
		return errors.BadSentinel(errors.PhaseDecode, "bad pointer", slot)
	}
}

func (d *Decoder) visitString(st *decodeState, t *schema.Type, off uint32) error {
	length, ok := readU64(st.data, off)
	if !ok {
		return errors.BufferTooSmall(errors.PhaseDecode, "string header at offset %d outside buffer", off)
	}
	slot, ok := readU64(st.data, off+8)
	if !ok {
		return errors.BufferTooSmall(errors.PhaseDecode, "string data slot at offset %d outside buffer", off+8)
	}
	switch slot {
	case ipcwire.AllocAbsent:
		if !t.Nullable {
			return errors.MissingValue(errors.PhaseDecode, "string")
		}
		if length != 0 {
			return errors.New(errors.PhaseDecode, errors.KindBadSentinel).
				Detail("absent string with non-zero length %d", length).
				Build()
		}
		return nil
	case ipcwire.AllocPresent:
		if length > uint64(t.MaxCount) {
			return errors.BoundExceeded(errors.PhaseDecode, "string", length, t.MaxCount)
		}
		claimed, ok := st.arena.claim(uint32(length))
		if !ok {
			return errors.BufferTooSmall(errors.PhaseDecode, "string of %d bytes exceeds buffer", length)
		}
		writeU64(st.data, off+8, uint64(claimed))
		return nil
	default:
		return errors.BadSentinel(errors.PhaseDecode, "string", slot)
	}
}

func (d *Decoder) visitHandle(st *decodeState, t *schema.Type, off uint32) error {
	slot, ok := readU32(st.data, off)
	if !ok {
		return errors.BufferTooSmall(errors.PhaseDecode, "handle slot at offset %d outside buffer", off)
	}
	switch slot {
	case ipcwire.HandleAbsent:
		if !t.Nullable {
			return errors.MissingValue(errors.PhaseDecode, "handle")
		}
		return nil
	case ipcwire.HandlePresent:
		h, ok := st.handles.claim()
		if !ok {
			return errors.HandleMismatch(errors.PhaseDecode,
				"message needs more than the %d provided handles", len(st.handles.handles))
		}
		writeU32(st.data, off, uint32(h))
		return nil
	default:
		return errors.BadSentinel(errors.PhaseDecode, "handle", uint64(slot))
	}
}

func (d *Decoder) visitVector(st *decodeState, t *schema.Type, off uint32) error {
	count, ok := readU64(st.data, off)
	if !ok {
		return errors.BufferTooSmall(errors.PhaseDecode, "vector header at offset %d outside buffer", off)
	}
	slot, ok := readU64(st.data, off+8)
	if !ok {
		return errors.BufferTooSmall(errors.PhaseDecode, "vector data slot at offset %d outside buffer", off+8)
	}
	switch slot {
	case ipcwire.AllocAbsent:
		if !t.Nullable {
			return errors.MissingValue(errors.PhaseDecode, "vector")
		}
		if count != 0 {
			return errors.New(errors.PhaseDecode, errors.KindBadSentinel).
				Detail("absent vector with non-zero count %d", count).
				Build()
		}
		return nil
	case ipcwire.AllocPresent:
		if count > uint64(t.MaxCount) {
			return errors.BoundExceeded(errors.PhaseDecode, "vector", count, t.MaxCount)
		}
		size, ok := abi.SafeMulU32(uint32(count), t.Stride)
		if !ok {
			return errors.Overflow(errors.PhaseDecode, "vector size %d * %d overflows", count, t.Stride)
		}
		claimed, ok := st.arena.claim(size)
		if !ok {
			return errors.BufferTooSmall(errors.PhaseDecode, "vector of %d bytes exceeds buffer", size)
		}
		writeU64(st.data, off+8, uint64(claimed))
		if t.Elem == nil {
			// Opaque payload, nothing to walk.
			return nil
		}
		if !st.stack.push(arrayFrame(t.Elem, claimed, uint32(count), t.Stride)) {
			return errors.RecursionDepth(errors.PhaseDecode, "array")
		}
		return nil
	default:
		return errors.BadSentinel(errors.PhaseDecode, "vector", slot)
	}
}
