package codec

import (
	"math"

	"go.uber.org/zap"

	"github.com/portmux/ipcwire"
	"github.com/portmux/ipcwire/codec/internal/abi"
	"github.com/portmux/ipcwire/errors"
	"github.com/portmux/ipcwire/schema"
)

// Encoder rewrites an in-memory message into its wire form, replacing live
// buffer-relative references with presence sentinels and moving handles into
// an output array.
//
// The caller must have laid out every out-of-line payload contiguously, in
// traversal order, immediately after the aligned primary region; the encoder
// validates placement and never relocates data.
//
// Unlike decode, an encode traversal does not stop at the first error: it
// records it and keeps walking so every handle still reachable in the
// message is visited and discharged. Only the first error is reported.
//
// An Encoder holds no per-message state and is safe for concurrent use on
// disjoint messages.
type Encoder struct {
	cfg config
}

// NewEncoder creates an encoder. Rejected and failure-path handles are
// discharged through the configured disposer.
func NewEncoder(opts ...Option) *Encoder {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Encoder{cfg: cfg}
}

// encodeState owns the in-flight traversal of a single message.
type encodeState struct {
	data  []byte
	stack frameStack
	arena arenaCursor
	out   outCursor
	err   error
}

// setError retains the first error; later calls are no-ops so the walk can
// continue to completion without losing the original failure.
func (st *encodeState) setError(err error) {
	if st.err == nil {
		st.err = err
	}
}

// Encode rewrites data in place to wire form and moves each present handle
// into handlesOut. It returns the number of output slots filled. The buffer
// must be sized to the exact encoded length: leftover bytes are an error,
// not slack. On failure no handle is leaked: collected handles are closed
// and the output array is zeroed.
func (e *Encoder) Encode(typ *schema.Type, data []byte, handlesOut []ipcwire.Handle) (uint32, error) {
	actual, err := e.run(typ, data, handlesOut)
	if err != nil {
		Logger().Debug("message encode failed", zap.Error(err))
	}
	return actual, err
}

// EncodeMessage encodes msg.Bytes in place, filling msg.Handles and
// truncating it to the handles actually collected.
func (e *Encoder) EncodeMessage(typ *schema.Type, msg *ipcwire.Message) error {
	actual, err := e.Encode(typ, msg.Bytes, msg.Handles)
	if err != nil {
		return err
	}
	msg.Handles = msg.Handles[:actual]
	return nil
}

func (e *Encoder) run(typ *schema.Type, data []byte, handlesOut []ipcwire.Handle) (uint32, error) {
	switch {
	case typ == nil:
		return 0, errors.NullInput(errors.PhaseEncode, "nil type descriptor")
	case data == nil:
		return 0, errors.NullInput(errors.PhaseEncode, "nil byte buffer")
	case typ.Kind != schema.KindStruct:
		return 0, errors.NullInput(errors.PhaseEncode, "message must be a struct")
	case uint64(len(data)) > math.MaxUint32:
		return 0, errors.BufferTooSmall(errors.PhaseEncode, "buffer length %d exceeds 32-bit wire addressing", len(data))
	}

	byteLen := uint32(len(data))
	if typ.Size > byteLen {
		return 0, errors.BufferTooSmall(errors.PhaseEncode, "buffer holds %d bytes, struct needs %d", byteLen, typ.Size)
	}
	primary, ok := abi.AlignTo(typ.Size, ipcwire.Alignment)
	if !ok || primary > byteLen {
		return 0, errors.BufferTooSmall(errors.PhaseEncode, "buffer holds %d bytes, aligned primary region needs %d", byteLen, primary)
	}

	st := encodeState{
		data:  data,
		arena: arenaCursor{next: primary, limit: byteLen},
		out:   outCursor{out: handlesOut},
	}
	st.stack.push(frame{kind: frameDone})
	st.stack.push(structFrame(typ, 0))

	for {
		f := st.stack.top()
		switch f.kind {
		case frameDone:
			if !st.arena.done() {
				st.setError(errors.TrailingBytes(errors.PhaseEncode, st.arena.next, st.arena.limit))
			}
			if st.err != nil {
				// Handles already moved out are owned here now; a failed
				// encode must discharge them before reporting.
				for i := uint32(0); i < st.out.next; i++ {
					if handlesOut[i] != ipcwire.HandleInvalid {
						e.cfg.disposer.Close(handlesOut[i])
					}
					handlesOut[i] = ipcwire.HandleInvalid
				}
				return 0, st.err
			}
			return st.out.next, nil

		case frameStruct:
			if f.index == uint32(len(f.typ.Fields)) {
				st.stack.pop()
				continue
			}
			fld := f.typ.Fields[f.index]
			f.index++
			if err := e.visit(&st, fld.Type, f.offset+fld.Offset); err != nil {
				st.setError(err)
			}

		case frameArray:
			if f.index == f.count {
				st.stack.pop()
				continue
			}
			off := f.offset + f.index*f.stride
			f.index++
			if err := e.visit(&st, f.typ, off); err != nil {
				st.setError(err)
			}

		case frameUnion:
			if err := e.visitUnionTop(&st); err != nil {
				st.setError(err)
			}
		}
	}
}

// visit advances the traversal into one child node, validating placement and
// rewriting live references to wire sentinels. Errors are returned to the
// walk loop, which records them and keeps going.
func (e *Encoder) visit(st *encodeState, t *schema.Type, off uint32) error {
	switch t.Kind {
	case schema.KindStruct:
		if !st.stack.push(structFrame(t, off)) {
			return errors.RecursionDepth(errors.PhaseEncode, "struct")
		}
		return nil
	case schema.KindArray:
		if !st.stack.push(arrayFrame(t.Elem, off, t.Count, t.Stride)) {
			return errors.RecursionDepth(errors.PhaseEncode, "array")
		}
		return nil
	case schema.KindUnion:
		if !st.stack.push(unionFrame(t, off)) {
			return errors.RecursionDepth(errors.PhaseEncode, "union")
		}
		return nil
	case schema.KindStructPointer, schema.KindUnionPointer:
		return e.visitPointer(st, t, off)
	case schema.KindString:
		return e.visitString(st, t, off)
	case schema.KindHandle:
		return e.visitHandle(st, t, off)
	case schema.KindVector:
		return e.visitVector(st, t, off)
	default:
		return errors.NullInput(errors.PhaseEncode, "unknown descriptor kind")
	}
}

func (e *Encoder) visitUnionTop(st *encodeState) error {
	f := *st.stack.top()
	st.stack.pop()

	tag, ok := readU32(st.data, f.offset)
	if !ok {
		return errors.BufferTooSmall(errors.PhaseEncode, "union tag at offset %d outside buffer", f.offset)
	}
	if tag >= uint32(len(f.typ.Members)) {
		return errors.InvalidDiscriminant(errors.PhaseEncode, tag, uint32(len(f.typ.Members)))
	}
	member := f.typ.Members[tag]
	if member == nil {
		return nil
	}
	return e.visit(st, member, f.offset+f.typ.PayloadOffset)
}

func (e *Encoder) visitPointer(st *encodeState, t *schema.Type, off uint32) error {
	slot, ok := readU64(st.data, off)
	if !ok {
		return errors.BufferTooSmall(errors.PhaseEncode, "%s slot at offset %d outside buffer", t.Kind, off)
	}
	if slot == 0 {
		// Null box. Write the absent sentinel explicitly rather than rely on
		// the in-memory null representation being wire-compatible.
		writeU64(st.data, off, ipcwire.AllocAbsent)
		return nil
	}
	expected := st.arena.next
	if slot != uint64(expected) {
		return errors.Placement(uint64(expected), slot)
	}
	if _, ok := st.arena.claim(t.Target.Size); !ok {
		return errors.BufferTooSmall(errors.PhaseEncode,
			"out-of-line %s of %d bytes exceeds buffer", t.Target.Kind, t.Target.Size)
	}
	writeU64(st.data, off, ipcwire.AllocPresent)
	return e.visit(st, t.Target, expected)
}

func (e *Encoder) visitString(st *encodeState, t *schema.Type, off uint32) error {
	length, ok := readU64(st.data, off)
	if !ok {
		return errors.BufferTooSmall(errors.PhaseEncode, "string header at offset %d outside buffer", off)
	}
	slot, ok := readU64(st.data, off+8)
	if !ok {
		return errors.BufferTooSmall(errors.PhaseEncode, "string data slot at offset %d outside buffer", off+8)
	}
	if slot == 0 {
		if !t.Nullable {
			return errors.MissingValue(errors.PhaseEncode, "string")
		}
		if length != 0 {
			return errors.New(errors.PhaseEncode, errors.KindBadSentinel).
				Detail("null string with non-zero length %d", length).
				Build()
		}
		writeU64(st.data, off+8, ipcwire.AllocAbsent)
		return nil
	}
	if length > uint64(t.MaxCount) {
		return errors.BoundExceeded(errors.PhaseEncode, "string", length, t.MaxCount)
	}
	expected := st.arena.next
	if slot != uint64(expected) {
		return errors.Placement(uint64(expected), slot)
	}
	if _, ok := st.arena.claim(uint32(length)); !ok {
		return errors.BufferTooSmall(errors.PhaseEncode, "string of %d bytes exceeds buffer", length)
	}
	writeU64(st.data, off+8, ipcwire.AllocPresent)
	return nil
}

func (e *Encoder) visitHandle(st *encodeState, t *schema.Type, off uint32) error {
	slot, ok := readU32(st.data, off)
	if !ok {
		return errors.BufferTooSmall(errors.PhaseEncode, "handle slot at offset %d outside buffer", off)
	}
	if slot == uint32(ipcwire.HandleInvalid) {
		if !t.Nullable {
			return errors.MissingValue(errors.PhaseEncode, "handle")
		}
		writeU32(st.data, off, ipcwire.HandleAbsent)
		return nil
	}
	h := ipcwire.Handle(slot)
	if !st.out.claim(h) {
		// No slot for it, so the handle is discharged right here; the walk
		// continues so the remaining handles get the same treatment.
		e.cfg.disposer.Close(h)
		writeU32(st.data, off, ipcwire.HandleAbsent)
		return errors.HandleMismatch(errors.PhaseEncode,
			"message has more than the %d allowed handles", len(st.out.out))
	}
	writeU32(st.data, off, ipcwire.HandlePresent)
	return nil
}

func (e *Encoder) visitVector(st *encodeState, t *schema.Type, off uint32) error {
	count, ok := readU64(st.data, off)
	if !ok {
		return errors.BufferTooSmall(errors.PhaseEncode, "vector header at offset %d outside buffer", off)
	}
	slot, ok := readU64(st.data, off+8)
	if !ok {
		return errors.BufferTooSmall(errors.PhaseEncode, "vector data slot at offset %d outside buffer", off+8)
	}
	if slot == 0 {
		if !t.Nullable {
			return errors.MissingValue(errors.PhaseEncode, "vector")
		}
		if count != 0 {
			return errors.New(errors.PhaseEncode, errors.KindBadSentinel).
				Detail("null vector with non-zero count %d", count).
				Build()
		}
		writeU64(st.data, off+8, ipcwire.AllocAbsent)
		return nil
	}
	if count > uint64(t.MaxCount) {
		return errors.BoundExceeded(errors.PhaseEncode, "vector", count, t.MaxCount)
	}
	size, ok := abi.SafeMulU32(uint32(count), t.Stride)
	if !ok {
		return errors.Overflow(errors.PhaseEncode, "vector size %d * %d overflows", count, t.Stride)
	}
	expected := st.arena.next
	if slot != uint64(expected) {
		return errors.Placement(uint64(expected), slot)
	}
	if _, ok := st.arena.claim(size); !ok {
		return errors.BufferTooSmall(errors.PhaseEncode, "vector of %d bytes exceeds buffer", size)
	}
	writeU64(st.data, off+8, ipcwire.AllocPresent)
	if t.Elem == nil {
		return nil
	}
	if !st.stack.push(arrayFrame(t.Elem, expected, uint32(count), t.Stride)) {
		return errors.RecursionDepth(errors.PhaseEncode, "array")
	}
	return nil
}
