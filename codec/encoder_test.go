package codec

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/portmux/ipcwire"
	coderr "github.com/portmux/ipcwire/errors"
	"github.com/portmux/ipcwire/handletab"
	"github.com/portmux/ipcwire/schema"
)

func TestEncodeEmptyStruct(t *testing.T) {
	e := NewEncoder()
	data := make([]byte, 8)

	actual, err := e.Encode(schema.Struct(8), data, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if actual != 0 {
		t.Errorf("actual handles = %d, want 0", actual)
	}
	if !bytes.Equal(data, make([]byte, 8)) {
		t.Errorf("encoded bytes = % x, want all zero", data)
	}
}

func TestEncodeInputValidation(t *testing.T) {
	e := NewEncoder()
	tests := []struct {
		name string
		typ  *schema.Type
		data []byte
		kind coderr.Kind
	}{
		{"nil type", nil, make([]byte, 8), coderr.KindNullInput},
		{"nil buffer", schema.Struct(8), nil, coderr.KindNullInput},
		{"non-struct root", schema.String(8, false), make([]byte, 8), coderr.KindNullInput},
		{"short buffer", schema.Struct(16), make([]byte, 8), coderr.KindBufferTooSmall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Encode(tt.typ, tt.data, nil)
			wantKind(t, err, tt.kind)
		})
	}
}

// The buffer must be the exact encoded size; slack at the end is rejected,
// not silently tolerated.
func TestEncodeBufferSlack(t *testing.T) {
	e := NewEncoder()
	_, err := e.Encode(schema.Struct(8), make([]byte, 16), nil)
	wantKind(t, err, coderr.KindTrailingBytes)
}

func TestEncodeByteVector(t *testing.T) {
	e := NewEncoder()
	root := schema.Struct(16, schema.At(0, schema.Vector(nil, 10, 1, false)))
	data := (&wirebuf{}).u64(5).u64(16).raw(1, 2, 3, 4, 5).pad(3).bytes()

	actual, err := e.Encode(root, data, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if actual != 0 {
		t.Errorf("actual handles = %d, want 0", actual)
	}
	want := (&wirebuf{}).u64(5).u64(ipcwire.AllocPresent).raw(1, 2, 3, 4, 5).pad(3).bytes()
	if !bytes.Equal(data, want) {
		t.Errorf("encoded bytes:\n got % x\nwant % x", data, want)
	}
}

func TestEncodeString(t *testing.T) {
	root := schema.Struct(16, schema.At(0, schema.String(10, false)))
	nullable := schema.Struct(16, schema.At(0, schema.String(10, true)))

	t.Run("present", func(t *testing.T) {
		e := NewEncoder()
		data := (&wirebuf{}).u64(5).u64(16).raw('h', 'e', 'l', 'l', 'o').pad(3).bytes()
		if _, err := e.Encode(root, data, nil); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if got := binary.LittleEndian.Uint64(data[8:]); got != ipcwire.AllocPresent {
			t.Errorf("data slot = %#x, want present sentinel", got)
		}
	})
	t.Run("nullable null", func(t *testing.T) {
		e := NewEncoder()
		data := (&wirebuf{}).u64(0).u64(0).bytes()
		if _, err := e.Encode(nullable, data, nil); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if got := binary.LittleEndian.Uint64(data[8:]); got != ipcwire.AllocAbsent {
			t.Errorf("data slot = %#x, want absent sentinel", got)
		}
	})
	t.Run("non-nullable null", func(t *testing.T) {
		e := NewEncoder()
		data := (&wirebuf{}).u64(0).u64(0).bytes()
		_, err := e.Encode(root, data, nil)
		wantKind(t, err, coderr.KindBadSentinel)
	})
	t.Run("null with length", func(t *testing.T) {
		e := NewEncoder()
		data := (&wirebuf{}).u64(3).u64(0).bytes()
		_, err := e.Encode(nullable, data, nil)
		wantKind(t, err, coderr.KindBadSentinel)
	})
	t.Run("over bound", func(t *testing.T) {
		e := NewEncoder()
		data := (&wirebuf{}).u64(11).u64(16).pad(16).bytes()
		_, err := e.Encode(root, data, nil)
		wantKind(t, err, coderr.KindBoundExceeded)
	})
}

// Out-of-line payloads must sit exactly where the traversal expects them;
// a reference anywhere else is a placement error, never a relocation.
func TestEncodePlacement(t *testing.T) {
	e := NewEncoder()
	root := schema.Struct(16, schema.At(0, schema.String(10, false)))
	data := (&wirebuf{}).u64(5).u64(24).pad(8).bytes()

	_, err := e.Encode(root, data, nil)
	wantKind(t, err, coderr.KindPlacement)
}

func TestEncodeHandle(t *testing.T) {
	root := schema.Struct(8, schema.At(0, schema.Handle(false)))
	nullable := schema.Struct(8, schema.At(0, schema.Handle(true)))

	t.Run("present", func(t *testing.T) {
		tab := handletab.New()
		e := NewEncoder(WithDisposer(tab))
		h := tab.Create(nil)
		data := (&wirebuf{}).u32(uint32(h)).pad(4).bytes()
		out := make([]ipcwire.Handle, 1)

		actual, err := e.Encode(root, data, out)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if actual != 1 || out[0] != h {
			t.Errorf("out = %v (actual %d), want [%d]", out, actual, h)
		}
		if got := binary.LittleEndian.Uint32(data); got != ipcwire.HandlePresent {
			t.Errorf("handle slot = %#x, want present sentinel", got)
		}
		if !tab.Open(h) {
			t.Error("handle closed by a successful encode")
		}
	})
	t.Run("nullable null", func(t *testing.T) {
		e := NewEncoder()
		data := (&wirebuf{}).u32(0).pad(4).bytes()
		actual, err := e.Encode(nullable, data, nil)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if actual != 0 {
			t.Errorf("actual handles = %d, want 0", actual)
		}
	})
	t.Run("non-nullable null", func(t *testing.T) {
		e := NewEncoder()
		data := (&wirebuf{}).u32(0).pad(4).bytes()
		_, err := e.Encode(root, data, nil)
		wantKind(t, err, coderr.KindBadSentinel)
	})
}

// When the output array is too small, the overflowing handle is closed at
// the point of rejection and the already collected ones on the way out, so
// nothing leaks.
func TestEncodeTooManyHandles(t *testing.T) {
	tab := handletab.New()
	e := NewEncoder(WithDisposer(tab))
	h1 := tab.Create(nil)
	h2 := tab.Create(nil)

	root := schema.Struct(8,
		schema.At(0, schema.Handle(false)),
		schema.At(4, schema.Handle(false)),
	)
	data := (&wirebuf{}).u32(uint32(h1)).u32(uint32(h2)).bytes()
	out := make([]ipcwire.Handle, 1)

	actual, err := e.Encode(root, data, out)
	wantKind(t, err, coderr.KindHandleMismatch)
	if actual != 0 {
		t.Errorf("actual handles = %d on failure, want 0", actual)
	}
	for _, h := range []ipcwire.Handle{h1, h2} {
		if got := tab.CloseCount(h); got != 1 {
			t.Errorf("handle %d closed %d times, want 1", h, got)
		}
	}
	if out[0] != ipcwire.HandleInvalid {
		t.Errorf("out[0] = %d after failed encode, want 0", out[0])
	}
}

// An encode error does not stop the walk: handles past the failure point are
// still collected and then discharged, and the first error is the one
// reported.
func TestEncodeErrorKeepsDischargingHandles(t *testing.T) {
	tab := handletab.New()
	e := NewEncoder(WithDisposer(tab))
	h := tab.Create(nil)

	root := schema.Struct(24,
		schema.At(0, schema.String(10, false)),
		schema.At(16, schema.Handle(false)),
	)
	data := (&wirebuf{}).u64(0).u64(0).u32(uint32(h)).pad(4).bytes()
	out := make([]ipcwire.Handle, 1)

	_, err := e.Encode(root, data, out)
	wantKind(t, err, coderr.KindBadSentinel)
	if got := tab.CloseCount(h); got != 1 {
		t.Errorf("handle closed %d times, want 1", got)
	}
	if out[0] != ipcwire.HandleInvalid {
		t.Errorf("out[0] = %d after failed encode, want 0", out[0])
	}
}

func TestEncodeUnion(t *testing.T) {
	u := schema.Union(16, 8, nil, schema.Handle(false))
	root := schema.Struct(16, schema.At(0, u))

	t.Run("handle member", func(t *testing.T) {
		tab := handletab.New()
		e := NewEncoder(WithDisposer(tab))
		h := tab.Create(nil)
		data := (&wirebuf{}).u32(1).pad(4).u32(uint32(h)).pad(4).bytes()
		out := make([]ipcwire.Handle, 1)

		actual, err := e.Encode(root, data, out)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if actual != 1 || out[0] != h {
			t.Errorf("out = %v (actual %d), want [%d]", out, actual, h)
		}
	})
	t.Run("tag out of range", func(t *testing.T) {
		e := NewEncoder()
		data := (&wirebuf{}).u32(2).pad(12).bytes()
		_, err := e.Encode(root, data, nil)
		wantKind(t, err, coderr.KindBadDiscriminant)
	})
}

func TestEncodeBoxedStruct(t *testing.T) {
	root := schema.Struct(8, schema.At(0, schema.StructPointer(schema.Struct(8))))

	t.Run("present", func(t *testing.T) {
		e := NewEncoder()
		data := (&wirebuf{}).u64(8).pad(8).bytes()
		if _, err := e.Encode(root, data, nil); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if got := binary.LittleEndian.Uint64(data); got != ipcwire.AllocPresent {
			t.Errorf("pointer slot = %#x, want present sentinel", got)
		}
	})
	t.Run("null", func(t *testing.T) {
		e := NewEncoder()
		data := (&wirebuf{}).u64(0).bytes()
		if _, err := e.Encode(root, data, nil); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if got := binary.LittleEndian.Uint64(data); got != ipcwire.AllocAbsent {
			t.Errorf("pointer slot = %#x, want absent sentinel", got)
		}
	})
	t.Run("misplaced", func(t *testing.T) {
		e := NewEncoder()
		data := (&wirebuf{}).u64(24).pad(8).bytes()
		_, err := e.Encode(root, data, nil)
		wantKind(t, err, coderr.KindPlacement)
	})
}

func TestEncodeNestingDepth(t *testing.T) {
	e := NewEncoder()

	data := boxedChainMem(ipcwire.MaxRecursionDepth)
	if _, err := e.Encode(boxedChain(ipcwire.MaxRecursionDepth), data, nil); err != nil {
		t.Fatalf("nesting at the limit rejected: %v", err)
	}
	if !bytes.Equal(data, boxedChainWire(ipcwire.MaxRecursionDepth)) {
		t.Error("encoded chain does not match wire form")
	}

	over := ipcwire.MaxRecursionDepth + 1
	_, err := e.Encode(boxedChain(over), boxedChainMem(over), nil)
	wantKind(t, err, coderr.KindRecursionDepth)
}

func TestEncodeVectorSizeOverflow(t *testing.T) {
	e := NewEncoder()
	root := schema.Struct(16, schema.At(0, schema.Vector(nil, schema.Unbounded, 8, false)))
	data := (&wirebuf{}).u64(1 << 29).u64(16).bytes()

	_, err := e.Encode(root, data, nil)
	wantKind(t, err, coderr.KindOverflow)
}

func TestEncodeMessageTruncatesHandles(t *testing.T) {
	tab := handletab.New()
	e := NewEncoder(WithDisposer(tab))
	h := tab.Create(nil)

	root := schema.Struct(8, schema.At(0, schema.Handle(false)))
	msg := &ipcwire.Message{
		Bytes:   (&wirebuf{}).u32(uint32(h)).pad(4).bytes(),
		Handles: make([]ipcwire.Handle, 4),
	}
	if err := e.EncodeMessage(root, msg); err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	if len(msg.Handles) != 1 || msg.Handles[0] != h {
		t.Errorf("msg.Handles = %v, want [%d]", msg.Handles, h)
	}
}
