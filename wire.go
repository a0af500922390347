package ipcwire

import "math"

// Wire format constants shared by the encode and decode directions. These
// are fixed protocol values, not configuration: both sides of a channel must
// agree on them or round-trips break.
const (
	// Alignment is the out-of-line object alignment. Every arena claim
	// rounds the next free offset up to this boundary, and the primary
	// region is rounded up the same way before the arena begins.
	Alignment = 8

	// MaxRecursionDepth bounds type-tree nesting during a traversal.
	// Deeper messages are rejected rather than walked.
	MaxRecursionDepth = 32
)

// Presence sentinels for pointer-sized slots: boxed struct/union pointers
// and string/vector data slots. Any other bit pattern observed during
// decode is a protocol violation.
const (
	AllocPresent uint64 = math.MaxUint64
	AllocAbsent  uint64 = 0
)

// Presence sentinels for handle slots.
const (
	HandlePresent uint32 = math.MaxUint32
	HandleAbsent  uint32 = 0
)

// Handle is an opaque reference to a transport-managed resource carried in
// a message's handle array. Handle 0 is reserved and always invalid.
type Handle uint32

// HandleInvalid is the null handle value.
const HandleInvalid Handle = 0

// Message is a raw byte buffer plus handle array pair as delivered or
// consumed by a transport. The codec mutates both in place; storage is
// caller-owned and caller-sized, never allocated or freed here.
type Message struct {
	Bytes   []byte
	Handles []Handle
}

// Disposer releases handles the codec must discharge on failure paths.
// Implementations must tolerate being called at most once per handle; the
// codec never closes the same handle twice.
type Disposer interface {
	Close(Handle)
}

// NopDisposer discards handles without releasing anything. It is the
// default disposer for callers whose handles are plain values with no
// backing resource.
type NopDisposer struct{}

func (NopDisposer) Close(Handle) {}
