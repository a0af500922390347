package codec

import (
	"github.com/portmux/ipcwire"
	"github.com/portmux/ipcwire/codec/internal/abi"
)

// arenaCursor hands out monotonically increasing byte ranges from the
// out-of-line region of a message. Claims are sequential with no gaps and
// no overlap; the next free offset always sits on an Alignment boundary
// even when the claim itself is an unaligned byte count.
type arenaCursor struct {
	next  uint32
	limit uint32
}

// claim reserves size bytes and returns the offset where they begin. The
// cursor advances to the next alignment boundary past the claim; a claim
// whose rounded end exceeds the buffer, or whose arithmetic overflows,
// is rejected without moving the cursor.
func (a *arenaCursor) claim(size uint32) (uint32, bool) {
	end, ok := abi.SafeAddU32(a.next, size)
	if !ok {
		return 0, false
	}
	next, ok := abi.AlignTo(end, ipcwire.Alignment)
	if !ok || next > a.limit {
		return 0, false
	}
	off := a.next
	a.next = next
	return off, true
}

// done reports whether every buffer byte past the primary region was
// claimed by exactly one allocation.
func (a *arenaCursor) done() bool {
	return a.next == a.limit
}

// handleCursor claims handles sequentially from a decode-side input array.
type handleCursor struct {
	handles []ipcwire.Handle
	next    uint32
}

func (h *handleCursor) claim() (ipcwire.Handle, bool) {
	if h.next == uint32(len(h.handles)) {
		return ipcwire.HandleInvalid, false
	}
	v := h.handles[h.next]
	h.next++
	return v, true
}

func (h *handleCursor) done() bool {
	return h.next == uint32(len(h.handles))
}

// outCursor assigns slots sequentially in an encode-side output array.
type outCursor struct {
	out  []ipcwire.Handle
	next uint32
}

func (o *outCursor) claim(h ipcwire.Handle) bool {
	if o.next == uint32(len(o.out)) {
		return false
	}
	o.out[o.next] = h
	o.next++
	return true
}
