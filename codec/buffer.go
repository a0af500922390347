package codec

import "encoding/binary"

// All multi-byte wire values are little-endian. The bounds checks here are
// the last line of defense against a descriptor whose offsets disagree with
// its sizes; regions reached through arena claims are already validated.

func readU32(b []byte, off uint32) (uint32, bool) {
	if uint64(off)+4 > uint64(len(b)) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b[off:]), true
}

func readU64(b []byte, off uint32) (uint64, bool) {
	if uint64(off)+8 > uint64(len(b)) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b[off:]), true
}

func writeU32(b []byte, off uint32, v uint32) bool {
	if uint64(off)+4 > uint64(len(b)) {
		return false
	}
	binary.LittleEndian.PutUint32(b[off:], v)
	return true
}

func writeU64(b []byte, off uint32, v uint64) bool {
	if uint64(off)+8 > uint64(len(b)) {
		return false
	}
	binary.LittleEndian.PutUint64(b[off:], v)
	return true
}
