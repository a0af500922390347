// Package ipcwire defines the wire-format contract for a schema-driven
// inter-process message codec.
//
// A message is a byte buffer plus a side-channel array of resource handles.
// The buffer begins with a primary (inline) region holding the root struct,
// followed by an out-of-line region holding boxed objects and variable-length
// payloads, claimed sequentially at 8-byte alignment. Optional and
// out-of-line values are represented inline by presence sentinels.
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	ipcwire/          Root package with wire constants, Handle, Message, Disposer
//	├── schema/       Type-descriptor model consumed by the codec
//	├── codec/        Decode and encode engines (the hot path)
//	├── handletab/    In-process handle table backing Disposer in tests/tools
//	├── errors/       Structured error types for debugging
//	└── cmd/inspect/  Interactive message inspector
//
// # Wire Layout
//
// Slots in the primary region, by descriptor shape:
//
//	Shape            Inline representation
//	─────────────────────────────────────────────────────
//	struct           fields at fixed offsets, Size bytes
//	struct pointer   u64 presence sentinel
//	union            u32 tag, payload at PayloadOffset
//	union pointer    u64 presence sentinel
//	array            Count elements at Stride intervals
//	string           u64 length, u64 data sentinel
//	handle           u32 presence sentinel
//	vector           u64 count, u64 data sentinel
//
// Decode rewrites presence sentinels into buffer-relative references and
// handle slots into claimed handle values. Encode performs the inverse,
// accumulating handles into an output array.
//
// # Ownership
//
// The handle array is a linear resource for the duration of one codec call.
// Whatever the outcome, no handle is ever leaked: failed decodes close every
// supplied handle, failed encodes close every handle they collected.
package ipcwire
