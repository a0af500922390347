// Package codec implements the encode and decode engines for ipcwire
// messages.
//
// Both directions interpret a schema.Type descriptor tree against a byte
// buffer plus handle array, using the same machinery in mirrored roles:
//
//	Decoder  - validates untrusted wire bytes, rewrites presence sentinels
//	           into buffer-relative references and claims handles into slots
//	Encoder  - validates in-memory placement, rewrites references into
//	           sentinels and moves handles into an output array
//
// # Traversal
//
// The walk is driven by an explicit fixed-capacity frame stack rather than
// native recursion: each loop iteration advances the top frame by one unit
// of work (one field, one element, one tag read) and pushes a child frame
// when descending. Nesting beyond MaxRecursionDepth is rejected, bounding
// worst-case stack usage independent of input shape.
//
// # Out-of-line region
//
// Variable-length and boxed payloads live past the aligned primary region
// and are claimed by a monotonic arena cursor at 8-byte alignment. A
// successful traversal consumes the buffer exactly: trailing unclaimed
// bytes fail the call, as do unclaimed handles.
//
// # Handle discipline
//
// No call to this package ever leaks a handle, regardless of outcome.
// Decode treats the whole input handle array as transferred in and closes
// all of it when a message is rejected. Encode keeps walking after its
// first error so that every reachable handle is still collected or closed,
// then discharges the collected ones before reporting the failure.
//
// # Error Handling
//
// Errors use the structured types from the errors package:
//
//	[decode] bad_discriminant: union discriminant 3 out of range (member count 3)
//	[encode] placement: out-of-line data at offset 48, expected 16
//
// # Thread Safety
//
// Decoder and Encoder hold configuration only; per-call traversal state is
// stack-allocated, so concurrent calls on disjoint messages need no
// synchronization.
package codec
