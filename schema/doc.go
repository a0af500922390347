// Package schema defines the type-descriptor model walked by the codec.
//
// A descriptor tree mirrors the shape of one message type: structs with
// walkable fields at fixed offsets, tagged unions, fixed arrays, bounded
// strings and vectors, resource handles, and nullable boxed pointers to
// structs or unions. Descriptors carry only what the traversal needs;
// scalar fields are plain inline bytes and do not appear.
//
// Descriptors are normally emitted by a schema compiler. The constructors
// here exist for generated code, tests and tools; the codec treats every
// descriptor as read-only, so one tree may serve any number of concurrent
// encode and decode calls.
package schema
