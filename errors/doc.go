// Package errors provides structured error types for the ipcwire codec.
//
// Errors are categorized by Phase (encode or decode) and Kind (error
// category). The Error type includes rich context: field path, offending
// value, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindBadSentinel).
//		Path("profile", "avatar").
//		Detail("unexpected sentinel value 0x%x", v).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidDiscriminant(errors.PhaseDecode, tag, memberCount)
//	err := errors.BoundExceeded(errors.PhaseEncode, "vector", count, max)
//
// All errors implement the standard error interface and support errors.Is/As.
// Is matches on Phase and Kind, so callers can classify failures without
// string inspection.
package errors
