package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which codec direction detected the error
type Phase string

const (
	PhaseEncode Phase = "encode" // in-memory to wire
	PhaseDecode Phase = "decode" // wire to in-memory
)

// Kind categorizes the error
type Kind string

const (
	KindNullInput       Kind = "null_input"       // nil type descriptor or buffer
	KindBufferTooSmall  Kind = "buffer_too_small" // primary or out-of-line region exceeds the buffer
	KindBadSentinel     Kind = "bad_sentinel"     // pointer/string/vector/handle presence violation
	KindBadDiscriminant Kind = "bad_discriminant" // union tag out of range
	KindBoundExceeded   Kind = "bound_exceeded"   // string/vector length over schema max
	KindOverflow        Kind = "overflow"         // size arithmetic overflow
	KindRecursionDepth  Kind = "recursion_depth"  // type-tree nesting too deep
	KindHandleMismatch  Kind = "handle_mismatch"  // too many or too few handles
	KindTrailingBytes   Kind = "trailing_bytes"   // bytes left unclaimed or missing at the end
	KindPlacement       Kind = "placement"        // encode-only: out-of-line data not contiguous in order
)

// Error is the structured error type used throughout the codec
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NullInput creates an error for a nil type descriptor or buffer
func NullInput(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNullInput,
		Detail: what,
	}
}

// BufferTooSmall creates an error for a buffer that cannot hold a region
func BufferTooSmall(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBufferTooSmall,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// BadSentinel creates an error for an invalid presence sentinel bit pattern
func BadSentinel(phase Phase, what string, observed uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBadSentinel,
		Detail: fmt.Sprintf("%s: unexpected sentinel value 0x%x", what, observed),
		Value:  observed,
	}
}

// MissingValue creates an error for an absent non-nullable value
func MissingValue(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBadSentinel,
		Detail: fmt.Sprintf("message is missing a non-nullable %s", what),
	}
}

// InvalidDiscriminant creates an invalid discriminant error for unions
func InvalidDiscriminant(phase Phase, disc, memberCount uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBadDiscriminant,
		Detail: fmt.Sprintf("union discriminant %d out of range (member count %d)", disc, memberCount),
		Value:  disc,
	}
}

// BoundExceeded creates an error for a length or count over the schema bound
func BoundExceeded(phase Phase, what string, got uint64, max uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBoundExceeded,
		Detail: fmt.Sprintf("%s length %d exceeds schema bound %d", what, got, max),
		Value:  got,
	}
}

// Overflow creates a size arithmetic overflow error
func Overflow(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// RecursionDepth creates an error for type-tree nesting past the hard bound
func RecursionDepth(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRecursionDepth,
		Detail: fmt.Sprintf("recursion depth exceeded %scoding %s", phaseVerbPrefix(phase), what),
	}
}

func phaseVerbPrefix(phase Phase) string {
	if phase == PhaseEncode {
		return "en"
	}
	return "de"
}

// HandleMismatch creates an error for a handle count violation
func HandleMismatch(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindHandleMismatch,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// TrailingBytes creates an error for unclaimed bytes after a full traversal
func TrailingBytes(phase Phase, claimed, total uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTrailingBytes,
		Detail: fmt.Sprintf("message claimed %d of %d buffer bytes", claimed, total),
	}
}

// Placement creates an encode-side contiguity violation error
func Placement(expected, got uint64) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindPlacement,
		Detail: fmt.Sprintf("out-of-line data at offset %d, expected %d", got, expected),
		Value:  got,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
