package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseHeader      Phase = "header"      // script header parsing
	PhaseDecode      Phase = "decode"      // binary to instruction
	PhaseDisassemble Phase = "disassemble" // instruction to text
	PhaseAssemble    Phase = "assemble"    // text to binary
	PhasePatch       Phase = "patch"       // cross-platform conversion
	PhaseStrtab      Phase = "strtab"      // string table side-file
	PhaseProfile     Phase = "profile"     // profile loading and validation
	PhaseIO          Phase = "io"          // file access
)

// Kind categorizes the error
type Kind string

const (
	KindMalformedHeader    Kind = "malformed_header"
	KindTruncatedImage     Kind = "truncated_image"
	KindTruncatedStream    Kind = "truncated_stream"
	KindUnknownOpcode      Kind = "unknown_opcode"
	KindUnknownArgType     Kind = "unknown_arg_type"
	KindUnresolvedString   Kind = "unresolved_string"
	KindMissingOperand     Kind = "missing_operand"
	KindInvalidOperand     Kind = "invalid_operand"
	KindInvalidInput       Kind = "invalid_input"
	KindIOFailure          Kind = "io_failure"
	KindInvalidConfig      Kind = "invalid_config"
	KindRemapOverflow      Kind = "remap_overflow"
	KindUnsupportedVariant Kind = "unsupported_variant"
)

// Error is the structured error type used throughout the codec.
// Offset is a byte position in the image (-1 when not applicable) and Line is
// a 1-based source line for assembler errors (0 when not applicable).
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Offset int
	Line   int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Offset >= 0 {
		fmt.Fprintf(&b, " at 0x%08X", e.Offset)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " on line %d", e.Line)
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

// Is reports whether target matches this error. A target with an empty
// Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel targets for errors.Is. They match any phase.
var (
	ErrMalformedHeader  = &Error{Kind: KindMalformedHeader, Offset: -1}
	ErrTruncatedImage   = &Error{Kind: KindTruncatedImage, Offset: -1}
	ErrTruncatedStream  = &Error{Kind: KindTruncatedStream, Offset: -1}
	ErrUnknownOpcode    = &Error{Kind: KindUnknownOpcode, Offset: -1}
	ErrUnknownArgType   = &Error{Kind: KindUnknownArgType, Offset: -1}
	ErrUnresolvedString = &Error{Kind: KindUnresolvedString, Offset: -1}
	ErrMissingOperand   = &Error{Kind: KindMissingOperand, Offset: -1}
	ErrInvalidOperand   = &Error{Kind: KindInvalidOperand, Offset: -1}
	ErrIOFailure        = &Error{Kind: KindIOFailure, Offset: -1}
	ErrInvalidConfig    = &Error{Kind: KindInvalidConfig, Offset: -1}
)

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Offset sets the image byte offset
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Line sets the source line
func (b *Builder) Line(line int) *Builder {
	b.err.Line = line
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

// TruncatedStream creates an error for an instruction running past its region
func TruncatedStream(phase Phase, offset, need, end int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTruncatedStream,
		Offset: offset,
		Detail: fmt.Sprintf("instruction needs %d bytes, region ends at 0x%08X", need, end),
		Value:  need,
	}
}

// UnknownOpcode creates an error for an opcode outside the closed set
func UnknownOpcode(phase Phase, offset int, value any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownOpcode,
		Offset: offset,
		Detail: fmt.Sprintf("unknown opcode %v", value),
		Value:  value,
	}
}

// UnknownArgType creates an error for an argument type outside the closed set
func UnknownArgType(phase Phase, offset int, value any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownArgType,
		Offset: offset,
		Detail: fmt.Sprintf("unknown argument type %v", value),
		Value:  value,
	}
}

// MalformedHeader creates a header parsing error
func MalformedHeader(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseHeader,
		Kind:   KindMalformedHeader,
		Offset: -1,
		Detail: detail,
		Cause:  cause,
	}
}

// TruncatedImage creates an error for a declared image size past the buffer
func TruncatedImage(end, length int) *Error {
	return &Error{
		Phase:  PhaseHeader,
		Kind:   KindTruncatedImage,
		Offset: -1,
		Detail: fmt.Sprintf("code region ends at 0x%08X, buffer holds 0x%08X bytes", end, length),
		Value:  end,
	}
}

// UnresolvedString creates an error for a string table index out of range
func UnresolvedString(offset int, index uint32, size int) *Error {
	return &Error{
		Phase:  PhaseDisassemble,
		Kind:   KindUnresolvedString,
		Offset: offset,
		Detail: fmt.Sprintf("string index %d out of range (table holds %d)", index, size),
		Value:  index,
	}
}

// Assemble creates an assembler error pinned to a source line
func Assemble(kind Kind, line int, detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseAssemble,
		Kind:   kind,
		Offset: -1,
		Line:   line,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// InvalidConfig creates a profile validation error
func InvalidConfig(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseProfile,
		Kind:   KindInvalidConfig,
		Offset: -1,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// IO wraps a file system failure
func IO(op, path string, cause error) *Error {
	return &Error{
		Phase:  PhaseIO,
		Kind:   KindIOFailure,
		Offset: -1,
		Detail: fmt.Sprintf("%s %s", op, path),
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Offset: -1,
		Detail: detail,
		Cause:  cause,
	}
}
