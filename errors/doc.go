// Package errors provides structured error types for the SX codec.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the image offset or assembly line it refers to and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindUnknownOpcode).
//		Offset(0x80).
//		Value(0x11).
//		Detail("opcode 0x11 is not assigned").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TruncatedStream(errors.PhaseDecode, off, 6, end)
//	err := errors.UnresolvedString(off, idx, len(table))
//
// Match on kind regardless of phase with the exported sentinels:
//
//	if errors.Is(err, sxerrors.ErrTruncatedStream) { ... }
package errors
