// Package errors provides structured error types for the extension host.
//
// Errors are categorized by Phase (where in the host the error occurred) and
// Kind (error category). The taxonomy mirrors the host's recovery policy:
// load and registry errors abort one operation, while guest failures, runtime
// faults, and protocol codec errors are recovered in-loop as Error responses.
//
// Use convenience constructors for common patterns:
//
//	err := errors.ExtensionNotFound("/path/to/extension.wasm")
//	err := errors.GuestFailure("tool 'missing_tool' not found")
//	err := errors.Fault(trapErr, "call update")
//
// All errors implement the standard error interface and support errors.Is/As.
// Matching with errors.Is compares Phase and Kind, so sentinel checks like
//
//	errors.Is(err, &errors.Error{Phase: errors.PhaseRegistry, Kind: errors.KindNotFound})
//
// work regardless of the detail text.
package errors
