package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in the host the error occurred
type Phase string

const (
	PhaseLoad     Phase = "load"     // reading and compiling extension binaries
	PhaseProtocol Phase = "protocol" // command/response wire codec
	PhaseGuest    Phase = "guest"    // failures reported by the guest itself
	PhaseRuntime  Phase = "runtime"  // VM-level execution faults
	PhaseRegistry Phase = "registry" // registry bookkeeping
	PhaseData     Phase = "data"     // columnar normalization
)

// Kind categorizes the error
type Kind string

const (
	KindExtensionNotFound Kind = "extension_not_found"
	KindInvalidBinary     Kind = "invalid_binary"
	KindMissingExport     Kind = "missing_export"
	KindConstructorFailed Kind = "constructor_failed"
	KindEncodeFailed      Kind = "encode_failed"
	KindDecodeFailed      Kind = "decode_failed"
	KindGuestFailure      Kind = "guest_failure"
	KindFault             Kind = "fault"
	KindNotFound          Kind = "not_found"
	KindAlreadyExists     Kind = "already_exists"
	KindSendFailed        Kind = "send_failed"
	KindInvalidShape      Kind = "invalid_shape"
	KindBuildFailed       Kind = "build_failed"
)

// Error is the structured error type used throughout the host
type Error struct {
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

// New creates an error with the given phase and kind
func New(phase Phase, kind Kind, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{Phase: phase, Kind: kind, Detail: detail}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{Phase: phase, Kind: kind, Detail: detail, Cause: cause}
}

// Convenience constructors for common error patterns

// ExtensionNotFound creates a load error for a missing extension binary
func ExtensionNotFound(path string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindExtensionNotFound,
		Detail: fmt.Sprintf("extension not found: %s", path),
	}
}

// InvalidBinary creates a load error for a binary that fails to compile
func InvalidBinary(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidBinary,
		Detail: "binary failed to compile",
		Cause:  cause,
	}
}

// MissingExport creates a load error for a guest missing a required export
func MissingExport(name string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindMissingExport,
		Detail: fmt.Sprintf("guest does not export %q", name),
	}
}

// ConstructorFailed creates a load error for a failing guest constructor
func ConstructorFailed(cause error, detail string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindConstructorFailed,
		Detail: detail,
		Cause:  cause,
	}
}

// GuestFailure creates an error carrying a failure string reported by the guest.
// The message is preserved verbatim so callers can surface it unchanged.
func GuestFailure(message string) *Error {
	return &Error{
		Phase:  PhaseGuest,
		Kind:   KindGuestFailure,
		Detail: message,
	}
}

// Fault creates a runtime error for a VM-level fault during a guest call
func Fault(cause error, context string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindFault,
		Detail: context,
		Cause:  cause,
	}
}

// NotFound creates a registry error for an unknown extension id
func NotFound(id string) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("extension %q not found", id),
	}
}

// AlreadyExists creates a registry error for a duplicate extension id
func AlreadyExists(id string) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindAlreadyExists,
		Detail: fmt.Sprintf("extension %q already registered", id),
	}
}

// SendFailed creates a registry error for a send to a terminated instance
func SendFailed(id string) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindSendFailed,
		Detail: fmt.Sprintf("extension %q is no longer accepting commands", id),
	}
}

// InvalidShape creates a data error for a payload that is not tabular
func InvalidShape(detail string) *Error {
	return &Error{
		Phase:  PhaseData,
		Kind:   KindInvalidShape,
		Detail: detail,
	}
}

// BuildFailed creates a data error for a table that cannot be assembled
func BuildFailed(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseData,
		Kind:   KindBuildFailed,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// GuestMessage extracts the verbatim failure string from a guest-reported
// error. Returns false for faults and every other error class.
func GuestMessage(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) && e.Phase == PhaseGuest && e.Kind == KindGuestFailure {
		return e.Detail, true
	}
	return "", false
}
