package playback

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a recoverable playback failure. The set is closed: every
// error crossing a port boundary carries exactly one of these kinds, and the
// same trigger must map to the same kind on every backend.
type Kind string

const (
	KindInvalidArgument Kind = "invalid_argument"
	KindInvalidState    Kind = "invalid_state"
	KindNotFound        Kind = "not_found"
	KindIOError         Kind = "io_error"
	KindDecodeError     Kind = "decode_error"
	KindUnsupported     Kind = "unsupported"
)

var allKinds = []Kind{
	KindInvalidArgument,
	KindInvalidState,
	KindNotFound,
	KindIOError,
	KindDecodeError,
	KindUnsupported,
}

// ParseKind resolves a kind from its string form, as used in parity vector
// documents. The second return is false for unknown names.
func ParseKind(name string) (Kind, bool) {
	candidate := Kind(strings.TrimSpace(strings.ToLower(name)))
	for _, kind := range allKinds {
		if kind == candidate {
			return kind, true
		}
	}
	return "", false
}

// Error is the classified, recoverable failure type of the playback core.
// Message text is diagnostic only; equivalence across backends is judged on
// Kind alone. The type is immutable after construction and safe to share.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Errorf builds a classified error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapErr classifies a native collaborator failure, preserving it as the
// cause for diagnostics. The wrapped cause never influences classification.
func WrapErr(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the classification from err. The second return is false
// when err is nil or carries no classified error in its chain.
func KindOf(err error) (Kind, bool) {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind, true
	}
	return "", false
}

// AsError returns the classified error in err's chain, or wraps err as an
// ioError when an unclassified failure leaks across a port boundary.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	return WrapErr(KindIOError, "unclassified collaborator failure", err)
}
