package aravis

import (
	"errors"
	"fmt"
)

var (
	// ErrLibraryNotFound is returned when libaravis or one of its GLib
	// dependencies cannot be loaded by any probe.
	ErrLibraryNotFound = errors.New("aravis: native library not found")

	// ErrClosed is returned by every operation on a wrapper that has been
	// closed.
	ErrClosed = errors.New("aravis: resource already released")

	// ErrUnsupported is returned when the loaded libaravis lacks the entry
	// point behind an operation.
	ErrUnsupported = errors.New("aravis: operation not supported by the loaded library")

	// ErrNoBuffer is returned by the pop operations when no buffer became
	// available.
	ErrNoBuffer = errors.New("aravis: no buffer available")

	// ErrBufferQueued is returned when a buffer is accessed while it is owned
	// by a stream.
	ErrBufferQueued = errors.New("aravis: buffer is queued in a stream")
)

// Error is a GError reported by the native library.
type Error struct {
	Op      string // Operation that failed
	Domain  string // GError domain
	Code    int    // GError code
	Message string // GError message
}

func (e *Error) Error() string {
	if e.Domain == "" {
		return fmt.Sprintf("aravis.%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("aravis.%s: %s (%s:%d)", e.Op, e.Message, e.Domain, e.Code)
}

// takeError converts a GError into an *Error and frees the native error.
func takeError(op string, gerr *gError) error {
	if gerr == nil {
		return nil
	}
	e := &Error{
		Op:      op,
		Code:    int(gerr.code),
		Message: goString(gerr.message),
	}
	if g_quark_to_string != nil {
		e.Domain = g_quark_to_string(gerr.domain)
	}
	if e.Message == "" {
		e.Message = "unknown error"
	}
	if g_error_free != nil {
		g_error_free(gerr)
	}
	return e
}

func closedError(kind string) error {
	return fmt.Errorf("%s: %w", kind, ErrClosed)
}
